package api

import (
	"fmt"

	"roamcost/internal/engine"
)

// validateSimulationRequest rejects only structurally broken input. Unknown
// countries and inverted ranges are engine warnings, not request errors.
func validateSimulationRequest(req *engine.SimulationRequest) error {
	for i, seg := range req.Trips {
		if seg.CountryCode == "" {
			return fmt.Errorf("trips[%d]: countryCode is required", i)
		}
		if seg.StartDate == "" || seg.EndDate == "" {
			return fmt.Errorf("trips[%d]: startDate and endDate are required", i)
		}
	}
	if req.Profile.AvgDailyMB < 0 || req.Profile.AvgDailyMin < 0 || req.Profile.AvgDailySMS < 0 {
		return fmt.Errorf("profile values must be >= 0")
	}
	return nil
}
