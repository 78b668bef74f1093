// Package engine implements the roaming cost engine: usage aggregation, cost
// evaluation, option enumeration, and recommendation ranking. It performs no
// I/O and holds no state; every call works against an explicit immutable
// catalog snapshot, so concurrent requests need no coordination.
package engine

import (
	"roamcost/internal/catalog"
	"roamcost/internal/model"
)

// SimulationRequest is the shared input of simulate and recommend.
type SimulationRequest struct {
	UserID  int64               `json:"userId"`
	Trips   []model.TripSegment `json:"trips"`
	Profile model.UsageProfile  `json:"profile"`
}

type Summary struct {
	Days      int             `json:"days"`
	TotalNeed model.TotalNeed `json:"totalNeed"`
}

type SimulationResult struct {
	Summary  Summary        `json:"summary"`
	Options  []model.Option `json:"options"`
	Warnings []string       `json:"warnings"`
}

// Simulate returns the full enumerated option list in enumeration order
// (PAYG first, then packs in catalog order), unranked, plus all accumulated
// warnings.
func Simulate(cat *catalog.Snapshot, req SimulationRequest) (SimulationResult, error) {
	if cat == nil {
		return SimulationResult{}, catalog.ErrUnavailable
	}
	usage, warnings := Aggregate(cat, req.Trips, req.Profile)
	options, evalWarnings := Enumerate(cat, usage)
	warnings = append(warnings, evalWarnings...)
	if warnings == nil {
		warnings = []string{}
	}
	return SimulationResult{
		Summary:  Summary{Days: usage.Days, TotalNeed: usage.Need},
		Options:  options,
		Warnings: warnings,
	}, nil
}

// Recommend ranks the enumerated options and returns the top three with
// rationale.
func Recommend(cat *catalog.Snapshot, req SimulationRequest, weights RankWeights) (Recommendation, []string, error) {
	if cat == nil {
		return Recommendation{}, nil, catalog.ErrUnavailable
	}
	usage, warnings := Aggregate(cat, req.Trips, req.Profile)
	options, evalWarnings := Enumerate(cat, usage)
	warnings = append(warnings, evalWarnings...)
	return Rank(options, weights), warnings, nil
}
