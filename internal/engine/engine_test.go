package engine

import (
	"errors"
	"testing"

	"roamcost/internal/catalog"
	"roamcost/internal/model"
)

func TestSimulateFiveDayTrip(t *testing.T) {
	cat := testSnapshot()
	req := SimulationRequest{
		Trips:   []model.TripSegment{{CountryCode: "FR", StartDate: "2025-03-01", EndDate: "2025-03-05"}},
		Profile: model.UsageProfile{AvgDailyMB: 100, AvgDailyMin: 10, AvgDailySMS: 5},
	}
	res, err := Simulate(cat, req)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.Summary.Days != 5 {
		t.Fatalf("days: got %d", res.Summary.Days)
	}
	if res.Summary.TotalNeed.Min != 50 || res.Summary.TotalNeed.SMS != 25 {
		t.Fatalf("need: %+v", res.Summary.TotalNeed)
	}
	if len(res.Options) == 0 || res.Options[0].Kind != model.KindPAYG {
		t.Fatalf("options must start with PAYG: %+v", res.Options)
	}
	if res.Warnings == nil {
		t.Fatal("warnings must be non-nil for JSON encoding")
	}
}

func TestSimulateNilCatalog(t *testing.T) {
	_, err := Simulate(nil, SimulationRequest{})
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestRecommendPicksCheapestCovering(t *testing.T) {
	cat := testSnapshot()
	req := SimulationRequest{
		Trips:   []model.TripSegment{{CountryCode: "FR", StartDate: "2025-03-01", EndDate: "2025-03-05"}},
		Profile: model.UsageProfile{AvgDailyMB: 100, AvgDailyMin: 10, AvgDailySMS: 5},
	}
	rec, _, err := Recommend(cat, req, DefaultRankWeights())
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(rec.Top) != 3 {
		t.Fatalf("top: got %d", len(rec.Top))
	}
	// France Week Pass at 15 beats PAYG 19 and Europe Pack 20
	if rec.Top[0].Details.PackID != 3 {
		t.Fatalf("winner: got %+v", rec.Top[0].Details)
	}
}

func TestRecommendNilCatalog(t *testing.T) {
	_, _, err := Recommend(nil, SimulationRequest{}, DefaultRankWeights())
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
