package engine

import (
	"testing"

	"roamcost/internal/model"
)

func TestEnumeratePAYGFirstThenCatalogOrder(t *testing.T) {
	cat := testSnapshot()
	u := frTrip(5, model.UsageProfile{AvgDailyMB: 100, AvgDailyMin: 10, AvgDailySMS: 5})

	options, _ := Enumerate(cat, u)
	if len(options) != 4 {
		t.Fatalf("options: got %d, want 4 (payg + 3 overlapping packs)", len(options))
	}
	if options[0].Kind != model.KindPAYG {
		t.Fatalf("first option must be PAYG, got %+v", options[0])
	}
	// packs follow in catalog order; the Asia pack has no overlap and is out
	wantIDs := []int64{1, 2, 3}
	for i, id := range wantIDs {
		if options[i+1].PackID != id {
			t.Fatalf("option %d: got pack %d, want %d", i+1, options[i+1].PackID, id)
		}
	}
}

func TestEnumerateExcludesZeroOverlapPacks(t *testing.T) {
	cat := testSnapshot()
	u := frTrip(5, model.UsageProfile{AvgDailyMB: 100})
	options, _ := Enumerate(cat, u)
	for _, o := range options {
		if o.PackID == 4 {
			t.Fatalf("Asia pack must be excluded for an FR-only trip")
		}
	}
}

func TestEnumerateEmptyTripKeepsAllPacks(t *testing.T) {
	cat := testSnapshot()
	options, _ := Enumerate(cat, Usage{CountryDays: map[string]int{}})
	if len(options) != 5 {
		t.Fatalf("empty trip: got %d options, want payg + all 4 packs", len(options))
	}
}

func TestEnumerateDedupesWarnings(t *testing.T) {
	cat := testSnapshot()
	// CH (no rate) triggers the same blend warning for payg and each pack
	u := Usage{
		Days:        3,
		Need:        model.TotalNeed{GB: 0.3, Min: 9, SMS: 6},
		CountryDays: map[string]int{"CH": 3},
		Visited:     []string{"CH"},
	}
	_, warnings := Enumerate(cat, u)
	count := 0
	for _, w := range warnings {
		if w == "no PAYG rate for country: CH" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("blend warning must appear once, got %d in %v", count, warnings)
	}
}
