package engine

import (
	"strings"
	"testing"

	"roamcost/internal/model"
)

func TestRankByCost(t *testing.T) {
	options := []model.Option{
		{Kind: model.KindPAYG, TotalCost: 19, CoverageHit: true, ValidityOK: true},
		{Kind: model.KindPack, PackID: 1, PackName: "Europe Pack 1GB", NPacks: 1, TotalCost: 20, Currency: "EUR", CoverageHit: true, ValidityOK: true},
		{Kind: model.KindPack, PackID: 3, PackName: "France Week Pass", NPacks: 1, TotalCost: 15, Currency: "EUR", CoverageHit: true, ValidityOK: true},
	}
	rec := Rank(options, DefaultRankWeights())
	if len(rec.Top) != 3 {
		t.Fatalf("top: got %d entries", len(rec.Top))
	}
	if rec.Top[0].TotalCost != 15 || rec.Top[1].TotalCost != 19 || rec.Top[2].TotalCost != 20 {
		t.Fatalf("cost order wrong: %v %v %v", rec.Top[0].TotalCost, rec.Top[1].TotalCost, rec.Top[2].TotalCost)
	}
	if !strings.Contains(rec.Top[0].Explanation, "cheapest option") {
		t.Fatalf("winner explanation: %q", rec.Top[0].Explanation)
	}
	if !strings.Contains(rec.Top[1].Explanation, "+4.00 vs cheapest") {
		t.Fatalf("runner-up explanation: %q", rec.Top[1].Explanation)
	}
	if !strings.Contains(rec.Rationale, "France Week Pass") {
		t.Fatalf("rationale must name the winner: %q", rec.Rationale)
	}
}

func TestRankTieBreakPrefersCoverage(t *testing.T) {
	options := []model.Option{
		{Kind: model.KindPack, PackID: 1, PackName: "A", NPacks: 1, TotalCost: 20, CoverageHit: false, ValidityOK: true},
		{Kind: model.KindPack, PackID: 2, PackName: "B", NPacks: 1, TotalCost: 20, CoverageHit: true, ValidityOK: false},
	}
	rec := Rank(options, DefaultRankWeights())
	if rec.Top[0].Details.PackID != 2 {
		t.Fatalf("coverage must beat validity on ties: got pack %d first", rec.Top[0].Details.PackID)
	}
}

func TestRankTieBreakPrefersPackOverPAYG(t *testing.T) {
	options := []model.Option{
		{Kind: model.KindPAYG, TotalCost: 20, CoverageHit: true, ValidityOK: true},
		{Kind: model.KindPack, PackID: 1, PackName: "A", NPacks: 1, TotalCost: 20, CoverageHit: true, ValidityOK: true},
	}
	rec := Rank(options, DefaultRankWeights())
	if rec.Top[0].Details.Kind != model.KindPack {
		t.Fatalf("pack must beat payg on full ties: got %s first", rec.Top[0].Details.Kind)
	}
}

func TestRankTruncatesToThree(t *testing.T) {
	options := []model.Option{
		{Kind: model.KindPAYG, TotalCost: 10, CoverageHit: true, ValidityOK: true},
		{Kind: model.KindPack, PackID: 1, NPacks: 1, TotalCost: 11},
		{Kind: model.KindPack, PackID: 2, NPacks: 1, TotalCost: 12},
		{Kind: model.KindPack, PackID: 3, NPacks: 1, TotalCost: 13},
		{Kind: model.KindPack, PackID: 4, NPacks: 1, TotalCost: 14},
	}
	rec := Rank(options, DefaultRankWeights())
	if len(rec.Top) != 3 {
		t.Fatalf("top: got %d, want 3", len(rec.Top))
	}
}

func TestRankCoverageMissCalledOut(t *testing.T) {
	options := []model.Option{
		{Kind: model.KindPack, PackID: 1, PackName: "Partial", NPacks: 1, TotalCost: 9, CoverageHit: false, ValidityOK: true},
		{Kind: model.KindPAYG, TotalCost: 12, CoverageHit: true, ValidityOK: true},
	}
	rec := Rank(options, DefaultRankWeights())
	// cheapest wins even without coverage, but the shortfall is explained
	if rec.Top[0].Details.PackID != 1 {
		t.Fatalf("cheapest option must still rank first")
	}
	if !strings.Contains(rec.Top[0].Explanation, "does not cover all visited countries") {
		t.Fatalf("explanation must flag the coverage miss: %q", rec.Top[0].Explanation)
	}
	if !strings.Contains(rec.Rationale, "no option fully satisfies") {
		t.Fatalf("rationale: %q", rec.Rationale)
	}
}

func TestRankOverflowMentioned(t *testing.T) {
	options := []model.Option{
		{Kind: model.KindPack, PackID: 2, PackName: "Month", NPacks: 1, TotalCost: 55.52, CoverageHit: true, ValidityOK: true,
			Overflow: &model.Overflow{DataCost: 19.52, VoiceCost: 6}},
	}
	rec := Rank(options, DefaultRankWeights())
	if !strings.Contains(rec.Top[0].Explanation, "overflow beyond allowance") {
		t.Fatalf("explanation must mention overflow: %q", rec.Top[0].Explanation)
	}
}

func TestRankEmpty(t *testing.T) {
	rec := Rank(nil, DefaultRankWeights())
	if len(rec.Top) != 0 {
		t.Fatalf("empty input: got %d entries", len(rec.Top))
	}
	if rec.Rationale != "no options available" {
		t.Fatalf("rationale: %q", rec.Rationale)
	}
}

func TestRankWeightOverride(t *testing.T) {
	// zero the pack bias: a full tie then keeps input order (stable sort)
	options := []model.Option{
		{Kind: model.KindPAYG, TotalCost: 20, CoverageHit: true, ValidityOK: true},
		{Kind: model.KindPack, PackID: 1, NPacks: 1, TotalCost: 20, CoverageHit: true, ValidityOK: true},
	}
	rec := Rank(options, RankWeights{Coverage: 100, Validity: 10, PackBias: 0})
	if rec.Top[0].Details.Kind != model.KindPAYG {
		t.Fatalf("with zero pack bias the stable order must hold: got %s first", rec.Top[0].Details.Kind)
	}
}
