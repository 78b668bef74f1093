package engine

import (
	"testing"

	"roamcost/internal/model"
)

func frTrip(days int, profile model.UsageProfile) Usage {
	return Usage{
		Days:        days,
		Need:        model.TotalNeed{GB: float64(profile.AvgDailyMB*days) / 1024.0, Min: profile.AvgDailyMin * days, SMS: profile.AvgDailySMS * days},
		CountryDays: map[string]int{"FR": days},
		Visited:     []string{"FR"},
	}
}

func TestEvaluatePAYGSingleCountry(t *testing.T) {
	cat := testSnapshot()
	u := frTrip(5, model.UsageProfile{AvgDailyMB: 100, AvgDailyMin: 10, AvgDailySMS: 5})
	opt, warnings := EvaluatePAYG(cat, u)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	// 500MB*0.02 + 50min*0.15 + 25sms*0.06 = 10 + 7.5 + 1.5
	if opt.TotalCost != 19 {
		t.Fatalf("payg cost: got %v, want 19", opt.TotalCost)
	}
	if opt.Kind != model.KindPAYG || opt.NPacks != 0 {
		t.Fatalf("payg shape: %+v", opt)
	}
	if !opt.CoverageHit || !opt.ValidityOK {
		t.Fatalf("payg must always satisfy coverage and validity: %+v", opt)
	}
	if opt.Currency != "EUR" {
		t.Fatalf("currency: got %q", opt.Currency)
	}
}

func TestEvaluatePAYGZeroNeed(t *testing.T) {
	cat := testSnapshot()
	opt, _ := EvaluatePAYG(cat, Usage{CountryDays: map[string]int{}})
	if opt.TotalCost != 0 {
		t.Fatalf("empty trip payg cost: got %v, want 0", opt.TotalCost)
	}
}

func TestEvaluatePackFitsWithinAllowance(t *testing.T) {
	cat := testSnapshot()
	pack, _ := cat.Pack(1) // Europe Pack 1GB, 7 days, 20 EUR
	u := frTrip(5, model.UsageProfile{AvgDailyMB: 100, AvgDailyMin: 10, AvgDailySMS: 5})

	opt, warnings := EvaluatePack(cat, pack, u)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if opt.NPacks != 1 {
		t.Fatalf("npacks: got %d, want 1", opt.NPacks)
	}
	if !opt.CoverageHit || !opt.ValidityOK {
		t.Fatalf("expected coverage and validity: %+v", opt)
	}
	if opt.Overflow != nil {
		t.Fatalf("no overflow expected: %+v", opt.Overflow)
	}
	if opt.TotalCost != 20 {
		t.Fatalf("cost: got %v, want 20", opt.TotalCost)
	}
}

func TestEvaluatePackOverflow(t *testing.T) {
	cat := testSnapshot()
	pack, _ := cat.Pack(2) // Europe Month 1GB, 30 days, 30 EUR
	// 10 days at 200MB/day: 1.953GB need against a 1GB allowance
	u := frTrip(10, model.UsageProfile{AvgDailyMB: 200, AvgDailyMin: 10, AvgDailySMS: 5})

	opt, _ := EvaluatePack(cat, pack, u)
	if opt.NPacks != 1 {
		t.Fatalf("npacks: got %d, want 1", opt.NPacks)
	}
	if opt.Overflow == nil {
		t.Fatal("expected overflow")
	}
	// over 976MB at 0.02/MB, 40 min at 0.15, sms within allowance
	if opt.Overflow.DataCost != 19.52 {
		t.Fatalf("overflow data: got %v, want 19.52", opt.Overflow.DataCost)
	}
	if opt.Overflow.VoiceCost != 6 {
		t.Fatalf("overflow voice: got %v, want 6", opt.Overflow.VoiceCost)
	}
	if opt.Overflow.SMSCost != 0 {
		t.Fatalf("overflow sms: got %v, want 0", opt.Overflow.SMSCost)
	}
	if opt.TotalCost != 55.52 {
		t.Fatalf("total: got %v, want 55.52", opt.TotalCost)
	}
	if opt.TotalCost <= float64(opt.NPacks)*pack.Price {
		t.Fatalf("overflow must raise total above pack price")
	}
}

func TestEvaluatePackValidityMultiples(t *testing.T) {
	cat := testSnapshot()
	pack, _ := cat.Pack(1) // 7-day validity
	u := frTrip(10, model.UsageProfile{AvgDailyMB: 50})

	opt, _ := EvaluatePack(cat, pack, u)
	if opt.NPacks != 2 {
		t.Fatalf("npacks: got %d, want 2", opt.NPacks)
	}
	if !opt.ValidityOK {
		t.Fatalf("two packs span 14 days >= 10: %+v", opt)
	}
	if opt.TotalCost != 40 {
		t.Fatalf("cost: got %v, want 40", opt.TotalCost)
	}
}

func TestEvaluatePackExactValidityBoundary(t *testing.T) {
	cat := testSnapshot()
	pack, _ := cat.Pack(1)
	u := frTrip(7, model.UsageProfile{AvgDailyMB: 50})
	opt, _ := EvaluatePack(cat, pack, u)
	if opt.NPacks != 1 || !opt.ValidityOK {
		t.Fatalf("7-day trip on 7-day pack: got n=%d validityOk=%v", opt.NPacks, opt.ValidityOK)
	}
}

func TestEvaluatePackCoverageMiss(t *testing.T) {
	cat := testSnapshot()
	pack, _ := cat.Pack(1) // Europe region
	u := Usage{
		Days:        4,
		Need:        model.TotalNeed{GB: 0.2, Min: 10, SMS: 5},
		CountryDays: map[string]int{"FR": 2, "US": 2},
		Visited:     []string{"FR", "US"},
	}
	opt, warnings := EvaluatePack(cat, pack, u)
	if opt.CoverageHit {
		t.Fatalf("US is not in Europe, coverage must fail: %+v", opt)
	}
	if !hasWarning(warnings, "currency mismatch") {
		t.Fatalf("expected currency mismatch warning (EUR vs USD blend), got %v", warnings)
	}
}

func TestBlendRatesExcludesMissingRate(t *testing.T) {
	cat := testSnapshot()
	// CH is a known country without a PAYG rate
	br, warnings := blendRates(cat, map[string]int{"FR": 2, "CH": 2})
	if !hasWarning(warnings, "no PAYG rate for country: CH") {
		t.Fatalf("expected missing rate warning, got %v", warnings)
	}
	// FR contributes its half share; the CH share prices at nothing
	if br.dataPerMB != 0.01 {
		t.Fatalf("blended data rate: got %v, want 0.01", br.dataPerMB)
	}
}

func TestRound2(t *testing.T) {
	if got := round2(10.004); got != 10 {
		t.Fatalf("round2(10.004): got %v", got)
	}
	if got := round2(10.006); got != 10.01 {
		t.Fatalf("round2(10.006): got %v", got)
	}
}
