package engine

import (
	"strings"
	"testing"

	"roamcost/internal/catalog"
	"roamcost/internal/model"
)

func testSnapshot() *catalog.Snapshot {
	countries := []model.Country{
		{Code: "FR", Name: "France", Region: "Europe"},
		{Code: "ES", Name: "Spain", Region: "Europe"},
		{Code: "DE", Name: "Germany", Region: "Europe"},
		{Code: "CH", Name: "Switzerland", Region: "Europe"},
		{Code: "US", Name: "United States", Region: "North America"},
	}
	rates := []model.RoamingRate{
		{CountryCode: "FR", DataPerMB: 0.02, VoicePerMin: 0.15, SMSPerMsg: 0.06, Currency: "EUR"},
		{CountryCode: "ES", DataPerMB: 0.02, VoicePerMin: 0.15, SMSPerMsg: 0.06, Currency: "EUR"},
		{CountryCode: "DE", DataPerMB: 0.02, VoicePerMin: 0.15, SMSPerMsg: 0.06, Currency: "EUR"},
		// CH has no PAYG rate on purpose
		{CountryCode: "US", DataPerMB: 0.06, VoicePerMin: 0.3, SMSPerMsg: 0.12, Currency: "USD"},
	}
	packs := []model.RoamingPack{
		{ID: 1, Name: "Europe Pack 1GB", Coverage: "Europe", CoverageType: "region", DataGB: 1, VoiceMin: 60, SMS: 50, Price: 20, ValidityDays: 7, Currency: "EUR"},
		{ID: 2, Name: "Europe Month 1GB", Coverage: "Europe", CoverageType: "region", DataGB: 1, VoiceMin: 60, SMS: 50, Price: 30, ValidityDays: 30, Currency: "EUR"},
		{ID: 3, Name: "France Week Pass", Coverage: "FR", CoverageType: "country", DataGB: 2, VoiceMin: 120, SMS: 100, Price: 15, ValidityDays: 7, Currency: "EUR"},
		{ID: 4, Name: "Asia Traveller 2GB", Coverage: "Asia", CoverageType: "region", DataGB: 2, VoiceMin: 60, SMS: 50, Price: 30, ValidityDays: 10, Currency: "EUR"},
	}
	return catalog.NewSnapshot(countries, rates, packs)
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAggregateSingleSegment(t *testing.T) {
	cat := testSnapshot()
	segs := []model.TripSegment{{CountryCode: "FR", StartDate: "2025-03-01", EndDate: "2025-03-05"}}
	profile := model.UsageProfile{AvgDailyMB: 100, AvgDailyMin: 10, AvgDailySMS: 5}

	u, warnings := Aggregate(cat, segs, profile)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if u.Days != 5 {
		t.Fatalf("days: got %d, want 5", u.Days)
	}
	if u.CountryDays["FR"] != 5 {
		t.Fatalf("country days FR: got %d, want 5", u.CountryDays["FR"])
	}
	wantGB := 500.0 / 1024.0
	if u.Need.GB != wantGB {
		t.Fatalf("need gb: got %v, want %v", u.Need.GB, wantGB)
	}
	if u.Need.Min != 50 || u.Need.SMS != 25 {
		t.Fatalf("need min/sms: got %d/%d, want 50/25", u.Need.Min, u.Need.SMS)
	}
}

func TestAggregateDuplicateSegmentsDedupe(t *testing.T) {
	cat := testSnapshot()
	seg := model.TripSegment{CountryCode: "FR", StartDate: "2025-03-01", EndDate: "2025-03-05"}
	profile := model.UsageProfile{AvgDailyMB: 100}

	once, _ := Aggregate(cat, []model.TripSegment{seg}, profile)
	twice, _ := Aggregate(cat, []model.TripSegment{seg, seg}, profile)

	if once.Days != twice.Days {
		t.Fatalf("duplicated segment changed days: %d vs %d", once.Days, twice.Days)
	}
	if once.CountryDays["FR"] != twice.CountryDays["FR"] {
		t.Fatalf("duplicated segment changed country days: %d vs %d", once.CountryDays["FR"], twice.CountryDays["FR"])
	}
	if once.Need != twice.Need {
		t.Fatalf("duplicated segment changed need: %+v vs %+v", once.Need, twice.Need)
	}
}

func TestAggregateSharedBorderDay(t *testing.T) {
	cat := testSnapshot()
	segs := []model.TripSegment{
		{CountryCode: "FR", StartDate: "2025-03-01", EndDate: "2025-03-03"},
		{CountryCode: "ES", StartDate: "2025-03-03", EndDate: "2025-03-05"},
	}
	u, _ := Aggregate(cat, segs, model.UsageProfile{AvgDailyMB: 100})
	// 03-03 counts once for duration, once per country for attribution
	if u.Days != 5 {
		t.Fatalf("days: got %d, want 5", u.Days)
	}
	if u.CountryDays["FR"] != 3 || u.CountryDays["ES"] != 3 {
		t.Fatalf("country days: got FR=%d ES=%d, want 3/3", u.CountryDays["FR"], u.CountryDays["ES"])
	}
}

func TestAggregateUnknownCountry(t *testing.T) {
	cat := testSnapshot()
	segs := []model.TripSegment{{CountryCode: "ZZ", StartDate: "2025-03-01", EndDate: "2025-03-02"}}
	u, warnings := Aggregate(cat, segs, model.UsageProfile{AvgDailyMB: 100})
	if !hasWarning(warnings, "unknown country: ZZ") {
		t.Fatalf("expected unknown country warning, got %v", warnings)
	}
	if u.Days != 2 {
		t.Fatalf("days still counted for unknown country: got %d, want 2", u.Days)
	}
	if len(u.Visited) != 1 || u.Visited[0] != "ZZ" {
		t.Fatalf("visited: got %v", u.Visited)
	}
}

func TestAggregateInvertedRange(t *testing.T) {
	cat := testSnapshot()
	segs := []model.TripSegment{{CountryCode: "FR", StartDate: "2025-03-05", EndDate: "2025-03-01"}}
	u, warnings := Aggregate(cat, segs, model.UsageProfile{AvgDailyMB: 100})
	if !hasWarning(warnings, "before start date") {
		t.Fatalf("expected inverted range warning, got %v", warnings)
	}
	if u.Days != 0 {
		t.Fatalf("inverted range must contribute no days, got %d", u.Days)
	}
	// country still counts as visited
	if len(u.Visited) != 1 || u.Visited[0] != "FR" {
		t.Fatalf("visited: got %v", u.Visited)
	}
}

func TestAggregateUnparseableDate(t *testing.T) {
	cat := testSnapshot()
	segs := []model.TripSegment{{CountryCode: "FR", StartDate: "03/01/2025", EndDate: "2025-03-05"}}
	u, warnings := Aggregate(cat, segs, model.UsageProfile{AvgDailyMB: 100})
	if !hasWarning(warnings, "unparseable date range") {
		t.Fatalf("expected date warning, got %v", warnings)
	}
	if u.Days != 0 {
		t.Fatalf("days: got %d, want 0", u.Days)
	}
}

func TestAggregateNoSegments(t *testing.T) {
	cat := testSnapshot()
	u, warnings := Aggregate(cat, nil, model.UsageProfile{AvgDailyMB: 100, AvgDailyMin: 10, AvgDailySMS: 5})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if u.Days != 0 || !u.Need.IsZero() {
		t.Fatalf("empty trip: got days=%d need=%+v", u.Days, u.Need)
	}
}
