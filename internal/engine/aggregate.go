package engine

import (
	"fmt"
	"time"

	"roamcost/internal/catalog"
	"roamcost/internal/model"
)

const dateLayout = "2006-01-02"

// Usage is the aggregated resource need for a trip.
type Usage struct {
	// Days is the number of distinct calendar dates spanned by the union of
	// all segment ranges, endpoints inclusive. A date covered by segments in
	// two countries counts once.
	Days int
	Need model.TotalNeed
	// CountryDays attributes days to countries for coverage and rate
	// blending. A two-country date counts once per country here, so the
	// values may sum to more than Days.
	CountryDays map[string]int
	// Visited is the set of distinct country codes seen in the segments,
	// known or not, in first-appearance order.
	Visited []string
}

// VisitedSet returns the visited countries as a set.
func (u Usage) VisitedSet() map[string]bool {
	set := make(map[string]bool, len(u.Visited))
	for _, cc := range u.Visited {
		set[cc] = true
	}
	return set
}

// Aggregate turns trip segments and a daily profile into a total need.
// Malformed segments degrade to warnings, never errors: unknown countries are
// kept in the visited set but flagged, inverted or unparseable date ranges are
// skipped for day counting.
func Aggregate(cat *catalog.Snapshot, segments []model.TripSegment, profile model.UsageProfile) (Usage, []string) {
	u := Usage{CountryDays: map[string]int{}}
	var warnings []string

	seenCountry := map[string]bool{}
	// date -> countries present on that date; dedupes overlapping segments
	// both for duration and for per-country attribution
	dates := map[string]map[string]bool{}

	for _, seg := range segments {
		if !seenCountry[seg.CountryCode] {
			seenCountry[seg.CountryCode] = true
			u.Visited = append(u.Visited, seg.CountryCode)
			if _, ok := cat.Country(seg.CountryCode); !ok {
				warnings = append(warnings, fmt.Sprintf("unknown country: %s", seg.CountryCode))
			}
		}

		start, err1 := time.Parse(dateLayout, seg.StartDate)
		end, err2 := time.Parse(dateLayout, seg.EndDate)
		if err1 != nil || err2 != nil {
			warnings = append(warnings, fmt.Sprintf("segment %s: unparseable date range %q..%q", seg.CountryCode, seg.StartDate, seg.EndDate))
			continue
		}
		if end.Before(start) {
			warnings = append(warnings, fmt.Sprintf("segment %s: end date %s before start date %s", seg.CountryCode, seg.EndDate, seg.StartDate))
			continue
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			key := d.Format(dateLayout)
			if dates[key] == nil {
				dates[key] = map[string]bool{}
			}
			dates[key][seg.CountryCode] = true
		}
	}

	u.Days = len(dates)
	for _, countries := range dates {
		for cc := range countries {
			u.CountryDays[cc]++
		}
	}
	u.Need = model.TotalNeed{
		GB:  float64(profile.AvgDailyMB*u.Days) / 1024.0,
		Min: profile.AvgDailyMin * u.Days,
		SMS: profile.AvgDailySMS * u.Days,
	}
	return u, warnings
}
