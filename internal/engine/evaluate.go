package engine

import (
	"fmt"
	"math"

	"roamcost/internal/catalog"
	"roamcost/internal/model"
)

// blendedRate is the day-share weighted PAYG rate across visited countries.
// Countries without a catalog rate contribute nothing: their share of usage is
// excluded from cost totals rather than priced at zero.
type blendedRate struct {
	dataPerMB   float64
	voicePerMin float64
	smsPerMsg   float64
	currency    string
}

func blendRates(cat *catalog.Snapshot, countryDays map[string]int) (blendedRate, []string) {
	var br blendedRate
	var warnings []string
	total := 0
	for _, days := range countryDays {
		total += days
	}
	if total == 0 {
		return br, nil
	}
	for cc, days := range countryDays {
		rate, ok := cat.Rate(cc)
		if !ok {
			if _, known := cat.Country(cc); known {
				warnings = append(warnings, fmt.Sprintf("no PAYG rate for country: %s", cc))
			}
			continue
		}
		share := float64(days) / float64(total)
		br.dataPerMB += rate.DataPerMB * share
		br.voicePerMin += rate.VoicePerMin * share
		br.smsPerMsg += rate.SMSPerMsg * share
		if br.currency == "" {
			br.currency = rate.Currency
		} else if br.currency != rate.Currency {
			warnings = append(warnings, fmt.Sprintf("currency mismatch in PAYG rates: %s vs %s", br.currency, rate.Currency))
		}
	}
	return br, warnings
}

func (br blendedRate) cost(need model.TotalNeed) float64 {
	return need.GB*1024*br.dataPerMB + float64(need.Min)*br.voicePerMin + float64(need.SMS)*br.smsPerMsg
}

// EvaluatePAYG prices the trip at pay-as-you-go rates. Coverage and validity
// always hold for PAYG: it is the fallback baseline, not a booked product.
func EvaluatePAYG(cat *catalog.Snapshot, u Usage) (model.Option, []string) {
	br, warnings := blendRates(cat, u.CountryDays)
	return model.Option{
		Kind:        model.KindPAYG,
		NPacks:      0,
		TotalCost:   round2(br.cost(u.Need)),
		Currency:    br.currency,
		CoverageHit: true,
		ValidityOK:  true,
	}, warnings
}

// EvaluatePack prices the trip against one pack. The quantity is the minimum
// count whose combined validity window spans the trip; allowance overruns are
// billed as overflow at blended PAYG rates instead of forcing extra packs.
func EvaluatePack(cat *catalog.Snapshot, pack model.RoamingPack, u Usage) (model.Option, []string) {
	var warnings []string

	coverageHit := true
	for _, cc := range u.Visited {
		c, known := cat.Country(cc)
		if !known || !pack.Covers(c) {
			coverageHit = false
			break
		}
	}

	n := 1
	if pack.ValidityDays > 0 && u.Days > 0 {
		n = int(math.Ceil(float64(u.Days) / float64(pack.ValidityDays)))
		if n < 1 {
			n = 1
		}
	}
	validityOK := n*pack.ValidityDays >= u.Days

	br, blendWarnings := blendRates(cat, u.CountryDays)
	warnings = append(warnings, blendWarnings...)
	if br.currency != "" && pack.Currency != br.currency {
		warnings = append(warnings, fmt.Sprintf("currency mismatch: pack %s priced in %s, PAYG rates in %s", pack.Name, pack.Currency, br.currency))
	}

	overGB := math.Max(0, u.Need.GB-float64(n)*pack.DataGB)
	overMin := math.Max(0, float64(u.Need.Min)-float64(n*pack.VoiceMin))
	overSMS := math.Max(0, float64(u.Need.SMS)-float64(n*pack.SMS))

	opt := model.Option{
		Kind:        model.KindPack,
		PackID:      pack.ID,
		PackName:    pack.Name,
		NPacks:      n,
		Currency:    pack.Currency,
		CoverageHit: coverageHit,
		ValidityOK:  validityOK,
	}

	total := float64(n) * pack.Price
	if overGB > 0 || overMin > 0 || overSMS > 0 {
		of := &model.Overflow{
			DataCost:  round2(overGB * 1024 * br.dataPerMB),
			VoiceCost: round2(overMin * br.voicePerMin),
			SMSCost:   round2(overSMS * br.smsPerMsg),
		}
		opt.Overflow = of
		total += of.Total()
	}
	opt.TotalCost = round2(total)
	return opt, warnings
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
