package engine

import (
	"fmt"
	"sort"
	"strings"

	"roamcost/internal/model"
)

const topN = 3

// RankWeights tunes the tie-break order. Higher weight means the flag is
// preferred earlier. Defaults follow the product rule: coverage beats
// validity beats kind.
type RankWeights struct {
	Coverage float64 `json:"coverage"`
	Validity float64 `json:"validity"`
	PackBias float64 `json:"packBias"`
}

func DefaultRankWeights() RankWeights {
	return RankWeights{Coverage: 100, Validity: 10, PackBias: 1}
}

// RecommendationItem is one ranked choice with its qualifying facts.
type RecommendationItem struct {
	Label       string       `json:"label"`
	TotalCost   float64      `json:"totalCost"`
	Explanation string       `json:"explanation"`
	Details     model.Option `json:"details"`
}

type Recommendation struct {
	Top       []RecommendationItem `json:"top3"`
	Rationale string               `json:"rationale"`
}

// Rank orders options by ascending total cost, breaking ties by coverage,
// then validity, then pack-over-payg, and returns at most three entries.
// Nothing is filtered out: an option that fails coverage still ranks, lower,
// with the shortfall called out in its explanation.
func Rank(options []model.Option, weights RankWeights) Recommendation {
	ranked := append([]model.Option(nil), options...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TotalCost != b.TotalCost {
			return a.TotalCost < b.TotalCost
		}
		return tieScore(a, weights) > tieScore(b, weights)
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	rec := Recommendation{}
	for i, opt := range ranked {
		rec.Top = append(rec.Top, RecommendationItem{
			Label:       optionLabel(opt),
			TotalCost:   opt.TotalCost,
			Explanation: explain(opt, i, ranked),
			Details:     opt,
		})
	}
	rec.Rationale = rationale(ranked)
	return rec
}

func tieScore(o model.Option, w RankWeights) float64 {
	score := 0.0
	if o.CoverageHit {
		score += w.Coverage
	}
	if o.ValidityOK {
		score += w.Validity
	}
	if o.Kind == model.KindPack {
		score += w.PackBias
	}
	return score
}

func optionLabel(o model.Option) string {
	if o.Kind == model.KindPAYG {
		return "PAYG (per-country metered rates)"
	}
	label := o.PackName
	if label == "" {
		label = fmt.Sprintf("Pack#%d", o.PackID)
	}
	if o.NPacks > 1 {
		label = fmt.Sprintf("%s x%d", label, o.NPacks)
	}
	if o.Currency != "" {
		label = fmt.Sprintf("%s (%s)", label, o.Currency)
	}
	return label
}

// explain names the qualifying facts for one ranked entry: cost delta to the
// winner, coverage, validity, and overflow.
func explain(o model.Option, idx int, ranked []model.Option) string {
	var parts []string
	if idx == 0 {
		parts = append(parts, "cheapest option")
	} else {
		delta := round2(o.TotalCost - ranked[0].TotalCost)
		parts = append(parts, fmt.Sprintf("+%.2f vs cheapest", delta))
	}
	if o.Kind == model.KindPAYG {
		parts = append(parts, "no upfront purchase, metered billing")
		return strings.Join(parts, "; ")
	}
	if o.CoverageHit {
		parts = append(parts, "covers every visited country")
	} else {
		parts = append(parts, "does not cover all visited countries; additional charges may apply at local PAYG rates")
	}
	if o.ValidityOK {
		parts = append(parts, "validity spans the trip")
	} else {
		parts = append(parts, "validity shorter than the trip")
	}
	if o.Overflow != nil && !o.Overflow.IsZero() {
		parts = append(parts, fmt.Sprintf("includes %.2f overflow beyond allowance", round2(o.Overflow.Total())))
	}
	return strings.Join(parts, "; ")
}

// rationale summarizes why the winner wins.
func rationale(ranked []model.Option) string {
	if len(ranked) == 0 {
		return "no options available"
	}
	best := ranked[0]
	if best.CoverageHit && best.ValidityOK {
		return fmt.Sprintf("ranked by total cost; %s is the cheapest option satisfying coverage and validity", optionLabel(best))
	}
	return fmt.Sprintf("ranked by total cost; no option fully satisfies coverage and validity, %s is the cheapest overall", optionLabel(best))
}
