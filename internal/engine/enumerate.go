package engine

import (
	"roamcost/internal/catalog"
	"roamcost/internal/model"
)

// Enumerate builds the candidate option set: one PAYG option first, then one
// option per pack whose coverage overlaps at least one visited country, in
// catalog order. Ranking is the ranker's job; the order here is stable.
func Enumerate(cat *catalog.Snapshot, u Usage) ([]model.Option, []string) {
	var warnings []string

	payg, w := EvaluatePAYG(cat, u)
	warnings = append(warnings, w...)
	options := []model.Option{payg}

	for _, pack := range cat.Packs() {
		if !overlapsVisited(cat, pack, u.Visited) {
			continue
		}
		opt, w := EvaluatePack(cat, pack, u)
		warnings = append(warnings, w...)
		options = append(options, opt)
	}
	return options, dedup(warnings)
}

// overlapsVisited reports whether the pack covers any visited country. Packs
// with zero overlap are excluded from enumeration, not scored as failing.
// With no visited countries every pack qualifies.
func overlapsVisited(cat *catalog.Snapshot, pack model.RoamingPack, visited []string) bool {
	if len(visited) == 0 {
		return true
	}
	for _, cc := range visited {
		if c, ok := cat.Country(cc); ok && pack.Covers(c) {
			return true
		}
	}
	return false
}

// dedup removes repeated warnings (the same blend warning surfaces once per
// evaluated pack) while keeping first-appearance order.
func dedup(warnings []string) []string {
	if len(warnings) < 2 {
		return warnings
	}
	seen := make(map[string]bool, len(warnings))
	out := warnings[:0]
	for _, w := range warnings {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
