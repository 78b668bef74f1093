// Package catalog holds the read-only roaming reference data: countries,
// pay-as-you-go rates, and roaming packs.
package catalog

import (
	"context"
	"errors"

	"roamcost/internal/model"
)

// ErrUnavailable is returned when no catalog snapshot can be produced.
// It is the only request-fatal engine failure.
var ErrUnavailable = errors.New("catalog unavailable")

// Source loads a catalog snapshot from some backing store.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot is an immutable view of the catalog. Engine calls receive it as an
// explicit parameter; it must not be mutated after construction.
type Snapshot struct {
	countries map[string]model.Country
	rates     map[string]model.RoamingRate
	packs     []model.RoamingPack

	countryOrder []string
	rateOrder    []string
}

func NewSnapshot(countries []model.Country, rates []model.RoamingRate, packs []model.RoamingPack) *Snapshot {
	s := &Snapshot{
		countries: make(map[string]model.Country, len(countries)),
		rates:     make(map[string]model.RoamingRate, len(rates)),
		packs:     append([]model.RoamingPack(nil), packs...),
	}
	for _, c := range countries {
		if _, dup := s.countries[c.Code]; dup {
			continue
		}
		s.countries[c.Code] = c
		s.countryOrder = append(s.countryOrder, c.Code)
	}
	for _, r := range rates {
		if _, dup := s.rates[r.CountryCode]; dup {
			continue
		}
		s.rates[r.CountryCode] = r
		s.rateOrder = append(s.rateOrder, r.CountryCode)
	}
	return s
}

func (s *Snapshot) Country(code string) (model.Country, bool) {
	c, ok := s.countries[code]
	return c, ok
}

func (s *Snapshot) Rate(code string) (model.RoamingRate, bool) {
	r, ok := s.rates[code]
	return r, ok
}

// Packs returns packs in catalog insertion order. Callers must not modify the
// returned slice.
func (s *Snapshot) Packs() []model.RoamingPack { return s.packs }

func (s *Snapshot) Pack(id int64) (model.RoamingPack, bool) {
	for _, p := range s.packs {
		if p.ID == id {
			return p, true
		}
	}
	return model.RoamingPack{}, false
}

// Countries returns all countries in insertion order.
func (s *Snapshot) Countries() []model.Country {
	out := make([]model.Country, 0, len(s.countryOrder))
	for _, code := range s.countryOrder {
		out = append(out, s.countries[code])
	}
	return out
}

// Rates returns all rates in insertion order.
func (s *Snapshot) Rates() []model.RoamingRate {
	out := make([]model.RoamingRate, 0, len(s.rateOrder))
	for _, code := range s.rateOrder {
		out = append(out, s.rates[code])
	}
	return out
}
