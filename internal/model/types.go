package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Catalog reference data. Immutable once loaded.

type Country struct {
	Code   string `json:"countryCode"`
	Name   string `json:"countryName"`
	Region string `json:"region"`
}

// RoamingRate is the pay-as-you-go unit pricing for one country.
type RoamingRate struct {
	CountryCode string  `json:"countryCode"`
	DataPerMB   float64 `json:"dataPerMb"`
	VoicePerMin float64 `json:"voicePerMin"`
	SMSPerMsg   float64 `json:"smsPerMsg"`
	Currency    string  `json:"currency"`
}

// Coverage scopes for packs.
const (
	CoverageCountry = "country"
	CoverageRegion  = "region"
)

type RoamingPack struct {
	ID           int64   `json:"packId"`
	Name         string  `json:"name"`
	Coverage     string  `json:"coverage"`
	CoverageType string  `json:"coverageType"` // country | region
	DataGB       float64 `json:"dataGb"`
	VoiceMin     int     `json:"voiceMin"`
	SMS          int     `json:"sms"`
	Price        float64 `json:"price"`
	ValidityDays int     `json:"validityDays"`
	Currency     string  `json:"currency"`
}

// Covers reports whether the pack's coverage includes the given country.
// Region packs match against the country's catalog region.
func (p RoamingPack) Covers(c Country) bool {
	switch p.CoverageType {
	case CoverageRegion:
		return strings.EqualFold(p.Coverage, c.Region)
	case CoverageCountry:
		return strings.EqualFold(p.Coverage, c.Code)
	}
	return false
}

// Request-scoped input.

type TripSegment struct {
	CountryCode string `json:"countryCode"`
	StartDate   string `json:"startDate"` // YYYY-MM-DD, inclusive
	EndDate     string `json:"endDate"`   // YYYY-MM-DD, inclusive
}

type UsageProfile struct {
	AvgDailyMB  int `json:"avgDailyMb"`
	AvgDailyMin int `json:"avgDailyMin"`
	AvgDailySMS int `json:"avgDailySms"`
}

func (p UsageProfile) IsZero() bool {
	return p.AvgDailyMB == 0 && p.AvgDailyMin == 0 && p.AvgDailySMS == 0
}

// TotalNeed is the resource need for a whole trip.
type TotalNeed struct {
	GB  float64 `json:"gb"`
	Min int     `json:"min"`
	SMS int     `json:"sms"`
}

func (n TotalNeed) IsZero() bool { return n.GB == 0 && n.Min == 0 && n.SMS == 0 }

// Option kinds.
const (
	KindPack = "pack"
	KindPAYG = "payg"
)

// Option is one candidate pricing choice for a trip.
type Option struct {
	Kind        string    `json:"kind"` // pack | payg
	PackID      int64     `json:"packId,omitempty"`
	PackName    string    `json:"packName,omitempty"`
	NPacks      int       `json:"nPacks"`
	TotalCost   float64   `json:"totalCost"`
	Currency    string    `json:"currency,omitempty"`
	CoverageHit bool      `json:"coverageHit"`
	ValidityOK  bool      `json:"validityOk"`
	Overflow    *Overflow `json:"overflow,omitempty"`
}

// Overflow is the extra cost beyond a pack's allowance, billed at PAYG rates.
type Overflow struct {
	DataCost  float64 `json:"overMbCost"`
	VoiceCost float64 `json:"overMinCost"`
	SMSCost   float64 `json:"overSmsCost"`
}

func (o Overflow) Total() float64 { return o.DataCost + o.VoiceCost + o.SMSCost }

func (o Overflow) IsZero() bool { return o.DataCost == 0 && o.VoiceCost == 0 && o.SMSCost == 0 }

// Persistence-side entities (users, trips, orders).

type User struct {
	ID       int64  `json:"userId"`
	Name     string `json:"name"`
	HomePlan string `json:"homePlan"`
}

// StoredProfile is a user's saved daily-usage profile.
type StoredProfile struct {
	UserID  int64        `json:"userId"`
	Profile UsageProfile `json:"profile"`
}

type Trip struct {
	ID          string    `json:"tripId"`
	UserID      int64     `json:"userId"`
	CountryCode string    `json:"countryCode"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Days        []TripDay `json:"days,omitempty"`
}

// TripDay is one calendar day of a trip. A border-crossing day carries a
// second country code.
type TripDay struct {
	Date         string `json:"date"`
	CountryCode  string `json:"countryCode"`
	CountryCode2 string `json:"countryCode2,omitempty"`
	MultiCountry bool   `json:"multiCountry"`
}

// Order is the result of a (mocked) checkout.
type Order struct {
	ID             string          `json:"orderId"`
	UserID         int64           `json:"userId"`
	SelectedOption string          `json:"selectedOption"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"createdAt"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}

