package store

import (
	"context"
	"errors"
	"time"

	"roamcost/internal/engine"
	"roamcost/internal/model"
)

// Store is the persistence interface used by the API server. Catalog data is
// not here: it lives behind the read-only catalog provider.
type Store interface {
	// Users & usage profiles
	GetUser(ctx context.Context, id int64) (model.User, error)
	PutUser(ctx context.Context, u model.User) error
	GetUsageProfile(ctx context.Context, userID int64) (model.StoredProfile, error)
	PutUsageProfile(ctx context.Context, p model.StoredProfile) error

	// Trips (stored with per-day expansion)
	CreateTrip(ctx context.Context, t model.Trip) (model.Trip, error)
	ListTrips(ctx context.Context) ([]model.Trip, error)
	ListTripsByUser(ctx context.Context, userID int64) ([]model.Trip, error)

	// Orders (checkout results)
	CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)

	// Webhook subscriptions
	CreateSubscription(ctx context.Context, s model.Subscription) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error

	// Ranker weight overrides (admin)
	GetRankerConfig(ctx context.Context) (*engine.RankWeights, error)
	SaveRankerConfig(ctx context.Context, w engine.RankWeights) error
}

var ErrNotFound = errors.New("not found")

// expandDays fills in one TripDay per calendar date of the trip, endpoints
// inclusive. Returns nil for an inverted or unparseable range.
func expandDays(t model.Trip) []model.TripDay {
	start, err1 := time.Parse("2006-01-02", t.StartDate)
	end, err2 := time.Parse("2006-01-02", t.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}
	var days []model.TripDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, model.TripDay{
			Date:        d.Format("2006-01-02"),
			CountryCode: t.CountryCode,
		})
	}
	return days
}
