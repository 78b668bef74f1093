package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"roamcost/internal/engine"
	"roamcost/internal/model"
)

// Memory is the in-memory store used when no DATABASE_URL is set, and by
// tests.
type Memory struct {
	mu         sync.Mutex
	users      map[int64]model.User
	profiles   map[int64]model.StoredProfile
	trips      map[string]model.Trip
	tripOrder  []string
	orders     map[string]model.Order
	orderByUsr map[int64][]string
	subs       []model.Subscription
	deliveries map[string]*memDelivery
	rankerCfg  *engine.RankWeights
}

// memDelivery augments WebhookDelivery with scheduling state.
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
}

func NewMemory() *Memory {
	return &Memory{
		users:      map[int64]model.User{},
		profiles:   map[int64]model.StoredProfile{},
		trips:      map[string]model.Trip{},
		orders:     map[string]model.Order{},
		orderByUsr: map[int64][]string{},
		deliveries: map[string]*memDelivery{},
	}
}

func (m *Memory) GetUser(ctx context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) PutUser(ctx context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUsageProfile(ctx context.Context, userID int64) (model.StoredProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return model.StoredProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) PutUsageProfile(ctx context.Context, p model.StoredProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}

func (m *Memory) CreateTrip(ctx context.Context, t model.Trip) (model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = "trip_" + uuid.NewString()
	}
	t.Days = expandDays(t)
	m.trips[t.ID] = t
	m.tripOrder = append(m.tripOrder, t.ID)
	return t, nil
}

func (m *Memory) ListTrips(ctx context.Context) ([]model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Trip, 0, len(m.tripOrder))
	for _, id := range m.tripOrder {
		out = append(out, m.trips[id])
	}
	return out, nil
}

func (m *Memory) ListTripsByUser(ctx context.Context, userID int64) ([]model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Trip{}
	for _, id := range m.tripOrder {
		if t := m.trips[id]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = "ORD-" + uuid.NewString()
	}
	if o.CreatedAt == "" {
		o.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.orders[o.ID] = o
	m.orderByUsr[o.UserID] = append(m.orderByUsr[o.UserID], o.ID)
	return o, nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *Memory) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, id := range m.orderByUsr[userID] {
		out = append(out, m.orders[id])
	}
	return out, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, s model.Subscription) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = "sub_" + uuid.NewString()
	}
	m.subs = append(m.subs, s)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs {
		for _, e := range s.Events {
			if strings.EqualFold(e, eventType) {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Subscription{}, m.subs...), nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.ID == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "whd_" + uuid.NewString()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        payload,
			Status:         "pending",
		},
		NextAttemptAt: time.Now(),
	}
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var due []WebhookDelivery
	for _, d := range m.deliveries {
		if d.Status == "pending" && !d.NextAttemptAt.After(now) {
			due = append(due, d.WebhookDelivery)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
	} else if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}

func (m *Memory) GetRankerConfig(ctx context.Context) (*engine.RankWeights, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rankerCfg == nil {
		return nil, nil
	}
	cfg := *m.rankerCfg
	return &cfg, nil
}

func (m *Memory) SaveRankerConfig(ctx context.Context, w engine.RankWeights) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankerCfg = &w
	return nil
}
