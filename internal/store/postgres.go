package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"roamcost/internal/engine"
	"roamcost/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// DB exposes the underlying pool so the catalog source can share it.
func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies .sql files from dir in lexical order (dev helper).
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(sqlBytes)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := p.db.QueryRowContext(ctx, `SELECT user_id, name, home_plan FROM users WHERE user_id=$1`, id).
		Scan(&u.ID, &u.Name, &u.HomePlan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func (p *Postgres) PutUser(ctx context.Context, u model.User) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO users (user_id, name, home_plan) VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET name=EXCLUDED.name, home_plan=EXCLUDED.home_plan`,
		u.ID, u.Name, u.HomePlan)
	return err
}

func (p *Postgres) GetUsageProfile(ctx context.Context, userID int64) (model.StoredProfile, error) {
	var sp model.StoredProfile
	sp.UserID = userID
	err := p.db.QueryRowContext(ctx, `SELECT avg_daily_mb, avg_daily_min, avg_daily_sms FROM usage_profiles WHERE user_id=$1`, userID).
		Scan(&sp.Profile.AvgDailyMB, &sp.Profile.AvgDailyMin, &sp.Profile.AvgDailySMS)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StoredProfile{}, ErrNotFound
	}
	return sp, err
}

func (p *Postgres) PutUsageProfile(ctx context.Context, sp model.StoredProfile) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO usage_profiles (user_id, avg_daily_mb, avg_daily_min, avg_daily_sms) VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE SET avg_daily_mb=EXCLUDED.avg_daily_mb, avg_daily_min=EXCLUDED.avg_daily_min, avg_daily_sms=EXCLUDED.avg_daily_sms`,
		sp.UserID, sp.Profile.AvgDailyMB, sp.Profile.AvgDailyMin, sp.Profile.AvgDailySMS)
	return err
}

func (p *Postgres) CreateTrip(ctx context.Context, t model.Trip) (model.Trip, error) {
	if t.ID == "" {
		t.ID = "trip_" + uuid.NewString()
	}
	t.Days = expandDays(t)
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Trip{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO trips (trip_id, user_id, country_code, start_date, end_date) VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.UserID, t.CountryCode, t.StartDate, t.EndDate)
	if err != nil {
		return model.Trip{}, err
	}
	for _, d := range t.Days {
		_, err = tx.ExecContext(ctx, `INSERT INTO trip_days (trip_id, date, country_code1, country_code2, multi_country) VALUES ($1,$2,$3,$4,$5)`,
			t.ID, d.Date, d.CountryCode, nullIfEmpty(d.CountryCode2), d.MultiCountry)
		if err != nil {
			return model.Trip{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Trip{}, err
	}
	return t, nil
}

func (p *Postgres) ListTrips(ctx context.Context) ([]model.Trip, error) {
	return p.listTrips(ctx, `SELECT trip_id, user_id, country_code, start_date::text, end_date::text FROM trips ORDER BY trip_id`)
}

func (p *Postgres) ListTripsByUser(ctx context.Context, userID int64) ([]model.Trip, error) {
	return p.listTrips(ctx, `SELECT trip_id, user_id, country_code, start_date::text, end_date::text FROM trips WHERE user_id=$1 ORDER BY trip_id`, userID)
}

func (p *Postgres) listTrips(ctx context.Context, query string, args ...any) ([]model.Trip, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Trip{}
	for rows.Next() {
		var t model.Trip
		if err := rows.Scan(&t.ID, &t.UserID, &t.CountryCode, &t.StartDate, &t.EndDate); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	if o.ID == "" {
		o.ID = "ORD-" + uuid.NewString()
	}
	if o.CreatedAt == "" {
		o.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO orders (order_id, user_id, selected_option, total_cost, currency, status, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.UserID, o.SelectedOption, o.TotalCost.String(), o.Currency, o.Status, o.CreatedAt)
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	var cost string
	err := p.db.QueryRowContext(ctx, `SELECT order_id, user_id, selected_option, total_cost::text, currency, status, created_at FROM orders WHERE order_id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.SelectedOption, &cost, &o.Currency, &o.Status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	o.TotalCost, err = decimal.NewFromString(cost)
	return o, err
}

func (p *Postgres) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT order_id, user_id, selected_option, total_cost::text, currency, status, created_at FROM orders WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Order{}
	for rows.Next() {
		var o model.Order
		var cost string
		if err := rows.Scan(&o.ID, &o.UserID, &o.SelectedOption, &cost, &o.Currency, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		if o.TotalCost, err = decimal.NewFromString(cost); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, s model.Subscription) (model.Subscription, error) {
	if s.ID == "" {
		s.ID = "sub_" + uuid.NewString()
	}
	events, _ := json.Marshal(s.Events)
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		s.ID, s.URL, events, s.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return s, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, url, events, secret FROM webhook_subscriptions WHERE events ? $1`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, url, events, secret FROM webhook_subscriptions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM webhook_subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := "whd_" + uuid.NewString()
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at)
		VALUES ($1,$2,$3,$4,$5,$6,'pending',0,now())`,
		id, nullIfEmpty(subscriptionID), eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, COALESCE(subscription_id,''), event_type, url, secret, payload, status, attempts
		FROM webhook_deliveries WHERE status='pending' AND next_attempt_at <= now() ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WebhookDelivery
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4, delivered_at=now() WHERE id=$1`,
			id, lastError, responseCode, latencyMs)
		return err
	}
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4, next_attempt_at=$5 WHERE id=$1`,
		id, lastError, responseCode, latencyMs, nextAttemptAt)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) GetRankerConfig(ctx context.Context) (*engine.RankWeights, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT config FROM ranker_config WHERE id=1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var w engine.RankWeights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (p *Postgres) SaveRankerConfig(ctx context.Context, w engine.RankWeights) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO ranker_config (id, config) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET config=EXCLUDED.config`, raw)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
