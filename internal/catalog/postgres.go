package catalog

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"roamcost/internal/model"
)

// PostgresSource loads the catalog from the countries / roaming_rates /
// roaming_packs tables.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(dsn string) (*PostgresSource, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresSource{db: db}, nil
}

// NewPostgresSourceFromDB wraps an existing connection pool.
func NewPostgresSourceFromDB(db *sql.DB) *PostgresSource { return &PostgresSource{db: db} }

func (p *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	countries, err := p.loadCountries(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := p.loadRates(ctx)
	if err != nil {
		return nil, err
	}
	packs, err := p.loadPacks(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(countries, rates, packs), nil
}

func (p *PostgresSource) loadCountries(ctx context.Context) ([]model.Country, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT country_code, country_name, region FROM countries ORDER BY country_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Country
	for rows.Next() {
		var c model.Country
		if err := rows.Scan(&c.Code, &c.Name, &c.Region); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresSource) loadRates(ctx context.Context) ([]model.RoamingRate, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT country_code, data_per_mb, voice_per_min, sms_per_msg, currency FROM roaming_rates ORDER BY country_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RoamingRate
	for rows.Next() {
		var r model.RoamingRate
		if err := rows.Scan(&r.CountryCode, &r.DataPerMB, &r.VoicePerMin, &r.SMSPerMsg, &r.Currency); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresSource) loadPacks(ctx context.Context) ([]model.RoamingPack, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT pack_id, name, coverage, coverage_type, data_gb, voice_min, sms, price, validity_days, currency FROM roaming_packs ORDER BY pack_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RoamingPack
	for rows.Next() {
		var pk model.RoamingPack
		if err := rows.Scan(&pk.ID, &pk.Name, &pk.Coverage, &pk.CoverageType, &pk.DataGB, &pk.VoiceMin, &pk.SMS, &pk.Price, &pk.ValidityDays, &pk.Currency); err != nil {
			return nil, err
		}
		out = append(out, pk)
	}
	return out, rows.Err()
}
