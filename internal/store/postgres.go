package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gearshift-group/lot-scraper/internal/model"
)

// PgxPool is the pool surface the store uses. *pgxpool.Pool satisfies
// it, as does pgxmock's pool in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres connects a pool to the given database URL.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	source_url     TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	title          TEXT NOT NULL,
	status         TEXT NOT NULL,
	price          INTEGER,
	mileage        INTEGER,
	year           INTEGER,
	vin            TEXT,
	model          TEXT,
	trim           TEXT,
	generation     TEXT,
	exterior_color TEXT,
	interior_color TEXT,
	transmission   TEXT,
	location       JSONB,
	sold_date      DATE,
	options_raw    TEXT,
	options        JSONB,
	scraped_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_listings_vin ON listings (vin) WHERE vin IS NOT NULL AND vin != '';
CREATE INDEX IF NOT EXISTS idx_listings_model ON listings (model, trim);
CREATE INDEX IF NOT EXISTS idx_listings_sold_date ON listings (sold_date);

CREATE TABLE IF NOT EXISTS price_history (
	id          BIGSERIAL PRIMARY KEY,
	source_url  TEXT NOT NULL REFERENCES listings(source_url),
	price       INTEGER NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_history_url ON price_history (source_url);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// UpsertListing inserts or updates by source URL and appends a price
// history row when the observed price changed.
func (s *PostgresStore) UpsertListing(ctx context.Context, detail *model.ListingDetail) error {
	locJSON, err := json.Marshal(detail.Location)
	if err != nil {
		return eris.Wrap(err, "store: marshal location")
	}
	optsJSON, err := json.Marshal(detail.OptionsNormalized)
	if err != nil {
		return eris.Wrap(err, "store: marshal options")
	}

	var prevPrice *int
	err = s.pool.QueryRow(ctx,
		`SELECT price FROM listings WHERE source_url = $1`, detail.SourceURL,
	).Scan(&prevPrice)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrap(err, "store: read previous price")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO listings (
			source_url, source, title, status, price, mileage, year, vin,
			model, trim, generation, exterior_color, interior_color,
			transmission, location, sold_date, options_raw, options, scraped_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now())
		ON CONFLICT (source_url) DO UPDATE SET
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			price = EXCLUDED.price,
			mileage = EXCLUDED.mileage,
			year = EXCLUDED.year,
			vin = EXCLUDED.vin,
			model = EXCLUDED.model,
			trim = EXCLUDED.trim,
			generation = EXCLUDED.generation,
			exterior_color = EXCLUDED.exterior_color,
			interior_color = EXCLUDED.interior_color,
			transmission = EXCLUDED.transmission,
			location = EXCLUDED.location,
			sold_date = EXCLUDED.sold_date,
			options_raw = EXCLUDED.options_raw,
			options = EXCLUDED.options,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = now()`,
		detail.SourceURL, detail.Source, detail.Title, string(detail.Status),
		detail.Price, detail.Mileage, detail.Year, detail.VIN,
		detail.Model, detail.Trim, detail.Generation, detail.ExteriorColor,
		detail.InteriorColor, detail.Transmission, locJSON, detail.SoldDate,
		detail.OptionsRaw, optsJSON, detail.ScrapedAt,
	)
	if err != nil {
		return eris.Wrap(err, "store: upsert listing")
	}

	if detail.Price != nil && (prevPrice == nil || *prevPrice != *detail.Price) {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO price_history (source_url, price) VALUES ($1, $2)`,
			detail.SourceURL, *detail.Price,
		); err != nil {
			return eris.Wrap(err, "store: append price history")
		}
	}

	return nil
}

const listingColumns = `source_url, source, title, status, price, mileage, year, vin,
	model, trim, generation, exterior_color, interior_color, transmission,
	location, sold_date, options_raw, options, scraped_at`

// GetListing fetches one listing by source URL. Missing rows return
// (nil, nil).
func (s *PostgresStore) GetListing(ctx context.Context, sourceURL string) (*model.ListingDetail, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE source_url = $1`, sourceURL)
	detail, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get listing")
	}
	return detail, nil
}

// ListListings queries listings by filter.
func (s *PostgresStore) ListListings(ctx context.Context, filter ListingFilter) ([]model.ListingDetail, error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", placeholder(len(args))))
	}
	if filter.Source != "" {
		add("source = ?", filter.Source)
	}
	if filter.Status != "" {
		add("status = ?", string(filter.Status))
	}
	if filter.Model != "" {
		add("model = ?", filter.Model)
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY scraped_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT " + placeholder(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET " + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list listings")
	}
	defer rows.Close()

	var out []model.ListingDetail
	for rows.Next() {
		detail, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan listing")
		}
		out = append(out, *detail)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate listings")
}

// PriceHistory returns the observed price series for a listing, oldest
// first.
func (s *PostgresStore) PriceHistory(ctx context.Context, sourceURL string) ([]PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT price, observed_at FROM price_history WHERE source_url = $1 ORDER BY observed_at`,
		sourceURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: price history")
	}
	defer rows.Close()

	var out []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Price, &p.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan price point")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate price history")
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// scanListing reads one listings row into a ListingDetail.
func scanListing(row pgx.Row) (*model.ListingDetail, error) {
	var d model.ListingDetail
	var status string
	var locJSON, optsJSON []byte
	var soldDate *time.Time

	err := row.Scan(
		&d.SourceURL, &d.Source, &d.Title, &status, &d.Price, &d.Mileage,
		&d.Year, &d.VIN, &d.Model, &d.Trim, &d.Generation, &d.ExteriorColor,
		&d.InteriorColor, &d.Transmission, &locJSON, &soldDate,
		&d.OptionsRaw, &optsJSON, &d.ScrapedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Status = model.AuctionStatus(status)
	d.SoldDate = soldDate
	if len(locJSON) > 0 {
		_ = json.Unmarshal(locJSON, &d.Location)
	}
	if len(optsJSON) > 0 {
		_ = json.Unmarshal(optsJSON, &d.OptionsNormalized)
	}
	return &d, nil
}
