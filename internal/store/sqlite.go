package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gearshift-group/lot-scraper/internal/model"
)

// SQLiteStore implements Store on a local sqlite file. It is the
// default backend for single-machine runs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}
	// Single writer; sqlite locks the whole database on write.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	location       TEXT,
	sold_date      TIMESTAMP,
	options_raw    TEXT,
	options        TEXT,
	scraped_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_listings_vin ON listings (vin);
CREATE INDEX IF NOT EXISTS idx_listings_model ON listings (model, trim);
CREATE INDEX IF NOT EXISTS idx_listings_sold_date ON listings (sold_date);

CREATE TABLE IF NOT EXISTS price_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source_url  TEXT NOT NULL REFERENCES listings(source_url),
	price       INTEGER NOT NULL,
	observed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_price_history_url ON price_history (source_url);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

// Close closes the underlying handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertListing inserts or updates by source URL and appends a price
// history row when the observed price changed.
func (s *SQLiteStore) UpsertListing(ctx context.Context, detail *model.ListingDetail) error {
	locJSON, err := json.Marshal(detail.Location)
	if err != nil {
		return eris.Wrap(err, "store: marshal location")
	}
	optsJSON, err := json.Marshal(detail.OptionsNormalized)
	if err != nil {
		return eris.Wrap(err, "store: marshal options")
	}

	var prevPrice *int
	err = s.db.QueryRowContext(ctx,
		`SELECT price FROM listings WHERE source_url = ?`, detail.SourceURL,
	).Scan(&prevPrice)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return eris.Wrap(err, "store: read previous price")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (
			source_url, source, title, status, price, mileage, year, vin,
			model, trim, generation, exterior_color, interior_color,
			transmission, location, sold_date, options_raw, options, scraped_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT (source_url) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			price = excluded.price,
			mileage = excluded.mileage,
			year = excluded.year,
			vin = excluded.vin,
			model = excluded.model,
			trim = excluded.trim,
			generation = excluded.generation,
			exterior_color = excluded.exterior_color,
			interior_color = excluded.interior_color,
			transmission = excluded.transmission,
			location = excluded.location,
			sold_date = excluded.sold_date,
			options_raw = excluded.options_raw,
			options = excluded.options,
			scraped_at = excluded.scraped_at,
			updated_at = CURRENT_TIMESTAMP`,
		detail.SourceURL, detail.Source, detail.Title, string(detail.Status),
		detail.Price, detail.Mileage, detail.Year, detail.VIN,
		detail.Model, detail.Trim, detail.Generation, detail.ExteriorColor,
		detail.InteriorColor, detail.Transmission, string(locJSON), detail.SoldDate,
		detail.OptionsRaw, string(optsJSON), detail.ScrapedAt,
	)
	if err != nil {
		return eris.Wrap(err, "store: upsert listing")
	}

	if detail.Price != nil && (prevPrice == nil || *prevPrice != *detail.Price) {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO price_history (source_url, price) VALUES (?, ?)`,
			detail.SourceURL, *detail.Price,
		); err != nil {
			return eris.Wrap(err, "store: append price history")
		}
	}

	return nil
}

// GetListing fetches one listing by source URL. Missing rows return
// (nil, nil).
func (s *SQLiteStore) GetListing(ctx context.Context, sourceURL string) (*model.ListingDetail, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE source_url = ?`, sourceURL)
	detail, err := scanSQLiteListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get listing")
	}
	return detail, nil
}

// ListListings queries listings by filter.
func (s *SQLiteStore) ListListings(ctx context.Context, filter ListingFilter) ([]model.ListingDetail, error) {
	var conds []string
	var args []any
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, filter.Model)
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY scraped_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list listings")
	}
	defer rows.Close()

	var out []model.ListingDetail
	for rows.Next() {
		detail, err := scanSQLiteListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan listing")
		}
		out = append(out, *detail)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate listings")
}

// PriceHistory returns the observed price series for a listing, oldest
// first.
func (s *SQLiteStore) PriceHistory(ctx context.Context, sourceURL string) ([]PricePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT price, observed_at FROM price_history WHERE source_url = ? ORDER BY observed_at`,
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

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteListing(row sqlScanner) (*model.ListingDetail, error) {
	var d model.ListingDetail
	var status string
	var locJSON, optsJSON sql.NullString
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
	if locJSON.Valid && locJSON.String != "" {
		_ = json.Unmarshal([]byte(locJSON.String), &d.Location)
	}
	if optsJSON.Valid && optsJSON.String != "" {
		_ = json.Unmarshal([]byte(optsJSON.String), &d.OptionsNormalized)
	}
	return &d, nil
}

// Open returns the configured backend by driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "sqlite", "":
		return NewSQLite(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
