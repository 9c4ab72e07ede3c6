// Package catalog is a SQLite-backed instrument store behind the mock
// reference-data server, answering the paged listing contract the
// portfolio loader consumes. It exists so local runs and integration
// tests have a real universe to page through without a production
// reference-data deployment.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Item is one instrument row in its wire form, the same flattened
// bond/swap union the listing endpoint serves.
type Item struct {
	ID             string  `json:"id"`
	InstrumentType string  `json:"instrument_type"`
	Notional       float64 `json:"notional"`
	Currency       string  `json:"currency"`

	ISIN         string  `json:"isin,omitempty"`
	CouponRate   float64 `json:"coupon_rate,omitempty"`
	IssueDate    string  `json:"issue_date,omitempty"`
	DayCountConv string  `json:"day_count_convention,omitempty"`

	FixedRate     float64 `json:"fixed_rate,omitempty"`
	Tenor         string  `json:"tenor,omitempty"`
	TradeDate     string  `json:"trade_date,omitempty"`
	EffectiveDate string  `json:"effective_date,omitempty"`
	PayReceive    string  `json:"pay_receive,omitempty"`
	FloatIndex    string  `json:"float_index,omitempty"`

	MaturityDate     string `json:"maturity_date"`
	PaymentFrequency string `json:"payment_frequency,omitempty"`
}

// Store wraps the catalogue database.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the catalogue at dbPath. Use ":memory:" for
// an ephemeral store.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath += "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS instruments (
	id                TEXT PRIMARY KEY,
	instrument_type   TEXT NOT NULL CHECK (instrument_type IN ('BOND', 'SWAP')),
	notional          REAL NOT NULL,
	currency          TEXT NOT NULL,
	isin              TEXT,
	coupon_rate       REAL,
	issue_date        TEXT,
	day_count         TEXT,
	fixed_rate        REAL,
	tenor             TEXT,
	trade_date        TEXT,
	effective_date    TEXT,
	pay_receive       TEXT,
	float_index       TEXT,
	maturity_date     TEXT NOT NULL,
	payment_frequency TEXT,
	seq               INTEGER
);`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migration: %w", err)
	}
	return nil
}

// Seed replaces the catalogue contents with the instruments decoded
// from r, a JSON array of items.
func (s *Store) Seed(r io.Reader) (int, error) {
	var items []Item
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("failed to decode seed: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM instruments`); err != nil {
		return 0, err
	}

	const insert = `
INSERT INTO instruments (
	id, instrument_type, notional, currency, isin, coupon_rate, issue_date,
	day_count, fixed_rate, tenor, trade_date, effective_date, pay_receive,
	float_index, maturity_date, payment_frequency, seq
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i, item := range items {
		if item.ID == "" {
			return 0, fmt.Errorf("seed item %d has no id", i)
		}
		_, err := tx.Exec(insert,
			item.ID, item.InstrumentType, item.Notional, item.Currency,
			item.ISIN, item.CouponRate, item.IssueDate, item.DayCountConv,
			item.FixedRate, item.Tenor, item.TradeDate, item.EffectiveDate,
			item.PayReceive, item.FloatIndex, item.MaturityDate,
			item.PaymentFrequency, i,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert instrument %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Count returns the total number of instruments in the catalogue.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM instruments`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Page returns one page of the listing (1-based page numbers) in seed
// order, plus the total instrument and page counts.
func (s *Store) Page(page, pageSize int) ([]Item, int, int, error) {
	total, err := s.Count()
	if err != nil {
		return nil, 0, 0, err
	}
	pages := (total + pageSize - 1) / pageSize

	rows, err := s.conn.Query(`
SELECT id, instrument_type, notional, currency,
       COALESCE(isin, ''), COALESCE(coupon_rate, 0), COALESCE(issue_date, ''),
       COALESCE(day_count, ''), COALESCE(fixed_rate, 0), COALESCE(tenor, ''),
       COALESCE(trade_date, ''), COALESCE(effective_date, ''),
       COALESCE(pay_receive, ''), COALESCE(float_index, ''),
       maturity_date, COALESCE(payment_frequency, '')
FROM instruments
ORDER BY seq
LIMIT ? OFFSET ?`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		err := rows.Scan(
			&it.ID, &it.InstrumentType, &it.Notional, &it.Currency,
			&it.ISIN, &it.CouponRate, &it.IssueDate, &it.DayCountConv,
			&it.FixedRate, &it.Tenor, &it.TradeDate, &it.EffectiveDate,
			&it.PayReceive, &it.FloatIndex, &it.MaturityDate, &it.PaymentFrequency,
		)
		if err != nil {
			return nil, 0, 0, err
		}
		items = append(items, it)
	}
	return items, pages, total, rows.Err()
}
