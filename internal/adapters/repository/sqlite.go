package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/metrics"
)

// SQLiteStore keeps one JSON document per athlete in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; per-connection pragmas then hold for every query.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	athlete_id TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_profiles_updated_at ON profiles(updated_at);
`

// Migrate creates the schema if missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, athleteID string) (*model.Profile, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM profiles WHERE athlete_id = ?`, athleteID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get profile %s: %w", athleteID, err)
	}
	return decode([]byte(doc))
}

func (s *SQLiteStore) Put(ctx context.Context, p *model.Profile) error {
	if err := validate(p); err != nil {
		return err
	}
	start := time.Now()
	b, err := encode(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (athlete_id, profile, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(athlete_id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		p.AthleteID, string(b), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put profile %s: %w", p.AthleteID, err)
	}
	metrics.UpdateTotalAthletes(s.Count(ctx))
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

func (s *SQLiteStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT athlete_id FROM profiles ORDER BY athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0
	}
	return n
}
