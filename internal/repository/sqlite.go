package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/emdat-stats/internal/models"
)

const (
	tableValues  = "indicator_values"
	tableFetches = "indicator_fetches"

	// insertChunk keeps multi-row inserts under SQLite's bound variable limit.
	insertChunk = 500
)

type SQLiteDB struct {
	db *sqlx.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS indicator_values (
			indicator TEXT NOT NULL,
			iso TEXT NOT NULL,
			year INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (indicator, iso, year)
		);

		CREATE TABLE IF NOT EXISTS indicator_fetches (
			indicator TEXT NOT NULL,
			iso TEXT NOT NULL,
			from_year INTEGER NOT NULL,
			to_year INTEGER NOT NULL,
			fetched_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_fetches_indicator_iso ON indicator_fetches(indicator, iso);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) CoveredISOs(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int) ([]string, error) {
	if len(isoCodes) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select("DISTINCT iso").
		From(tableFetches).
		Where(sq.Eq{"indicator": indicator, "iso": isoCodes}).
		Where(sq.LtOrEq{"from_year": fromYear}).
		Where(sq.GtOrEq{"to_year": toYear}).
		OrderBy("iso").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	var isos []string
	if err := s.db.SelectContext(ctx, &isos, query, args...); err != nil {
		return nil, fmt.Errorf("error querying fetches: %w", err)
	}
	return isos, nil
}

func (s *SQLiteDB) LoadIndicator(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int) ([]models.Observation, error) {
	if len(isoCodes) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select("indicator", "iso", "year", "value").
		From(tableValues).
		Where(sq.Eq{"indicator": indicator, "iso": isoCodes}).
		Where(sq.GtOrEq{"year": fromYear}).
		Where(sq.LtOrEq{"year": toYear}).
		OrderBy("iso", "year").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	var obs []models.Observation
	if err := s.db.SelectContext(ctx, &obs, query, args...); err != nil {
		return nil, fmt.Errorf("error querying values: %w", err)
	}
	return obs, nil
}

func (s *SQLiteDB) SaveIndicator(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int, obs []models.Observation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(obs); start += insertChunk {
		end := min(start+insertChunk, len(obs))
		ins := sq.Insert(tableValues).Columns("indicator", "iso", "year", "value")
		for _, o := range obs[start:end] {
			ins = ins.Values(indicator, o.ISO, o.Year, o.Value)
		}
		query, args, err := ins.
			Suffix("ON CONFLICT(indicator, iso, year) DO UPDATE SET value = excluded.value").
			ToSql()
		if err != nil {
			return fmt.Errorf("error building insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error inserting values: %w", err)
		}
	}

	if len(isoCodes) > 0 {
		now := time.Now().UTC()
		ins := sq.Insert(tableFetches).Columns("indicator", "iso", "from_year", "to_year", "fetched_at")
		for _, iso := range isoCodes {
			ins = ins.Values(indicator, iso, fromYear, toYear, now)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return fmt.Errorf("error building insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error recording fetch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
