// Package sqlite persists market observations, analysis results and
// service status in a single SQLite database shared with the external
// collector and dashboard.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"forecast-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the SQLite store.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/forecast.db"
}

// Store provides all database access for the engine and validator.
// Implements model.ObservationSource, model.ResultStore and
// model.StatusReporter.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database, enables WAL mode and creates the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer, small read pool: the analyzer and validator each
	// hold their own Store.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS market_observations (
			ts      INTEGER NOT NULL PRIMARY KEY,
			price   REAL    NOT NULL,
			volume  REAL,
			high    REAL,
			low     REAL,
			source  TEXT
		);

		CREATE TABLE IF NOT EXISTS analysis_results (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			ts                   INTEGER NOT NULL,
			timeframe            TEXT    NOT NULL,
			predicted_price      REAL    NOT NULL,
			confidence_score     INTEGER NOT NULL,
			trend_direction      TEXT    NOT NULL,
			technical_indicators TEXT    NOT NULL,
			reasoning            TEXT    NOT NULL,
			validation_time      INTEGER NOT NULL,
			actual_price         REAL,
			accuracy             REAL,
			error_percentage     REAL,
			created_at           INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
		CREATE INDEX IF NOT EXISTS idx_results_ts ON analysis_results (ts);
		CREATE INDEX IF NOT EXISTS idx_results_pending
			ON analysis_results (validation_time) WHERE actual_price IS NULL;

		CREATE TABLE IF NOT EXISTS service_status (
			name       TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			message    TEXT,
			last_run   INTEGER,
			next_run   INTEGER,
			updated_at INTEGER NOT NULL
		);
	`)
	return err
}

// ── ObservationSource ──

// InsertObservations upserts observations, deduplicating by timestamp.
// The external collector normally owns this table; the method exists
// for backfills and fixtures.
func (s *Store) InsertObservations(ctx context.Context, obs []model.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO market_observations (ts, price, volume, high, low, source)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range obs {
		o := &obs[i]
		_, err := stmt.ExecContext(ctx, o.Timestamp.Unix(), o.Price,
			nullFloat(o.Volume), nullFloat(o.High), nullFloat(o.Low), o.Source)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReadObservations returns observations at or after since, ascending.
// The primary key on ts guarantees deduplication.
func (s *Store) ReadObservations(ctx context.Context, since time.Time) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, price, volume, high, low, source
		FROM market_observations
		WHERE ts >= ?
		ORDER BY ts ASC
	`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query observations: %w", err)
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// FindNearestObservation returns the observation closest to at within
// ±tolerance, or nil if none exists in that window.
func (s *Store) FindNearestObservation(ctx context.Context, at time.Time, tolerance time.Duration) (*model.Observation, error) {
	lo := at.Add(-tolerance).Unix()
	hi := at.Add(tolerance).Unix()
	row := s.db.QueryRowContext(ctx, `
		SELECT ts, price, volume, high, low, source
		FROM market_observations
		WHERE ts BETWEEN ? AND ?
		ORDER BY ABS(ts - ?) ASC
		LIMIT 1
	`, lo, hi, at.Unix())

	o, err := scanObservation(row)
	if err == sql.ErrNoRows {
		return nil, nil // pending, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite nearest observation: %w", err)
	}
	return &o, nil
}

// ── ResultStore ──

// SaveResult inserts one analysis result atomically and sets its ID.
func (s *Store) SaveResult(ctx context.Context, r *model.AnalysisResult) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_results
			(ts, timeframe, predicted_price, confidence_score, trend_direction,
			 technical_indicators, reasoning, validation_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Timestamp.Unix(), r.Timeframe, r.PredictedPrice, r.ConfidenceScore,
		string(r.TrendDirection), r.TechnicalIndicators, r.Reasoning, r.ValidationTime.Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert result: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// FindPendingValidation returns unvalidated results past due before
// the given instant, oldest first.
func (s *Store) FindPendingValidation(ctx context.Context, before time.Time) ([]model.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, timeframe, predicted_price, confidence_score, trend_direction,
		       technical_indicators, reasoning, validation_time,
		       actual_price, accuracy, error_percentage, created_at
		FROM analysis_results
		WHERE actual_price IS NULL AND validation_time < ?
		ORDER BY validation_time ASC
	`, before.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query pending: %w", err)
	}
	defer rows.Close()
	return collectResults(rows)
}

// UpdateValidation fills validation columns exactly once. The
// actual_price IS NULL guard makes repeated passes no-ops, so
// validation is idempotent without any coordination.
func (s *Store) UpdateValidation(ctx context.Context, id int64, actualPrice, accuracy, errorPct float64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE analysis_results
		SET actual_price = ?, accuracy = ?, error_percentage = ?
		WHERE id = ? AND actual_price IS NULL
	`, actualPrice, accuracy, errorPct, id)
	if err != nil {
		return false, fmt.Errorf("sqlite update validation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReadValidatedResults returns validated rows, optionally filtered by
// timeframe tag ("" = all) and a trailing window start (zero = all).
func (s *Store) ReadValidatedResults(ctx context.Context, timeframe string, since time.Time) ([]model.AnalysisResult, error) {
	q := `
		SELECT id, ts, timeframe, predicted_price, confidence_score, trend_direction,
		       technical_indicators, reasoning, validation_time,
		       actual_price, accuracy, error_percentage, created_at
		FROM analysis_results
		WHERE actual_price IS NOT NULL`
	args := []interface{}{}
	if timeframe != "" {
		q += ` AND timeframe = ?`
		args = append(args, timeframe)
	}
	if !since.IsZero() {
		q += ` AND ts >= ?`
		args = append(args, since.Unix())
	}
	q += ` ORDER BY ts ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query validated: %w", err)
	}
	defer rows.Close()
	return collectResults(rows)
}

// ── StatusReporter ──

// UpdateStatus upserts the monitoring row for one service.
func (s *Store) UpdateStatus(ctx context.Context, st model.ServiceStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_status (name, status, message, last_run, next_run, updated_at)
		VALUES (?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(name) DO UPDATE SET
			status = excluded.status,
			message = excluded.message,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			updated_at = excluded.updated_at
	`, st.Name, st.Status, st.Message, unixOrNil(st.LastRun), unixOrNil(st.NextRun))
	if err != nil {
		return fmt.Errorf("sqlite update status: %w", err)
	}
	return nil
}

// ReadStatus returns the monitoring row for one service, or nil.
func (s *Store) ReadStatus(ctx context.Context, name string) (*model.ServiceStatus, error) {
	var (
		st               model.ServiceStatus
		lastRun, nextRun sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, status, message, last_run, next_run
		FROM service_status WHERE name = ?
	`, name).Scan(&st.Name, &st.Status, &st.Message, &lastRun, &nextRun)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite read status: %w", err)
	}
	if lastRun.Valid {
		st.LastRun = time.Unix(lastRun.Int64, 0).UTC()
	}
	if nextRun.Valid {
		st.NextRun = time.Unix(nextRun.Int64, 0).UTC()
	}
	return &st, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ── scan helpers ──

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObservation(r rowScanner) (model.Observation, error) {
	var (
		o                 model.Observation
		tsUnix            int64
		volume, high, low sql.NullFloat64
		source            sql.NullString
	)
	if err := r.Scan(&tsUnix, &o.Price, &volume, &high, &low, &source); err != nil {
		return o, err
	}
	o.Timestamp = time.Unix(tsUnix, 0).UTC()
	o.Volume = floatPtr(volume)
	o.High = floatPtr(high)
	o.Low = floatPtr(low)
	o.Source = source.String
	return o, nil
}

func collectResults(rows *sql.Rows) ([]model.AnalysisResult, error) {
	var out []model.AnalysisResult
	for rows.Next() {
		var (
			r                        model.AnalysisResult
			tsUnix, valUnix, created int64
			trend                    string
			actual, accuracy, errPct sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &tsUnix, &r.Timeframe, &r.PredictedPrice,
			&r.ConfidenceScore, &trend, &r.TechnicalIndicators, &r.Reasoning,
			&valUnix, &actual, &accuracy, &errPct, &created); err != nil {
			return nil, fmt.Errorf("sqlite scan result: %w", err)
		}
		r.Timestamp = time.Unix(tsUnix, 0).UTC()
		r.ValidationTime = time.Unix(valUnix, 0).UTC()
		r.CreatedAt = time.Unix(created, 0).UTC()
		r.TrendDirection = model.TrendDirection(trend)
		r.ActualPrice = floatPtr(actual)
		r.Accuracy = floatPtr(accuracy)
		r.ErrorPercentage = floatPtr(errPct)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func unixOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}
