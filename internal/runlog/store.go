// Package runlog persists experiment run history in a local sqlite
// database. The schema is managed by embedded migrations so an empty
// database file is usable immediately.
package runlog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/monitoring"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/piezo"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one row of experiment history.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	TotalSteps int
	Mode       string
	Waveform   string
	State      string
}

// StepRecord is one executed sweep step of a run.
type StepRecord struct {
	RunID      string
	Index      int
	Voltage    float64
	Bias       float64
	Frequency  float64
	DataDir    string
	RecordedAt time.Time
}

// Store wraps the sqlite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run log database: %w", err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent recording.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// RunStarted inserts a new run row and returns its generated id.
func (s *Store) RunStarted(totalSteps int, mode, waveform string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, total_steps, mode, waveform, state)
		VALUES (?, ?, ?, ?, ?, 'running')`,
		id, time.Now().UTC().Format(time.RFC3339), totalSteps, mode, waveform)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// StepRecorded appends one executed step to the run.
func (s *Store) StepRecorded(runID string, index int, sp piezo.Setpoint, dir string) error {
	_, err := s.db.Exec(`
		INSERT INTO steps (run_id, step_index, voltage, bias, frequency, data_dir, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, index, sp.Voltage, sp.Bias, sp.Frequency, dir,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting step: %w", err)
	}
	return nil
}

// RunFinished stamps the run with its terminal state.
func (s *Store) RunFinished(runID string, state string) error {
	_, err := s.db.Exec(`
		UPDATE runs SET state = ?, finished_at = ? WHERE id = ?`,
		state, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Runs returns all runs, most recent first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, COALESCE(finished_at, ''), total_steps, mode, waveform, state
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.TotalSteps, &r.Mode, &r.Waveform, &r.State); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Steps returns the executed steps of a run in execution order.
func (s *Store) Steps(runID string) ([]StepRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, step_index, voltage, bias, frequency, data_dir, recorded_at
		FROM steps WHERE run_id = ? ORDER BY step_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var st StepRecord
		var recorded string
		if err := rows.Scan(&st.RunID, &st.Index, &st.Voltage, &st.Bias, &st.Frequency, &st.DataDir, &recorded); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		st.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
		steps = append(steps, st)
	}
	return steps, rows.Err()
}
