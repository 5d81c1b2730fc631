// Package history keeps a SQLite journal of relocation runs: their state
// transitions and every value they rewrote.
package history

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/projmv/internal/sqlutil"
)

// DefaultFile is the journal file name.
const DefaultFile = "history.db"

// CurrentVersion is the journal schema version.
const CurrentVersion = 1

// Store is the SQLite journal handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one recorded relocation.
type Run struct {
	ID         int64     `json:"id"`
	Root       string    `json:"root"`
	Project    string    `json:"project"`
	Target     string    `json:"target"`
	State      string    `json:"state"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Changes    []Change  `json:"changes,omitempty"`
}

// Change is one value rewritten by a run.
type Change struct {
	Kind     string `json:"kind"`
	File     string `json:"file"`
	OldValue string `json:"old"`
	NewValue string `json:"new"`
}

// StateDir is where journals live by default: $XDG_STATE_HOME/projmv, or
// ~/.local/state/projmv when that is unset.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); filepath.IsAbs(dir) {
		return filepath.Join(dir, "projmv")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "projmv")
	}
	return filepath.Join(os.TempDir(), "projmv")
}

// PathFor returns the default journal location for a tree root. Each tree
// gets its own directory under StateDir, keyed by its absolute path, so
// nothing is written inside the tree being relocated.
func PathFor(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	sum := sha256.Sum256([]byte(abs))
	key := fmt.Sprintf("%s-%x", filepath.Base(abs), sum[:6])
	return filepath.Join(StateDir(), "trees", key, DefaultFile)
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return newStore(db)
}

// OpenInMemory opens an in-memory journal (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	db.SetMaxOpenConns(1)
	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			root TEXT NOT NULL,
			project TEXT NOT NULL,
			target TEXT NOT NULL,
			state TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			finished_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS transitions (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			state TEXT NOT NULL,
			at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS changes (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			file TEXT NOT NULL,
			old_value TEXT NOT NULL,
			new_value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_transitions_run ON transitions(run_id);
		CREATE INDEX IF NOT EXISTS idx_changes_run ON changes(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('version', ?) ON CONFLICT(key) DO NOTHING`,
		fmt.Sprint(CurrentVersion),
	)
	return err
}

// Start records a new run and returns its id.
func (s *Store) Start(root, project, target string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (root, project, target, state, started_at) VALUES (?, ?, ?, 'started', ?)`,
		root, project, target, s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return res.LastInsertId()
}

// Transition records that run id entered state.
func (s *Store) Transition(id int64, state string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	at := s.now().UnixMilli()
	if _, err := tx.Exec(`INSERT INTO transitions (run_id, state, at) VALUES (?, ?, ?)`, id, state, at); err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	if _, err := tx.Exec(`UPDATE runs SET state = ? WHERE id = ?`, state, id); err != nil {
		return fmt.Errorf("failed to update run state: %w", err)
	}
	return tx.Commit()
}

// RecordChange records one rewritten value.
func (s *Store) RecordChange(id int64, kind, file, oldValue, newValue string) error {
	_, err := s.db.Exec(
		`INSERT INTO changes (run_id, kind, file, old_value, new_value) VALUES (?, ?, ?, ?, ?)`,
		id, kind, file, oldValue, newValue,
	)
	if err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}
	return nil
}

// Finish closes run id with its terminal state.
func (s *Store) Finish(id int64, state, message string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET state = ?, message = ?, finished_at = ? WHERE id = ?`,
		state, message, s.now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// List returns the most recent runs first, with their changes.
// limit <= 0 returns every run.
func (s *Store) List(limit int) ([]Run, error) {
	query := `SELECT id, root, project, target, state, message, started_at, finished_at FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	runs, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (Run, error) {
		var r Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Root, &r.Project, &r.Target, &r.State, &r.Message, &started, &finished); err != nil {
			return r, err
		}
		r.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			r.FinishedAt = time.UnixMilli(finished.Int64)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	changes, err := s.changes(ids)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		runs[i].Changes = changes[runs[i].ID]
	}
	return runs, nil
}

// Transitions returns the states run id went through, in order.
func (s *Store) Transitions(id int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT state FROM transitions WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var state string
		err := rows.Scan(&state)
		return state, err
	})
}

func (s *Store) changes(ids []int64) (map[int64][]Change, error) {
	placeholders, args := sqlutil.InClauseArgs(ids)
	rows, err := s.db.Query(
		`SELECT run_id, kind, file, old_value, new_value FROM changes WHERE run_id IN (`+placeholders+`) ORDER BY rowid`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load changes: %w", err)
	}
	type row struct {
		runID int64
		c     Change
	}
	all, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (row, error) {
		var r row
		err := rows.Scan(&r.runID, &r.c.Kind, &r.c.File, &r.c.OldValue, &r.c.NewValue)
		return r, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]Change)
	for _, r := range all {
		out[r.runID] = append(out[r.runID], r.c)
	}
	return out, nil
}
