package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tagren/internal/domain"
	"tagren/internal/ports"
)

const (
	schemaVersion = "1"
	fileName      = "journal.db"
)

// Journal implements ports.Journal using SQLite
type Journal struct {
	db   *sql.DB
	path string
}

// Ensure Journal implements ports.Journal
var _ ports.Journal = (*Journal)(nil)

// Open opens (or creates) the journal inside dataDir
func Open(dataDir string) (*Journal, error) {
	return OpenPath(filepath.Join(dataDir, fileName))
}

// OpenPath opens (or creates) the journal database at path
func OpenPath(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA synchronous = FULL;

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			input_dir TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			policy TEXT NOT NULL,
			dry_run INTEGER NOT NULL,
			ok INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS items (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			source_dir TEXT NOT NULL,
			old_name TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			base TEXT NOT NULL,
			idx INTEGER NOT NULL,
			final_name TEXT NOT NULL,
			status TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS stages (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			temp TEXT NOT NULL,
			destination TEXT NOT NULL,
			state TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id);
		CREATE INDEX IF NOT EXISTS idx_stages_state ON stages(state);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	return &Journal{db: db, path: path}, nil
}

// Path returns the database file
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// BeginRun inserts a run row and returns its id
func (j *Journal) BeginRun(info ports.RunInfo) (int64, error) {
	started := info.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	res, err := j.db.Exec(`
		INSERT INTO runs (started_at, input_dir, output_dir, policy, dry_run)
		VALUES (?, ?, ?, ?, ?)
	`, started.UnixMilli(), info.InputDir, info.OutputDir, info.Policy, boolToInt(info.DryRun))
	if err != nil {
		return 0, fmt.Errorf("failed to begin run: %w", err)
	}
	return res.LastInsertId()
}

// RecordItems stores item outcomes in one transaction
func (j *Journal) RecordItems(runID int64, recs []domain.ItemRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO items (run_id, source_dir, old_name, raw_text, base, idx, final_name, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.Exec(runID, r.SourceDir, r.OldName, r.RawText, r.Base, r.Index, r.FinalName, string(r.Status)); err != nil {
			return fmt.Errorf("failed to record %s: %w", r.OldName, err)
		}
	}
	return tx.Commit()
}

// RecordStage inserts a stage row
func (j *Journal) RecordStage(rec ports.StageRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO stages (run_id, seq, source, temp, destination, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Seq, rec.Source, rec.Temp, rec.Destination, string(rec.State), time.Now().UnixMilli())
	return err
}

// UpdateStage moves a stage row to state
func (j *Journal) UpdateStage(runID int64, seq int, state ports.StageState) error {
	res, err := j.db.Exec(`
		UPDATE stages SET state = ?, updated_at = ? WHERE run_id = ? AND seq = ?
	`, string(state), time.Now().UnixMilli(), runID, seq)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("stage %d of run %d not found", seq, runID)
	}
	return nil
}

// FinishRun stores the run's totals and terminal error
func (j *Journal) FinishRun(runID int64, ok, failed int, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := j.db.Exec(`
		UPDATE runs SET finished_at = ?, ok = ?, failed = ?, error = ? WHERE id = ?
	`, time.Now().UnixMilli(), ok, failed, msg, runID)
	return err
}

// UnresolvedStages returns stage rows that still need attention
func (j *Journal) UnresolvedStages() ([]ports.StageRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, seq, source, temp, destination, state
		FROM stages
		WHERE state NOT IN (?, ?, ?, ?)
		ORDER BY run_id, seq
	`, string(ports.StageCommitted), string(ports.StageFallback), string(ports.StageRolledBack), string(ports.StageRecovered))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.StageRecord
	for rows.Next() {
		var rec ports.StageRecord
		var state string
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Source, &rec.Temp, &rec.Destination, &state); err != nil {
			return nil, err
		}
		rec.State = ports.StageState(state)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentRuns returns up to limit runs, newest first
func (j *Journal) RecentRuns(limit int) ([]ports.RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`
		SELECT id, started_at, finished_at, input_dir, output_dir, policy, dry_run, ok, failed, error
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.RunInfo
	for rows.Next() {
		var info ports.RunInfo
		var started int64
		var finished sql.NullInt64
		var dryRun int
		if err := rows.Scan(&info.ID, &started, &finished, &info.InputDir, &info.OutputDir,
			&info.Policy, &dryRun, &info.OK, &info.Failed, &info.Error); err != nil {
			return nil, err
		}
		info.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			info.FinishedAt = time.UnixMilli(finished.Int64)
		}
		info.DryRun = dryRun != 0
		out = append(out, info)
	}
	return out, rows.Err()
}

// RunItems returns the recorded outcomes of one run in insertion order
func (j *Journal) RunItems(runID int64) ([]domain.ItemRecord, error) {
	rows, err := j.db.Query(`
		SELECT source_dir, old_name, raw_text, base, idx, final_name, status
		FROM items WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ItemRecord
	for rows.Next() {
		var r domain.ItemRecord
		var status string
		if err := rows.Scan(&r.SourceDir, &r.OldName, &r.RawText, &r.Base, &r.Index, &r.FinalName, &status); err != nil {
			return nil, err
		}
		r.Status = domain.Status(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		if _, err := j.run(runID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ErrRunNotFound is returned for an unknown run id
var ErrRunNotFound = errors.New("run not found")

func (j *Journal) run(runID int64) (int64, error) {
	var id int64
	err := j.db.QueryRow(`SELECT id FROM runs WHERE id = ?`, runID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return id, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
