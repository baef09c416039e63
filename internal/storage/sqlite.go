// Package storage provides the persistence backends for wingo: an in-memory
// store, a JSON file store and a SQLite store with run history.
// SQLite uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/registry"
)

func init() {
	registry.Register("sqlite", func(path string) (registry.Store, error) {
		return OpenSQLite(path)
	})
}

// SQLite stores the ledger, the saved run and the run history in one
// database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func OpenSQLite(dbPath string) (*SQLite, error) {
	dbPath, err := ExpandHome(dbPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &SQLite{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *SQLite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS saved_run (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			biome_id TEXT NOT NULL,
			difficulty_id TEXT NOT NULL,
			victory INTEGER NOT NULL DEFAULT 0,
			floors INTEGER NOT NULL DEFAULT 0,
			damage INTEGER NOT NULL DEFAULT 0,
			calls INTEGER NOT NULL DEFAULT 0,
			coins INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_biome ON runs(biome_id);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(biome_id, floors DESC, damage DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadMeta returns the stored ledger, or nil if none was saved.
func (s *SQLite) LoadMeta() (*meta.State, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM meta WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load meta: %w", err)
	}

	var m meta.State
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("storage: cannot decode meta: %w", err)
	}
	return &m, nil
}

// SaveMeta replaces the stored ledger.
func (s *SQLite) SaveMeta(m *meta.State) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("storage: cannot encode meta: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO meta (id, data, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save meta: %w", err)
	}
	return nil
}

// LoadRun returns the saved run snapshot, or nil if there is none.
func (s *SQLite) LoadRun() ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM saved_run WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load run: %w", err)
	}
	return data, nil
}

// SaveRun replaces the saved run snapshot.
func (s *SQLite) SaveRun(snapshot []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO saved_run (id, data, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		snapshot,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save run: %w", err)
	}
	return nil
}

// DeleteRun removes the saved run.
func (s *SQLite) DeleteRun() error {
	if _, err := s.db.Exec("DELETE FROM saved_run"); err != nil {
		return fmt.Errorf("storage: cannot delete run: %w", err)
	}
	return nil
}

// RecordRun appends a finished run to the history.
func (s *SQLite) RecordRun(rec registry.Record) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, seed, biome_id, difficulty_id, victory, floors, damage, calls, coins)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		int64(rec.Seed),
		rec.BiomeID,
		rec.DifficultyID,
		rec.Victory,
		rec.FloorsCleared,
		rec.DamageDealt,
		rec.CallsMade,
		rec.CoinsEarned,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot record run: %w", err)
	}
	return nil
}

// TopRuns retrieves the best runs for a biome, or for every biome when
// biomeID is empty. Results are ordered by floors cleared, then damage.
func (s *SQLite) TopRuns(biomeID string, limit int) ([]registry.Record, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, seed, biome_id, difficulty_id, victory, floors, damage, calls, coins, created_at
		 FROM runs
		 WHERE ? = '' OR biome_id = ?
		 ORDER BY floors DESC, damage DESC, id ASC
		 LIMIT ?`,
		biomeID, biomeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var records []registry.Record
	for rows.Next() {
		var rec registry.Record
		var seed int64
		var createdAt any
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&seed,
			&rec.BiomeID,
			&rec.DifficultyID,
			&rec.Victory,
			&rec.FloorsCleared,
			&rec.DamageDealt,
			&rec.CallsMade,
			&rec.CoinsEarned,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		rec.Seed = uint32(seed)
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

// Stats aggregates the whole run history.
func (s *SQLite) Stats() (registry.Stats, error) {
	var st registry.Stats
	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(victory), 0), COALESCE(MAX(floors), 0),
		        COALESCE(AVG(damage), 0), MAX(created_at)
		 FROM runs`,
	).Scan(&st.Runs, &st.Victories, &st.BestFloors, &st.AvgDamage, &lastPlayed)
	if err != nil {
		return st, fmt.Errorf("storage: cannot get run stats: %w", err)
	}
	st.LastPlayed = parseTime(lastPlayed)
	return st, nil
}

// parseTime handles both time.Time and the string form SQLite returns for
// DATETIME columns.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

var (
	_ registry.Store           = (*SQLite)(nil)
	_ registry.HistoryRecorder = (*SQLite)(nil)
	_ registry.HistoryReader   = (*SQLite)(nil)
)
