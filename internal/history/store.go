// Package history keeps a local ledger of analyses run and content
// generated, so past work stays visible without spending API calls.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the local history ledger.
type Store struct {
	db *sql.DB
}

// AnalysisRecord is one locally recorded analysis run.
type AnalysisRecord struct {
	UUID      string
	SiteUUID  string
	Status    string
	StartedAt time.Time
}

// ContentRecord is one locally recorded content generation.
type ContentRecord struct {
	AnalysisUUID string
	Filename     string
	CreditsUsed  int
	CreatedAt    time.Time
}

// DefaultPath is ~/.botsee/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".botsee", "history.db"), nil
}

// Open opens (or creates) the history database at path and runs pending
// migrations. Pass ":memory:" for an in-memory database (used by tests).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func parseMigrationVersion(name string) (int, error) {
	base, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration filename %q missing version prefix", name)
	}
	v, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("migration filename %q: %w", name, err)
	}
	return v, nil
}

// RecordAnalysis inserts (or refreshes) a locally observed analysis run.
func (s *Store) RecordAnalysis(rec AnalysisRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO analyses (uuid, site_uuid, status, started_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(uuid) DO UPDATE SET status = excluded.status`,
		rec.UUID, rec.SiteUUID, rec.Status, rec.StartedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// SetAnalysisStatus updates the recorded status for an analysis.
func (s *Store) SetAnalysisStatus(uuid, status string) error {
	_, err := s.db.Exec(`UPDATE analyses SET status = ? WHERE uuid = ?`, status, uuid)
	return err
}

// RecentAnalyses returns up to limit recorded analyses, newest first.
func (s *Store) RecentAnalyses(limit int) ([]AnalysisRecord, error) {
	rows, err := s.db.Query(
		`SELECT uuid, site_uuid, status, started_at FROM analyses ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var startedAt string
		if err := rows.Scan(&rec.UUID, &rec.SiteUUID, &rec.Status, &startedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at for %s: %w", rec.UUID, err)
		}
		rec.StartedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordContent inserts a locally generated content record.
func (s *Store) RecordContent(rec ContentRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO content (analysis_uuid, filename, credits_used, created_at) VALUES (?, ?, ?, ?)`,
		rec.AnalysisUUID, rec.Filename, rec.CreditsUsed, rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// RecentContent returns up to limit content records, newest first.
func (s *Store) RecentContent(limit int) ([]ContentRecord, error) {
	rows, err := s.db.Query(
		`SELECT analysis_uuid, filename, credits_used, created_at FROM content ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContentRecord
	for rows.Next() {
		var rec ContentRecord
		var createdAt string
		if err := rows.Scan(&rec.AnalysisUUID, &rec.Filename, &rec.CreditsUsed, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for %s: %w", rec.Filename, err)
		}
		rec.CreatedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
