// # internal/history/store.go
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nuxtscan/internal/output"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Snapshot is one analyzer run reduced to its counts. Watch mode appends a
// snapshot per rescan so regressions show up across saves.
type Snapshot struct {
	RunID         string
	ProjectKey    string
	SchemaVersion int
	Timestamp     time.Time
	Mode          string
	UnitCount     int
	SkippedCount  int
	SymbolCount   int
	EdgeCount     int
	Categories    map[output.Category]int
}

// NewSnapshot assigns a fresh run id and captures finding counts.
func NewSnapshot(mode string, findings []output.Finding) Snapshot {
	return Snapshot{
		RunID:      uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Mode:       mode,
		Categories: output.CountByCategory(findings),
	}
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) SaveSnapshot(projectKey string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}
	if snapshot.RunID == "" {
		snapshot.RunID = uuid.NewString()
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	query := `
INSERT INTO runs (
  run_id, project_key, schema_version, ts_utc, mode, unit_count, skipped_count,
  symbol_count, edge_count, unused_export_count, unused_import_count,
  unused_variable_count, unused_css_class_count, unused_package_count,
  unresolved_import_count, vulnerability_count, known_vulnerability_count,
  console_call_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	return s.withRetry("save snapshot", func() error {
		_, err := s.db.Exec(
			query,
			snapshot.RunID,
			projectKey,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.Mode,
			snapshot.UnitCount,
			snapshot.SkippedCount,
			snapshot.SymbolCount,
			snapshot.EdgeCount,
			snapshot.Categories[output.CategoryUnusedExport],
			snapshot.Categories[output.CategoryUnusedImport],
			snapshot.Categories[output.CategoryUnusedVariable],
			snapshot.Categories[output.CategoryUnusedCssClass],
			snapshot.Categories[output.CategoryUnusedPackage],
			snapshot.Categories[output.CategoryUnresolvedImport],
			snapshot.Categories[output.CategoryVulnerability],
			snapshot.Categories[output.CategoryKnownVulnerability],
			snapshot.Categories[output.CategoryConsoleCall],
		)
		return err
	})
}

func (s *Store) LoadSnapshots(projectKey string, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	query := `
SELECT
  run_id, project_key, schema_version, ts_utc, mode, unit_count, skipped_count,
  symbol_count, edge_count, unused_export_count, unused_import_count,
  unused_variable_count, unused_css_class_count, unused_package_count,
  unresolved_import_count, vulnerability_count, known_vulnerability_count,
  console_call_count
FROM runs
WHERE project_key = ?`
	args := []any{projectKey}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, run_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw    string
			snapshot Snapshot
			counts   [9]int
		)
		if err := rows.Scan(
			&snapshot.RunID,
			&snapshot.ProjectKey,
			&snapshot.SchemaVersion,
			&tsRaw,
			&snapshot.Mode,
			&snapshot.UnitCount,
			&snapshot.SkippedCount,
			&snapshot.SymbolCount,
			&snapshot.EdgeCount,
			&counts[0], &counts[1], &counts[2], &counts[3], &counts[4],
			&counts[5], &counts[6], &counts[7], &counts[8],
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()

		snapshot.Categories = map[output.Category]int{
			output.CategoryUnusedExport:       counts[0],
			output.CategoryUnusedImport:       counts[1],
			output.CategoryUnusedVariable:     counts[2],
			output.CategoryUnusedCssClass:     counts[3],
			output.CategoryUnusedPackage:      counts[4],
			output.CategoryUnresolvedImport:   counts[5],
			output.CategoryVulnerability:      counts[6],
			output.CategoryKnownVulnerability: counts[7],
			output.CategoryConsoleCall:        counts[8],
		}

		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
