package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reggie/internal/core/ports"
	"reggie/internal/shared/util"
)

const (
	driverName   = "sqlite"
	maxAttempts  = 5
	DefaultLimit = 20

	// Fixed width so ts_utc sorts chronologically as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store persists completed traversal runs in SQLite.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

var _ ports.RunRecorder = (*Store)(nil)

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}
	if err := util.EnsureParentDir(cleanPath); err != nil {
		return nil, fmt.Errorf("create history directory for %q: %w", cleanPath, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

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

// SaveRun inserts run, filling in a fresh id and the current time when unset.
func (s *Store) SaveRun(ctx context.Context, run ports.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	const query = `
INSERT INTO runs (id, ts_utc, root, provider, strategy, threads, node_count, elapsed_ns)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`
	return s.withRetry("save run", func() error {
		_, err := s.db.ExecContext(ctx, query,
			run.ID,
			run.Timestamp.UTC().Format(timestampLayout),
			run.Root,
			run.Provider,
			run.Strategy,
			run.Threads,
			run.Count,
			run.Elapsed.Nanoseconds(),
		)
		return err
	})
}

// LoadRuns returns up to limit runs, newest first.
func (s *Store) LoadRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = DefaultLimit
	}

	const query = `
SELECT id, ts_utc, root, provider, strategy, threads, node_count, elapsed_ns
FROM runs
ORDER BY ts_utc DESC, id ASC
LIMIT ?
`
	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]ports.RunRecord, 0)
	for rows.Next() {
		var (
			tsRaw     string
			elapsedNs int64
			run       ports.RunRecord
		)
		if err := rows.Scan(&run.ID, &tsRaw, &run.Root, &run.Provider, &run.Strategy, &run.Threads, &run.Count, &elapsedNs); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(timestampLayout, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Elapsed = time.Duration(elapsedNs)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
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
