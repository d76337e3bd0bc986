// Package snapshot stores traversal results as a tree in SQLite and serves
// that tree back as a NodeProvider, so a namespace captured once can be
// walked again offline.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"os"
	"runtime"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
	"reggie/internal/shared/util"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
  id INTEGER PRIMARY KEY,
  parent_id INTEGER REFERENCES nodes(id) ON DELETE CASCADE,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_parent_name ON nodes(COALESCE(parent_id, -1), name);
`

type Store struct {
	path string
	db   *sql.DB
}

var _ ports.NodeProvider = (*Store)(nil)

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("snapshot path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("snapshot path %q is a directory, expected file", cleanPath)
	}
	if err := util.EnsureParentDir(cleanPath); err != nil {
		return nil, fmt.Errorf("create snapshot directory for %q: %w", cleanPath, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite snapshot %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(runtime.GOMAXPROCS(0))

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite snapshot %q: %w", cleanPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize snapshot schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the tree stored under rootID with the nodes rec recorded
// below that root.
func (s *Store) Save(ctx context.Context, rootID string, rec *Recorder) (err error) {
	ids, nodes, ok := rec.subtree(rootID)
	if !ok {
		return errors.AddContext(errors.New(errors.CodeNotFound, "root was not recorded"), errors.CtxRoot, rootID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE parent_id IS NULL AND name = ?`, rootID); err != nil {
		return fmt.Errorf("clear snapshot root %q: %w", rootID, err)
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO nodes (parent_id, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer insert.Close()

	rows := make(map[int]int64, len(ids))
	for i, n := range nodes {
		var parent any
		if i > 0 {
			parent = rows[n.parent]
		}
		res, err := insert.ExecContext(ctx, parent, n.name)
		if err != nil {
			return fmt.Errorf("insert snapshot node %q: %w", n.name, err)
		}
		row, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read snapshot node id: %w", err)
		}
		rows[ids[i]] = row
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}
	return nil
}

// Roots lists the stored root ids in name order.
func (s *Store) Roots(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM nodes WHERE parent_id IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan snapshot root: %w", err)
		}
		roots = append(roots, name)
	}
	return roots, rows.Err()
}

type nodeHandle struct {
	id int64
}

func (nodeHandle) Close() error { return nil }

func (s *Store) OpenRoot(rootID string) (ports.Handle, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM nodes WHERE parent_id IS NULL AND name = ?`, rootID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.AddContext(errors.New(errors.CodeRootUnavailable, "root not in snapshot"), errors.CtxRoot, rootID)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeRootUnavailable, "query snapshot root"), errors.CtxRoot, rootID)
	}
	return nodeHandle{id: id}, nil
}

// Children reads all names before yielding so no query stays open while the
// caller opens children.
func (s *Store) Children(node ports.Handle) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		h, ok := node.(nodeHandle)
		if !ok {
			yield("", errors.New(errors.CodeInternal, "foreign handle"))
			return
		}
		names, err := s.childNames(h.id)
		for _, name := range names {
			if !yield(name, nil) {
				return
			}
		}
		if err != nil {
			yield("", errors.Wrap(err, errors.CodeEnumeration, "query snapshot children"))
		}
	}
}

func (s *Store) childNames(id int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM nodes WHERE parent_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return slices.Clip(names), rows.Err()
}

func (s *Store) OpenChild(node ports.Handle, name string) (ports.Handle, error) {
	h, ok := node.(nodeHandle)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "foreign handle")
	}
	var id int64
	err := s.db.QueryRow(`SELECT id FROM nodes WHERE parent_id = ? AND name = ?`, h.id, name).Scan(&id)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeChildUnavailable, "query snapshot child"), errors.CtxChild, name)
	}
	return nodeHandle{id: id}, nil
}
