// Package docstore is a hierarchical JSON document store on top of SQLite.
// Values live at slash separated paths; reading a path returns the whole
// subtree beneath it, and every write is announced to watchers.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Op string

const (
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Change describes one committed write.
type Change struct {
	Op   Op     `json:"op"`
	Path string `json:"path"`
}

type Store struct {
	db    *sqlx.DB
	newID func() (string, error)

	mu       sync.RWMutex
	watchers map[int]func(Change)
	nextW    int
}

func New(db *sql.DB) *Store {
	return &Store{
		db:       sqlx.NewDb(db, "sqlite"),
		newID:    newPushID,
		watchers: make(map[int]func(Change)),
	}
}

// newPushID returns a time ordered id so children sort by creation.
func newPushID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

// Watch registers fn for every committed change and returns a function that
// unregisters it. fn runs on the writer's goroutine and must not block.
func (s *Store) Watch(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextW
	s.nextW++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Get returns the value at path as map[string]any, []any, a scalar, or nil
// when nothing is stored there.
func (s *Store) Get(ctx context.Context, path string) (any, error) {
	p, err := Clean(path)
	if err != nil {
		return nil, err
	}

	var rows []node
	if p == "" {
		err = s.db.SelectContext(ctx, &rows, `SELECT path, value FROM nodes ORDER BY path`)
	} else {
		lo, hi := subtreeBounds(p)
		err = s.db.SelectContext(ctx, &rows,
			`SELECT path, value FROM nodes WHERE path = ? OR (path >= ? AND path < ?) ORDER BY path`,
			p, lo, hi,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", p, err)
	}

	v, err := unflatten(p, rows)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", p, err)
	}
	return v, nil
}

// GetInto decodes the value at path into dst. It reports false when nothing
// is stored there and leaves dst untouched.
func (s *Store) GetInto(ctx context.Context, path string, dst any) (bool, error) {
	v, err := s.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal %q: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", path, err)
	}
	return true, nil
}

// Set replaces the value at path. A nil value removes it.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	p, err := Clean(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	leaves := make(map[string]string)
	if err := flatten(p, v, leaves); err != nil {
		return err
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		return replace(ctx, tx, p, leaves)
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", p, err)
	}

	op := OpSet
	if v == nil {
		op = OpRemove
	}
	s.notify(Change{Op: op, Path: p})
	return nil
}

// Update sets each field beneath path, leaving siblings untouched. Field
// names may themselves be slash separated child paths.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := Clean(path)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	type write struct {
		path   string
		leaves map[string]string
	}
	writes := make([]write, 0, len(keys))
	for _, k := range keys {
		child, err := Clean(Join(p, k))
		if err != nil {
			return err
		}
		if child == p {
			return fmt.Errorf("%w: empty field name under %q", ErrInvalidPath, p)
		}
		v, err := normalize(fields[k])
		if err != nil {
			return err
		}
		leaves := make(map[string]string)
		if err := flatten(child, v, leaves); err != nil {
			return err
		}
		writes = append(writes, write{path: child, leaves: leaves})
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, w := range writes {
			if err := replace(ctx, tx, w.path, w.leaves); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update %q: %w", p, err)
	}

	s.notify(Change{Op: OpUpdate, Path: p})
	return nil
}

// Push stores value under a newly generated child of path and returns the id.
func (s *Store) Push(ctx context.Context, path string, value any) (string, error) {
	p, err := Clean(path)
	if err != nil {
		return "", err
	}
	id, err := s.newID()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, Join(p, id), value); err != nil {
		return "", err
	}
	return id, nil
}

// Remove deletes the value at path and everything beneath it.
func (s *Store) Remove(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// replace clears the subtree at p, drops scalar ancestors that would shadow
// it, and inserts the new leaves.
func replace(ctx context.Context, tx *sqlx.Tx, p string, leaves map[string]string) error {
	if p == "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
			return fmt.Errorf("clear root: %w", err)
		}
	} else {
		lo, hi := subtreeBounds(p)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)`, p, lo, hi,
		); err != nil {
			return fmt.Errorf("clear subtree: %w", err)
		}
	}

	if len(leaves) == 0 {
		return nil
	}

	if anc := ancestors(p); len(anc) > 0 {
		query, args, err := sqlx.In(`DELETE FROM nodes WHERE path IN (?)`, anc)
		if err != nil {
			return fmt.Errorf("build ancestor delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("clear ancestors: %w", err)
		}
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO nodes (path, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for path, value := range leaves {
		if _, err := stmt.ExecContext(ctx, path, value); err != nil {
			return fmt.Errorf("insert %q: %w", path, err)
		}
	}
	return nil
}
