// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists the set of already-announced publication
// identifiers in a SQLite database. The set is loaded fully into memory at
// open; each mark is one durable transaction, so a crash mid-run never
// loses a delivered announcement and never records an undelivered one.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"
)

// ErrCorrupt marks an unreadable or malformed backing store. Fatal:
// guessing and resetting would either re-announce history or silently
// lose it.
var ErrCorrupt = errors.New("ledger corrupt")

const (
	dbFile   = "ledger.db"
	lockFile = "pubwatch.lock"
)

// Store is the announced-publication ledger. It owns an exclusive lock on
// the state directory for its lifetime; a second concurrent run fails at
// Open instead of sharing the database.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	ids  map[string]struct{}
}

// Open locks stateDir, opens (or creates) the ledger database inside it,
// and loads the full identifier set. A missing database yields an empty
// ledger; an unreadable one yields ErrCorrupt.
func Open(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	lock := flock.New(filepath.Join(stateDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking state directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("state directory %s is in use by another run", stateDir)
	}

	db, err := sql.Open("sqlite3", filepath.Join(stateDir, dbFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db, lock: lock, ids: make(map[string]struct{})}

	if err := s.createSchema(); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := s.loadAll(); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}

// Close releases the database and the run lock.
func (s *Store) Close() error {
	dbErr := s.db.Close()
	if err := s.lock.Unlock(); err != nil {
		return err
	}
	return dbErr
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS announced (
		pmid TEXT PRIMARY KEY,
		announced_at TEXT NOT NULL,
		title TEXT
	)`)
	return err
}

func (s *Store) loadAll() error {
	rows, err := s.db.Query(`SELECT pmid FROM announced`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.ids[id] = struct{}{}
	}
	return rows.Err()
}

// Contains reports whether id has already been announced.
func (s *Store) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of announced identifiers.
func (s *Store) Len() int { return len(s.ids) }

// IDs returns all announced identifiers in ascending order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Mark durably records one announced identifier. The write commits before
// Mark returns; marking an already-present identifier is a no-op.
func (s *Store) Mark(ctx context.Context, id, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO announced (pmid, announced_at, title) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), title,
	)
	if err != nil {
		return fmt.Errorf("marking %s: %w", id, err)
	}
	s.ids[id] = struct{}{}
	return nil
}

// MarkAll records identifiers in one transaction: either the full set is
// durably written or the prior state stands.
func (s *Store) MarkAll(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO announced (pmid, announced_at, title) VALUES (?, ?, '')`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, now); err != nil {
			return fmt.Errorf("marking %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}

// legacyLedger is the JSON shape of the predecessor's posted_papers file.
type legacyLedger struct {
	PMIDs []string `json:"pmids"`
}

// ImportJSON merges a legacy posted-papers JSON document ({"pmids": [...]})
// into the ledger and returns how many identifiers were new.
func (s *Store) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	var legacy legacyLedger
	if err := json.NewDecoder(r).Decode(&legacy); err != nil {
		return 0, fmt.Errorf("parsing legacy ledger: %w", err)
	}

	var fresh []string
	for _, id := range legacy.PMIDs {
		if !s.Contains(id) {
			fresh = append(fresh, id)
		}
	}
	if err := s.MarkAll(ctx, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
