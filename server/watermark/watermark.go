// Package watermark implements the Watermark Store (C9): one JSON
// document per table recording how far the Incremental Sync Coordinator
// (C12) has progressed, guarded by a per-table mutex within the process.
package watermark

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brightloom/icebridge/pkg/errors"
)

var ErrIOFailed = errors.MustNewCode("watermark.io_failed")

const filePermissions = 0644

// Watermark is the persisted sync state for one table. Exactly one of
// LastSyncTimestamp/LastSyncID is populated, matching whichever
// watermark_type the transfer configuration declared.
type Watermark struct {
	TableName           string     `json:"table_name"`
	LastSyncTimestamp   *time.Time `json:"last_sync_timestamp,omitempty"`
	LastSyncID          *int64     `json:"last_sync_id,omitempty"`
	LastIcebergSnapshot *int64     `json:"last_iceberg_snapshot,omitempty"`
	RowCount            int64      `json:"row_count"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Store persists one Watermark document per table under a directory,
// writes are not required to be atomic: a lost write only triggers a
// re-sync of at most one cycle's worth of rows, which the idempotent
// upsert merge (C11) absorbs safely.
type Store struct {
	dir string

	tableLocksMu sync.Mutex
	tableLocks   map[string]*sync.Mutex
}

// New returns a Store persisting documents under dir, created if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(ErrIOFailed, "failed to create watermark directory", err).AddContext("dir", dir)
	}
	return &Store{dir: dir, tableLocks: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) lockFor(table string) *sync.Mutex {
	s.tableLocksMu.Lock()
	defer s.tableLocksMu.Unlock()
	m, ok := s.tableLocks[table]
	if !ok {
		m = &sync.Mutex{}
		s.tableLocks[table] = m
	}
	return m
}

func (s *Store) path(table string) string {
	return filepath.Join(s.dir, table+".watermark.json")
}

// Get returns the stored watermark for table, or (nil, nil) if none has
// been persisted yet (an unsynced table).
func (s *Store) Get(table string) (*Watermark, error) {
	lock := s.lockFor(table)
	lock.Lock()
	defer lock.Unlock()

	raw, err := os.ReadFile(s.path(table))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to read watermark", err).AddContext("table", table)
	}

	var w Watermark
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errors.New(ErrIOFailed, "failed to parse watermark json", err).AddContext("table", table)
	}
	return &w, nil
}

// Set overwrites the stored watermark for table.
func (s *Store) Set(table string, w Watermark) error {
	lock := s.lockFor(table)
	lock.Lock()
	defer lock.Unlock()

	w.TableName = table
	raw, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return errors.New(ErrIOFailed, "failed to marshal watermark", err).AddContext("table", table)
	}
	if err := os.WriteFile(s.path(table), raw, filePermissions); err != nil {
		return errors.New(ErrIOFailed, "failed to write watermark", err).AddContext("table", table)
	}
	return nil
}
