// Package memory holds an in-process BackupWriter used when no spreadsheet
// is configured and as a test double for the backup worker.
package memory

import (
	"context"
	"sync"

	ports "github.com/marufjanezz06-cmyk/my-wallet/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []ports.BackupRow
}

func New() *Store {
	return &Store{}
}

// Append stores the row in memory.
func (s *Store) Append(_ context.Context, row ports.BackupRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ports.BackupRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.BackupRow(nil), s.rows...)
}
