package memory

import (
	"context"
	"fmt"
	"sync"

	"mindful/internal/sheets"
)

var _ sheets.SpendExporter = (*Store)(nil)

// Store keeps exported rows in memory. Re-exporting a spend id returns its original reference.
type Store struct {
	mu    sync.Mutex
	rows  []sheets.SpendRow
	index map[string]int
}

func New() *Store {
	return &Store{index: make(map[string]int)}
}

// ExportSpend stores the row and returns a synthetic row reference.
func (s *Store) ExportSpend(_ context.Context, row sheets.SpendRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[row.SpendID]; ok {
		return ref(i), nil
	}
	s.rows = append(s.rows, row)
	s.index[row.SpendID] = len(s.rows)
	return ref(len(s.rows)), nil
}

// Rows returns a copy of the exported rows in export order.
func (s *Store) Rows() []sheets.SpendRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.SpendRow(nil), s.rows...)
}

func ref(n int) string {
	return fmt.Sprintf("mem:%d", n)
}
