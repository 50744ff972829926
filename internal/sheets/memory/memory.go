// Package memory is an in-process sheets.Provider that records every table
// it is asked to write. Output is tab separated text.
package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"bilancio/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	tables []sheets.Table
}

func New() *Store {
	return &Store{}
}

func (s *Store) Writer(_ context.Context) (sheets.Writer, error) {
	return s, nil
}

// Write records the table and renders it as TSV.
func (s *Store) Write(_ context.Context, w io.Writer, t sheets.Table) error {
	s.mu.Lock()
	s.tables = append(s.tables, t)
	s.mu.Unlock()

	var b strings.Builder
	b.WriteString(strings.Join(t.Header, "\t"))
	b.WriteByte('\n')
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = fmt.Sprint(c)
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Tables returns a copy of everything written so far.
func (s *Store) Tables() []sheets.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Table(nil), s.tables...)
}
