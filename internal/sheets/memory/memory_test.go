package memory

import (
	"bytes"
	"context"
	"testing"

	"bilancio/internal/sheets"
)

func TestMemoryStoreRecordsTables(t *testing.T) {
	s := New()
	w, err := s.Writer(context.Background())
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	var buf bytes.Buffer
	err = w.Write(context.Background(), &buf, sheets.Table{
		Name:   "T",
		Header: []string{"A", "B"},
		Rows:   [][]any{{"x", 1.5}},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "A\tB\nx\t1.5\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if tables := s.Tables(); len(tables) != 1 || tables[0].Name != "T" {
		t.Fatalf("unexpected tables: %+v", tables)
	}
}
