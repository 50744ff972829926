package excel

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"bilancio/internal/sheets"
)

func TestProviderDisabled(t *testing.T) {
	_, err := Provider{}.Writer(context.Background())
	if !errors.Is(err, sheets.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestWriteWorkbook(t *testing.T) {
	w, err := Provider{Enabled: true}.Writer(context.Background())
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	var buf bytes.Buffer
	table := sheets.Table{
		Name:   "Transactions",
		Header: []string{"ID", "Description", "Amount", "Date"},
		Rows: [][]any{
			{"a", "Pay", 1000.0, "2024-01-01"},
			{"b", "Rent", -500.5, "2024-01-02"},
		},
	}
	if err := w.Write(context.Background(), &buf, table); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "Description" || rows[2][0] != "b" || rows[2][2] != "-500.5" {
		t.Fatalf("unexpected content: %v", rows)
	}
}
