// Package excel writes sheets.Table values as XLSX workbooks.
package excel

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"bilancio/internal/sheets"
)

const defaultSheet = "Sheet1"

// Provider hands out the excelize writer when enabled.
type Provider struct {
	Enabled bool
}

func (p Provider) Writer(_ context.Context) (sheets.Writer, error) {
	if !p.Enabled {
		return nil, sheets.ErrUnavailable
	}
	return Writer{}, nil
}

// Writer builds a single-sheet workbook per call.
type Writer struct{}

func (Writer) Write(ctx context.Context, w io.Writer, t sheets.Table) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Closing workbook failed", "error", err)
		}
	}()

	name := t.Name
	if name == "" {
		name = defaultSheet
	}
	if name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
