package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

// SheetName is the worksheet holding exported transactions.
const SheetName = "Transactions"

// SheetHeader is the spreadsheet header row.
var SheetHeader = []string{"ID", "Description", "Amount", "Date"}

// TransactionTable lays the collection out as a worksheet. Amounts are
// numeric cells.
func TransactionTable(txs core.Collection) sheets.Table {
	rows := make([][]any, len(txs))
	for i, t := range txs {
		rows[i] = []any{t.ID, t.Desc, t.Amount.InexactFloat64(), t.Date}
	}
	return sheets.Table{Name: SheetName, Header: SheetHeader, Rows: rows}
}

// EncodeSpreadsheet renders the collection through the provider's writer.
// Nothing reaches w unless the whole workbook was produced. A provider
// without a writer yields sheets.ErrUnavailable.
func EncodeSpreadsheet(ctx context.Context, w io.Writer, p sheets.Provider, txs core.Collection) error {
	if p == nil {
		return sheets.ErrUnavailable
	}
	sw, err := p.Writer(ctx)
	if err != nil {
		return fmt.Errorf("spreadsheet provider: %w", err)
	}
	var buf bytes.Buffer
	if err := sw.Write(ctx, &buf, TransactionTable(txs)); err != nil {
		return fmt.Errorf("render spreadsheet: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}
