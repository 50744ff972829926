package services

import (
	"errors"

	"bilancio/internal/codec"
	"bilancio/internal/sheets"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrMalformed         = codec.ErrMalformed
	ErrNoTransactions    = errors.New("no transactions found")
	ErrNothingToExport   = errors.New("nothing to export")
	ErrNotFound          = errors.New("transaction not found")
	ErrInvalidEntry      = errors.New("invalid entry")

	// ErrSpreadsheetUnavailable is the sheets package sentinel, so either
	// name matches with errors.Is.
	ErrSpreadsheetUnavailable = sheets.ErrUnavailable
)

// UserMessage returns the sentence shown to a person for err, or "" when
// err is not one of the ledger's expected failures.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEntry):
		return "Please enter a valid description and amount."
	case errors.Is(err, ErrUnsupportedFormat):
		return "Unsupported file type. Use JSON or CSV."
	case errors.Is(err, ErrMalformed):
		return "Failed to parse imported file."
	case errors.Is(err, ErrNoTransactions):
		return "No transactions found in imported file."
	case errors.Is(err, ErrNothingToExport):
		return "No transactions to export."
	case errors.Is(err, ErrSpreadsheetUnavailable):
		return "Failed to load XLSX library."
	case errors.Is(err, ErrNotFound):
		return "Transaction not found."
	}
	return ""
}
