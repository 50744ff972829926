package sheets

import (
	"context"
	"errors"
	"io"
)

// ErrUnavailable is returned by a Provider whose spreadsheet capability is
// missing or switched off.
var ErrUnavailable = errors.New("spreadsheet writer unavailable")

type (
	// Table is one worksheet: its name, a header row and the data rows.
	Table struct {
		Name   string
		Header []string
		Rows   [][]any
	}

	// Writer renders a table into a spreadsheet document.
	Writer interface {
		Write(ctx context.Context, w io.Writer, t Table) error
	}

	// Provider hands out a Writer, or ErrUnavailable.
	Provider interface {
		Writer(ctx context.Context) (Writer, error)
	}
)

// Unavailable is a Provider that never has a writer.
type Unavailable struct{}

func (Unavailable) Writer(context.Context) (Writer, error) { return nil, ErrUnavailable }
