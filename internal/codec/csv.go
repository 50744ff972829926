// Package codec converts transaction collections to and from the
// exchange formats: CSV, JSON and spreadsheet.
package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"bilancio/internal/core"
)

// CSVHeader is the column order written on export and expected on import.
var CSVHeader = []string{"id", "desc", "amount", "date"}

// ParseCSV reads a CSV export back into transactions. It never fails:
// blank lines are skipped, short rows get empty trailing fields, and
// fields that do not parse fall back to their defaults. A quoted field may
// span lines; one whose closing quote never comes is cut at its own line so
// the rows after it survive.
func ParseCSV(text string, now time.Time, newID core.IDFunc) core.Collection {
	var (
		header []string
		out    = core.Collection{}
	)
	for _, chunk := range splitRecords(text) {
		r := csv.NewReader(strings.NewReader(chunk))
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		for {
			rec, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				var perr *csv.ParseError
				if errors.As(err, &perr) {
					slog.Warn("Skipping malformed CSV row", "line", perr.Line, "error", err)
					continue
				}
				slog.Error("CSV read aborted", "error", err)
				break
			}
			if blankRecord(rec) {
				continue
			}
			if header == nil {
				header = headerNames(rec)
				continue
			}
			raw := make(core.RawRecord, len(header))
			for i, name := range header {
				if i < len(rec) {
					raw[name] = rec[i]
				} else {
					raw[name] = ""
				}
			}
			out = append(out, core.Normalize(raw, now, newID))
		}
	}
	return out
}

// splitRecords cuts text into chunks holding one CSV record each. Lines are
// joined while a quoted field is open. When a field opened on line i is
// still open at the end of the text, line i becomes a record of its own and
// splitting resumes at line i+1.
func splitRecords(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	n := len(lines)

	// openAfter[i] is the quote state at the end of line i when the line
	// starts inside a quoted field; closeFrom[i] is the first line k >= i
	// where that state closes, or n.
	openAfter := make([]bool, n)
	for i, l := range lines {
		openAfter[i] = scanQuotes(l, true)
	}
	closeFrom := make([]int, n+1)
	closeFrom[n] = n
	for i := n - 1; i >= 0; i-- {
		if !openAfter[i] {
			closeFrom[i] = i
		} else {
			closeFrom[i] = closeFrom[i+1]
		}
	}

	var chunks []string
	for i := 0; i < n; {
		if !scanQuotes(lines[i], false) {
			chunks = append(chunks, lines[i])
			i++
			continue
		}
		end := n
		if i+1 < n {
			end = closeFrom[i+1]
		}
		if end == n {
			chunks = append(chunks, strings.TrimRight(lines[i], "\r\n"))
			i++
			continue
		}
		chunks = append(chunks, strings.Join(lines[i:end+1], ""))
		i = end + 1
	}
	return chunks
}

// scanQuotes reports whether a quoted field is still open at the end of
// line, following encoding/csv's lazy quote rules: a quote opens a field
// only at its start, and inside a field only a quote followed by a comma
// or the end of the line closes it.
func scanQuotes(line string, open bool) bool {
	fieldStart := !open
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case open:
			if c != '"' {
				continue
			}
			if i+1 < len(line) && line[i+1] == '"' {
				i++
				continue
			}
			if i+1 == len(line) || line[i+1] == ',' || line[i+1] == '\r' || line[i+1] == '\n' {
				open = false
			}
		case c == '"' && fieldStart:
			open = true
			fieldStart = false
		case c == ',':
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	return open
}

func headerNames(rec []string) []string {
	names := make([]string, len(rec))
	for i, h := range rec {
		h = strings.TrimPrefix(h, "\ufeff")
		names[i] = strings.ToLower(strings.Trim(strings.TrimSpace(h), `"`))
	}
	return names
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// EncodeCSV writes the header and one row per transaction. Text fields are
// quoted when they contain a comma, quote or line break; the amount is
// written as a bare number.
func EncodeCSV(w io.Writer, txs core.Collection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write([]string{t.ID, t.Desc, t.Amount.String(), t.Date}); err != nil {
			return fmt.Errorf("write csv row %q: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
