package core

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RawRecord is a loosely typed transaction as found in an import file.
type RawRecord map[string]any

// Normalize turns a raw record into a Transaction:
//   - id: coerced to string, a fresh id when empty
//   - desc: coerced to string and trimmed, "" when absent
//   - amount: number or numeric string rounded to cents, 0 otherwise
//   - date: today when absent, canonicalized to YYYY-MM-DD otherwise
func Normalize(raw RawRecord, now time.Time, newID IDFunc) Transaction {
	if newID == nil {
		newID = NewID
	}
	id := strings.TrimSpace(stringValue(raw["id"]))
	if id == "" {
		id = newID()
	}
	return Transaction{
		ID:     id,
		Desc:   strings.TrimSpace(stringValue(raw["desc"])),
		Amount: AmountFromAny(raw["amount"]),
		Date:   NormalizeDate(stringValue(raw["date"]), now),
	}
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(raws []RawRecord, now time.Time, newID IDFunc) Collection {
	out := make(Collection, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r, now, newID))
	}
	return out
}

// NormalizeDate returns s as an ISO date. Empty input means today; other
// recognizable date or timestamp formats are reduced to their calendar date.
// Unrecognizable input also falls back to today so the persisted collection
// only ever holds valid dates.
func NormalizeDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Today(now)
	}
	if IsISODate(s) {
		return s
	}
	if t, err := dateparse.ParseIn(s, now.Location()); err == nil {
		return t.Format(DateLayout)
	}
	slog.Warn("Unrecognized transaction date, using today", "date", s)
	return Today(now)
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
