package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"bilancio/internal/core"
)

// ExportVersion is written into every JSON export envelope.
const ExportVersion = 1

// ErrMalformed reports import content that is not valid JSON. An empty
// but well-formed document is not an error.
var ErrMalformed = errors.New("malformed import content")

// Envelope is the JSON export document.
type Envelope struct {
	Version    int             `json:"version"`
	ExportedAt string          `json:"exportedAt"`
	Txs        core.Collection `json:"txs"`
}

// ParseJSON accepts either a bare array of transaction objects or an
// object whose "txs" field holds such an array. Any other shape yields no
// records. Array elements that are not objects are skipped.
func ParseJSON(data []byte) ([]core.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrMalformed)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		if arr, ok := v["txs"].([]any); ok {
			items = arr
		}
	}

	out := make([]core.RawRecord, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, core.RawRecord(m))
		}
	}
	return out, nil
}

// EncodeJSON writes the indented export envelope.
func EncodeJSON(w io.Writer, txs core.Collection, exportedAt time.Time) error {
	if txs == nil {
		txs = core.Collection{}
	}
	env := Envelope{
		Version:    ExportVersion,
		ExportedAt: exportedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Txs:        txs,
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	_, err = w.Write(b)
	return err
}
