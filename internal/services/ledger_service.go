package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/codec"
	"bilancio/internal/core"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// EventPublisher receives an event after every successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.LedgerEvent) error
}

// ExportFormat names a download format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat accepts csv, json or xlsx in any case.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImportResult describes an applied import.
type ImportResult struct {
	Count  int // records in the imported file
	Total  int // records stored afterwards
	Policy core.ImportPolicy
}

func (r ImportResult) Message() string {
	return fmt.Sprintf("Imported %d transactions (%s).", r.Count, r.Policy.PastTense())
}

// LedgerService owns the collection. Every read-modify-write runs under one
// mutex so concurrent requests apply as whole user actions.
type LedgerService struct {
	mu        sync.Mutex
	store     *RecordStore
	publisher EventPublisher
	sheets    sheets.Provider
	now       func() time.Time
	newID     core.IDFunc
	trendDays int
	closers   []func() error
}

type Option func(*LedgerService)

func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithSpreadsheets(p sheets.Provider) Option {
	return func(s *LedgerService) { s.sheets = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithIDFunc(f core.IDFunc) Option {
	return func(s *LedgerService) { s.newID = f }
}

func WithTrendDays(days int) Option {
	return func(s *LedgerService) { s.trendDays = days }
}

// WithCloser registers a cleanup run by Close, in registration order.
func WithCloser(fn func() error) Option {
	return func(s *LedgerService) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}

func NewLedgerService(blobs storage.BlobStore, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     NewRecordStore(blobs),
		sheets:    sheets.Unavailable{},
		now:       time.Now,
		newID:     core.NewID,
		trendDays: core.TrendDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock.
func (s *LedgerService) Now() time.Time {
	return s.now()
}

// List returns the transactions whose description matches q.
func (s *LedgerService) List(ctx context.Context, q string) (core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return core.Filter(c, q), nil
}

func (s *LedgerService) Summary(ctx context.Context, q string) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.store.Load(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(c, q), nil
}

// Trend is computed over the whole collection, ignoring any search filter.
func (s *LedgerService) Trend(ctx context.Context) (core.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.store.Load(ctx)
	if err != nil {
		return core.Series{}, err
	}
	return core.Trend(c, s.now(), s.trendDays), nil
}

// Add validates a manual entry and prepends it.
func (s *LedgerService) Add(ctx context.Context, desc, amount, date string) (core.Transaction, error) {
	now := s.now()
	t, err := core.NewEntry(desc, amount, date, now, s.newID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.store.Load(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	next := make(core.Collection, 0, len(c)+1)
	next = append(next, t)
	next = append(next, c...)
	if err := s.store.Save(ctx, next); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction added", "id", t.ID, "amount", t.Amount.String(), "date", t.Date)
	s.publish(ctx, amqp.NewCreatedEvent(t.ID, now))
	return t, nil
}

// Delete removes the transaction with the given id.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if c.Find(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.store.Save(ctx, c.Without(id)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, amqp.NewDeletedEvent(id, s.now()))
	return nil
}

// Clear removes every transaction.
func (s *LedgerService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "All transactions cleared")
	s.publish(ctx, amqp.NewClearedEvent(s.now()))
	return nil
}

// Import parses content according to the filename extension, normalizes the
// records and reconciles them with the stored collection. Nothing is
// written unless at least one record was found.
func (s *LedgerService) Import(ctx context.Context, filename string, content []byte, policy core.ImportPolicy) (ImportResult, error) {
	now := s.now()
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	var incoming core.Collection
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		raws, err := codec.ParseJSON(content)
		if err != nil {
			return ImportResult{}, err
		}
		incoming = core.NormalizeAll(raws, now, s.newID)
	case ".csv":
		incoming = codec.ParseCSV(string(content), now, s.newID)
	default:
		return ImportResult{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	if len(incoming) == 0 {
		return ImportResult{}, ErrNoTransactions
	}
	if policy == "" {
		policy = core.PolicyMerge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.store.Load(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	next := core.Reconcile(existing, incoming, policy)
	if err := s.store.Save(ctx, next); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Count: len(incoming), Total: len(next), Policy: policy}
	slog.InfoContext(ctx, "Transactions imported",
		"file", filename, "incoming", res.Count, "total", res.Total, "policy", string(policy))
	s.publish(ctx, amqp.NewImportedEvent(res.Count, string(policy), now))
	return res, nil
}

// Export renders the full collection. An empty collection is an error.
func (s *LedgerService) Export(ctx context.Context, format ExportFormat) (ExportFile, error) {
	s.mu.Lock()
	c, err := s.store.Load(ctx)
	s.mu.Unlock()
	if err != nil {
		return ExportFile{}, err
	}
	if len(c) == 0 {
		return ExportFile{}, ErrNothingToExport
	}

	now := s.now()
	var buf bytes.Buffer
	var out ExportFile
	switch format {
	case FormatCSV:
		err = codec.EncodeCSV(&buf, c)
		out = ExportFile{Filename: "transactions.csv", ContentType: "text/csv; charset=utf-8"}
	case FormatJSON:
		err = codec.EncodeJSON(&buf, c, now)
		out = ExportFile{Filename: "transactions.json", ContentType: "application/json"}
	case FormatXLSX:
		err = codec.EncodeSpreadsheet(ctx, &buf, s.sheets, c)
		out = ExportFile{
			Filename:    "transactions_" + core.Today(now) + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}
	default:
		return ExportFile{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return ExportFile{}, fmt.Errorf("export %s: %w", format, err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// Version identifies the stored collection; derived views cached under
// one version stay valid until it changes.
func (s *LedgerService) Version(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Version(ctx)
}

// Ping reports whether the record store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *LedgerService) publish(ctx context.Context, ev amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The change is already stored.
		slog.ErrorContext(ctx, "Failed to publish ledger event", "type", ev.Type, "error", err)
	}
}

// Close runs the registered cleanups.
func (s *LedgerService) Close() error {
	var errs []error
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
