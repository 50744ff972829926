package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

// Messages for failures the ledger service does not name itself; see
// services.UserMessage for the rest.
const (
	msgNoFile           = "Please choose a file to import."
	msgUnknownFormat    = "Unknown export format."
	msgStorageFailed    = "Could not save your changes. Please try again."
	msgLoadFailed       = "Could not load transactions."
	msgCleared          = "All transactions cleared."
	msgDeleted          = "Transaction deleted."
	msgAdded            = "Transaction added."
	msgRequestMalformed = "Invalid request format."
)

// ledgerView is the data behind the page and the list partial.
type ledgerView struct {
	Query   string
	Rows    core.Collection
	Summary core.Summary
}

func (s *Server) loadView(r *http.Request) (ledgerView, error) {
	q := sanitizeInput(r.URL.Query().Get("q"))
	rows, err := s.ledger.List(r.Context(), q)
	if err != nil {
		return ledgerView{}, err
	}
	sum, err := s.getSummary(r.Context(), q)
	if err != nil {
		return ledgerView{}, err
	}
	return ledgerView{
		Query:   q,
		Rows:    rows,
		Summary: sum,
	}, nil
}

// logError records err against component and operation with the request's
// context attached.
func (s *Server) logError(r *http.Request, msg string, err error, component, op string, fields applog.LogFields) {
	applog.NewStructuredLogger(s.logger).LogError(r.Context(), msg, err, component, op, fields)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view, err := s.loadView(r)
	if err != nil {
		s.logError(r, "Failed to load ledger", err, applog.ComponentLedger, applog.OpList, nil)
		http.Error(w, msgLoadFailed, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", view); err != nil {
		s.logError(r, "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": "index.html"})
	}
}

// handleTransactionsPartial renders the list and summary for the current
// search.
func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	view, err := s.loadView(r)
	if err != nil {
		s.logError(r, "Failed to load ledger", err, applog.ComponentLedger, applog.OpList, nil)
		InternalServerError(msgLoadFailed).Write(w)
		return
	}
	if s.templates == nil {
		_, _ = fmt.Fprintf(w, `<section id="ledger"><div class="placeholder">Balance: %s</div></section>`,
			template.HTMLEscapeString(view.Summary.BalanceText()))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "transactions", view); err != nil {
		s.logError(r, "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": "transactions"})
	}
}

// handleTrend serves the chart series as JSON.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	series, err := s.getTrend(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to compute trend", applog.FieldError, err)
		http.Error(w, msgLoadFailed, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(series)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Parse entry body error", applog.FieldError, err)
		BadRequestError(msgRequestMalformed).Write(w)
		return
	}
	entry := parser.Entry()

	t, err := s.ledger.Add(r.Context(), entry.Desc, entry.Amount, entry.Date)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntry) {
			UnprocessableEntityError(services.UserMessage(err)).Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to add transaction",
			applog.NewFields().WithError(err).WithOperation(applog.OpCreate).ToSlice()...)
		InternalServerError(msgStorageFailed).Write(w)
		return
	}
	s.invalidate()

	s.logger.InfoContext(r.Context(), "Transaction created",
		applog.NewFields().
			WithTransaction(t.ID, t.Amount.String(), t.Date).
			WithOperation(applog.OpCreate).
			ToSlice()...)

	if parser.IsJSON() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(t)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged().
		TriggerFormReset().
		TriggerSuccessNotification(msgAdded).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msgAdded) + `</div>`).
		Write(w)
}

// handleDeleteTransaction serves /transactions/{id}/delete.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionIDFromPath(r.URL.EscapedPath())
	if !ok {
		http.NotFound(w, r)
		return
	}
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			NotFoundError(services.UserMessage(err)).Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete transaction",
			applog.NewFields().WithError(err).WithOperation(applog.OpDelete).ToSlice()...)
		InternalServerError(msgStorageFailed).Write(w)
		return
	}
	s.invalidate()

	NewHTMXResponse().
		TriggerLedgerChanged().
		TriggerSuccessNotification(msgDeleted).
		Write(w)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.ledger.Clear(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to clear transactions",
			applog.NewFields().WithError(err).WithOperation(applog.OpClear).ToSlice()...)
		InternalServerError(msgStorageFailed).Write(w)
		return
	}
	s.invalidate()

	NewHTMXResponse().
		TriggerLedgerChanged().
		TriggerSuccessNotification(msgCleared).
		Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	upload, err := ParseImportUpload(w, r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Import upload rejected", applog.FieldError, err)
		if errors.Is(err, errNoFile) {
			BadRequestError(msgNoFile).Write(w)
			return
		}
		BadRequestError(msgRequestMalformed).Write(w)
		return
	}

	res, err := s.ledger.Import(r.Context(), upload.Filename, upload.Content, upload.Policy)
	if err != nil {
		fields := applog.NewFields().WithImport(upload.Filename, string(upload.Policy), 0).WithError(err)
		switch {
		case errors.Is(err, services.ErrUnsupportedFormat):
			s.logger.WarnContext(r.Context(), "Import rejected", fields.ToSlice()...)
			ErrorResponse(http.StatusUnsupportedMediaType, services.UserMessage(err)).Write(w)
		case errors.Is(err, services.ErrMalformed):
			s.logger.WarnContext(r.Context(), "Import rejected", fields.ToSlice()...)
			UnprocessableEntityError(services.UserMessage(err)).Write(w)
		case errors.Is(err, services.ErrNoTransactions):
			s.logger.WarnContext(r.Context(), "Import rejected", fields.ToSlice()...)
			UnprocessableEntityError(services.UserMessage(err)).Write(w)
		default:
			s.logger.ErrorContext(r.Context(), "Import failed", fields.WithOperation(applog.OpImport).ToSlice()...)
			InternalServerError(msgStorageFailed).Write(w)
		}
		return
	}
	s.invalidate()
	atomic.AddInt64(&s.appMetrics.imports, 1)
	applog.NewStructuredLogger(s.logger).LogImport(r.Context(), upload.Filename, string(res.Policy), res.Count)

	msg := res.Message()
	NewHTMXResponse().
		TriggerLedgerChanged().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

// handleExport serves /export/{format} as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	format, err := services.ParseExportFormat(strings.TrimPrefix(r.URL.Path, "/export/"))
	if err != nil {
		NotFoundError(msgUnknownFormat).Write(w)
		return
	}

	file, err := s.ledger.Export(r.Context(), format)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNothingToExport):
			NotFoundError(services.UserMessage(err)).Write(w)
		case errors.Is(err, services.ErrSpreadsheetUnavailable):
			s.logger.WarnContext(r.Context(), "Spreadsheet export unavailable", applog.FieldError, err)
			ServiceUnavailableError(services.UserMessage(err)).Write(w)
		default:
			s.logger.ErrorContext(r.Context(), "Export failed",
				applog.NewFields().WithError(err).WithOperation(applog.OpExport).ToSlice()...)
			InternalServerError("Export failed.").Write(w)
		}
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)
	s.logger.InfoContext(r.Context(), "Export served",
		applog.FieldFormat, string(format), applog.FieldFilename, file.Filename, "bytes", len(file.Data))

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
