package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
)

type summaryResponse struct {
	core.Totals
	Recent []core.Transaction `json:"recent"`
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	Total        *decimal.Decimal   `json:"total,omitempty"`
}

type historyResponse struct {
	Type   core.TransactionType `json:"type"`
	Order  core.SortOrder       `json:"order"`
	Total  decimal.Decimal      `json:"total"`
	Months []core.MonthGroup    `json:"months"`
}

type categoryListResponse struct {
	Type       core.TransactionType `json:"type"`
	Categories []string             `json:"categories"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, "limit", s.recentLimit)
	writeJSON(w, http.StatusOK, summaryResponse{
		Totals: s.ledger.Totals(),
		Recent: nonNil(s.ledger.RecentTransactions(limit)),
	})
}

// handleListTransactions lists every transaction, or one type's history when
// ?type= is given, ordered by creation time.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	order := parseOrder(r)

	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := core.ParseType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		txs := nonNil(s.ledger.History(t, order))
		total := s.ledger.TypeTotal(t)
		writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, Count: len(txs), Total: &total})
		return
	}

	txs := nonNil(s.ledger.Sorted(order))
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, Count: len(txs)})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(r.Context(), "Invalid request body", log.FieldError, err.Error())
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := ParseNewTransaction(p)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	tx, err := s.ledger.AddTransaction(r.Context(), in)
	if err != nil {
		if !errors.Is(err, core.ErrValidation) {
			fields := log.NewFields().WithTransaction(tx.ID, in.Type.String(), in.Amount.String(), in.Category)
			log.NewStructuredLogger(logger).LogError(r.Context(), "Transaction create failed", err, log.ComponentHTTP, log.OpCreate, fields)
		}
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

// handleDeleteTransaction answers 204 whether or not the id existed.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(chi.URLParam(r, "id"))
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Transaction delete failed",
			log.FieldTransactionID, id, log.FieldError, err.Error())
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	t, err := core.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	order := parseOrder(r)
	months := s.ledger.MonthlyHistory(t, order)
	if months == nil {
		months = []core.MonthGroup{}
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Type:   t,
		Order:  order,
		Total:  s.ledger.TypeTotal(t),
		Months: months,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	t, err := core.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.ledger.AddCategory(r.Context(), t, p.Get("name")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryListResponse{Type: t, Categories: nonNil(s.ledger.CategoriesFor(t))})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	t, err := core.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	name, err := pathParam(r, "name")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category name")
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), t, name); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathParam returns the decoded value of a route parameter. chi matches on
// RawPath when the request has one, leaving escapes like %2F in the value.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
