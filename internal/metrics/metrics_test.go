package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"ledger/internal/core"
	"ledger/internal/store"
)

func TestObserveChange(t *testing.T) {
	kind := string(store.ChangeCategoryAdded)
	before := testutil.ToFloat64(StoreChanges.WithLabelValues(kind))
	failedBefore := testutil.ToFloat64(PersistFailures.WithLabelValues(kind))

	ObserveChange(context.Background(), store.Change{
		Kind:         store.ChangeCategoryAdded,
		Transactions: 3,
		Categories:   core.Categories{Income: []string{"A"}, Expense: []string{"B", "C"}},
		PersistErr:   errors.New("disk full"),
	})

	if got := testutil.ToFloat64(StoreChanges.WithLabelValues(kind)); got != before+1 {
		t.Errorf("changes_total = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(PersistFailures.WithLabelValues(kind)); got != failedBefore+1 {
		t.Errorf("persist_failures_total = %v, want %v", got, failedBefore+1)
	}
	if got := testutil.ToFloat64(Transactions); got != 3 {
		t.Errorf("transactions = %v, want 3", got)
	}
	if got := testutil.ToFloat64(Categories.WithLabelValues("expense")); got != 2 {
		t.Errorf("categories{expense} = %v, want 2", got)
	}
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Delete("/api/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/transactions/abc", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	n := testutil.CollectAndCount(HTTPRequestDuration, "ledger_http_request_duration_seconds")
	if n == 0 {
		t.Fatal("expected at least one observed series")
	}
}
