package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/moneymanager/internal/live"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/accounts/a1", "/accounts/a2", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := scrape(t, m)
	for _, want := range []string{
		`moneymanager_http_requests_total{method="GET",route="/accounts/{id}",status="404"} 2`,
		`moneymanager_http_requests_total{method="GET",route="/healthz",status="200"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
	if strings.Contains(out, "/accounts/a1") {
		t.Error("raw path used as a label")
	}
}

func TestWatchCountsChanges(t *testing.T) {
	m := New()
	bus := live.NewBus()
	stop := m.Watch(bus)

	bus.Publish(live.Transactions, live.Accounts)
	bus.Publish(live.Transactions)
	stop()
	bus.Publish(live.Transactions)

	out := scrape(t, m)
	for _, want := range []string{
		`moneymanager_ledger_changes_total{collection="transactions"} 2`,
		`moneymanager_ledger_changes_total{collection="accounts"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestImportFinished(t *testing.T) {
	m := New()
	m.ImportFinished(3, 2, 1)
	m.ImportFinished(1, 0, 0)

	out := scrape(t, m)
	for _, want := range []string{
		`moneymanager_import_records_total{outcome="imported"} 4`,
		`moneymanager_import_records_total{outcome="duplicate"} 2`,
		`moneymanager_import_records_total{outcome="rejected"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}
