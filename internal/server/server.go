package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/simonvc/moneymanager/internal/importer"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/metrics"
	"github.com/simonvc/moneymanager/internal/stats"
	"github.com/simonvc/moneymanager/internal/store"
)

type Server struct {
	store    *store.Store
	importer *importer.Importer
	stats    *stats.Service
	metrics  *metrics.Metrics
	reporter ledger.Reporter
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time
	router   chi.Router
	addr     string
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithLocation sets the zone used for stats periods and legacy dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// WithMetrics instruments the router and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithReporter(r ledger.Reporter) Option {
	return func(s *Server) { s.reporter = r }
}

func New(st *store.Store, addr string, opts ...Option) *Server {
	s := &Server{
		store:    st,
		addr:     addr,
		log:      slog.Default(),
		loc:      time.Local,
		now:      time.Now,
		reporter: ledger.NopReporter,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.importer = importer.New(st, importer.WithLocation(s.loc), importer.WithLogger(s.log))
	s.stats = stats.NewService(st, st.Bus(), s.loc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/healthz", s.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		// Accounts
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts", s.listAccounts)
		r.Get("/accounts/{id}", s.getAccount)
		r.Patch("/accounts/{id}", s.updateAccount)
		r.Delete("/accounts/{id}", s.deleteAccount)
		r.Post("/accounts/{id}/recompute", s.recomputeBalance)
		r.Get("/balances/check", s.checkBalances)

		// Categories
		r.Post("/categories", s.createCategory)
		r.Get("/categories", s.listCategories)
		r.Get("/categories/{id}", s.getCategory)
		r.Patch("/categories/{id}", s.updateCategory)
		r.Delete("/categories/{id}", s.deleteCategory)

		// Transactions
		r.Post("/transactions", s.createTransaction)
		r.Get("/transactions", s.listTransactions)
		r.Get("/transactions/{id}", s.getTransaction)
		r.Patch("/transactions/{id}", s.updateTransaction)
		r.Delete("/transactions/{id}", s.deleteTransaction)

		// Stats
		r.Get("/stats", s.getStats)
		r.Get("/stats/watch", s.watchStats)

		// Data management
		r.Post("/import/legacy", s.importLegacy)
		r.Post("/import/legacy/check", s.checkLegacy)
		r.Get("/export/legacy", s.exportLegacy)
		r.Get("/backup", s.backup)
		r.Post("/restore", s.restore)
		r.Post("/clear", s.clear)

		r.Get("/currencies", s.listCurrencies)
	})

	s.router = r
	return s
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("moneymanager server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		switch {
		case status >= 500:
			s.log.Error("request failed", attrs...)
		case status >= 400:
			s.log.Warn("request rejected", attrs...)
		default:
			s.log.Debug("request ok", attrs...)
		}
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
