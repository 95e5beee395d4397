package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/simonvc/moneymanager/internal/logging"
	"github.com/simonvc/moneymanager/internal/metrics"
	"github.com/simonvc/moneymanager/internal/server"
	"github.com/simonvc/moneymanager/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Addr = serveAddr
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, srv, err := openServer(ctx, cfg.Addr, serveMetrics)
		if err != nil {
			return err
		}
		defer st.Close()

		slog.Info("serving ledger", "addr", cfg.Addr, "db", cfg.DBPath, "tz", cfg.TimeZone)
		return srv.ListenAndServe(ctx)
	},
}

// openServer opens the configured store, seeds it when enabled and builds
// a server around it.
func openServer(ctx context.Context, addr string, withMetrics bool) (*store.Store, *server.Server, error) {
	logger := slog.Default()
	loc := cfg.Location()

	st, err := store.Open(cfg.DBPath, store.WithLogger(logger), store.WithLocation(loc))
	if err != nil {
		return nil, nil, err
	}
	if cfg.Seed {
		if _, err := st.Seed(ctx, cfg.Currency); err != nil {
			st.Close()
			return nil, nil, err
		}
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithLocation(loc),
		server.WithReporter(logging.Reporter{Logger: logger}),
	}
	if withMetrics {
		m := metrics.New()
		m.Watch(st.Bus())
		opts = append(opts, server.WithMetrics(m))
	}
	return st, server.New(st, addr, opts...), nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", cfg.Addr, "Listen address")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "Expose Prometheus metrics on /metrics")
	rootCmd.AddCommand(serveCmd)
}
