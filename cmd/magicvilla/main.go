package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/magicvilla/internal/api"
	"github.com/erazemk/magicvilla/internal/config"
	"github.com/erazemk/magicvilla/internal/metrics"
	"github.com/erazemk/magicvilla/internal/store"
	"github.com/erazemk/magicvilla/internal/villa"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags holds command-line overrides. Only flags the user actually set are
// applied on top of the file and environment configuration.
type flags struct {
	configPath string
	driver     string
	dsn        string
	addr       string
	logPath    string
	logFormat  string
	seed       bool
}

func newRootCmd() *cobra.Command {
	var f flags

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd, &f)
		if err != nil {
			return err
		}
		return runServer(cmd.Context(), cfg)
	}

	root := &cobra.Command{
		Use:          "magicvilla",
		Short:        "MagicVilla villa API server",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&f.driver, "db-driver", "", "store backend: sqlite, postgres or bolt (default sqlite)")
	pf.StringVarP(&f.dsn, "db", "d", "", "database path or DSN (default depends on driver)")
	pf.StringVarP(&f.logPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	pf.StringVar(&f.logFormat, "log-format", "", "log format: text or json (default text)")
	pf.BoolVar(&f.seed, "seed", false, "insert the demo villas into an empty store")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVarP(&f.addr, "addr", "a", "", "listen address (default :8080)")
	root.Flags().AddFlagSet(serveCmd.Flags())

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the schema and optionally seed demo villas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}
			return runInit(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	root.AddCommand(serveCmd, initCmd)
	return root
}

func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("db-driver") {
		cfg.Database.Driver = store.Driver(f.driver)
		if !changed("db") {
			cfg.Database.DSN = config.DefaultDSN(cfg.Database.Driver)
		}
	}
	if changed("db") {
		cfg.Database.DSN = f.dsn
	}
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("log") {
		cfg.Log.Path = f.logPath
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runInit(ctx context.Context, cfg config.Config, out io.Writer) error {
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	fmt.Fprintf(out, "Store ready: %s (%s)\n", cfg.Database.DSN, cfg.Database.Driver)

	if cfg.Seed {
		n, err := store.Seed(ctx, st, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("seeding villas: %w", err)
		}
		fmt.Fprintf(out, "Seeded %d demo villas.\n", n)
	}
	return nil
}

func runServer(ctx context.Context, cfg config.Config) error {
	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	closeLog, err := setupLogger(cfg.Log, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		return err
	}
	defer st.Close()

	slog.Info("store ready", "driver", cfg.Database.Driver)

	rec := metrics.NewRecorder()
	svc := villa.NewService(st, villa.WithObserver(rec), villa.WithLogger(slog.Default()))

	if cfg.Seed {
		n, err := svc.Seed(ctx)
		if err != nil {
			slog.Error("failed to seed store", "error", err)
			return err
		}
		if n > 0 {
			slog.Info("seeded demo villas", "count", n)
		}
	}

	handler := api.LoggingMiddleware(api.NewRouter(svc, rec.Handler()), rec)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return err
	}

	slog.Info("server stopped, closing store")
	return nil
}
