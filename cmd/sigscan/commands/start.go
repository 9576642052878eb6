package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/internal/telemetry"
	"github.com/marmos91/sigscan/pkg/api"
	"github.com/marmos91/sigscan/pkg/api/handlers"
	"github.com/marmos91/sigscan/pkg/config"
	"github.com/marmos91/sigscan/pkg/fileops"
	"github.com/marmos91/sigscan/pkg/journal"
	"github.com/marmos91/sigscan/pkg/metrics"
	promexp "github.com/marmos91/sigscan/pkg/metrics/prometheus"
	"github.com/marmos91/sigscan/pkg/router"
	"github.com/marmos91/sigscan/pkg/server"
	"github.com/spf13/cobra"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scan server",
	Long: `Start the sigscan server in the foreground.

The server listens on server.host:server.port, creates the quarantine
directory if needed and, unless disabled, serves the admin API on api.port.

The first SIGINT/SIGTERM stops the server according to shutdown.mode
("graceful" drains in-flight requests for up to shutdown.timeout, "force"
closes everything at once). A second signal forces the shutdown.

Examples:
  # Start with the default config location
  sigscan start

  # Start with a custom config file
  sigscan start --config /etc/sigscan/config.yaml

  # Override settings from the environment
  SIGSCAN_SERVER_PORT=7000 SIGSCAN_LOGGING_LEVEL=DEBUG sigscan start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Write the process ID to this file (used by 'sigscan stop')")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, cfg.TracingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		// ctx is cancelled by then; give the exporter its own window.
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := telemetryShutdown(flushCtx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(cfg.ProfilingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("SigScan - signature scan and quarantine server")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Metrics first so the constructors below return live collectors.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	sc := cfg.ServerContext()

	store, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Journal close error", logger.Err(err))
		}
	}()

	srv, rt, err := newScanServer(sc, store, server.WithMetrics(promexp.NewServerMetrics()))
	if err != nil {
		return err
	}

	var apiServer *api.Server
	if cfg.API.IsEnabled() {
		apiServer = api.NewServer(cfg.API, api.Dependencies{
			Server:  srv,
			Journal: store,
			Info: handlers.StatusInfo{
				Version:       Version,
				StartedAt:     time.Now(),
				Commands:      rt.Commands(),
				QuarantineDir: sc.QuarantineDir,
				ShutdownMode:  string(sc.ShutdownMode),
			},
		})
		logger.Info("API server enabled", logger.Address(cfg.API.Addr()))
	} else {
		logger.Info("API server disabled")
	}

	if pidFile != "" {
		if err := writePidFile(pidFile); err != nil {
			return err
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// A nil channel never fires when the API is disabled.
	var apiDone chan error
	if apiServer != nil {
		apiDone = make(chan error, 1)
		go func() {
			apiDone <- apiServer.Start(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String(), "mode", cfg.Shutdown.Mode)
		cancel()
		serveErr = waitForShutdown(srv, serverDone, sigChan)

	case serveErr = <-serverDone:
		cancel()

	case apiErr := <-apiDone:
		apiDone = nil
		logger.Error("API server stopped unexpectedly", logger.Err(apiErr))
		cancel()
		serveErr = waitForShutdown(srv, serverDone, sigChan)
		if serveErr == nil {
			serveErr = apiErr
		}
	}

	if apiDone != nil {
		if err := <-apiDone; err != nil {
			logger.Error("API server shutdown error", logger.Err(err))
		}
	}

	if serveErr != nil {
		logger.Error("Server stopped with error", logger.Err(serveErr))
		return serveErr
	}
	logger.Info("Server stopped")
	return nil
}

// waitForShutdown waits for Serve to return. Another signal while waiting
// kills the server instead of letting the drain run out.
func waitForShutdown(srv *server.Server, done <-chan error, sigs <-chan os.Signal) error {
	for {
		select {
		case err := <-done:
			return err
		case <-sigs:
			logger.Warn("Second signal received, forcing shutdown")
			srv.Kill()
		}
	}
}

// newScanServer builds the router and server from one server context. The
// quarantine directory is created here so the mover never runs without it.
func newScanServer(sc server.Context, store journal.Store, opts ...server.Option) (*server.Server, *router.Router, error) {
	if err := fileops.EnsureDir(sc.QuarantineDir); err != nil {
		return nil, nil, err
	}

	rt := router.New(fileops.NewMover(sc.QuarantineDir, store))
	srv, err := server.New(sc, rt, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, rt, nil
}

// openJournal opens the quarantine journal: BadgerDB when enabled,
// otherwise an in-memory store covering this process only.
func openJournal(cfg *config.Config) (journal.Store, error) {
	if !cfg.Quarantine.Journal.Enabled {
		logger.Info("Quarantine journal kept in memory")
		return journal.Instrument(journal.NewMemoryStore(), promexp.NewJournalMetrics("memory")), nil
	}

	store, err := journal.OpenBadger(cfg.Quarantine.Journal.Path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("failed to open quarantine journal at %s (check quarantine.journal.path): %w", cfg.Quarantine.Journal.Path, err)
		}
		return nil, fmt.Errorf("failed to open quarantine journal: %w", err)
	}
	logger.Info("Quarantine journal opened", logger.Path(cfg.Quarantine.Journal.Path))
	return journal.Instrument(store, promexp.NewJournalMetrics("badger")), nil
}
