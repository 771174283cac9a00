package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/mtreecluster/internal/config"
	"github.com/haivivi/mtreecluster/internal/coordinator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordinator HTTP server",
	Long: `serve starts the coordinator's HTTP surface and blocks until SIGINT
or SIGTERM.

Environment variables:
  CONSISTENT_HASHER_REPLICAS  virtual points per worker in the ring (default 100)
  ORCHESTRATOR_HOST           bind host (default 0.0.0.0)
  ORCHESTRATOR_PORT           bind port (default 5000)
  LOG_LEVEL                   DEBUG, INFO, WARN, or ERROR (default INFO)
  COORDINATOR_FANOUT_TIMEOUT  per-worker deadline for insert/search calls (default 2s)
  COORDINATOR_STATUS_TIMEOUT  per-worker deadline for status calls (default 500ms)

No workers are registered at start; register them with
'POST /register_worker' or the cluster's deployment tooling.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadCoordinator()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	coord := coordinator.New(coordinator.Config{
		Replicas:      cfg.Replicas,
		FanoutTimeout: cfg.FanoutTimeout,
		StatusTimeout: cfg.StatusTimeout,
	})

	server := coordinator.NewServer(coord)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{Addr: addr, Handler: server}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("coordinator listening", "addr", addr, "replicas", cfg.Replicas)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	logger.Info("coordinator stopped")
	return nil
}
