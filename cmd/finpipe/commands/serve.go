package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasi-labs/finpipe/internal/api"
	"github.com/tasi-labs/finpipe/internal/api/handlers"
	"github.com/tasi-labs/finpipe/internal/store"
	"github.com/tasi-labs/finpipe/pkg/config"
	"github.com/tasi-labs/finpipe/pkg/database"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the operator API server",
	Long: `Starts the HTTP server exposing the review queue and the
ingestion audit trail.

Endpoints:
  GET /health          - Health check
  GET /api/review      - Records held for operator review
  GET /api/audit       - Recent ingestion decisions
  GET /api/stats       - Statement counts per fiscal year

Example:
  go run ./cmd/finpipe serve
  go run ./cmd/finpipe serve --port 8087`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := store.NewRepository(db.Pool)
	ingestHandler := handlers.NewIngestHandler(repo, cfg.Ingest.TargetFiscalYear, log)
	router := api.NewRouter(ingestHandler, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
