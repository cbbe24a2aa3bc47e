package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tasi-labs/finpipe/internal/scheduler"
	"github.com/tasi-labs/finpipe/internal/scheduler/jobs"
	"github.com/tasi-labs/finpipe/pkg/config"
	"github.com/tasi-labs/finpipe/pkg/database"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the nightly ingestion scheduler",
	Long: `Starts the cron scheduler. The ingest job sweeps the batch
drop directory nightly and processes every pending batch file.

Example:
  go run ./cmd/finpipe schedule --dir filings/inbox
  go run ./cmd/finpipe schedule --dir filings/inbox --now`,
	RunE: runSchedule,
}

var (
	scheduleDir string
	scheduleNow bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleDir, "dir", "filings/inbox", "batch drop directory")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "trigger the ingest job immediately on startup")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	runner, auditFile, err := buildRunner(cfg, db, log)
	if err != nil {
		return err
	}
	defer auditFile.Close()

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewIngestJob(runner, scheduleDir, log)); err != nil {
		return fmt.Errorf("register ingest job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if scheduleNow {
		if err := sched.RunJob("ingest"); err != nil {
			return err
		}
	}

	fmt.Println("Scheduler running, press Ctrl+C to stop")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	return nil
}
