// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tasi-labs/finpipe/internal/extract"
	"github.com/tasi-labs/finpipe/internal/pipeline"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// IngestJob sweeps a drop directory for extracted filing batches and
// runs each through the pipeline. Processed batches are renamed with a
// .done suffix so a crashed run picks up where it left off.
type IngestJob struct {
	runner   *pipeline.Runner
	batchDir string
	logger   *logger.Logger
}

// NewIngestJob creates the nightly ingestion job.
func NewIngestJob(runner *pipeline.Runner, batchDir string, log *logger.Logger) *IngestJob {
	return &IngestJob{
		runner:   runner,
		batchDir: batchDir,
		logger:   log.WithField("job", "ingest"),
	}
}

// Name returns the job name.
func (j *IngestJob) Name() string {
	return "ingest"
}

// Schedule runs nightly at 2 AM, after the exchange's filing window.
func (j *IngestJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run processes every pending batch file in the drop directory.
func (j *IngestJob) Run(ctx context.Context) error {
	paths, err := filepath.Glob(filepath.Join(j.batchDir, "*.json"))
	if err != nil {
		return fmt.Errorf("scan batch dir %s: %w", j.batchDir, err)
	}
	if len(paths) == 0 {
		j.logger.Info("No pending batches")
		return nil
	}

	for _, path := range paths {
		items, err := extract.ReadBatch(path)
		if err != nil {
			j.logger.WithError(err).WithField("batch", path).Error("Batch unreadable, leaving in place")
			continue
		}

		summary, err := j.runner.Run(ctx, items)
		if err != nil {
			return fmt.Errorf("run batch %s: %w", path, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"batch":    filepath.Base(path),
			"inserted": summary.Inserted,
			"updated":  summary.Updated,
			"held":     summary.Held,
			"failed":   summary.Failed,
		}).Info("Batch processed")

		if err := os.Rename(path, path+".done"); err != nil {
			return fmt.Errorf("mark batch %s done: %w", path, err)
		}
	}

	return nil
}
