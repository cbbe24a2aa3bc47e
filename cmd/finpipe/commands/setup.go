package commands

import (
	"fmt"

	"github.com/tasi-labs/finpipe/internal/classify"
	"github.com/tasi-labs/finpipe/internal/normalize"
	"github.com/tasi-labs/finpipe/internal/pipeline"
	"github.com/tasi-labs/finpipe/internal/refdata"
	"github.com/tasi-labs/finpipe/internal/store"
	"github.com/tasi-labs/finpipe/internal/validate"
	"github.com/tasi-labs/finpipe/pkg/config"
	"github.com/tasi-labs/finpipe/pkg/database"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// stages bundles the pure pipeline stages built from reference data.
type stages struct {
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	validator  *validate.Validator
}

// buildStages loads reference data and wires the stateless stages.
func buildStages(cfg *config.Config) (*stages, error) {
	registry, err := refdata.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load institution registry: %w", err)
	}

	overrides, err := refdata.LoadUnitOverrides(cfg.UnitOverridesPath)
	if err != nil {
		return nil, fmt.Errorf("load unit overrides: %w", err)
	}

	return &stages{
		normalizer: normalize.New(overrides),
		classifier: classify.New(registry),
		validator:  validate.New(validate.Config{TargetFiscalYear: cfg.Ingest.TargetFiscalYear}),
	}, nil
}

// buildRunner wires the full pipeline against the database and the
// audit file.
func buildRunner(cfg *config.Config, db *database.DB, log *logger.Logger) (*pipeline.Runner, *store.AuditWriter, error) {
	st, err := buildStages(cfg)
	if err != nil {
		return nil, nil, err
	}

	repo := store.NewRepository(db.Pool)

	auditFile, err := store.NewAuditWriter(cfg.AuditLogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit file: %w", err)
	}

	runner := pipeline.NewRunner(
		st.normalizer, st.classifier, st.validator,
		repo, auditFile,
		pipeline.Config{
			Workers:           cfg.Ingest.Workers,
			StoreWritesPerSec: cfg.Ingest.StoreWritesPerSec,
		},
		log,
	)

	return runner, auditFile, nil
}
