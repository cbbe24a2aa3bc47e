// Package store is the only component with side effects on the
// persistent store. It merges validated records into the
// financial_statements fact table and its 1:1 financial_metrics
// companion, deduplicating by (ticker, fiscal_year, fiscal_quarter)
// with newer extraction dates winning.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// ErrUpsertConflict signals a lost race on the extraction_date
// compare-and-swap. Callers retry once, then treat the record as stale.
var ErrUpsertConflict = errors.New("concurrent upsert on same record key")

// ErrNotInsertable is returned when a record whose disposition is not
// InsertReady reaches Upsert. The pipeline gates on disposition before
// calling; this guards against misuse.
var ErrNotInsertable = errors.New("record disposition does not permit insertion")

// Repository persists financial statements and derived metrics.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new statement repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert merges one validated record into the store. The statement row
// and its metrics row commit in a single transaction; readers never see
// a statement without its ratios.
//
// Dedup policy on (ticker, fiscal_year, fiscal_quarter):
//   - no existing row → Inserted
//   - existing row with older extraction_date → Updated
//   - existing row with equal extraction_date → SkippedDuplicate
//   - existing row with later extraction_date → SkippedStale
//
// A concurrent writer that slips between our read and our write trips
// the extraction_date guard on the UPDATE and surfaces as
// ErrUpsertConflict.
func (r *Repository) Upsert(
	ctx context.Context,
	rec *contracts.NormalizedFinancialRecord,
	derived *contracts.DerivedMetrics,
	validation *contracts.ValidationResult,
) (*contracts.UpsertOutcome, error) {
	if validation.Disposition != contracts.DispositionInsertReady {
		return nil, fmt.Errorf("%w: %s", ErrNotInsertable, validation.Disposition)
	}

	key := rec.Key()
	outcome := &contracts.UpsertOutcome{Key: key}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID int64
	var existingDate time.Time
	err = tx.QueryRow(ctx, `
		SELECT statement_id, extraction_date
		FROM financial_statements
		WHERE ticker = $1 AND fiscal_year = $2 AND fiscal_quarter = $3
		FOR UPDATE
	`, key.Ticker, key.Year, string(key.Quarter)).Scan(&existingID, &existingDate)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id, insErr := r.insertStatement(ctx, tx, rec, validation)
		if insErr != nil {
			return nil, insErr
		}
		if mErr := r.upsertMetrics(ctx, tx, id, derived); mErr != nil {
			return nil, mErr
		}
		outcome.Action = contracts.ActionInserted
		outcome.StatementID = id

	case err != nil:
		return nil, fmt.Errorf("read existing statement %s: %w", key, err)

	case existingDate.Equal(rec.ExtractionDate):
		outcome.Action = contracts.ActionSkippedDuplicate
		outcome.StatementID = existingID
		return outcome, nil

	case existingDate.After(rec.ExtractionDate):
		outcome.Action = contracts.ActionSkippedStale
		outcome.StatementID = existingID
		return outcome, nil

	default:
		if upErr := r.updateStatement(ctx, tx, existingID, rec, validation); upErr != nil {
			return nil, upErr
		}
		if mErr := r.upsertMetrics(ctx, tx, existingID, derived); mErr != nil {
			return nil, mErr
		}
		outcome.Action = contracts.ActionUpdated
		outcome.StatementID = existingID
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert %s: %w", key, err)
	}

	return outcome, nil
}

func (r *Repository) insertStatement(
	ctx context.Context,
	tx pgx.Tx,
	rec *contracts.NormalizedFinancialRecord,
	validation *contracts.ValidationResult,
) (int64, error) {
	query := `
		INSERT INTO financial_statements (
			ticker, fiscal_year, fiscal_quarter, period_type, period_label,
			revenue, cost_of_sales, gross_profit, operating_profit, net_profit,
			interest_expense, net_interest_income, gross_written_premiums, claims_incurred,
			total_assets, total_liabilities, total_equity,
			current_assets, current_liabilities, inventory, receivables,
			operating_cash_flow, capex, free_cash_flow,
			reported_unit, unit_multiplier, unit_confidence,
			data_quality_score, source_file, extraction_date, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24,
			$25, $26, $27,
			$28, $29, $30, NOW()
		)
		RETURNING statement_id
	`

	var id int64
	err := tx.QueryRow(ctx, query, r.statementArgs(rec, validation)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert statement %s: %w", rec.Key(), err)
	}
	return id, nil
}

func (r *Repository) updateStatement(
	ctx context.Context,
	tx pgx.Tx,
	statementID int64,
	rec *contracts.NormalizedFinancialRecord,
	validation *contracts.ValidationResult,
) error {
	query := `
		UPDATE financial_statements SET
			period_type = $4, period_label = $5,
			revenue = $6, cost_of_sales = $7, gross_profit = $8,
			operating_profit = $9, net_profit = $10,
			interest_expense = $11, net_interest_income = $12,
			gross_written_premiums = $13, claims_incurred = $14,
			total_assets = $15, total_liabilities = $16, total_equity = $17,
			current_assets = $18, current_liabilities = $19, inventory = $20,
			receivables = $21, operating_cash_flow = $22, capex = $23,
			free_cash_flow = $24,
			reported_unit = $25, unit_multiplier = $26, unit_confidence = $27,
			data_quality_score = $28, source_file = $29, extraction_date = $30,
			updated_at = NOW()
		WHERE statement_id = $31 AND extraction_date < $30
	`

	args := append(r.statementArgs(rec, validation), statementID)
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update statement %s: %w", rec.Key(), err)
	}
	// extraction_date guard failed: someone committed a newer
	// extraction between our read and this write.
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update statement %s: %w", rec.Key(), ErrUpsertConflict)
	}
	return nil
}

// statementArgs builds the shared positional argument list ($1..$30)
// for insert and update.
func (r *Repository) statementArgs(
	rec *contracts.NormalizedFinancialRecord,
	validation *contracts.ValidationResult,
) []any {
	key := rec.Key()
	return []any{
		key.Ticker, key.Year, string(key.Quarter),
		string(rec.PeriodType), rec.Period.Label(),
		fieldArg(rec, contracts.FieldRevenue),
		fieldArg(rec, contracts.FieldCostOfSales),
		fieldArg(rec, contracts.FieldGrossProfit),
		fieldArg(rec, contracts.FieldOperatingProfit),
		fieldArg(rec, contracts.FieldNetProfit),
		fieldArg(rec, contracts.FieldInterestExpense),
		fieldArg(rec, contracts.FieldNetInterestIncome),
		fieldArg(rec, contracts.FieldGrossWrittenPremiums),
		fieldArg(rec, contracts.FieldClaimsIncurred),
		fieldArg(rec, contracts.FieldTotalAssets),
		fieldArg(rec, contracts.FieldTotalLiabilities),
		fieldArg(rec, contracts.FieldTotalEquity),
		fieldArg(rec, contracts.FieldCurrentAssets),
		fieldArg(rec, contracts.FieldCurrentLiabilities),
		fieldArg(rec, contracts.FieldInventory),
		fieldArg(rec, contracts.FieldReceivables),
		fieldArg(rec, contracts.FieldOperatingCashFlow),
		fieldArg(rec, contracts.FieldCapex),
		fieldArg(rec, contracts.FieldFreeCashFlow),
		string(rec.ReportedUnit), rec.Multiplier, string(rec.UnitConfidence),
		validation.DisplayScore(), rec.SourceFile, rec.ExtractionDate,
	}
}

func (r *Repository) upsertMetrics(ctx context.Context, tx pgx.Tx, statementID int64, m *contracts.DerivedMetrics) error {
	query := `
		INSERT INTO financial_metrics (
			statement_id,
			return_on_equity, return_on_assets, gross_margin, operating_margin, net_margin,
			current_ratio, quick_ratio, working_capital,
			debt_to_equity, debt_to_assets, asset_turnover,
			net_interest_margin, nim_approximated, cost_to_income, loan_to_deposit, npl_ratio,
			loss_ratio, expense_ratio, combined_ratio, retention_ratio,
			roe_status, profit_status, leverage_status, liquidity_status
		) VALUES (
			$1,
			$2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25
		)
		ON CONFLICT (statement_id) DO UPDATE SET
			return_on_equity = EXCLUDED.return_on_equity,
			return_on_assets = EXCLUDED.return_on_assets,
			gross_margin = EXCLUDED.gross_margin,
			operating_margin = EXCLUDED.operating_margin,
			net_margin = EXCLUDED.net_margin,
			current_ratio = EXCLUDED.current_ratio,
			quick_ratio = EXCLUDED.quick_ratio,
			working_capital = EXCLUDED.working_capital,
			debt_to_equity = EXCLUDED.debt_to_equity,
			debt_to_assets = EXCLUDED.debt_to_assets,
			asset_turnover = EXCLUDED.asset_turnover,
			net_interest_margin = EXCLUDED.net_interest_margin,
			nim_approximated = EXCLUDED.nim_approximated,
			cost_to_income = EXCLUDED.cost_to_income,
			loan_to_deposit = EXCLUDED.loan_to_deposit,
			npl_ratio = EXCLUDED.npl_ratio,
			loss_ratio = EXCLUDED.loss_ratio,
			expense_ratio = EXCLUDED.expense_ratio,
			combined_ratio = EXCLUDED.combined_ratio,
			retention_ratio = EXCLUDED.retention_ratio,
			roe_status = EXCLUDED.roe_status,
			profit_status = EXCLUDED.profit_status,
			leverage_status = EXCLUDED.leverage_status,
			liquidity_status = EXCLUDED.liquidity_status
	`

	_, err := tx.Exec(ctx, query,
		statementID,
		m.ROE, m.ROA, m.GrossMargin, m.OperatingMargin, m.NetMargin,
		m.CurrentRatio, m.QuickRatio, m.WorkingCapital,
		m.DebtToEquity, m.DebtToAssets, m.AssetTurnover,
		m.NetInterestMargin, m.NIMApproximated, m.CostToIncome, m.LoanToDeposit, m.NPLRatio,
		m.LossRatio, m.ExpenseRatio, m.CombinedRatio, m.RetentionRatio,
		string(m.ROEStatus), string(m.ProfitStatus), string(m.LeverageStatus), string(m.LiquidityStatus),
	)
	if err != nil {
		return fmt.Errorf("upsert metrics for statement %d: %w", statementID, err)
	}
	return nil
}

// fieldArg maps an optional record field to a nullable SQL argument.
func fieldArg(rec *contracts.NormalizedFinancialRecord, f contracts.Field) *decimal.Decimal {
	if v, ok := rec.Get(f); ok {
		return &v
	}
	return nil
}
