package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"tierflow/customer"
)

// TermsApplier rewrites a customer's live tier assignment inside the given
// transaction.
type TermsApplier interface {
	ApplyTerms(ctx context.Context, tx pgx.Tx, customerID string, terms customer.Terms) error
}

// ExecResult reports the outcome of one commit-step run.
type ExecResult struct {
	UpdatedCount int      `json:"updated_count"`
	UpdatedIDs   []string `json:"updated_ids"`
}

// Executor is the commit step: it materializes approved registrations into
// the customers' live tier records once their effective date arrives.
type Executor struct {
	pool      TxBeginner
	repo      Repository
	customers TermsApplier
	logger    *slog.Logger
	now       func() time.Time
}

// NewExecutor creates the commit-step runner.
func NewExecutor(pool TxBeginner, repo Repository, customers TermsApplier, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		pool:      pool,
		repo:      repo,
		customers: customers,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// ExecuteApproved applies the terms of every approved, not-yet-executed
// registration whose effective date has arrived, marking each executed in the
// same transaction that rewrites its customer. The operation is idempotent
// and safe to run concurrently with itself and with workflow actions: each
// candidate is re-checked under a row lock before any effect is applied, and
// a record claimed by another run is skipped.
//
// A failure on one record is logged and skipped so the rest of the batch
// still converges; only a failure to select candidates surfaces as an error.
func (e *Executor) ExecuteApproved(ctx context.Context) (ExecResult, error) {
	asOf := e.now()

	ids, err := e.repo.ExecutableIDs(ctx, asOf)
	if err != nil {
		return ExecResult{}, err
	}

	result := ExecResult{UpdatedIDs: []string{}}
	for _, id := range ids {
		if err := e.executeOne(ctx, id, asOf); err != nil {
			if errors.Is(err, ErrNotFound) {
				// Re-check failed: executed meanwhile, approval revoked, or
				// claimed by a concurrent run.
				continue
			}
			e.logger.Error("execute registration failed",
				slog.String("registration_id", id),
				slog.Any("error", err))
			continue
		}
		result.UpdatedCount++
		result.UpdatedIDs = append(result.UpdatedIDs, id)
	}

	if result.UpdatedCount > 0 {
		e.logger.Info("approved registrations executed",
			slog.Int("updated_count", result.UpdatedCount))
	}

	return result, nil
}

func (e *Executor) executeOne(ctx context.Context, id string, asOf time.Time) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	reg, err := e.repo.LockExecutable(ctx, tx, id, asOf)
	if err != nil {
		return err
	}

	terms := customer.Terms{
		TierID:          reg.TierID,
		QuotaMinQuarter: reg.QuotaMinQuarter,
		QuotaMaxQuarter: reg.QuotaMaxQuarter,
		QuotaMinYear:    reg.QuotaMinYear,
		QuotaMaxYear:    reg.QuotaMaxYear,
		EffectiveDate:   reg.EffectiveDate,
	}
	if err := e.customers.ApplyTerms(ctx, tx, reg.CustomerID, terms); err != nil {
		return err
	}

	if err := e.repo.MarkExecuted(ctx, tx, reg.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit execution: %v", ErrPersistence, err)
	}

	return nil
}
