package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested customer does not exist.
var ErrNotFound = errors.New("customer: not found")

// Repository provides access to live customer records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a customer by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Customer, error) {
	const query = `
		SELECT id, name, tier_id, quota_min_quarter, quota_max_quarter, quota_min_year, quota_max_year,
		       terms_effective_at, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var c Customer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.TierID,
		&c.QuotaMinQuarter,
		&c.QuotaMaxQuarter,
		&c.QuotaMinYear,
		&c.QuotaMaxYear,
		&c.TermsEffective,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("customer: query by id: %w", err)
	}

	return c, nil
}

// ApplyTerms rewrites the customer's live tier assignment inside the caller's
// transaction, so the write commits or rolls back together with the
// registration it came from.
func (r *Repository) ApplyTerms(ctx context.Context, tx pgx.Tx, customerID string, terms Terms) error {
	const query = `
		UPDATE customers
		SET tier_id = $2,
		    quota_min_quarter = $3,
		    quota_max_quarter = $4,
		    quota_min_year = $5,
		    quota_max_year = $6,
		    terms_effective_at = $7,
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		customerID,
		terms.TierID,
		terms.QuotaMinQuarter,
		terms.QuotaMaxQuarter,
		terms.QuotaMinYear,
		terms.QuotaMaxYear,
		terms.EffectiveDate,
	)
	if err != nil {
		return fmt.Errorf("customer: apply terms: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
