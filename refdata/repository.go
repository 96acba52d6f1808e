package refdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested catalog entry does not exist.
var ErrNotFound = errors.New("refdata: not found")

// Repository provides read access to the reference catalogs (tiers, stages,
// statuses) and display-name lookups for employees and customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TierByID fetches a tier by its primary key.
func (r *Repository) TierByID(ctx context.Context, id string) (Tier, error) {
	const query = `
		SELECT id, name, quota_min_quarter, quota_max_quarter, quota_min_year, quota_max_year
		FROM tiers
		WHERE id = $1
	`

	var tier Tier
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tier.ID,
		&tier.Name,
		&tier.QuotaMinQuarter,
		&tier.QuotaMaxQuarter,
		&tier.QuotaMinYear,
		&tier.QuotaMaxYear,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tier{}, ErrNotFound
		}
		return Tier{}, fmt.Errorf("refdata: query tier by id: %w", err)
	}

	return tier, nil
}

// Tiers fetches all tiers ordered by name.
func (r *Repository) Tiers(ctx context.Context) ([]Tier, error) {
	const query = `
		SELECT id, name, quota_min_quarter, quota_max_quarter, quota_min_year, quota_max_year
		FROM tiers
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("refdata: list tiers: %w", err)
	}
	defer rows.Close()

	tiers := []Tier{}
	for rows.Next() {
		var tier Tier
		if err := rows.Scan(&tier.ID, &tier.Name, &tier.QuotaMinQuarter, &tier.QuotaMaxQuarter, &tier.QuotaMinYear, &tier.QuotaMaxYear); err != nil {
			return nil, fmt.Errorf("refdata: scan tier: %w", err)
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("refdata: iterate tiers: %w", err)
	}

	return tiers, nil
}

// StageByID fetches a stage by its primary key.
func (r *Repository) StageByID(ctx context.Context, id string) (Stage, error) {
	const query = `SELECT id, name FROM stages WHERE id = $1`

	var stage Stage
	err := r.pool.QueryRow(ctx, query, id).Scan(&stage.ID, &stage.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, ErrNotFound
		}
		return Stage{}, fmt.Errorf("refdata: query stage by id: %w", err)
	}

	return stage, nil
}

// StatusByID fetches a status catalog entry by its primary key.
func (r *Repository) StatusByID(ctx context.Context, id string) (Status, error) {
	const query = `SELECT id, stage_id, name FROM statuses WHERE id = $1`

	var status Status
	err := r.pool.QueryRow(ctx, query, id).Scan(&status.ID, &status.StageID, &status.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Status{}, ErrNotFound
		}
		return Status{}, fmt.Errorf("refdata: query status by id: %w", err)
	}

	return status, nil
}

// StatusBelongsToStage reports whether the status catalog entry is linked to
// the given stage.
func (r *Repository) StatusBelongsToStage(ctx context.Context, statusID, stageID string) (bool, error) {
	status, err := r.StatusByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return status.StageID == stageID, nil
}

// EmployeeName resolves an employee id to a display name. Absence yields an
// empty string, never an error: display enrichment must not fail a read.
func (r *Repository) EmployeeName(ctx context.Context, id string) (string, error) {
	return r.displayName(ctx, `SELECT full_name FROM employees WHERE id = $1`, id)
}

// CustomerName resolves a customer id to a display name. Absence yields an
// empty string.
func (r *Repository) CustomerName(ctx context.Context, id string) (string, error) {
	return r.displayName(ctx, `SELECT name FROM customers WHERE id = $1`, id)
}

func (r *Repository) displayName(ctx context.Context, query, id string) (string, error) {
	if id == "" {
		return "", nil
	}

	var name string
	err := r.pool.QueryRow(ctx, query, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("refdata: resolve display name: %w", err)
	}
	return name, nil
}
