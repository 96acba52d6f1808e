package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles data access for registrations. Mutations take an open
// transaction so status, decisions, and the negotiation log persist
// atomically with whatever else the caller writes.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, reg Registration) (Registration, error)
	GetByID(ctx context.Context, id string) (Registration, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Registration, error)
	Update(ctx context.Context, tx pgx.Tx, reg Registration) (Registration, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters Filters) ([]Registration, int, error)

	ExecutableIDs(ctx context.Context, asOf time.Time) ([]string, error)
	LockExecutable(ctx context.Context, tx pgx.Tx, id string, asOf time.Time) (Registration, error)
	MarkExecuted(ctx context.Context, tx pgx.Tx, id string) error
}

// Filters narrows a registration listing.
type Filters struct {
	CustomerID  string
	Status      Status
	CreatedBy   string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Page        int
	PageSize    int
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed registration repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const registrationColumns = `id, customer_id, tier_id, stage_id, status_id,
	quota_min_quarter, quota_max_quarter, quota_min_year, quota_max_year, effective_date,
	notes, contract_link, contract_file,
	manager_decision, manager_id, manager_decided_at,
	senior_decision, senior_id, senior_decided_at,
	status, negotiation_log, executed, created_by, cancelled_by, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, reg Registration) (Registration, error) {
	logJSON, err := MarshalLog(reg.Negotiation)
	if err != nil {
		return Registration{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	const query = `
		INSERT INTO registrations (id, customer_id, tier_id, stage_id, status_id,
			quota_min_quarter, quota_max_quarter, quota_min_year, quota_max_year, effective_date,
			notes, contract_link, contract_file, status, negotiation_log, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + registrationColumns

	row := tx.QueryRow(ctx, query,
		reg.ID,
		reg.CustomerID,
		reg.TierID,
		reg.StageID,
		reg.StatusID,
		reg.QuotaMinQuarter,
		reg.QuotaMaxQuarter,
		reg.QuotaMinYear,
		reg.QuotaMaxYear,
		reg.EffectiveDate,
		reg.Notes,
		reg.ContractLink,
		reg.ContractFile,
		reg.Status,
		logJSON,
		reg.CreatedBy,
	)

	created, err := scanRegistration(row)
	if err != nil {
		return Registration{}, mapWriteError("create", err)
	}
	return created, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("%w: get by id: %v", ErrPersistence, err)
	}
	return reg, nil
}

// GetForUpdate loads a registration and holds its row lock until the caller's
// transaction ends, serializing concurrent workflow actions on one record.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 FOR UPDATE`

	reg, err := scanRegistration(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("%w: get for update: %v", ErrPersistence, err)
	}
	return reg, nil
}

// Update persists the mutable workflow fields in a single statement.
func (r *PGRepository) Update(ctx context.Context, tx pgx.Tx, reg Registration) (Registration, error) {
	logJSON, err := MarshalLog(reg.Negotiation)
	if err != nil {
		return Registration{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	const query = `
		UPDATE registrations
		SET customer_id = $2,
		    tier_id = $3,
		    stage_id = $4,
		    status_id = $5,
		    quota_min_quarter = $6,
		    quota_max_quarter = $7,
		    quota_min_year = $8,
		    quota_max_year = $9,
		    effective_date = $10,
		    notes = $11,
		    contract_link = $12,
		    contract_file = $13,
		    manager_decision = NULLIF($14, ''),
		    manager_id = $15,
		    manager_decided_at = $16,
		    senior_decision = NULLIF($17, ''),
		    senior_id = $18,
		    senior_decided_at = $19,
		    status = $20,
		    negotiation_log = $21,
		    cancelled_by = $22,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + registrationColumns

	row := tx.QueryRow(ctx, query,
		reg.ID,
		reg.CustomerID,
		reg.TierID,
		reg.StageID,
		reg.StatusID,
		reg.QuotaMinQuarter,
		reg.QuotaMaxQuarter,
		reg.QuotaMinYear,
		reg.QuotaMaxYear,
		reg.EffectiveDate,
		reg.Notes,
		reg.ContractLink,
		reg.ContractFile,
		string(reg.ManagerDecision),
		reg.ManagerID,
		reg.ManagerDecidedAt,
		string(reg.SeniorDecision),
		reg.SeniorID,
		reg.SeniorDecidedAt,
		reg.Status,
		logJSON,
		reg.CancelledBy,
	)

	updated, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, mapWriteError("update", err)
	}
	return updated, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete: %v", ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Registration, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	where := sq.And{}
	if filters.CustomerID != "" {
		where = append(where, sq.Eq{"customer_id": filters.CustomerID})
	}
	if filters.Status != "" {
		where = append(where, sq.Eq{"status": filters.Status})
	}
	if filters.CreatedBy != "" {
		where = append(where, sq.Eq{"created_by": filters.CreatedBy})
	}
	if !filters.CreatedFrom.IsZero() {
		where = append(where, sq.GtOrEq{"created_at": filters.CreatedFrom})
	}
	if !filters.CreatedTo.IsZero() {
		where = append(where, sq.LtOrEq{"created_at": filters.CreatedTo})
	}

	listQ := builder.
		Select(registrationColumns).
		From("registrations").
		OrderBy("created_at DESC").
		Limit(uint64(filters.PageSize)).
		Offset(uint64((filters.Page - 1) * filters.PageSize))
	countQ := builder.Select("COUNT(*)").From("registrations")
	if len(where) > 0 {
		listQ = listQ.Where(where)
		countQ = countQ.Where(where)
	}

	query, args, err := listQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build list query: %v", ErrPersistence, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: query list: %v", ErrPersistence, err)
	}
	defer rows.Close()

	list := []Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scan list row: %v", ErrPersistence, err)
		}
		list = append(list, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterate list: %v", ErrPersistence, err)
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build count query: %v", ErrPersistence, err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count list: %v", ErrPersistence, err)
	}

	return list, total, nil
}

// ExecutableIDs returns the ids of registrations due for execution as of the
// given date: approved, not yet executed, effective date arrived.
func (r *PGRepository) ExecutableIDs(ctx context.Context, asOf time.Time) ([]string, error) {
	const query = `
		SELECT id FROM registrations
		WHERE status = 'approved' AND NOT executed AND effective_date <= $1
		ORDER BY effective_date, created_at
	`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("%w: select executable: %v", ErrPersistence, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan executable id: %v", ErrPersistence, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate executable ids: %v", ErrPersistence, err)
	}

	return ids, nil
}

// LockExecutable re-checks the execution conditions under a row lock.
// SKIP LOCKED keeps concurrent batch runs from queueing on each other's
// records; a registration claimed elsewhere simply reports ErrNotFound.
func (r *PGRepository) LockExecutable(ctx context.Context, tx pgx.Tx, id string, asOf time.Time) (Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1 AND status = 'approved' AND NOT executed AND effective_date <= $2
		FOR UPDATE SKIP LOCKED`

	reg, err := scanRegistration(tx.QueryRow(ctx, query, id, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("%w: lock executable: %v", ErrPersistence, err)
	}
	return reg, nil
}

// MarkExecuted flips the executed flag exactly once.
func (r *PGRepository) MarkExecuted(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `UPDATE registrations SET executed = true, updated_at = now() WHERE id = $1 AND NOT executed`, id)
	if err != nil {
		return fmt.Errorf("%w: mark executed: %v", ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRegistration(row pgx.Row) (Registration, error) {
	var (
		reg             Registration
		managerDecision *string
		seniorDecision  *string
		logJSON         []byte
	)
	err := row.Scan(
		&reg.ID,
		&reg.CustomerID,
		&reg.TierID,
		&reg.StageID,
		&reg.StatusID,
		&reg.QuotaMinQuarter,
		&reg.QuotaMaxQuarter,
		&reg.QuotaMinYear,
		&reg.QuotaMaxYear,
		&reg.EffectiveDate,
		&reg.Notes,
		&reg.ContractLink,
		&reg.ContractFile,
		&managerDecision,
		&reg.ManagerID,
		&reg.ManagerDecidedAt,
		&seniorDecision,
		&reg.SeniorID,
		&reg.SeniorDecidedAt,
		&reg.Status,
		&logJSON,
		&reg.Executed,
		&reg.CreatedBy,
		&reg.CancelledBy,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return Registration{}, err
	}

	if managerDecision != nil {
		reg.ManagerDecision = Decision(*managerDecision)
	}
	if seniorDecision != nil {
		reg.SeniorDecision = Decision(*seniorDecision)
	}

	log, err := ParseLog(logJSON)
	if err != nil {
		return Registration{}, err
	}
	reg.Negotiation = log

	return reg, nil
}

// mapWriteError translates PostgreSQL constraint violations into the domain
// error taxonomy: broken foreign keys mean an unknown reference, check
// violations mean invalid field values.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w (%s)", ErrUnknownRef, pgErr.ConstraintName)
		case "23514":
			return fmt.Errorf("%w: constraint %s", ErrValidation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
