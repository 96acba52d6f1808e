package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrEmployeeNotFound signals that the employee does not exist.
	ErrEmployeeNotFound = errors.New("auth: employee not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

// Repository handles data access for authentication.
type Repository interface {
	CreateEmployee(ctx context.Context, params CreateEmployeeParams) (Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (Employee, error)
	GetEmployeeByID(ctx context.Context, employeeID string) (Employee, error)
}

// CreateEmployeeParams contains write parameters for creating employees.
type CreateEmployeeParams struct {
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateEmployee inserts a new employee with hashed password.
func (r *PGRepository) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (Employee, error) {
	const insertSQL = `
		INSERT INTO employees (email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, full_name, password_hash, role, created_at, updated_at
	`

	emp, err := scanEmployee(r.pool.QueryRow(ctx, insertSQL, params.Email, params.FullName, params.PasswordHash, params.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Employee{}, ErrDuplicateEmail
		}
		return Employee{}, fmt.Errorf("auth: create employee: %w", err)
	}

	return emp, nil
}

// GetEmployeeByEmail retrieves an employee by email address.
func (r *PGRepository) GetEmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	const selectSQL = `
		SELECT id, email, full_name, password_hash, role, created_at, updated_at
		FROM employees
		WHERE email = $1
	`

	emp, err := scanEmployee(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, fmt.Errorf("auth: get employee by email: %w", err)
	}

	return emp, nil
}

// GetEmployeeByID retrieves an employee by ID.
func (r *PGRepository) GetEmployeeByID(ctx context.Context, employeeID string) (Employee, error) {
	const selectSQL = `
		SELECT id, email, full_name, password_hash, role, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	emp, err := scanEmployee(r.pool.QueryRow(ctx, selectSQL, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, fmt.Errorf("auth: get employee by id: %w", err)
	}

	return emp, nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID,
		&emp.Email,
		&emp.FullName,
		&emp.PasswordHash,
		&emp.Role,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}
