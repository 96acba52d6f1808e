package auth

import "time"

type Role string

const (
	RoleRequester Role = "requester"
	RoleManager   Role = "manager"
	RoleDirector  Role = "director"
	RoleAdmin     Role = "admin"
)

// Employee is the domain representation of an authenticated employee.
// It mirrors the employees table and should not include JSON annotations so it
// can be reused by different presentation layers.
type Employee struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains employee registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains employee login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
