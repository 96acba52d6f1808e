package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
)

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// LoginResult bundles the token and domain employee returned after a successful login.
type LoginResult struct {
	Token    string
	Employee Employee
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a new employee account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Employee, error) {
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	if req.Email == "" || req.FullName == "" {
		return nil, fmt.Errorf("auth: email and full_name are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	role := Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = RoleRequester
	}
	if !isValidRole(role) {
		return nil, fmt.Errorf("auth: invalid role %q", role)
	}

	emp, err := s.repo.CreateEmployee(ctx, CreateEmployeeParams{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(passwordHash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// Login authenticates an employee and returns a JWT token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	emp, err := s.repo.GetEmployeeByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password))
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(emp)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token:    token,
		Employee: emp,
	}, nil
}

// GetEmployeeByID retrieves employee information by ID.
func (s *Service) GetEmployeeByID(ctx context.Context, employeeID string) (*Employee, error) {
	emp, err := s.repo.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// VerifyToken validates a JWT token and returns the Actor it identifies.
// Capabilities are read from the token claims, so a workflow call never
// consults ambient auth state.
func (s *Service) VerifyToken(tokenString string) (Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return Actor{}, fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Actor{}, fmt.Errorf("auth: invalid token")
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok {
		return Actor{}, fmt.Errorf("auth: invalid employee_id in token")
	}
	name, ok := claims["name"].(string)
	if !ok || name == "" {
		return Actor{}, fmt.Errorf("auth: invalid name in token")
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return Actor{}, fmt.Errorf("auth: invalid role in token")
	}
	role := Role(roleStr)
	if !isValidRole(role) {
		return Actor{}, fmt.Errorf("auth: invalid role %q in token", roleStr)
	}

	var capabilities []Capability
	if raw, ok := claims["capabilities"].([]any); ok {
		for _, v := range raw {
			str, ok := v.(string)
			if !ok {
				return Actor{}, fmt.Errorf("auth: invalid capability in token")
			}
			c := Capability(str)
			if !isValidCapability(c) {
				return Actor{}, fmt.Errorf("auth: invalid capability %q in token", str)
			}
			capabilities = append(capabilities, c)
		}
	}

	return Actor{
		ID:           employeeID,
		Name:         name,
		Role:         role,
		Capabilities: capabilities,
	}, nil
}

// generateToken creates a JWT token for the employee.
func (s *Service) generateToken(emp Employee) (string, error) {
	capabilities := CapabilitiesForRole(emp.Role)
	capClaims := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		capClaims = append(capClaims, string(c))
	}

	now := s.now()
	claims := jwt.MapClaims{
		"employee_id":  emp.ID,
		"name":         emp.FullName,
		"role":         emp.Role,
		"capabilities": capClaims,
		"exp":          now.Add(s.tokenTTL).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func isValidRole(role Role) bool {
	switch role {
	case RoleRequester, RoleManager, RoleDirector, RoleAdmin:
		return true
	default:
		return false
	}
}
