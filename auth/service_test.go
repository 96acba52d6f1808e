package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", time.Hour)

	req := RegisterRequest{
		Email:    "lan@example.com",
		Password: "supersafe",
		FullName: "Lan Requester",
	}

	ctx := context.Background()
	emp, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if emp.Email != req.Email {
		t.Fatalf("expected email %q got %q", req.Email, emp.Email)
	}
	if emp.Role != RoleRequester {
		t.Fatalf("register: expected default role %s got %s", RoleRequester, emp.Role)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.Employee.ID != emp.ID {
		t.Fatalf("login: expected employee id %q got %q", emp.ID, resp.Employee.ID)
	}

	actor, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if actor.ID != emp.ID {
		t.Fatalf("verify token: expected %q got %q", emp.ID, actor.ID)
	}
	if actor.Name != req.FullName {
		t.Fatalf("verify token: expected name %q got %q", req.FullName, actor.Name)
	}
	if actor.Role != RoleRequester {
		t.Fatalf("verify token: expected role %s got %s", RoleRequester, actor.Role)
	}
	if len(actor.Capabilities) != 0 {
		t.Fatalf("verify token: requester should carry no capabilities, got %v", actor.Capabilities)
	}
}

func TestService_TokenCarriesCapabilities(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", time.Hour)
	ctx := context.Background()

	cases := []struct {
		role Role
		want []Capability
	}{
		{RoleManager, nil},
		{RoleDirector, []Capability{CapabilityOverrideApprove}},
		{RoleAdmin, []Capability{CapabilityOverrideApprove, CapabilityModerateLog}},
	}

	for _, tc := range cases {
		req := RegisterRequest{
			Email:    fmt.Sprintf("%s@example.com", tc.role),
			Password: "strongpassword",
			FullName: fmt.Sprintf("Employee %s", tc.role),
			Role:     tc.role,
		}
		if _, err := svc.Register(ctx, req); err != nil {
			t.Fatalf("register %s: %v", tc.role, err)
		}
		resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
		if err != nil {
			t.Fatalf("login %s: %v", tc.role, err)
		}
		actor, err := svc.VerifyToken(resp.Token)
		if err != nil {
			t.Fatalf("verify %s: %v", tc.role, err)
		}
		if len(actor.Capabilities) != len(tc.want) {
			t.Fatalf("%s: expected capabilities %v, got %v", tc.role, tc.want, actor.Capabilities)
		}
		for _, c := range tc.want {
			if !actor.Can(c) {
				t.Fatalf("%s: expected capability %s", tc.role, c)
			}
		}
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", time.Hour)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "lan@example.com",
		Password: "short",
		FullName: "Lan Requester",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "",
		Password: "strongpassword",
		FullName: "",
	}); err == nil {
		t.Fatal("expected validation error for missing fields")
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", time.Hour)

	req := RegisterRequest{
		Email:    "lan@example.com",
		Password: "strongpassword",
		FullName: "Lan Requester",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", time.Hour)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "unknown@example.com",
		Password: "irrelevant",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_ExpiredToken(t *testing.T) {
	repo := newFakeRepository()
	past := time.Now().Add(-48 * time.Hour)
	svc := NewService(repo, "test-secret", time.Hour).WithClock(func() time.Time { return past })

	req := RegisterRequest{
		Email:    "lan@example.com",
		Password: "strongpassword",
		FullName: "Lan Requester",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := svc.Login(context.Background(), LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.VerifyToken(resp.Token); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

type fakeRepository struct {
	byEmail map[string]Employee
	byID    map[string]Employee
	nextID  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byEmail: make(map[string]Employee),
		byID:    make(map[string]Employee),
		nextID:  1,
	}
}

func (f *fakeRepository) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (Employee, error) {
	if _, exists := f.byEmail[strings.ToLower(params.Email)]; exists {
		return Employee{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("employee-%d", f.nextID)
	f.nextID++
	role := params.Role
	if role == "" {
		role = RoleRequester
	}

	emp := Employee{
		ID:           id,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	f.byEmail[strings.ToLower(emp.Email)] = emp
	f.byID[emp.ID] = emp

	return emp, nil
}

func (f *fakeRepository) GetEmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	emp, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeRepository) GetEmployeeByID(ctx context.Context, employeeID string) (Employee, error) {
	emp, ok := f.byID[employeeID]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}
