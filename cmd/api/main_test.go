package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tierflow/auth"
	"tierflow/refdata"
	"tierflow/registration"
)

type stubRegistrationService struct {
	reg        registration.Registration
	draft      registration.Draft
	listResult registration.ListResult
	err        error

	lastActor auth.Actor
	lastID    string
	lastIndex int
}

func (s *stubRegistrationService) Create(_ context.Context, actor auth.Actor, _ registration.CreateParams) (registration.Registration, error) {
	s.lastActor = actor
	return s.reg, s.err
}

func (s *stubRegistrationService) ManagerDecide(_ context.Context, actor auth.Actor, params registration.DecideParams) (registration.Registration, error) {
	s.lastActor = actor
	s.lastID = params.ID
	return s.reg, s.err
}

func (s *stubRegistrationService) SeniorDecide(_ context.Context, actor auth.Actor, params registration.SeniorDecideParams) (registration.Registration, error) {
	s.lastActor = actor
	s.lastID = params.ID
	return s.reg, s.err
}

func (s *stubRegistrationService) ReturnToSender(_ context.Context, _ auth.Actor, params registration.ReturnParams) (registration.Registration, error) {
	s.lastID = params.ID
	return s.reg, s.err
}

func (s *stubRegistrationService) Cancel(_ context.Context, _ auth.Actor, params registration.CancelParams) (registration.Registration, error) {
	s.lastID = params.ID
	return s.reg, s.err
}

func (s *stubRegistrationService) Negotiate(_ context.Context, _ auth.Actor, id, _ string) (registration.Registration, error) {
	s.lastID = id
	return s.reg, s.err
}

func (s *stubRegistrationService) DeleteNegotiationEntry(_ context.Context, _ auth.Actor, id string, index int) (registration.Registration, error) {
	s.lastID = id
	s.lastIndex = index
	return s.reg, s.err
}

func (s *stubRegistrationService) Duplicate(_ context.Context, id string) (registration.Draft, error) {
	s.lastID = id
	return s.draft, s.err
}

func (s *stubRegistrationService) Get(_ context.Context, id string) (registration.Registration, error) {
	s.lastID = id
	return s.reg, s.err
}

func (s *stubRegistrationService) List(_ context.Context, _ registration.Filters) (registration.ListResult, error) {
	return s.listResult, s.err
}

type stubAuthService struct {
	actor    auth.Actor
	employee auth.Employee
	token    string
	err      error
}

func (s *stubAuthService) Register(_ context.Context, _ auth.RegisterRequest) (*auth.Employee, error) {
	if s.err != nil {
		return nil, s.err
	}
	emp := s.employee
	return &emp, nil
}

func (s *stubAuthService) Login(_ context.Context, _ auth.LoginRequest) (auth.LoginResult, error) {
	return auth.LoginResult{Token: s.token, Employee: s.employee}, s.err
}

func (s *stubAuthService) VerifyToken(_ string) (auth.Actor, error) {
	return s.actor, s.err
}

type stubCatalog struct {
	tiers []refdata.Tier
	err   error
}

func (s *stubCatalog) Tiers(_ context.Context) ([]refdata.Tier, error) {
	return s.tiers, s.err
}

type stubExecutor struct {
	result registration.ExecResult
	err    error
	calls  int
}

func (s *stubExecutor) ExecuteApproved(_ context.Context) (registration.ExecResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestServer(regs registrationService) *Server {
	return &Server{
		registrationService: regs,
		logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func withActor(req *http.Request, actor auth.Actor) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), ctxKeyActor, actor))
}

func sampleRegistration() registration.Registration {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return registration.Registration{
		ID:              "reg-1",
		CustomerID:      "cust-1",
		TierID:          "tier-1",
		QuotaMinQuarter: 100,
		QuotaMaxQuarter: 500,
		QuotaMinYear:    400,
		QuotaMaxYear:    2000,
		EffectiveDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Status:          registration.StatusPendingReview,
		CreatedBy:       "emp-1",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestHandleCreateRegistration_Success(t *testing.T) {
	stub := &stubRegistrationService{reg: sampleRegistration()}
	server := newTestServer(stub)

	body := strings.NewReader(`{"customer_id":"cust-1","tier_id":"tier-1","quota_min_quarter":100,"quota_max_quarter":500,"quota_min_year":400,"quota_max_year":2000,"effective_date":"2026-04-01"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/registrations", body), auth.Actor{ID: "emp-1", Name: "Lan"})
	rec := httptest.NewRecorder()

	server.handleRegistrations(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp registrationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "reg-1" || resp.Status != "pending_review" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.EffectiveDate != "2026-04-01" {
		t.Fatalf("expected effective date 2026-04-01, got %s", resp.EffectiveDate)
	}
	if stub.lastActor.ID != "emp-1" {
		t.Fatalf("expected actor emp-1 passed through, got %q", stub.lastActor.ID)
	}
}

func TestHandleCreateRegistration_InvalidDate(t *testing.T) {
	server := newTestServer(&stubRegistrationService{})

	body := strings.NewReader(`{"customer_id":"cust-1","tier_id":"tier-1","effective_date":"01-04-2026"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/registrations", body), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrations(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCreateRegistration_ValidationError(t *testing.T) {
	server := newTestServer(&stubRegistrationService{err: registration.ErrQuotaNegative})

	body := strings.NewReader(`{"customer_id":"cust-1","tier_id":"tier-1","quota_min_quarter":-5,"effective_date":"2026-04-01"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/registrations", body), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrations(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRegistrationDetail_Get(t *testing.T) {
	stub := &stubRegistrationService{reg: sampleRegistration()}
	server := newTestServer(stub)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/registrations/reg-1", nil), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.lastID != "reg-1" {
		t.Fatalf("expected lookup of reg-1, got %q", stub.lastID)
	}
}

func TestHandleRegistrationDetail_NotFound(t *testing.T) {
	server := newTestServer(&stubRegistrationService{err: registration.ErrNotFound})

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/registrations/missing", nil), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleRegistrationDetail_MissingID(t *testing.T) {
	server := newTestServer(&stubRegistrationService{})

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/registrations/", nil), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleManagerDecision_Conflict(t *testing.T) {
	server := newTestServer(&stubRegistrationService{err: registration.ErrNotPendingReview})

	body := strings.NewReader(`{"decision":"approve","reason":"ok"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/registrations/reg-1/decision", body), auth.Actor{ID: "mgr-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleSeniorDecision_OverrideForbidden(t *testing.T) {
	server := newTestServer(&stubRegistrationService{err: registration.ErrOverrideNotPermitted})

	body := strings.NewReader(`{"decision":"approve","reason":"ok","override":true}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/registrations/reg-1/senior-decision", body), auth.Actor{ID: "mgr-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleCancel_WrongCreatorForbidden(t *testing.T) {
	server := newTestServer(&stubRegistrationService{err: registration.ErrNotCreator})

	body := strings.NewReader(`{"reason":"mistake"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/registrations/reg-1/cancel", body), auth.Actor{ID: "emp-2"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleDuplicate_Success(t *testing.T) {
	notes := "resubmit with new volumes"
	stub := &stubRegistrationService{draft: registration.Draft{
		CustomerID:      "cust-1",
		TierID:          "tier-1",
		QuotaMinQuarter: 100,
		EffectiveDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Notes:           &notes,
	}}
	server := newTestServer(stub)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/registrations/reg-1/duplicate", nil), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp draftResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CustomerID != "cust-1" || resp.EffectiveDate != "2026-04-01" || resp.Notes == nil {
		t.Fatalf("unexpected draft payload: %+v", resp)
	}
}

func TestHandleDuplicate_RequiresCancelled(t *testing.T) {
	server := newTestServer(&stubRegistrationService{err: registration.ErrNotCancelled})

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/registrations/reg-1/duplicate", nil), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleDeleteNegotiationEntry(t *testing.T) {
	stub := &stubRegistrationService{reg: sampleRegistration()}
	server := newTestServer(stub)

	req := withActor(httptest.NewRequest(http.MethodDelete, "/api/registrations/reg-1/negotiation/2", nil), auth.Actor{ID: "adm-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.lastID != "reg-1" || stub.lastIndex != 2 {
		t.Fatalf("expected delete of entry 2 on reg-1, got id=%q index=%d", stub.lastID, stub.lastIndex)
	}
}

func TestHandleDeleteNegotiationEntry_BadIndex(t *testing.T) {
	server := newTestServer(&stubRegistrationService{})

	req := withActor(httptest.NewRequest(http.MethodDelete, "/api/registrations/reg-1/negotiation/two", nil), auth.Actor{ID: "adm-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrationDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleListRegistrations(t *testing.T) {
	stub := &stubRegistrationService{listResult: registration.ListResult{
		Items: []registration.Registration{sampleRegistration()},
		Total: 7,
	}}
	server := newTestServer(stub)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/registrations?status=pending_review&page_size=1", nil), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Items []registrationResponse `json:"items"`
		Total int                    `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 || payload.Total != 7 || payload.Items[0].ID != "reg-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleRegistrations_WrongMethod(t *testing.T) {
	server := newTestServer(&stubRegistrationService{})

	req := withActor(httptest.NewRequest(http.MethodDelete, "/api/registrations", nil), auth.Actor{ID: "emp-1"})
	rec := httptest.NewRecorder()

	server.handleRegistrations(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	server := &Server{authService: &stubAuthService{}}

	called := false
	handler := server.requireAuth(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/registrations", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run without a token")
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	server := &Server{authService: &stubAuthService{err: errors.New("expired")}}

	handler := server.requireAuth(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/registrations", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_PassesActor(t *testing.T) {
	want := auth.Actor{ID: "emp-1", Name: "Lan", Role: auth.RoleDirector, Capabilities: auth.CapabilitiesForRole(auth.RoleDirector)}
	server := &Server{authService: &stubAuthService{actor: want}}

	var got auth.Actor
	handler := server.requireAuth(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = actorFrom(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/registrations", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if got.ID != want.ID || got.Name != want.Name || len(got.Capabilities) != len(want.Capabilities) {
		t.Fatalf("actor not carried into context: %+v", got)
	}
}

func TestHandleExecute(t *testing.T) {
	stub := &stubExecutor{result: registration.ExecResult{UpdatedCount: 2, UpdatedIDs: []string{"reg-1", "reg-2"}}}
	server := &Server{executor: stub, logger: slog.Default()}

	req := httptest.NewRequest(http.MethodPost, "/api/executions", nil)
	rec := httptest.NewRecorder()

	server.handleExecute(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one execution run, got %d", stub.calls)
	}

	var resp registration.ExecResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UpdatedCount != 2 || len(resp.UpdatedIDs) != 2 {
		t.Fatalf("unexpected result: %+v", resp)
	}
}

func TestHandleTiers(t *testing.T) {
	server := &Server{
		tiers:  &stubCatalog{tiers: []refdata.Tier{{ID: "tier-1", Name: "Gold", QuotaMinQuarter: 100}}},
		logger: slog.Default(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tiers", nil)
	rec := httptest.NewRecorder()

	server.handleTiers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Items []tierResponse `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Name != "Gold" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	server := &Server{authService: &stubAuthService{err: auth.ErrDuplicateEmail}, logger: slog.Default()}

	body := strings.NewReader(`{"email":"lan@example.com","password":"password123","full_name":"Lan"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()

	server.handleRegister(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleLogin_Success(t *testing.T) {
	server := &Server{
		authService: &stubAuthService{
			token:    "tok-1",
			employee: auth.Employee{ID: "emp-1", Email: "lan@example.com", FullName: "Lan", Role: auth.RoleRequester},
		},
		logger: slog.Default(),
	}

	body := strings.NewReader(`{"email":"lan@example.com","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()

	server.handleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "tok-1" || resp.Employee.ID != "emp-1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
