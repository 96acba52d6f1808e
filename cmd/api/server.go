package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tierflow/auth"
	"tierflow/refdata"
	"tierflow/registration"
)

type ctxKey int

const ctxKeyActor ctxKey = iota

const dateLayout = "2006-01-02"

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Employee, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(tokenString string) (auth.Actor, error)
}

type registrationService interface {
	Create(ctx context.Context, actor auth.Actor, params registration.CreateParams) (registration.Registration, error)
	ManagerDecide(ctx context.Context, actor auth.Actor, params registration.DecideParams) (registration.Registration, error)
	SeniorDecide(ctx context.Context, actor auth.Actor, params registration.SeniorDecideParams) (registration.Registration, error)
	ReturnToSender(ctx context.Context, actor auth.Actor, params registration.ReturnParams) (registration.Registration, error)
	Cancel(ctx context.Context, actor auth.Actor, params registration.CancelParams) (registration.Registration, error)
	Negotiate(ctx context.Context, actor auth.Actor, id, text string) (registration.Registration, error)
	DeleteNegotiationEntry(ctx context.Context, actor auth.Actor, id string, index int) (registration.Registration, error)
	Duplicate(ctx context.Context, id string) (registration.Draft, error)
	Get(ctx context.Context, id string) (registration.Registration, error)
	List(ctx context.Context, filters registration.Filters) (registration.ListResult, error)
}

type tierCatalog interface {
	Tiers(ctx context.Context) ([]refdata.Tier, error)
}

type batchExecutor interface {
	ExecuteApproved(ctx context.Context) (registration.ExecResult, error)
}

// Server exposes the registration workflow over HTTP.
type Server struct {
	authService         authService
	registrationService registrationService
	tiers               tierCatalog
	executor            batchExecutor
	logger              *slog.Logger
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/tiers", s.requireAuth(s.handleTiers))
	mux.HandleFunc("/api/registrations", s.requireAuth(s.handleRegistrations))
	mux.HandleFunc("/api/registrations/", s.requireAuth(s.handleRegistrationDetail))
	mux.HandleFunc("/api/executions", s.requireAuth(s.handleExecute))
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)))
	})
}

// requireAuth parses the bearer token and stores the verified Actor in the
// request context. The workflow layer relies on the Actor's capability list
// alone, so this is the only place auth state is resolved.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		actor, err := s.authService.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyActor, actor)))
	}
}

func actorFrom(ctx context.Context) (auth.Actor, bool) {
	actor, ok := ctx.Value(ctxKeyActor).(auth.Actor)
	return actor, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type employeeResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	emp, err := s.authService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, employeeResponse{
		ID:       emp.ID,
		Email:    emp.Email,
		FullName: emp.FullName,
		Role:     string(emp.Role),
	})
}

type loginResponse struct {
	Token    string           `json:"token"`
	Employee employeeResponse `json:"employee"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("login failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		Employee: employeeResponse{
			ID:       result.Employee.ID,
			Email:    result.Employee.Email,
			FullName: result.Employee.FullName,
			Role:     string(result.Employee.Role),
		},
	})
}

type tierResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	QuotaMinQuarter int64  `json:"quota_min_quarter"`
	QuotaMaxQuarter int64  `json:"quota_max_quarter"`
	QuotaMinYear    int64  `json:"quota_min_year"`
	QuotaMaxYear    int64  `json:"quota_max_year"`
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tiers, err := s.tiers.Tiers(r.Context())
	if err != nil {
		s.logger.Error("list tiers failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]tierResponse, 0, len(tiers))
	for _, t := range tiers {
		items = append(items, tierResponse{
			ID:              t.ID,
			Name:            t.Name,
			QuotaMinQuarter: t.QuotaMinQuarter,
			QuotaMaxQuarter: t.QuotaMaxQuarter,
			QuotaMinYear:    t.QuotaMinYear,
			QuotaMaxYear:    t.QuotaMaxYear,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createRegistrationRequest struct {
	CustomerID      string  `json:"customer_id"`
	TierID          string  `json:"tier_id"`
	StageID         *string `json:"stage_id"`
	StatusID        *string `json:"status_id"`
	QuotaMinQuarter int64   `json:"quota_min_quarter"`
	QuotaMaxQuarter int64   `json:"quota_max_quarter"`
	QuotaMinYear    int64   `json:"quota_min_year"`
	QuotaMaxYear    int64   `json:"quota_max_year"`
	EffectiveDate   string  `json:"effective_date"`
	Notes           *string `json:"notes"`
	ContractLink    *string `json:"contract_link"`
	ContractFile    *string `json:"contract_file"`
}

func (s *Server) handleRegistrations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRegistrations(w, r)
	case http.MethodPost:
		s.handleCreateRegistration(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := registration.Filters{
		CustomerID: q.Get("customer_id"),
		Status:     registration.Status(q.Get("status")),
		CreatedBy:  q.Get("created_by"),
	}
	if v := q.Get("page"); v != "" {
		filters.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("page_size"); v != "" {
		filters.PageSize, _ = strconv.Atoi(v)
	}
	if v := q.Get("created_from"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_from, expected YYYY-MM-DD")
			return
		}
		filters.CreatedFrom = from
	}
	if v := q.Get("created_to"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_to, expected YYYY-MM-DD")
			return
		}
		filters.CreatedTo = to
	}

	result, err := s.registrationService.List(r.Context(), filters)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	items := make([]registrationResponse, 0, len(result.Items))
	for _, reg := range result.Items {
		items = append(items, toRegistrationResponse(reg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": result.Total})
}

func (s *Server) handleCreateRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	var req createRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := registration.CreateParams{
		CustomerID:      req.CustomerID,
		TierID:          req.TierID,
		StageID:         req.StageID,
		StatusID:        req.StatusID,
		QuotaMinQuarter: req.QuotaMinQuarter,
		QuotaMaxQuarter: req.QuotaMaxQuarter,
		QuotaMinYear:    req.QuotaMinYear,
		QuotaMaxYear:    req.QuotaMaxYear,
		Notes:           req.Notes,
		ContractLink:    req.ContractLink,
		ContractFile:    req.ContractFile,
	}
	if req.EffectiveDate != "" {
		date, err := time.Parse(dateLayout, req.EffectiveDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid effective_date, expected YYYY-MM-DD")
			return
		}
		params.EffectiveDate = date
	}

	created, err := s.registrationService.Create(r.Context(), actor, params)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRegistrationResponse(created))
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
	Remark   string `json:"remark"`
	Override bool   `json:"override"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type negotiateRequest struct {
	Content string `json:"content"`
}

// handleRegistrationDetail dispatches /api/registrations/{id} and its
// sub-resources: decision, senior-decision, return, cancel, duplicate, and
// negotiation entries.
func (s *Server) handleRegistrationDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/registrations/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "registration id required")
		return
	}
	id := parts[0]

	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		reg, err := s.registrationService.Get(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegistrationResponse(reg))

	case len(parts) == 2 && parts[1] == "decision":
		s.handleManagerDecision(w, r, actor, id)

	case len(parts) == 2 && parts[1] == "senior-decision":
		s.handleSeniorDecision(w, r, actor, id)

	case len(parts) == 2 && parts[1] == "return":
		s.handleReturn(w, r, actor, id)

	case len(parts) == 2 && parts[1] == "cancel":
		s.handleCancel(w, r, actor, id)

	case len(parts) == 2 && parts[1] == "duplicate":
		s.handleDuplicate(w, r, id)

	case len(parts) == 2 && parts[1] == "negotiation":
		s.handleNegotiate(w, r, actor, id)

	case len(parts) == 3 && parts[1] == "negotiation":
		s.handleDeleteNegotiationEntry(w, r, actor, id, parts[2])

	default:
		writeError(w, http.StatusNotFound, "unknown resource")
	}
}

func (s *Server) handleManagerDecision(w http.ResponseWriter, r *http.Request, actor auth.Actor, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := s.registrationService.ManagerDecide(r.Context(), actor, registration.DecideParams{
		ID:       id,
		Decision: registration.Decision(req.Decision),
		Reason:   req.Reason,
		Remark:   req.Remark,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (s *Server) handleSeniorDecision(w http.ResponseWriter, r *http.Request, actor auth.Actor, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := s.registrationService.SeniorDecide(r.Context(), actor, registration.SeniorDecideParams{
		ID:       id,
		Decision: registration.Decision(req.Decision),
		Reason:   req.Reason,
		Remark:   req.Remark,
		Override: req.Override,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request, actor auth.Actor, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := s.registrationService.ReturnToSender(r.Context(), actor, registration.ReturnParams{ID: id, Reason: req.Reason})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, actor auth.Actor, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := s.registrationService.Cancel(r.Context(), actor, registration.CancelParams{ID: id, Reason: req.Reason})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

type draftResponse struct {
	CustomerID      string  `json:"customer_id"`
	TierID          string  `json:"tier_id"`
	StageID         *string `json:"stage_id,omitempty"`
	StatusID        *string `json:"status_id,omitempty"`
	QuotaMinQuarter int64   `json:"quota_min_quarter"`
	QuotaMaxQuarter int64   `json:"quota_max_quarter"`
	QuotaMinYear    int64   `json:"quota_min_year"`
	QuotaMaxYear    int64   `json:"quota_max_year"`
	EffectiveDate   string  `json:"effective_date"`
	Notes           *string `json:"notes,omitempty"`
	ContractLink    *string `json:"contract_link,omitempty"`
	ContractFile    *string `json:"contract_file,omitempty"`
}

func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	draft, err := s.registrationService.Duplicate(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draftResponse{
		CustomerID:      draft.CustomerID,
		TierID:          draft.TierID,
		StageID:         draft.StageID,
		StatusID:        draft.StatusID,
		QuotaMinQuarter: draft.QuotaMinQuarter,
		QuotaMaxQuarter: draft.QuotaMaxQuarter,
		QuotaMinYear:    draft.QuotaMinYear,
		QuotaMaxYear:    draft.QuotaMaxYear,
		EffectiveDate:   draft.EffectiveDate.Format(dateLayout),
		Notes:           draft.Notes,
		ContractLink:    draft.ContractLink,
		ContractFile:    draft.ContractFile,
	})
}

func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request, actor auth.Actor, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req negotiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := s.registrationService.Negotiate(r.Context(), actor, id, req.Content)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (s *Server) handleDeleteNegotiationEntry(w http.ResponseWriter, r *http.Request, actor auth.Actor, id, rawIndex string) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry index")
		return
	}

	reg, err := s.registrationService.DeleteNegotiationEntry(r.Context(), actor, id, index)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := s.executor.ExecuteApproved(r.Context())
	if err != nil {
		s.logger.Error("manual execution run failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type entryResponse struct {
	Content   string `json:"content"`
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	At        string `json:"at"`
	Kind      string `json:"kind"`
}

type registrationResponse struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customer_id"`
	TierID           string          `json:"tier_id"`
	StageID          *string         `json:"stage_id,omitempty"`
	StatusID         *string         `json:"status_id,omitempty"`
	QuotaMinQuarter  int64           `json:"quota_min_quarter"`
	QuotaMaxQuarter  int64           `json:"quota_max_quarter"`
	QuotaMinYear     int64           `json:"quota_min_year"`
	QuotaMaxYear     int64           `json:"quota_max_year"`
	EffectiveDate    string          `json:"effective_date"`
	Notes            *string         `json:"notes,omitempty"`
	ContractLink     *string         `json:"contract_link,omitempty"`
	ContractFile     *string         `json:"contract_file,omitempty"`
	ManagerDecision  string          `json:"manager_decision,omitempty"`
	ManagerID        *string         `json:"manager_id,omitempty"`
	ManagerDecidedAt string          `json:"manager_decided_at,omitempty"`
	SeniorDecision   string          `json:"senior_decision,omitempty"`
	SeniorID         *string         `json:"senior_id,omitempty"`
	SeniorDecidedAt  string          `json:"senior_decided_at,omitempty"`
	Status           string          `json:"status"`
	NegotiationLog   []entryResponse `json:"negotiation_log"`
	Executed         bool            `json:"executed"`
	CreatedBy        string          `json:"created_by"`
	CancelledBy      *string         `json:"cancelled_by,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

func toRegistrationResponse(reg registration.Registration) registrationResponse {
	entries := make([]entryResponse, 0, len(reg.Negotiation))
	for _, e := range reg.Negotiation {
		entries = append(entries, entryResponse{
			Content:   e.Content,
			ActorID:   e.ActorID,
			ActorName: e.ActorName,
			At:        e.At.Format(time.RFC3339),
			Kind:      string(e.Kind),
		})
	}

	resp := registrationResponse{
		ID:              reg.ID,
		CustomerID:      reg.CustomerID,
		TierID:          reg.TierID,
		StageID:         reg.StageID,
		StatusID:        reg.StatusID,
		QuotaMinQuarter: reg.QuotaMinQuarter,
		QuotaMaxQuarter: reg.QuotaMaxQuarter,
		QuotaMinYear:    reg.QuotaMinYear,
		QuotaMaxYear:    reg.QuotaMaxYear,
		EffectiveDate:   reg.EffectiveDate.Format(dateLayout),
		Notes:           reg.Notes,
		ContractLink:    reg.ContractLink,
		ContractFile:    reg.ContractFile,
		ManagerDecision: string(reg.ManagerDecision),
		ManagerID:       reg.ManagerID,
		SeniorDecision:  string(reg.SeniorDecision),
		SeniorID:        reg.SeniorID,
		Status:          string(reg.Status),
		NegotiationLog:  entries,
		Executed:        reg.Executed,
		CreatedBy:       reg.CreatedBy,
		CancelledBy:     reg.CancelledBy,
		CreatedAt:       reg.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       reg.UpdatedAt.Format(time.RFC3339),
	}
	if reg.ManagerDecidedAt != nil {
		resp.ManagerDecidedAt = reg.ManagerDecidedAt.Format(time.RFC3339)
	}
	if reg.SeniorDecidedAt != nil {
		resp.SeniorDecidedAt = reg.SeniorDecidedAt.Format(time.RFC3339)
	}
	return resp
}

// writeServiceError maps the workflow error taxonomy onto HTTP statuses:
// unknown records are 404, invalid input is 400, permission failures are 403,
// and eligibility failures are 409.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registration.ErrNotFound):
		writeError(w, http.StatusNotFound, "registration not found")
	case errors.Is(err, registration.ErrNotCreator),
		errors.Is(err, registration.ErrOverrideNotPermitted),
		errors.Is(err, registration.ErrModerationForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, registration.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registration.ErrPrecondition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
