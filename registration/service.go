package registration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tierflow/auth"
)

// TxBeginner abstracts transaction creation so the service can be exercised
// without a live pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// StagePairChecker validates that a status catalog entry belongs to a stage.
type StagePairChecker interface {
	StatusBelongsToStage(ctx context.Context, statusID, stageID string) (bool, error)
}

// BatchExecutor runs the approved-registration commit step.
type BatchExecutor interface {
	ExecuteApproved(ctx context.Context) (ExecResult, error)
}

// Service orchestrates the registration approval workflow. Every mutation
// runs in a transaction that first loads the record under a row lock, checks
// the eligibility predicate, computes the next status, appends negotiation
// entries, and persists everything in a single update.
type Service struct {
	pool        TxBeginner
	repo        Repository
	pairs       StagePairChecker
	executor    BatchExecutor
	logger      *slog.Logger
	idGenerator func() string
	now         func() time.Time
}

// NewService creates a workflow service.
func NewService(pool TxBeginner, repo Repository, pairs StagePairChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pool:        pool,
		repo:        repo,
		pairs:       pairs,
		logger:      logger,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

// WithIDGenerator overrides id generation, for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithExecutor wires the commit step fired after a senior approval.
func (s *Service) WithExecutor(exec BatchExecutor) *Service {
	s.executor = exec
	return s
}

// CreateParams contains the business fields of a new registration.
type CreateParams struct {
	CustomerID      string
	TierID          string
	StageID         *string
	StatusID        *string
	QuotaMinQuarter int64
	QuotaMaxQuarter int64
	QuotaMinYear    int64
	QuotaMaxYear    int64
	EffectiveDate   time.Time
	Notes           *string
	ContractLink    *string
	ContractFile    *string
}

// Create inserts a new registration awaiting review. The negotiation log
// starts empty; only workflow actions append to it.
func (s *Service) Create(ctx context.Context, actor auth.Actor, params CreateParams) (Registration, error) {
	if params.CustomerID == "" {
		return Registration{}, fmt.Errorf("%w: customer id", ErrMissingField)
	}
	if params.TierID == "" {
		return Registration{}, fmt.Errorf("%w: tier id", ErrMissingField)
	}
	if params.EffectiveDate.IsZero() {
		return Registration{}, fmt.Errorf("%w: effective date", ErrMissingField)
	}
	if params.QuotaMinQuarter < 0 || params.QuotaMaxQuarter < 0 || params.QuotaMinYear < 0 || params.QuotaMaxYear < 0 {
		return Registration{}, ErrQuotaNegative
	}
	if err := s.checkStagePair(ctx, params.StageID, params.StatusID); err != nil {
		return Registration{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Registration{}, fmt.Errorf("%w: begin tx: %v", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	reg := Registration{
		ID:              s.idGenerator(),
		CustomerID:      params.CustomerID,
		TierID:          params.TierID,
		StageID:         params.StageID,
		StatusID:        params.StatusID,
		QuotaMinQuarter: params.QuotaMinQuarter,
		QuotaMaxQuarter: params.QuotaMaxQuarter,
		QuotaMinYear:    params.QuotaMinYear,
		QuotaMaxYear:    params.QuotaMaxYear,
		EffectiveDate:   params.EffectiveDate,
		Notes:           params.Notes,
		ContractLink:    params.ContractLink,
		ContractFile:    params.ContractFile,
		Status:          StatusPendingReview,
		Negotiation:     Log{},
		CreatedBy:       actor.ID,
	}

	created, err := s.repo.Create(ctx, tx, reg)
	if err != nil {
		return Registration{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Registration{}, fmt.Errorf("%w: commit create: %v", ErrPersistence, err)
	}

	s.logger.Info("registration created",
		slog.String("registration_id", created.ID),
		slog.String("customer_id", created.CustomerID),
		slog.String("created_by", actor.ID))

	return created, nil
}

// DecideParams carries a manager decision. Remark, when present, is appended
// as an extra free-form entry after the decision line.
type DecideParams struct {
	ID       string
	Decision Decision
	Reason   string
	Remark   string
}

// ManagerDecide records the line-manager decision. Eligible only while the
// registration awaits review.
func (s *Service) ManagerDecide(ctx context.Context, actor auth.Actor, params DecideParams) (Registration, error) {
	reason, err := validateDecision(params.Decision, params.Reason)
	if err != nil {
		return Registration{}, err
	}

	return s.mutate(ctx, params.ID, func(reg *Registration) error {
		if reg.Status != StatusPendingReview {
			return ErrNotPendingReview
		}

		at := s.now()
		reg.ManagerDecision = params.Decision
		reg.ManagerID = &actor.ID
		reg.ManagerDecidedAt = &at
		reg.Status = NextStatus(reg.ManagerDecision, reg.SeniorDecision, reg.Status)
		reg.Negotiation = reg.Negotiation.Append(Entry{
			Content:   managerDecisionContent(params.Decision, reason),
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        at,
			Kind:      KindManagerDecision,
		})
		s.appendRemark(reg, actor, params.Remark, at)
		return nil
	})
}

// SeniorDecideParams carries a senior-management decision. Override bypasses
// the manager-approval precondition for actors holding the
// override_approve capability.
type SeniorDecideParams struct {
	ID       string
	Decision Decision
	Reason   string
	Remark   string
	Override bool
}

// SeniorDecide records the senior-management decision. The normal path
// requires a prior manager approval and a still-pending registration; the
// override path requires the override_approve capability, no recorded senior
// decision, and a registration not already approved or rejected.
//
// When the decision lands the registration on approved, the commit step runs
// after the transaction commits. Its outcome never affects the approval:
// failures are logged and the batch converges on the next scheduled run.
func (s *Service) SeniorDecide(ctx context.Context, actor auth.Actor, params SeniorDecideParams) (Registration, error) {
	reason, err := validateDecision(params.Decision, params.Reason)
	if err != nil {
		return Registration{}, err
	}

	updated, err := s.mutate(ctx, params.ID, func(reg *Registration) error {
		if reg.SeniorDecision.IsSet() {
			return ErrSeniorAlreadyDecided
		}

		if params.Override {
			if !actor.Can(auth.CapabilityOverrideApprove) {
				return ErrOverrideNotPermitted
			}
			if reg.Status == StatusApproved || reg.Status == StatusRejected {
				return ErrAlreadyFinalized
			}
		} else {
			if reg.ManagerDecision != DecisionApprove {
				return ErrManagerNotApproved
			}
			if reg.Status != StatusPendingReview && reg.Status != StatusPendingApproval {
				return ErrNotAwaitingSenior
			}
		}

		at := s.now()
		reg.SeniorDecision = params.Decision
		reg.SeniorID = &actor.ID
		reg.SeniorDecidedAt = &at
		reg.Status = NextStatus(reg.ManagerDecision, reg.SeniorDecision, reg.Status)
		reg.Negotiation = reg.Negotiation.Append(Entry{
			Content:   seniorDecisionContent(params.Decision, reason, params.Override),
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        at,
			Kind:      KindSeniorDecision,
		})
		s.appendRemark(reg, actor, params.Remark, at)
		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	if updated.Status == StatusApproved && s.executor != nil {
		if _, execErr := s.executor.ExecuteApproved(ctx); execErr != nil {
			s.logger.Warn("post-approval execution failed, deferring to scheduled run",
				slog.String("registration_id", updated.ID),
				slog.Any("error", execErr))
		}
	}

	return updated, nil
}

// ReturnParams carries a return-to-sender request.
type ReturnParams struct {
	ID     string
	Reason string
}

// ReturnToSender regresses a registration to pending review so the requester
// can amend it. Recorded decisions are kept; only the status moves back.
func (s *Service) ReturnToSender(ctx context.Context, actor auth.Actor, params ReturnParams) (Registration, error) {
	reason := strings.TrimSpace(params.Reason)
	if reason == "" {
		return Registration{}, ErrReasonRequired
	}

	return s.mutate(ctx, params.ID, func(reg *Registration) error {
		if reg.Status != StatusPendingApproval && reg.Status != StatusNeedsInfo {
			return ErrNotReturnable
		}

		at := s.now()
		reg.Status = StatusPendingReview
		reg.Negotiation = reg.Negotiation.Append(Entry{
			Content:   returnedContent(reason),
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        at,
			Kind:      KindReturned,
		})
		return nil
	})
}

// CancelParams carries a cancellation request.
type CancelParams struct {
	ID     string
	Reason string
}

// Cancel withdraws a registration. Only the original creator may cancel, and
// only while the registration still awaits review.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, params CancelParams) (Registration, error) {
	reason := strings.TrimSpace(params.Reason)
	if reason == "" {
		return Registration{}, ErrReasonRequired
	}

	return s.mutate(ctx, params.ID, func(reg *Registration) error {
		if reg.CreatedBy != actor.ID {
			return ErrNotCreator
		}
		if reg.Status != StatusPendingReview {
			return ErrNotCancellable
		}

		at := s.now()
		reg.Status = StatusCancelled
		reg.CancelledBy = &actor.ID
		reg.Negotiation = reg.Negotiation.Append(Entry{
			Content:   cancelledContent(reason),
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        at,
			Kind:      KindCancelled,
		})
		return nil
	})
}

// Negotiate appends a free-text remark without touching the workflow state.
// Cancelled registrations no longer accept remarks.
func (s *Service) Negotiate(ctx context.Context, actor auth.Actor, id, text string) (Registration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Registration{}, fmt.Errorf("%w: negotiation text", ErrMissingField)
	}

	return s.mutate(ctx, id, func(reg *Registration) error {
		if reg.Status == StatusCancelled {
			return ErrRecordCancelled
		}

		reg.Negotiation = reg.Negotiation.Append(Entry{
			Content:   text,
			ActorID:   actor.ID,
			ActorName: actor.Name,
			At:        s.now(),
			Kind:      KindRemark,
		})
		return nil
	})
}

// DeleteNegotiationEntry removes a single entry from the negotiation trail.
// Restricted to actors holding the moderate_log capability.
func (s *Service) DeleteNegotiationEntry(ctx context.Context, actor auth.Actor, id string, index int) (Registration, error) {
	if !actor.Can(auth.CapabilityModerateLog) {
		return Registration{}, ErrModerationForbidden
	}

	return s.mutate(ctx, id, func(reg *Registration) error {
		pruned, err := reg.Negotiation.Delete(index)
		if err != nil {
			return err
		}
		reg.Negotiation = pruned
		return nil
	})
}

// Duplicate returns the business fields of a cancelled registration as a
// prefilled draft for resubmission. Decisions, status, and the negotiation
// log are excluded, and the source record is not touched.
func (s *Service) Duplicate(ctx context.Context, id string) (Draft, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	if reg.Status != StatusCancelled {
		return Draft{}, ErrNotCancelled
	}

	return Draft{
		CustomerID:      reg.CustomerID,
		TierID:          reg.TierID,
		StageID:         reg.StageID,
		StatusID:        reg.StatusID,
		QuotaMinQuarter: reg.QuotaMinQuarter,
		QuotaMaxQuarter: reg.QuotaMaxQuarter,
		QuotaMinYear:    reg.QuotaMinYear,
		QuotaMaxYear:    reg.QuotaMaxYear,
		EffectiveDate:   reg.EffectiveDate,
		Notes:           reg.Notes,
		ContractLink:    reg.ContractLink,
		ContractFile:    reg.ContractFile,
	}, nil
}

// Get returns a registration by id.
func (s *Service) Get(ctx context.Context, id string) (Registration, error) {
	return s.repo.GetByID(ctx, id)
}

// ListResult bundles a page of registrations with the unpaged total.
type ListResult struct {
	Items []Registration
	Total int
}

// List returns registrations matching the filters.
func (s *Service) List(ctx context.Context, filters Filters) (ListResult, error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// mutate runs one workflow action: load under row lock, apply, persist,
// commit. On any failure the record is left untouched.
func (s *Service) mutate(ctx context.Context, id string, apply func(*Registration) error) (Registration, error) {
	if id == "" {
		return Registration{}, fmt.Errorf("%w: registration id", ErrMissingField)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Registration{}, fmt.Errorf("%w: begin tx: %v", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	reg, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Registration{}, err
	}

	if err := apply(&reg); err != nil {
		return Registration{}, err
	}

	updated, err := s.repo.Update(ctx, tx, reg)
	if err != nil {
		return Registration{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Registration{}, fmt.Errorf("%w: commit: %v", ErrPersistence, err)
	}

	return updated, nil
}

func (s *Service) appendRemark(reg *Registration, actor auth.Actor, remark string, at time.Time) {
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return
	}
	reg.Negotiation = reg.Negotiation.Append(Entry{
		Content:   remark,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		At:        at,
		Kind:      KindRemark,
	})
}

func (s *Service) checkStagePair(ctx context.Context, stageID, statusID *string) error {
	if statusID == nil {
		return nil
	}
	if stageID == nil {
		return fmt.Errorf("%w: status set without stage", ErrStatusStagePair)
	}
	if s.pairs == nil {
		return nil
	}
	ok, err := s.pairs.StatusBelongsToStage(ctx, *statusID, *stageID)
	if err != nil {
		return fmt.Errorf("%w: check status/stage pair: %v", ErrPersistence, err)
	}
	if !ok {
		return ErrStatusStagePair
	}
	return nil
}

func validateDecision(d Decision, reason string) (string, error) {
	if !isValidDecision(d) {
		return "", fmt.Errorf("%w: %q", ErrBadDecision, d)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", ErrReasonRequired
	}
	return reason, nil
}
