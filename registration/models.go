package registration

import "time"

// Decision is one of the two human approval checkpoints recorded on a
// registration. The zero value means no decision yet.
type Decision string

const (
	DecisionNone      Decision = ""
	DecisionApprove   Decision = "approve"
	DecisionReject    Decision = "reject"
	DecisionNeedsInfo Decision = "needs_info"
)

// IsSet reports whether a decision has been recorded.
func (d Decision) IsSet() bool { return d != DecisionNone }

func isValidDecision(d Decision) bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionNeedsInfo:
		return true
	default:
		return false
	}
}

// Status is the workflow status of a registration. It is always derived from
// the two decisions by NextStatus, except for the explicit cancelled and
// pending_review transitions performed by Cancel and ReturnToSender.
type Status string

const (
	StatusPendingReview   Status = "pending_review"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusCancelled       Status = "cancelled"
	StatusNeedsInfo       Status = "needs_info"
)

// Registration is one proposed customer tier/quota assignment moving through
// the approval workflow.
type Registration struct {
	ID         string
	CustomerID string
	TierID     string
	StageID    *string
	StatusID   *string

	QuotaMinQuarter int64
	QuotaMaxQuarter int64
	QuotaMinYear    int64
	QuotaMaxYear    int64
	EffectiveDate   time.Time

	Notes        *string
	ContractLink *string
	ContractFile *string

	ManagerDecision  Decision
	ManagerID        *string
	ManagerDecidedAt *time.Time
	SeniorDecision   Decision
	SeniorID         *string
	SeniorDecidedAt  *time.Time

	Status      Status
	Negotiation Log
	Executed    bool

	CreatedBy   string
	CancelledBy *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Draft carries the business fields of a registration for prefilled
// resubmission. Decision fields, status, and the negotiation log are
// deliberately absent.
type Draft struct {
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
