package registration

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of
// these, so callers can map failures to a transport status without matching
// on message text.
var (
	// ErrNotFound signals the registration or a referenced entity does not exist.
	ErrNotFound = errors.New("registration: not found")
	// ErrValidation signals a malformed or out-of-range input.
	ErrValidation = errors.New("registration: validation failed")
	// ErrPrecondition signals an action attempted in a status or role
	// combination that does not permit it.
	ErrPrecondition = errors.New("registration: precondition failed")
	// ErrPersistence signals the underlying store write failed. The action is
	// never partially applied.
	ErrPersistence = errors.New("registration: persistence failed")
)

// Rule errors name the specific eligibility rule that rejected an action, so
// the caller can explain why the button is disabled.
var (
	ErrNotPendingReview     = fmt.Errorf("%w: manager decision requires pending review", ErrPrecondition)
	ErrManagerNotApproved   = fmt.Errorf("%w: senior decision requires prior manager approval", ErrPrecondition)
	ErrSeniorAlreadyDecided = fmt.Errorf("%w: senior decision already recorded", ErrPrecondition)
	ErrNotAwaitingSenior    = fmt.Errorf("%w: senior decision requires a pending registration", ErrPrecondition)
	ErrAlreadyFinalized     = fmt.Errorf("%w: registration already approved or rejected", ErrPrecondition)
	ErrOverrideNotPermitted = fmt.Errorf("%w: override requires the override_approve capability", ErrPrecondition)
	ErrNotReturnable        = fmt.Errorf("%w: return requires pending approval or needs-info", ErrPrecondition)
	ErrNotCreator           = fmt.Errorf("%w: only the creator may cancel", ErrPrecondition)
	ErrNotCancellable       = fmt.Errorf("%w: cancel requires pending review", ErrPrecondition)
	ErrRecordCancelled      = fmt.Errorf("%w: registration is cancelled", ErrPrecondition)
	ErrNotCancelled         = fmt.Errorf("%w: duplicate requires a cancelled registration", ErrPrecondition)
	ErrModerationForbidden  = fmt.Errorf("%w: entry deletion requires the moderate_log capability", ErrPrecondition)
)

// Validation errors.
var (
	ErrEntryIndex      = fmt.Errorf("%w: negotiation entry index out of range", ErrValidation)
	ErrBadDecision     = fmt.Errorf("%w: unknown decision value", ErrValidation)
	ErrReasonRequired  = fmt.Errorf("%w: a reason is required", ErrValidation)
	ErrQuotaNegative   = fmt.Errorf("%w: quota bounds must be non-negative", ErrValidation)
	ErrMissingField    = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrUnknownRef      = fmt.Errorf("%w: referenced entity does not exist", ErrValidation)
	ErrStatusStagePair = fmt.Errorf("%w: status does not belong to stage", ErrValidation)
)
