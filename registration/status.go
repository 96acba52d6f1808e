package registration

// NextStatus computes the workflow status implied by the two recorded
// decisions and the current status. Precedence, highest first:
//
//  1. A cancelled registration stays cancelled; no decision revives it.
//  2. A senior approval is final, whether or not the manager approved
//     (the override path relies on this).
//  3. Then the remaining senior decisions, then the manager decisions.
//  4. With no decision recorded, the registration awaits review.
//
// The function is pure: same inputs, same output, no side effects.
func NextStatus(manager, senior Decision, current Status) Status {
	if current == StatusCancelled {
		return current
	}

	switch senior {
	case DecisionApprove:
		return StatusApproved
	case DecisionReject:
		return StatusRejected
	case DecisionNeedsInfo:
		return StatusNeedsInfo
	}

	switch manager {
	case DecisionApprove:
		return StatusPendingApproval
	case DecisionReject:
		return StatusRejected
	case DecisionNeedsInfo:
		return StatusNeedsInfo
	}

	return StatusPendingReview
}
