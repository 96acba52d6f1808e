package auth

// Capability is an explicit permission carried by an Actor. Workflow
// eligibility rules check capabilities, never roles, so the rules stay
// testable without any auth context.
type Capability string

const (
	// CapabilityOverrideApprove permits a senior decision without a prior
	// manager approval.
	CapabilityOverrideApprove Capability = "override_approve"
	// CapabilityModerateLog permits deleting individual negotiation entries.
	CapabilityModerateLog Capability = "moderate_log"
)

// Actor identifies the authenticated employee performing a workflow action,
// together with the capabilities granted to them.
type Actor struct {
	ID           string
	Name         string
	Role         Role
	Capabilities []Capability
}

// Can reports whether the actor holds the given capability.
func (a Actor) Can(c Capability) bool {
	for _, held := range a.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}

// CapabilitiesForRole returns the capabilities granted to a role by default.
func CapabilitiesForRole(role Role) []Capability {
	switch role {
	case RoleDirector:
		return []Capability{CapabilityOverrideApprove}
	case RoleAdmin:
		return []Capability{CapabilityOverrideApprove, CapabilityModerateLog}
	default:
		return nil
	}
}

func isValidCapability(c Capability) bool {
	switch c {
	case CapabilityOverrideApprove, CapabilityModerateLog:
		return true
	default:
		return false
	}
}
