// Package valueobjects contains immutable value types for the subscription domain.
package valueobjects

// ProvisionState is the observed provisioning state of a subscription on the
// proxy server. It is owned exclusively by the reconciliation engine; external
// actors only ever write the desired state (the active flag).
type ProvisionState string

const (
	// StateUnprovisioned means no profile exists on the proxy for this subscription.
	StateUnprovisioned ProvisionState = "unprovisioned"
	// StateProvisioned means a profile is applied and the connection link is set.
	StateProvisioned ProvisionState = "provisioned"
	// StateDeprovisioning means the applied profile must be removed regardless of
	// the active flag (credential rotation, forced cleanup).
	StateDeprovisioning ProvisionState = "deprovisioning"
	// StateError means the last provisioning attempt failed permanently; the
	// subscription is excluded from reconciliation until an external actor
	// toggles the active flag.
	StateError ProvisionState = "error"
)

// ValidStates is the set of persistable provision states.
var ValidStates = map[ProvisionState]bool{
	StateUnprovisioned:  true,
	StateProvisioned:    true,
	StateDeprovisioning: true,
	StateError:          true,
}

// transitions holds the allowed state machine edges. There is deliberately no
// edge out of StateError other than the manual reset to StateUnprovisioned,
// which prevents tight retry loops on permanently broken input.
var transitions = map[ProvisionState]map[ProvisionState]bool{
	StateUnprovisioned: {
		StateProvisioned: true,
		StateError:       true,
	},
	StateProvisioned: {
		StateUnprovisioned:  true,
		StateDeprovisioning: true,
		StateError:          true,
	},
	StateDeprovisioning: {
		StateUnprovisioned: true,
		StateError:         true,
	},
	StateError: {
		StateUnprovisioned: true,
	},
}

// String returns the string representation of the state.
func (s ProvisionState) String() string {
	return string(s)
}

// IsValid reports whether the state is a known provision state.
func (s ProvisionState) IsValid() bool {
	return ValidStates[s]
}

// CanTransitionTo reports whether the state machine allows moving to target.
func (s ProvisionState) CanTransitionTo(target ProvisionState) bool {
	if s == target {
		return true
	}
	return transitions[s][target]
}
