package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvisionState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state ProvisionState
		want  bool
	}{
		{"unprovisioned", StateUnprovisioned, true},
		{"provisioned", StateProvisioned, true},
		{"deprovisioning", StateDeprovisioning, true},
		{"error", StateError, true},
		{"empty", ProvisionState(""), false},
		{"unknown", ProvisionState("suspended"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.IsValid())
		})
	}
}

func TestProvisionState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   ProvisionState
		to     ProvisionState
		want   bool
	}{
		{"unprovisioned to provisioned", StateUnprovisioned, StateProvisioned, true},
		{"unprovisioned to error", StateUnprovisioned, StateError, true},
		{"unprovisioned to deprovisioning", StateUnprovisioned, StateDeprovisioning, false},
		{"provisioned to unprovisioned", StateProvisioned, StateUnprovisioned, true},
		{"provisioned to deprovisioning", StateProvisioned, StateDeprovisioning, true},
		{"deprovisioning to unprovisioned", StateDeprovisioning, StateUnprovisioned, true},
		{"deprovisioning to provisioned", StateDeprovisioning, StateProvisioned, false},
		{"error to unprovisioned", StateError, StateUnprovisioned, true},
		{"error to provisioned", StateError, StateProvisioned, false},
		{"error to deprovisioning", StateError, StateDeprovisioning, false},
		{"self transition", StateProvisioned, StateProvisioned, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}
