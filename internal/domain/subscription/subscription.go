package subscription

import (
	"fmt"
	"regexp"
	"time"

	vo "github.com/sunstrike-inc/sunstrike/internal/domain/subscription/valueobjects"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,64}$`)

const minSecretLength = 8

// Subscription represents the subscription aggregate root. The active flag is
// the desired state written by administrators; provisionState, link and
// profileUUID are the observed state written only by the reconciliation engine.
type Subscription struct {
	id               uint
	username         string
	credentialSecret string
	active           bool
	link             *string
	provisionState   vo.ProvisionState
	provisionError   *string
	profileUUID      *string
	version          int
	createdAt        time.Time
	updatedAt        time.Time
}

// NewSubscription creates a new subscription in the unprovisioned state.
func NewSubscription(username, credentialSecret string, active bool) (*Subscription, error) {
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("username must be 3-64 characters of letters, digits, dot, underscore or hyphen")
	}
	if len(credentialSecret) < minSecretLength {
		return nil, fmt.Errorf("credential secret must be at least %d characters", minSecretLength)
	}

	now := time.Now()
	return &Subscription{
		username:         username,
		credentialSecret: credentialSecret,
		active:           active,
		provisionState:   vo.StateUnprovisioned,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(
	id uint,
	username, credentialSecret string,
	active bool,
	link *string,
	provisionState vo.ProvisionState,
	provisionError *string,
	profileUUID *string,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if !provisionState.IsValid() {
		return nil, fmt.Errorf("invalid provision state: %s", provisionState)
	}

	return &Subscription{
		id:               id,
		username:         username,
		credentialSecret: credentialSecret,
		active:           active,
		link:             link,
		provisionState:   provisionState,
		provisionError:   provisionError,
		profileUUID:      profileUUID,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

// ID returns the subscription ID
func (s *Subscription) ID() uint {
	return s.id
}

// Username returns the subscription username
func (s *Subscription) Username() string {
	return s.username
}

// CredentialSecret returns the secret half of the credential pair
func (s *Subscription) CredentialSecret() string {
	return s.credentialSecret
}

// Active returns the desired state flag
func (s *Subscription) Active() bool {
	return s.active
}

// Link returns the connection link, nil when never provisioned
func (s *Subscription) Link() *string {
	return s.link
}

// ProvisionState returns the observed provisioning state
func (s *Subscription) ProvisionState() vo.ProvisionState {
	return s.provisionState
}

// ProvisionError returns the reason of the last permanent failure, if any
func (s *Subscription) ProvisionError() *string {
	return s.provisionError
}

// ProfileUUID returns the UUID of the profile applied to the proxy, if any
func (s *Subscription) ProfileUUID() *string {
	return s.profileUUID
}

// Version returns the aggregate version for optimistic locking
func (s *Subscription) Version() int {
	return s.version
}

// CreatedAt returns when the subscription was created
func (s *Subscription) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns when the subscription was last updated
func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

// SetActive updates the desired state. Leaving the error state requires a
// desired-state write, so any toggle clears a recorded provisioning failure.
func (s *Subscription) SetActive(active bool) {
	if s.active == active && s.provisionState != vo.StateError {
		return
	}

	s.active = active
	if s.provisionState == vo.StateError {
		s.provisionState = vo.StateUnprovisioned
		s.provisionError = nil
	}
	s.updatedAt = time.Now()
	s.version++
}

// RotateCredential replaces the credential secret. An applied profile becomes
// stale, so a provisioned subscription moves to deprovisioning and its link is
// cleared; the engine removes the old profile and re-applies a fresh one.
func (s *Subscription) RotateCredential(newSecret string) error {
	if len(newSecret) < minSecretLength {
		return fmt.Errorf("credential secret must be at least %d characters", minSecretLength)
	}

	s.credentialSecret = newSecret
	s.link = nil
	if s.provisionState == vo.StateProvisioned {
		s.provisionState = vo.StateDeprovisioning
	}
	if s.provisionState == vo.StateError {
		s.provisionState = vo.StateUnprovisioned
		s.provisionError = nil
	}
	s.updatedAt = time.Now()
	s.version++

	return nil
}

// RequestDeprovision forces removal of the applied profile on the next
// reconciliation cycle without touching the desired state.
func (s *Subscription) RequestDeprovision() error {
	if s.provisionState == vo.StateDeprovisioning {
		return nil
	}
	if !s.provisionState.CanTransitionTo(vo.StateDeprovisioning) {
		return fmt.Errorf("cannot deprovision subscription in state %s", s.provisionState)
	}

	s.provisionState = vo.StateDeprovisioning
	s.updatedAt = time.Now()
	s.version++

	return nil
}

// NeedsActivation reports whether the next cycle should apply a profile.
func (s *Subscription) NeedsActivation() bool {
	return s.active && s.provisionState == vo.StateUnprovisioned
}

// NeedsDeactivation reports whether the next cycle should remove a profile.
func (s *Subscription) NeedsDeactivation() bool {
	if s.provisionState == vo.StateDeprovisioning {
		return true
	}
	return !s.active && s.provisionState == vo.StateProvisioned
}

// Validate performs domain-level validation
func (s *Subscription) Validate() error {
	if !usernamePattern.MatchString(s.username) {
		return fmt.Errorf("invalid username: %s", s.username)
	}
	if len(s.credentialSecret) < minSecretLength {
		return fmt.Errorf("credential secret must be at least %d characters", minSecretLength)
	}
	if !s.provisionState.IsValid() {
		return fmt.Errorf("invalid provision state: %s", s.provisionState)
	}
	if s.provisionState == vo.StateProvisioned && s.link == nil {
		return fmt.Errorf("provisioned subscription must carry a link")
	}
	return nil
}
