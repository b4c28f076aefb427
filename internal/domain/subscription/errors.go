package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrStateConflict        = errors.New("provision state changed concurrently")
	ErrStillProvisioned     = errors.New("subscription still carries a profile")
	ErrInvalidTransition    = errors.New("invalid provision state transition")
)

func ErrTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, from, to)
}
