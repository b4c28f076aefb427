// Package proxy models the proxy server side of reconciliation: the profile
// directive derived from a subscription and the controller that applies it.
package proxy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSubscription marks input that can never produce a valid
	// profile directive. Retrying without changing the subscription is futile.
	ErrInvalidSubscription = errors.New("subscription cannot produce a profile directive")
)

// ProfileDirective is the deterministic translation of a subscription into the
// client entry the proxy server understands. Equal credential pairs always
// produce the same directive, which is what makes profile application
// idempotent across cycles and crashes.
type ProfileDirective struct {
	SubscriptionID uint
	UUID           string
	Email          string
	Flow           string
}

// BuildDirective derives a profile directive from a credential pair. The UUID
// is a name-based UUID over "username:secret" so rotation of either half of
// the pair yields a different profile identity.
func BuildDirective(subscriptionID uint, username, credentialSecret, emailDomain, flow string) (ProfileDirective, error) {
	if username == "" {
		return ProfileDirective{}, fmt.Errorf("%w: empty username", ErrInvalidSubscription)
	}
	if credentialSecret == "" {
		return ProfileDirective{}, fmt.Errorf("%w: empty credential secret", ErrInvalidSubscription)
	}

	id := DeriveProfileUUID(username, credentialSecret)

	email := username
	if emailDomain != "" {
		email = username + "@" + emailDomain
	}

	return ProfileDirective{
		SubscriptionID: subscriptionID,
		UUID:           id,
		Email:          email,
		Flow:           flow,
	}, nil
}

// DeriveProfileUUID computes the name-based profile UUID for a credential pair.
func DeriveProfileUUID(username, credentialSecret string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(username+":"+credentialSecret)).String()
}
