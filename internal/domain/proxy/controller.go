package proxy

import (
	"context"
	"errors"
)

var (
	// ErrUnreachable means the proxy server could not be contacted or
	// controlled at all. Transient; the next cycle retries.
	ErrUnreachable = errors.New("proxy server unreachable")
	// ErrConfigRejected means the proxy rejected the resulting configuration
	// as invalid. The running config is untouched.
	ErrConfigRejected = errors.New("proxy rejected configuration")
	// ErrReloadTimeout means the configuration was written but the proxy did
	// not come back healthy within the reload window.
	ErrReloadTimeout = errors.New("proxy reload timed out")
)

// Controller mutates the proxy server's client set. All operations are
// idempotent: applying an existing profile and removing an absent one are
// successes, so a cycle replayed after a crash converges instead of failing.
type Controller interface {
	// Apply ensures the profile exists in the proxy config and is live.
	Apply(ctx context.Context, directive ProfileDirective) error
	// Remove ensures no profile with the given UUID remains in the config.
	Remove(ctx context.Context, profileUUID string) error
	// Contains reports whether a profile with the UUID is present in the
	// persisted config, without mutating anything.
	Contains(ctx context.Context, profileUUID string) (bool, error)
	// EnsureHealthy probes the proxy process and restarts it if it is down.
	EnsureHealthy(ctx context.Context) error
}
