// Package constants defines shared constant values used across layers.
package constants

// Database table names
const (
	TableSubscriptions = "subscriptions"
)

// Gin context keys
const (
	ContextKeyAdminUser = "admin_user"
)

// DefaultEmailDomain is the fallback domain used to build proxy profile
// email identifiers when none is configured.
const DefaultEmailDomain = "sunstrike.local"
