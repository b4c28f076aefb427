package subscription

import (
	"context"
)

// SubscriptionRepository persists subscriptions and exposes the state
// transitions the reconciliation engine commits. The Mark* operations are
// conditional writes guarded by the current provision state so a crashed or
// concurrent cycle cannot double-apply a transition.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetByUsername(ctx context.Context, username string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filter SubscriptionFilter) ([]*Subscription, int64, error)

	// FindPendingActivations returns subscriptions whose desired state is
	// active but which carry no profile yet (active and unprovisioned).
	FindPendingActivations(ctx context.Context) ([]*Subscription, error)
	// FindPendingDeactivations returns subscriptions whose profile must be
	// removed: inactive-but-provisioned plus anything in deprovisioning.
	FindPendingDeactivations(ctx context.Context) ([]*Subscription, error)
	// FindProvisioned returns all subscriptions currently carrying a profile.
	FindProvisioned(ctx context.Context) ([]*Subscription, error)

	// MarkProvisioned commits unprovisioned -> provisioned together with the
	// generated link and the applied profile UUID.
	MarkProvisioned(ctx context.Context, id uint, link, profileUUID string) error
	// MarkDeprovisioned commits provisioned/deprovisioning -> unprovisioned,
	// optionally clearing the stored link.
	MarkDeprovisioned(ctx context.Context, id uint, clearLink bool) error
	// MarkError commits any state -> error with the failure reason.
	MarkError(ctx context.Context, id uint, reason string) error
	// UpdateLink rewrites the stored link of a provisioned subscription.
	UpdateLink(ctx context.Context, id uint, link string) error
}

type SubscriptionFilter struct {
	Active         *bool
	ProvisionState *string
	Username       *string
	Page           int
	PageSize       int
	SortBy         string
	SortDesc       bool
}
