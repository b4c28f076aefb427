// Package dto defines the API-facing representations of subscriptions.
package dto

import (
	"time"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/shared/mapper"
)

// SubscriptionDTO is the external view of a subscription. The credential
// secret never leaves the service.
type SubscriptionDTO struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Active         bool      `json:"active"`
	Link           *string   `json:"link"`
	ProvisionState string    `json:"provision_state"`
	ProvisionError *string   `json:"provision_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FromEntity converts a domain subscription to its DTO.
func FromEntity(sub *subscription.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:             sub.ID(),
		Username:       sub.Username(),
		Active:         sub.Active(),
		Link:           sub.Link(),
		ProvisionState: sub.ProvisionState().String(),
		ProvisionError: sub.ProvisionError(),
		CreatedAt:      sub.CreatedAt(),
		UpdatedAt:      sub.UpdatedAt(),
	}
}

// FromEntities converts a slice of domain subscriptions.
func FromEntities(subs []*subscription.Subscription) []*SubscriptionDTO {
	return mapper.MapSlice(subs, FromEntity)
}
