package usecases

import (
	"context"
	"fmt"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	vo "github.com/sunstrike-inc/sunstrike/internal/domain/subscription/valueobjects"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

type DeleteSubscriptionCommand struct {
	SubscriptionID uint
	// Force deactivates a provisioned subscription instead of refusing,
	// leaving the actual profile removal to the reconciler before a later
	// delete attempt succeeds.
	Force bool
}

type DeleteSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewDeleteSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *DeleteSubscriptionUseCase {
	return &DeleteSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Execute removes a subscription record. A subscription still carrying a
// profile is refused so the proxy never ends up serving a client no database
// row accounts for.
func (uc *DeleteSubscriptionUseCase) Execute(ctx context.Context, cmd DeleteSubscriptionCommand) error {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "subscription_id", cmd.SubscriptionID, "error", err)
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return subscription.ErrSubscriptionNotFound
	}

	if sub.ProvisionState() == vo.StateProvisioned || sub.ProvisionState() == vo.StateDeprovisioning {
		if !cmd.Force {
			return subscription.ErrStillProvisioned
		}

		if sub.Active() {
			sub.SetActive(false)
			if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
				uc.logger.Errorw("failed to deactivate subscription before delete", "subscription_id", sub.ID(), "error", err)
				return err
			}
		}
		uc.logger.Infow("subscription queued for removal, profile cleanup pending",
			"subscription_id", sub.ID(),
			"username", sub.Username(),
		)
		return subscription.ErrStillProvisioned
	}

	if err := uc.subscriptionRepo.Delete(ctx, sub.ID()); err != nil {
		uc.logger.Errorw("failed to delete subscription", "subscription_id", sub.ID(), "error", err)
		return err
	}

	uc.logger.Infow("subscription deleted",
		"subscription_id", sub.ID(),
		"username", sub.Username(),
	)

	return nil
}
