package usecases

import (
	"context"
	"fmt"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

type SetSubscriptionActiveCommand struct {
	SubscriptionID uint
	Active         bool
}

type SetSubscriptionActiveUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewSetSubscriptionActiveUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *SetSubscriptionActiveUseCase {
	return &SetSubscriptionActiveUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Execute writes the desired state only. Toggling also clears a recorded
// provisioning failure, which is the sole path out of the error state.
func (uc *SetSubscriptionActiveUseCase) Execute(ctx context.Context, cmd SetSubscriptionActiveCommand) (*subscription.Subscription, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "subscription_id", cmd.SubscriptionID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	before := sub.Version()
	sub.SetActive(cmd.Active)
	if sub.Version() == before {
		// nothing changed, skip the write
		return sub, nil
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to update subscription", "subscription_id", sub.ID(), "error", err)
		return nil, err
	}

	uc.logger.Infow("subscription desired state updated",
		"subscription_id", sub.ID(),
		"username", sub.Username(),
		"active", sub.Active(),
	)

	return sub, nil
}
