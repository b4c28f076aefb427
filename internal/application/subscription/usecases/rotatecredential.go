package usecases

import (
	"context"
	"fmt"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

type RotateCredentialCommand struct {
	SubscriptionID uint
	NewSecret      string
}

type RotateCredentialUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewRotateCredentialUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *RotateCredentialUseCase {
	return &RotateCredentialUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Execute swaps the credential secret. A provisioned subscription moves to
// deprovisioning so the next reconciliation cycle removes the stale profile
// and applies a fresh one derived from the new pair.
func (uc *RotateCredentialUseCase) Execute(ctx context.Context, cmd RotateCredentialCommand) (*subscription.Subscription, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "subscription_id", cmd.SubscriptionID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	if err := sub.RotateCredential(cmd.NewSecret); err != nil {
		uc.logger.Warnw("credential rotation rejected", "subscription_id", sub.ID(), "error", err)
		return nil, err
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to persist rotated credential", "subscription_id", sub.ID(), "error", err)
		return nil, err
	}

	uc.logger.Infow("subscription credential rotated",
		"subscription_id", sub.ID(),
		"username", sub.Username(),
		"provision_state", sub.ProvisionState().String(),
	)

	return sub, nil
}
