package usecases

import (
	"context"
	"fmt"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

type CreateSubscriptionCommand struct {
	Username         string
	CredentialSecret string
	Active           bool
}

type CreateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Execute creates a subscription record. The profile itself is applied later
// by the reconciliation cycle, never inline with the request.
func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*subscription.Subscription, error) {
	existing, err := uc.subscriptionRepo.GetByUsername(ctx, cmd.Username)
	if err != nil {
		uc.logger.Errorw("failed to check username availability", "username", cmd.Username, "error", err)
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, subscription.ErrUsernameTaken
	}

	sub, err := subscription.NewSubscription(cmd.Username, cmd.CredentialSecret, cmd.Active)
	if err != nil {
		uc.logger.Warnw("invalid subscription parameters", "username", cmd.Username, "error", err)
		return nil, err
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		uc.logger.Errorw("failed to create subscription", "username", cmd.Username, "error", err)
		return nil, err
	}

	uc.logger.Infow("subscription created",
		"subscription_id", sub.ID(),
		"username", sub.Username(),
		"active", sub.Active(),
	)

	return sub, nil
}
