package usecases

import (
	"context"
	"fmt"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

type ListSubscriptionsQuery struct {
	Active         *bool
	ProvisionState *string
	Username       *string
	Page           int
	PageSize       int
	SortBy         string
	SortDesc       bool
}

type ListSubscriptionsResult struct {
	Subscriptions []*subscription.Subscription
	Total         int64
}

type ListSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewListSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *ListSubscriptionsUseCase {
	return &ListSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ListSubscriptionsUseCase) Execute(ctx context.Context, query ListSubscriptionsQuery) (*ListSubscriptionsResult, error) {
	if query.PageSize <= 0 || query.PageSize > 100 {
		query.PageSize = 20
	}
	if query.Page < 1 {
		query.Page = 1
	}

	subs, total, err := uc.subscriptionRepo.List(ctx, subscription.SubscriptionFilter{
		Active:         query.Active,
		ProvisionState: query.ProvisionState,
		Username:       query.Username,
		Page:           query.Page,
		PageSize:       query.PageSize,
		SortBy:         query.SortBy,
		SortDesc:       query.SortDesc,
	})
	if err != nil {
		uc.logger.Errorw("failed to list subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return &ListSubscriptionsResult{
		Subscriptions: subs,
		Total:         total,
	}, nil
}
