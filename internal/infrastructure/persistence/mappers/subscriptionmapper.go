package mappers

import (
	"fmt"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	vo "github.com/sunstrike-inc/sunstrike/internal/domain/subscription/valueobjects"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/persistence/models"
	"github.com/sunstrike-inc/sunstrike/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	state := vo.ProvisionState(model.ProvisionState)
	if !state.IsValid() {
		return nil, fmt.Errorf("invalid provision state: %s", model.ProvisionState)
	}

	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.Username,
		model.CredentialSecret,
		model.Active,
		model.Link,
		state,
		model.ProvisionError,
		model.ProfileUUID,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.SubscriptionModel{
		ID:               entity.ID(),
		Username:         entity.Username(),
		CredentialSecret: entity.CredentialSecret(),
		Active:           entity.Active(),
		Link:             entity.Link(),
		ProvisionState:   entity.ProvisionState().String(),
		ProvisionError:   entity.ProvisionError(),
		ProfileUUID:      entity.ProfileUUID(),
		Version:          entity.Version(),
		CreatedAt:        entity.CreatedAt(),
		UpdatedAt:        entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(modelList []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SubscriptionModel) uint { return model.ID })
}
