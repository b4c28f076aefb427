package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	vo "github.com/sunstrike-inc/sunstrike/internal/domain/subscription/valueobjects"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/persistence/mappers"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/persistence/models"
	apperrors "github.com/sunstrike-inc/sunstrike/internal/shared/errors"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

// allowedSubscriptionSortByFields defines the whitelist of allowed ORDER BY fields
// to prevent SQL injection attacks.
var allowedSubscriptionSortByFields = map[string]bool{
	"id":              true,
	"username":        true,
	"active":          true,
	"provision_state": true,
	"created_at":      true,
	"updated_at":      true,
}

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return subscription.ErrUsernameTaken
		}
		r.logger.Errorw("failed to create subscription in database", "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := subscriptionEntity.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set subscription ID", "error", err)
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}

	r.logger.Infow("subscription created", "id", model.ID, "username", model.Username, "active", model.Active)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) GetByUsername(ctx context.Context, username string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by username", "username", username, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "username", username, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "id", subscriptionEntity.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	// Optimistic lock on the version the entity was loaded with.
	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"username":          model.Username,
			"credential_secret": model.CredentialSecret,
			"active":            model.Active,
			"link":              model.Link,
			"provision_state":   model.ProvisionState,
			"provision_error":   model.ProvisionError,
			"profile_uuid":      model.ProfileUUID,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		if apperrors.IsDuplicateError(result.Error) {
			return subscription.ErrUsernameTaken
		}
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrStateConflict
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.SubscriptionModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete subscription", "id", id, "error", result.Error)
		return fmt.Errorf("failed to delete subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrSubscriptionNotFound
	}

	r.logger.Infow("subscription deleted", "id", id)
	return nil
}

func (r *SubscriptionRepositoryImpl) List(ctx context.Context, filter subscription.SubscriptionFilter) ([]*subscription.Subscription, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{})

	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.ProvisionState != nil {
		query = query.Where("provision_state = ?", *filter.ProvisionState)
	}
	if filter.Username != nil {
		query = query.Where("username LIKE ?", "%"+*filter.Username+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count subscriptions", "error", err)
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	sortBy := "created_at"
	if filter.SortBy != "" && allowedSubscriptionSortByFields[filter.SortBy] {
		sortBy = filter.SortBy
	}
	order := sortBy + " ASC"
	if filter.SortDesc {
		order = sortBy + " DESC"
	}
	query = query.Order(order)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var modelList []*models.SubscriptionModel
	if err := query.Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to list subscriptions", "error", err)
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "error", err)
		return nil, 0, fmt.Errorf("failed to map subscriptions: %w", err)
	}

	return entities, total, nil
}

func (r *SubscriptionRepositoryImpl) FindPendingActivations(ctx context.Context) ([]*subscription.Subscription, error) {
	return r.findByCondition(ctx, "active = ? AND provision_state = ?", true, vo.StateUnprovisioned.String())
}

func (r *SubscriptionRepositoryImpl) FindPendingDeactivations(ctx context.Context) ([]*subscription.Subscription, error) {
	return r.findByCondition(ctx,
		"(active = ? AND provision_state = ?) OR provision_state = ?",
		false, vo.StateProvisioned.String(), vo.StateDeprovisioning.String())
}

func (r *SubscriptionRepositoryImpl) FindProvisioned(ctx context.Context) ([]*subscription.Subscription, error) {
	return r.findByCondition(ctx, "provision_state = ?", vo.StateProvisioned.String())
}

func (r *SubscriptionRepositoryImpl) findByCondition(ctx context.Context, cond string, args ...interface{}) ([]*subscription.Subscription, error) {
	var modelList []*models.SubscriptionModel

	if err := r.db.WithContext(ctx).Where(cond, args...).Order("id ASC").Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to query subscriptions", "error", err)
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}

	return entities, nil
}

// MarkProvisioned commits unprovisioned -> provisioned. The state guard in the
// WHERE clause makes the transition safe to replay: a second attempt matches
// zero rows and is reported as a conflict instead of overwriting newer state.
func (r *SubscriptionRepositoryImpl) MarkProvisioned(ctx context.Context, id uint, link, profileUUID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND provision_state = ?", id, vo.StateUnprovisioned.String()).
		Updates(map[string]interface{}{
			"provision_state": vo.StateProvisioned.String(),
			"provision_error": nil,
			"link":            link,
			"profile_uuid":    profileUUID,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to mark subscription provisioned", "id", id, "error", result.Error)
		return fmt.Errorf("failed to mark provisioned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.transitionConflict(ctx, id, vo.StateProvisioned)
	}

	r.logger.Infow("subscription provisioned", "id", id, "profile_uuid", profileUUID)
	return nil
}

func (r *SubscriptionRepositoryImpl) MarkDeprovisioned(ctx context.Context, id uint, clearLink bool) error {
	updates := map[string]interface{}{
		"provision_state": vo.StateUnprovisioned.String(),
		"profile_uuid":    nil,
		"version":         gorm.Expr("version + 1"),
	}
	if clearLink {
		updates["link"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND provision_state IN ?", id,
			[]string{vo.StateProvisioned.String(), vo.StateDeprovisioning.String()}).
		Updates(updates)
	if result.Error != nil {
		r.logger.Errorw("failed to mark subscription deprovisioned", "id", id, "error", result.Error)
		return fmt.Errorf("failed to mark deprovisioned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.transitionConflict(ctx, id, vo.StateUnprovisioned)
	}

	r.logger.Infow("subscription deprovisioned", "id", id, "link_cleared", clearLink)
	return nil
}

func (r *SubscriptionRepositoryImpl) MarkError(ctx context.Context, id uint, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"provision_state": vo.StateError.String(),
			"provision_error": reason,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to mark subscription errored", "id", id, "error", result.Error)
		return fmt.Errorf("failed to mark error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrSubscriptionNotFound
	}

	r.logger.Warnw("subscription marked errored", "id", id, "reason", reason)
	return nil
}

func (r *SubscriptionRepositoryImpl) UpdateLink(ctx context.Context, id uint, link string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND provision_state = ?", id, vo.StateProvisioned.String()).
		Updates(map[string]interface{}{
			"link":    link,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription link", "id", id, "error", result.Error)
		return fmt.Errorf("failed to update link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.transitionConflict(ctx, id, vo.StateProvisioned)
	}

	return nil
}

// transitionConflict distinguishes the two reasons a guarded update can match
// zero rows: the row is gone, or another writer moved the state first.
func (r *SubscriptionRepositoryImpl) transitionConflict(ctx context.Context, id uint, target vo.ProvisionState) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to inspect transition conflict: %w", err)
	}
	if count == 0 {
		return subscription.ErrSubscriptionNotFound
	}

	r.logger.Warnw("provision state transition skipped", "id", id, "target", target.String())
	return subscription.ErrStateConflict
}
