package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sunstrike-inc/sunstrike/internal/application/subscription/dto"
	"github.com/sunstrike-inc/sunstrike/internal/application/subscription/usecases"
	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription/valueobjects"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
	"github.com/sunstrike-inc/sunstrike/internal/shared/utils"
)

// SubscriptionHandler exposes the admin subscription operations. Handlers
// only touch the desired state; convergence with the proxy happens on the
// reconciler's schedule.
type SubscriptionHandler struct {
	createUseCase    *usecases.CreateSubscriptionUseCase
	getUseCase       *usecases.GetSubscriptionUseCase
	listUseCase      *usecases.ListSubscriptionsUseCase
	setActiveUseCase *usecases.SetSubscriptionActiveUseCase
	rotateUseCase    *usecases.RotateCredentialUseCase
	deleteUseCase    *usecases.DeleteSubscriptionUseCase
	logger           logger.Interface
}

func NewSubscriptionHandler(
	createUC *usecases.CreateSubscriptionUseCase,
	getUC *usecases.GetSubscriptionUseCase,
	listUC *usecases.ListSubscriptionsUseCase,
	setActiveUC *usecases.SetSubscriptionActiveUseCase,
	rotateUC *usecases.RotateCredentialUseCase,
	deleteUC *usecases.DeleteSubscriptionUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		createUseCase:    createUC,
		getUseCase:       getUC,
		listUseCase:      listUC,
		setActiveUseCase: setActiveUC,
		rotateUseCase:    rotateUC,
		deleteUseCase:    deleteUC,
		logger:           logger,
	}
}

type CreateSubscriptionRequest struct {
	Username         string `json:"username" binding:"required"`
	CredentialSecret string `json:"credential_secret" binding:"required,min=8"`
	Active           *bool  `json:"active"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type RotateCredentialRequest struct {
	NewSecret string `json:"new_secret" binding:"required,min=8"`
}

func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// Created inactive unless asked otherwise; activation is a separate
	// desired-state write picked up by the next reconciliation cycle.
	active := false
	if req.Active != nil {
		active = *req.Active
	}

	sub, err := h.createUseCase.Execute(c.Request.Context(), usecases.CreateSubscriptionCommand{
		Username:         req.Username,
		CredentialSecret: req.CredentialSecret,
		Active:           active,
	})
	if err != nil {
		if errors.Is(err, subscription.ErrUsernameTaken) {
			utils.ErrorResponse(c, http.StatusConflict, "username already taken")
			return
		}
		h.logger.Warnw("failed to create subscription", "username", req.Username, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.CreatedResponse(c, dto.FromEntity(sub), "subscription created")
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	sub, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
			return
		}
		h.logger.Errorw("failed to get subscription", "subscription_id", id, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to get subscription")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.FromEntity(sub))
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	query := usecases.ListSubscriptionsQuery{
		SortBy:   c.Query("sort_by"),
		SortDesc: c.Query("sort_desc") == "true",
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		query.PageSize = pageSize
	}

	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid active filter")
			return
		}
		query.Active = &active
	}

	if state := c.Query("provision_state"); state != "" {
		if !valueobjects.ProvisionState(state).IsValid() {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid provision_state filter")
			return
		}
		query.ProvisionState = &state
	}

	if username := c.Query("username"); username != "" {
		query.Username = &username
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), query)
	if err != nil {
		h.logger.Errorw("failed to list subscriptions", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	utils.ListSuccessResponse(c, dto.FromEntities(result.Subscriptions), result.Total, query.Page, query.PageSize)
}

func (h *SubscriptionHandler) SetActive(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.setActiveUseCase.Execute(c.Request.Context(), usecases.SetSubscriptionActiveCommand{
		SubscriptionID: id,
		Active:         *req.Active,
	})
	if err != nil {
		h.respondMutationError(c, id, "failed to update subscription", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subscription updated", dto.FromEntity(sub))
}

func (h *SubscriptionHandler) RotateCredential(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req RotateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.rotateUseCase.Execute(c.Request.Context(), usecases.RotateCredentialCommand{
		SubscriptionID: id,
		NewSecret:      req.NewSecret,
	})
	if err != nil {
		h.respondMutationError(c, id, "failed to rotate credential", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "credential rotated, profile will be replaced shortly", dto.FromEntity(sub))
}

func (h *SubscriptionHandler) Delete(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	force := c.Query("force") == "true"

	err := h.deleteUseCase.Execute(c.Request.Context(), usecases.DeleteSubscriptionCommand{
		SubscriptionID: id,
		Force:          force,
	})
	if err != nil {
		if errors.Is(err, subscription.ErrStillProvisioned) {
			utils.ErrorResponse(c, http.StatusConflict, "subscription still has a provisioned profile, deactivate it and retry after cleanup")
			return
		}
		h.respondMutationError(c, id, "failed to delete subscription", err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *SubscriptionHandler) subscriptionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid subscription ID")
		return 0, false
	}
	return uint(id), true
}

func (h *SubscriptionHandler) respondMutationError(c *gin.Context, id uint, msg string, err error) {
	switch {
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
	case errors.Is(err, subscription.ErrStateConflict):
		utils.ErrorResponse(c, http.StatusConflict, "subscription was modified concurrently, retry")
	default:
		h.logger.Warnw(msg, "subscription_id", id, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	}
}
