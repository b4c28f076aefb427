package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sunstrike-inc/sunstrike/internal/application/subscription/usecases"
	"github.com/sunstrike-inc/sunstrike/internal/domain/subscription"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/persistence/models"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/repository"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
	"github.com/sunstrike-inc/sunstrike/internal/shared/utils"
)

func setupHandlerTest(t *testing.T) (*gin.Engine, subscription.SubscriptionRepository) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SubscriptionModel{}))

	log := logger.NewNop()
	repo := repository.NewSubscriptionRepository(db, log)

	handler := NewSubscriptionHandler(
		usecases.NewCreateSubscriptionUseCase(repo, log),
		usecases.NewGetSubscriptionUseCase(repo, log),
		usecases.NewListSubscriptionsUseCase(repo, log),
		usecases.NewSetSubscriptionActiveUseCase(repo, log),
		usecases.NewRotateCredentialUseCase(repo, log),
		usecases.NewDeleteSubscriptionUseCase(repo, log),
		log,
	)

	engine := gin.New()
	engine.POST("/api/subscriptions", handler.Create)
	engine.GET("/api/subscriptions", handler.List)
	engine.GET("/api/subscriptions/:id", handler.Get)
	engine.PATCH("/api/subscriptions/:id/active", handler.SetActive)
	engine.POST("/api/subscriptions/:id/rotate", handler.RotateCredential)
	engine.DELETE("/api/subscriptions/:id", handler.Delete)

	return engine, repo
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSubscriptionHandler_Create(t *testing.T) {
	engine, _ := setupHandlerTest(t)

	t.Run("creates subscription inactive by default", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
			"username":          "alice",
			"credential_secret": "s3cret-pass",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "alice", data["username"])
		assert.Equal(t, false, data["active"])
		assert.Equal(t, "unprovisioned", data["provision_state"])
		_, exposed := data["credential_secret"]
		assert.False(t, exposed)
	})

	t.Run("creates active subscription on request", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
			"username":          "dave",
			"credential_secret": "s3cret-pass",
			"active":            true,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, true, data["active"])
	})

	t.Run("duplicate username returns conflict", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
			"username":          "alice",
			"credential_secret": "other-secret",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid username rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
			"username":          "a!",
			"credential_secret": "s3cret-pass",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short secret rejected by binding", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/subscriptions", gin.H{
			"username":          "bob",
			"credential_secret": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubscriptionHandler_GetAndList(t *testing.T) {
	engine, repo := setupHandlerTest(t)
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		sub, err := subscription.NewSubscription(name, "s3cret-pass", i%2 == 0)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, sub))
	}

	t.Run("get existing", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/subscriptions/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "alice", data["username"])
	})

	t.Run("get missing returns 404", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/subscriptions/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("get with invalid id returns 400", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/subscriptions/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list all", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/subscriptions", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.EqualValues(t, 3, data["total"])
	})

	t.Run("list filtered by active", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/subscriptions?active=false", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.EqualValues(t, 1, data["total"])
	})

	t.Run("list with bad provision_state filter", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/subscriptions?provision_state=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubscriptionHandler_SetActive(t *testing.T) {
	engine, repo := setupHandlerTest(t)
	ctx := context.Background()

	sub, err := subscription.NewSubscription("alice", "s3cret-pass", true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))

	t.Run("deactivates subscription", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPatch, fmt.Sprintf("/api/subscriptions/%d/active", sub.ID()), gin.H{
			"active": false,
		})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, false, data["active"])
	})

	t.Run("missing body rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPatch, fmt.Sprintf("/api/subscriptions/%d/active", sub.ID()), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown subscription returns 404", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPatch, "/api/subscriptions/999/active", gin.H{
			"active": true,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSubscriptionHandler_RotateCredential(t *testing.T) {
	engine, repo := setupHandlerTest(t)
	ctx := context.Background()

	sub, err := subscription.NewSubscription("alice", "s3cret-pass", true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sub))

	t.Run("rotates credential", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/subscriptions/%d/rotate", sub.ID()), gin.H{
			"new_secret": "brand-new-secret",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("short secret rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/subscriptions/%d/rotate", sub.ID()), gin.H{
			"new_secret": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubscriptionHandler_Delete(t *testing.T) {
	engine, repo := setupHandlerTest(t)
	ctx := context.Background()

	t.Run("deletes unprovisioned subscription", func(t *testing.T) {
		sub, err := subscription.NewSubscription("alice", "s3cret-pass", false)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, sub))

		w := doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/subscriptions/%d", sub.ID()), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		found, err := repo.GetByID(ctx, sub.ID())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("provisioned subscription returns conflict", func(t *testing.T) {
		sub, err := subscription.NewSubscription("bob", "s3cret-pass", true)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, sub))
		require.NoError(t, repo.MarkProvisioned(ctx, sub.ID(), "vless://uuid@host:443#bob", "6a8f4f6e-0000-0000-0000-000000000000"))

		w := doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/subscriptions/%d", sub.ID()), nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		found, err := repo.GetByID(ctx, sub.ID())
		require.NoError(t, err)
		require.NotNil(t, found)
	})

	t.Run("unknown subscription returns 404", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodDelete, "/api/subscriptions/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
