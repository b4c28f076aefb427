package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/auth"
	sharedConfig "github.com/sunstrike-inc/sunstrike/internal/shared/config"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

func setupAuthHandlerTest(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	handler := NewAuthHandler(
		auth.NewJWTService("test-secret", 30),
		auth.NewBcryptPasswordHasher(bcrypt.MinCost),
		sharedConfig.AdminConfig{Username: "admin", PasswordHash: string(hash)},
		logger.NewNop(),
	)

	engine := gin.New()
	engine.POST("/api/auth/token", handler.Token)
	return engine
}

func TestAuthHandler_Token(t *testing.T) {
	engine := setupAuthHandlerTest(t)

	t.Run("valid credentials return token", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/auth/token", gin.H{
			"username": "admin",
			"password": "admin-pass",
		})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		require.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.NotEmpty(t, data["access_token"])
		assert.Equal(t, "Bearer", data["token_type"])
		assert.EqualValues(t, 30*60, data["expires_in"])

		claims, err := auth.NewJWTService("test-secret", 30).Verify(data["access_token"].(string))
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/auth/token", gin.H{
			"username": "admin",
			"password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown username rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/auth/token", gin.H{
			"username": "intruder",
			"password": "admin-pass",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/auth/token", gin.H{
			"username": "admin",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
