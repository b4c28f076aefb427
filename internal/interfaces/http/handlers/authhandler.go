package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/auth"
	sharedConfig "github.com/sunstrike-inc/sunstrike/internal/shared/config"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
	"github.com/sunstrike-inc/sunstrike/internal/shared/utils"
)

// AuthHandler issues access tokens for the single configured admin account.
type AuthHandler struct {
	jwtService  *auth.JWTService
	hasher      *auth.BcryptPasswordHasher
	adminConfig sharedConfig.AdminConfig
	logger      logger.Interface
}

func NewAuthHandler(
	jwtService *auth.JWTService,
	hasher *auth.BcryptPasswordHasher,
	adminConfig sharedConfig.AdminConfig,
	logger logger.Interface,
) *AuthHandler {
	return &AuthHandler{
		jwtService:  jwtService,
		hasher:      hasher,
		adminConfig: adminConfig,
		logger:      logger,
	}
}

type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// Verify the hash even on a username mismatch so both failure paths
	// take comparable time.
	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.adminConfig.Username)) == 1
	passwordErr := h.hasher.Verify(req.Password, h.adminConfig.PasswordHash)
	if !usernameOK || passwordErr != nil {
		h.logger.Warnw("failed login attempt", "username", req.Username, "ip", c.ClientIP())
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresIn, err := h.jwtService.Generate(req.Username)
	if err != nil {
		h.logger.Errorw("failed to generate access token", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to generate token")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "authenticated", TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}
