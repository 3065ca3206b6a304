package api

import (
	"crypto/subtle"
	"net/http"

	reqdto "clinic-booking/internal/handler/dto/request"
	resdto "clinic-booking/internal/handler/dto/response"
	"clinic-booking/internal/handler/httperr"
	"clinic-booking/internal/pkg/config"
	"clinic-booking/internal/pkg/jwt"
	"clinic-booking/internal/pkg/password"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	jwtService *jwt.Service
	authCfg    config.AuthConfig
}

func NewAuthHandler(jwtService *jwt.Service, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		authCfg:    cfg.Auth,
	}
}

// @Summary Issue API token
// @Description Exchange client credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body reqdto.TokenRequest true "Client credentials"
// @Success 200 {object} resdto.TokenResponse
// @Failure 401 {object} httperr.Response
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req reqdto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "INVALID_REQUEST", "client_id and client_secret are required")
		return
	}

	idMatches := subtle.ConstantTimeCompare([]byte(req.ClientID), []byte(h.authCfg.ClientID)) == 1
	if !idMatches || !password.Verify(h.authCfg.ClientSecretHash, req.ClientSecret) {
		httperr.AbortWithError(c, http.StatusUnauthorized, errInvalidCredentials, "INVALID_CREDENTIALS", "Invalid client credentials")
		return
	}

	token, err := h.jwtService.GenerateToken(req.ClientID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "INTERNAL_ERROR", "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, resdto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.jwtService.TokenDuration().Seconds()),
	})
}
