package handler

import (
	"fmt"
	"log/slog"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/config"
	"lora-lending/internal/pkg/apperrors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

type AuthHandler struct {
	cfg    config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		logger: l.With("component", "AuthHandler"),
		now:    time.Now,
	}
}

// GenerateBearerToken issues an HS256 token whose subject is the username.
//
// @Summary Generate a JWT bearer token
// @Description Issues a signed bearer token for the given username. The token expires after the configured TTL.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "username"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode token request", "error", err)
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	ttl := h.cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := h.now()
	claims := jwt.RegisteredClaims{
		Subject:   req.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", "error", err)
		respondError(w, fmt.Errorf("%w: signing token", apperrors.ErrInternalServer))
		return
	}

	h.logger.InfoContext(r.Context(), "Issued bearer token", "subject", req.Username)
	respondJSON(w, http.StatusOK, dto.TokenResponse{Token: "Bearer " + signed, ExpiresIn: int64(ttl.Seconds())})
}
