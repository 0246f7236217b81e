package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightboard/auth-service/internal/auth/domain"
	"github.com/insightboard/auth-service/internal/auth/dto"
	"github.com/insightboard/auth-service/internal/auth/service"
	autherror "github.com/insightboard/auth-service/internal/errors"
)

type AuthHandler struct {
	sessionService *service.SessionService
	tokenService   service.TokenGenerator
}

func NewAuthHandler(sessionService *service.SessionService, tokenService service.TokenGenerator) *AuthHandler {
	return &AuthHandler{sessionService: sessionService, tokenService: tokenService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil || input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	user, err := h.sessionService.Register(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil || input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	result, err := h.sessionService.Login(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	result, err := h.sessionService.Refresh(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// Logout always succeeds from the caller's perspective unless the
// revocation write itself fails; revoking an already-revoked session is a
// no-op.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	// An empty body is a valid logout with nothing to revoke.
	_ = c.BodyParser(&input)
	input.AccessToken = bearerToken(c)

	if err := h.sessionService.Logout(c.Context(), input); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Session returns the authenticated user snapshot. The default is a
// signature-only check; ?live=1 adds the persistence round trip.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	live := c.Query("live") == "1"

	user, err := h.sessionService.CurrentUser(c.Context(), token, live)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	if err := h.sessionService.ForceLogout(c.Context(), userID, domain.RevokeReasonAdmin); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) GetUserSessions(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	sessions, err := h.sessionService.ListSessions(c.Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"sessions": sessions})
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

// writeError maps the closed error taxonomy onto HTTP statuses. Expired
// tokens and sessions keep distinct codes so clients know a refresh or
// re-login is the right next step. Anything outside the taxonomy is an
// infrastructure failure and stays opaque.
func writeError(c *fiber.Ctx, err error) error {
	var locked *autherror.AccountLockedError
	if errors.As(err, &locked) {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error":           "account locked",
			"locked_until":    locked.LockedUntil,
			"failed_attempts": locked.FailedAttempts,
		})
	}

	var limited *autherror.RateLimitedError
	if errors.As(err, &limited) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":    "too many failed login attempts",
			"scope":    limited.Scope,
			"reset_at": limited.ResetAt,
		})
	}

	var revoked *autherror.SessionRevokedError
	if errors.As(err, &revoked) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":  "session revoked",
			"reason": revoked.Reason,
		})
	}

	switch {
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	case errors.Is(err, autherror.ErrTokenExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token expired", "code": "token_expired"})
	case errors.Is(err, autherror.ErrTokenInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token invalid"})
	case errors.Is(err, autherror.ErrSessionNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session not found"})
	case errors.Is(err, autherror.ErrSessionExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session expired", "code": "session_expired"})
	case errors.Is(err, autherror.ErrAccountDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account disabled"})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email already in use"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
