package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightboard/auth-service/config"
	"github.com/insightboard/auth-service/internal/auth/domain"
	"github.com/insightboard/auth-service/internal/auth/dto"
	"github.com/insightboard/auth-service/internal/auth/handler"
	"github.com/insightboard/auth-service/internal/auth/service"
	autherror "github.com/insightboard/auth-service/internal/errors"
	"github.com/insightboard/auth-service/internal/mocks"
)

type handlerFixture struct {
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository
	guard    *mocks.MockGuard
	tokens   *mocks.MockTokenGenerator
	hasher   *mocks.MockPasswordHasher
	app      *fiber.App
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &handlerFixture{
		users:    mocks.NewMockUserRepository(ctrl),
		sessions: mocks.NewMockSessionRepository(ctrl),
		guard:    mocks.NewMockGuard(ctrl),
		tokens:   mocks.NewMockTokenGenerator(ctrl),
		hasher:   mocks.NewMockPasswordHasher(ctrl),
	}

	sessionService := service.NewSessionService(f.users, f.sessions, f.guard, f.tokens, f.hasher,
		&config.Config{RefreshHashKey: "test-refresh-hash-key"})
	authHandler := handler.NewAuthHandler(sessionService, f.tokens)

	f.app = fiber.New()
	handler.RegisterRoutes(f.app, authHandler)

	return f
}

func (f *handlerFixture) postJSON(t *testing.T, path string, payload any) (int, string) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(raw)
}

func TestLoginHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture(t)

		user := &domain.User{ID: 1, Email: "demo@example.com", PasswordHash: "h", Role: domain.RoleUser, IsActive: true}

		f.guard.EXPECT().CheckLockout(gomock.Any(), "demo@example.com").Return(&service.LockoutStatus{}, nil)
		f.guard.EXPECT().CheckRateLimit(gomock.Any(), "demo@example.com", gomock.Any()).
			Return(&service.RateLimitDecision{Allowed: true}, nil)
		f.users.EXPECT().GetByEmail(gomock.Any(), "demo@example.com").Return(user, nil)
		f.hasher.EXPECT().Verify("password123", "h").Return(true, nil)
		f.guard.EXPECT().RecordSuccess(gomock.Any(), int64(1), "demo@example.com", gomock.Any(), gomock.Any()).
			Return(nil)
		f.tokens.EXPECT().IssueRefreshToken(gomock.Any()).
			Return("refresh-token", time.Now().Add(7*24*time.Hour), nil)
		f.sessions.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(nil)
		f.tokens.EXPECT().IssueAccessToken(int64(1), "demo@example.com", "user").
			Return("access-token", time.Now().Add(15*time.Minute), nil)

		status, body := f.postJSON(t, "/api/v1/login",
			dto.LoginInput{Email: "demo@example.com", Password: "password123"})
		assert.Equal(t, fiber.StatusOK, status)

		var result dto.LoginResult
		require.NoError(t, json.Unmarshal([]byte(body), &result))
		assert.Equal(t, "access-token", result.AccessToken)
		assert.Equal(t, "refresh-token", result.RefreshToken)
		assert.Equal(t, "demo@example.com", result.User.Email)
	})

	t.Run("bad request", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := httptest.NewRequest(fiber.MethodPost, "/api/v1/login", bytes.NewReader([]byte("")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.guard.EXPECT().CheckLockout(gomock.Any(), gomock.Any()).Return(&service.LockoutStatus{}, nil)
		f.guard.EXPECT().CheckRateLimit(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&service.RateLimitDecision{Allowed: true}, nil)
		f.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
		f.guard.EXPECT().RecordFailure(gomock.Any(), gomock.Any()).Return(false, nil)

		status, _ := f.postJSON(t, "/api/v1/login", dto.LoginInput{Email: "ghost@example.com", Password: "pw"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("locked account returns 423 with lockout details", func(t *testing.T) {
		f := newHandlerFixture(t)

		until := time.Now().Add(30 * time.Minute)
		f.guard.EXPECT().CheckLockout(gomock.Any(), gomock.Any()).
			Return(&service.LockoutStatus{Locked: true, LockedUntil: until, FailedAttempts: 5}, nil)
		f.guard.EXPECT().RecordFailure(gomock.Any(), gomock.Any()).Return(false, nil)

		status, body := f.postJSON(t, "/api/v1/login", dto.LoginInput{Email: "demo@example.com", Password: "pw"})
		assert.Equal(t, fiber.StatusLocked, status)
		assert.Contains(t, body, "locked_until")
	})

	t.Run("rate limited returns 429 with reset time", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.guard.EXPECT().CheckLockout(gomock.Any(), gomock.Any()).Return(&service.LockoutStatus{}, nil)
		f.guard.EXPECT().CheckRateLimit(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&service.RateLimitDecision{Allowed: false, Scope: "ip", ResetAt: time.Now().Add(time.Minute)}, nil)
		f.guard.EXPECT().RecordFailure(gomock.Any(), gomock.Any()).Return(false, nil)

		status, body := f.postJSON(t, "/api/v1/login", dto.LoginInput{Email: "demo@example.com", Password: "pw"})
		assert.Equal(t, fiber.StatusTooManyRequests, status)
		assert.Contains(t, body, "reset_at")
	})

	t.Run("infrastructure failure stays opaque", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.guard.EXPECT().CheckLockout(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		status, body := f.postJSON(t, "/api/v1/login", dto.LoginInput{Email: "demo@example.com", Password: "pw"})
		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.NotContains(t, body, "db down")
	})
}

func TestRefreshHandler(t *testing.T) {
	t.Run("expired token gets a distinct code", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.tokens.EXPECT().VerifyRefreshToken("stale").Return(nil, autherror.ErrTokenExpired)
		f.tokens.EXPECT().DecodeUnsafe("stale").Return(nil, autherror.ErrTokenInvalid)

		status, body := f.postJSON(t, "/api/v1/refresh", dto.RefreshInput{RefreshToken: "stale"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Contains(t, body, "token_expired")
	})

	t.Run("revoked session returns 403 with reason", func(t *testing.T) {
		f := newHandlerFixture(t)

		reason := domain.RevokeReasonUserLogout
		f.tokens.EXPECT().VerifyRefreshToken("raw-refresh").Return(&service.RefreshClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "session-1"},
		}, nil)
		f.sessions.EXPECT().GetSession(gomock.Any(), "session-1", gomock.Any()).
			Return(&domain.Session{
				ID:           "session-1",
				Revoked:      true,
				RevokeReason: &reason,
				ExpiresAt:    time.Now().Add(time.Hour),
			}, nil)

		status, body := f.postJSON(t, "/api/v1/refresh", dto.RefreshInput{RefreshToken: "raw-refresh"})
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Contains(t, body, "user_logout")
	})

	t.Run("bad request", func(t *testing.T) {
		f := newHandlerFixture(t)

		status, _ := f.postJSON(t, "/api/v1/refresh", dto.RefreshInput{})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestLogoutHandler(t *testing.T) {
	t.Run("scoped revocation returns 204", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.tokens.EXPECT().VerifyAccessToken("access-token").Return(&service.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
		}, nil)
		f.sessions.EXPECT().
			RevokeByTokenHash(gomock.Any(), gomock.Any(), gomock.Any(), domain.RevokeReasonUserLogout).
			Return(nil)

		body, _ := json.Marshal(dto.LogoutInput{RefreshToken: "raw-refresh"})
		req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/session", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer access-token")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})

	t.Run("empty body still succeeds", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.tokens.EXPECT().VerifyAccessToken("").Return(nil, autherror.ErrTokenInvalid)

		req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/session", nil)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})
}

func TestSessionHandler(t *testing.T) {
	t.Run("claims-only snapshot", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.tokens.EXPECT().VerifyAccessToken("access-token").Return(&service.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
			Email:            "demo@example.com",
			Role:             "user",
		}, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Bearer access-token")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "demo@example.com")
	})

	t.Run("live check hits the user store", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.tokens.EXPECT().VerifyAccessToken("access-token").Return(&service.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
		}, nil)
		f.users.EXPECT().GetByID(gomock.Any(), int64(1)).
			Return(&domain.User{ID: 1, Email: "demo@example.com", Role: domain.RoleUser, IsActive: true}, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/session?live=1", nil)
		req.Header.Set("Authorization", "Bearer access-token")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/session", nil)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRegisterHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.users.EXPECT().GetByEmail(gomock.Any(), "new@example.com").Return(nil, nil)
		f.hasher.EXPECT().Hash("password123").Return("encoded-hash", nil)
		f.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		status, _ := f.postJSON(t, "/api/v1/register",
			dto.RegisterInput{Email: "new@example.com", Password: "password123"})
		assert.Equal(t, fiber.StatusCreated, status)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.users.EXPECT().GetByEmail(gomock.Any(), "taken@example.com").
			Return(&domain.User{ID: 1, Email: "taken@example.com"}, nil)

		status, _ := f.postJSON(t, "/api/v1/register",
			dto.RegisterInput{Email: "taken@example.com", Password: "password123"})
		assert.Equal(t, fiber.StatusConflict, status)
	})
}
