package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/insightboard/auth-service/config"
	"github.com/insightboard/auth-service/internal/auth/domain"
	"github.com/insightboard/auth-service/internal/auth/dto"
	autherror "github.com/insightboard/auth-service/internal/errors"
	"github.com/insightboard/auth-service/internal/metrics"
	"github.com/insightboard/auth-service/pkg/constant"
	"github.com/insightboard/auth-service/pkg/crypto"
)

// SessionService orchestrates login, refresh and logout, and owns the
// session record lifecycle. All collaborators are injected.
type SessionService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	guard    Guard
	tokens   TokenGenerator
	hasher   crypto.PasswordHasher
	hashKey  []byte
}

func NewSessionService(users domain.UserRepository, sessions domain.SessionRepository, guard Guard,
	tokens TokenGenerator, hasher crypto.PasswordHasher, cfg *config.Config) *SessionService {
	return &SessionService{
		users:    users,
		sessions: sessions,
		guard:    guard,
		tokens:   tokens,
		hasher:   hasher,
		hashKey:  []byte(cfg.RefreshHashKey),
	}
}

// Register creates a new active user with the default role. Password
// strength policy beyond the transport-level minimum is external.
func (s *SessionService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.Role(constant.DefaultUserRole),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login runs the full credential flow: lockout check (fail closed), rate
// limit check (fail closed on denial), credential verification, failure
// bookkeeping, session creation and token issuance. Credential failures
// are indistinguishable to the caller whether the email exists or not.
func (s *SessionService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResult, error) {
	email := normalizeEmail(input.Email)

	lockout, err := s.guard.CheckLockout(ctx, email)
	if err != nil {
		return nil, err
	}
	if lockout.Locked {
		// Audit the attempt without advancing the counter.
		s.recordRejection(ctx, email, input, constant.FailureReasonAccountLocked)
		return nil, &autherror.AccountLockedError{
			LockedUntil:    lockout.LockedUntil,
			FailedAttempts: lockout.FailedAttempts,
		}
	}

	limit, err := s.guard.CheckRateLimit(ctx, email, input.IPAddress)
	if err != nil {
		return nil, err
	}
	if !limit.Allowed {
		s.recordRejection(ctx, email, input, constant.FailureReasonRateLimited)
		return nil, &autherror.RateLimitedError{Scope: limit.Scope, ResetAt: limit.ResetAt}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Unknown emails are still audited and still count toward IP
		// limiting, so enumeration cannot be inferred from behavior.
		if _, err := s.guard.RecordFailure(ctx, FailureRecord{
			Email:     email,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			Reason:    constant.FailureReasonUnknownEmail,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record login failure")
		}
		return nil, autherror.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil || !ok {
		if _, err := s.guard.RecordFailure(ctx, FailureRecord{
			UserID:    &user.ID,
			Email:     email,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
			Reason:    constant.FailureReasonBadPassword,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record login failure")
		}
		return nil, autherror.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.recordRejection(ctx, email, input, constant.FailureReasonAccountDisabled)
		return nil, autherror.ErrAccountDisabled
	}

	if err := s.guard.RecordSuccess(ctx, user.ID, email, input.IPAddress, input.UserAgent); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	refreshToken, refreshExpiresAt, err := s.tokens.IssueRefreshToken(sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: crypto.HashToken(s.hashKey, refreshToken),
		CreatedAt:        now,
		ExpiresAt:        refreshExpiresAt,
		LastActivityAt:   now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	accessToken, accessExpiresAt, err := s.tokens.IssueAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiresAt,
		User:         publicUser(user),
	}, nil
}

// recordRejection audits attempts rejected before credential verification.
// No user id is attached, so the lockout counter does not advance.
func (s *SessionService) recordRejection(ctx context.Context, email string, input dto.LoginInput, reason string) {
	if _, err := s.guard.RecordFailure(ctx, FailureRecord{
		Email:     email,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Reason:    reason,
	}); err != nil {
		log.Warn().Err(err).Str("reason", reason).Msg("failed to record rejected login attempt")
	}
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh token itself is not rotated. A superseded or revoked session
// hash never validates again.
func (s *SessionService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.RefreshResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		if unsafeClaims, decodeErr := s.tokens.DecodeUnsafe(input.RefreshToken); decodeErr == nil {
			log.Debug().Interface("claims", unsafeClaims).Msg("rejected refresh token")
		}
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, err
	}

	tokenHash := crypto.HashToken(s.hashKey, input.RefreshToken)
	session, err := s.sessions.GetSession(ctx, claims.Subject, tokenHash)
	if err != nil {
		return nil, err
	}
	if session == nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, autherror.ErrSessionNotFound
	}

	if session.Revoked {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		reason := domain.RevokeReasonSecurity
		if session.RevokeReason != nil {
			reason = *session.RevokeReason
		}
		return nil, &autherror.SessionRevokedError{Reason: reason}
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.sessions.RevokeSession(ctx, session.ID, domain.RevokeReasonExpired); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to mark expired session revoked")
		}
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, autherror.ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, autherror.ErrAccountDisabled
	}

	if err := s.sessions.TouchSession(ctx, session.ID, time.Now()); err != nil {
		// Activity timestamps are advisory; the refresh still succeeds.
		log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to update session activity")
	}

	accessToken, expiresAt, err := s.tokens.IssueAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	return &dto.RefreshResult{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        publicUser(user),
	}, nil
}

// Logout revokes the session holding the presented refresh token. It is
// idempotent: revoking an already-revoked session is a no-op that keeps
// the original revoke reason. The access token is verified best-effort
// only to scope the revocation; an expired access token never blocks
// logout. The revoked flag is written before success is returned.
func (s *SessionService) Logout(ctx context.Context, input dto.LogoutInput) error {
	var userID *int64
	if claims, err := s.tokens.VerifyAccessToken(input.AccessToken); err == nil {
		if id, parseErr := strconv.ParseInt(claims.Subject, 10, 64); parseErr == nil {
			userID = &id
		}
	}

	if input.RefreshToken == "" {
		return nil
	}

	tokenHash := crypto.HashToken(s.hashKey, input.RefreshToken)

	return s.sessions.RevokeByTokenHash(ctx, tokenHash, userID, domain.RevokeReasonUserLogout)
}

// CurrentUser returns the authenticated user snapshot behind an access
// token. The default is claims-only; live=true adds a persistence round
// trip confirming the account is still active.
func (s *SessionService) CurrentUser(ctx context.Context, accessToken string, live bool) (*dto.UserOutput, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", autherror.ErrTokenInvalid)
	}

	if !live {
		return &dto.UserOutput{ID: userID, Email: claims.Email, Role: claims.Role}, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, autherror.ErrAccountDisabled
	}

	out := publicUser(user)

	return &out, nil
}

// ForceLogout revokes every active session for a user. Used by the admin
// surface with reason "admin", or by security tooling with "security".
func (s *SessionService) ForceLogout(ctx context.Context, userID int64, reason domain.RevokeReason) error {
	return s.sessions.RevokeAllByUserID(ctx, userID, reason)
}

func (s *SessionService) ListSessions(ctx context.Context, userID int64) ([]dto.SessionOutput, error) {
	sessions, err := s.sessions.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, dto.SessionOutput{
			ID:             sess.ID,
			CreatedAt:      sess.CreatedAt,
			ExpiresAt:      sess.ExpiresAt,
			LastActivityAt: sess.LastActivityAt,
		})
	}

	return out, nil
}

func publicUser(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:          user.ID,
		Email:       user.Email,
		Role:        string(user.Role),
		LastLoginAt: user.LastLoginAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
