package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/insightboard/auth-service/internal/auth/domain"
)

// Sentinel errors forming the closed taxonomy the service returns. Callers
// branch with errors.Is, and errors.As for the detail-carrying types below.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrSessionExpired     = errors.New("session expired")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAccountLocked      = errors.New("account locked")
	ErrRateLimited        = errors.New("too many failed login attempts")
)

// AccountLockedError reports a lockout that is still in force.
type AccountLockedError struct {
	LockedUntil    time.Time
	FailedAttempts int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.LockedUntil.Format(time.RFC3339))
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

// RateLimitedError reports a denied attempt under windowed rate limiting.
// Scope is "email" or "ip" depending on which threshold was hit.
type RateLimitedError struct {
	Scope   string
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed login attempts (%s), retry after %s", e.Scope, e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// SessionRevokedError carries the terminal revoke reason of a session.
type SessionRevokedError struct {
	Reason domain.RevokeReason
}

func (e *SessionRevokedError) Error() string {
	return fmt.Sprintf("session revoked (%s)", e.Reason)
}

func (e *SessionRevokedError) Unwrap() error { return ErrSessionRevoked }
