package domain

//go:generate mockgen -destination=../../mocks/mock_repository.go -package=mocks github.com/insightboard/auth-service/internal/auth/domain UserRepository,SessionRepository,AttemptRepository

import (
	"context"
	"time"
)

type UserRepository interface {
	// GetByEmail returns (nil, nil) when no user matches.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) error

	// IncrementFailedAttempts bumps the failure counter in a single
	// statement and sets locked_until to lockUntil when the post-increment
	// count reaches threshold. It returns the post-increment count and the
	// current locked_until value.
	IncrementFailedAttempts(ctx context.Context, userID int64, threshold int, lockUntil time.Time) (int, *time.Time, error)

	// ClearFailureState resets the failure counter, clears any lockout and
	// stamps last_login_at, all in one statement.
	ClearFailureState(ctx context.Context, userID int64, loginAt time.Time) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error

	// GetSession returns (nil, nil) when no session matches the id/hash pair.
	GetSession(ctx context.Context, sessionID, tokenHash string) (*Session, error)

	// RevokeSession marks a session revoked. Already-revoked sessions are
	// left untouched, preserving the original revoke reason.
	RevokeSession(ctx context.Context, sessionID string, reason RevokeReason) error

	// RevokeByTokenHash revokes the unrevoked session holding tokenHash,
	// optionally scoped to a user. A no-op when nothing matches.
	RevokeByTokenHash(ctx context.Context, tokenHash string, userID *int64, reason RevokeReason) error

	RevokeAllByUserID(ctx context.Context, userID int64, reason RevokeReason) error
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	ListActiveByUserID(ctx context.Context, userID int64) ([]Session, error)
}

type AttemptRepository interface {
	RecordAttempt(ctx context.Context, attempt *LoginAttempt) error
	FailureStatsByEmail(ctx context.Context, email string, since time.Time) (*FailureWindow, error)
	FailureStatsByIP(ctx context.Context, ip string, since time.Time) (*FailureWindow, error)
}
