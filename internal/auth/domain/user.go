package domain

import "time"

// Role is the closed set of user roles embedded in access tokens.
type Role string

const (
	RoleUser     Role = "user"
	RoleElevated Role = "elevated"
	RoleAdmin    Role = "admin"
)

// RevokeReason is the closed set of reasons a session can be revoked.
// Revocation is terminal: the first reason written for a session is never
// overwritten.
type RevokeReason string

const (
	RevokeReasonUserLogout RevokeReason = "user_logout"
	RevokeReasonExpired    RevokeReason = "expired"
	RevokeReasonAdmin      RevokeReason = "admin"
	RevokeReasonSecurity   RevokeReason = "security"
)

type User struct {
	ID                  int64
	Email               string
	PasswordHash        string
	Role                Role
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
}

// Session anchors a refresh token to a user. Only the keyed hash of the
// raw refresh token is ever stored.
type Session struct {
	ID               string
	UserID           int64
	RefreshTokenHash string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	LastActivityAt   time.Time
	Revoked          bool
	RevokeReason     *RevokeReason
}

// LoginAttempt is an append-only audit record, written on every login
// attempt regardless of outcome.
type LoginAttempt struct {
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason *string
	AttemptTime   time.Time
}

// FailureWindow summarises recent failed attempts for one rate-limit scope.
type FailureWindow struct {
	Count  int
	Oldest *time.Time
}
