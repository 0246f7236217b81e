package service

//go:generate mockgen -destination=../../mocks/mock_guard.go -package=mocks github.com/insightboard/auth-service/internal/auth/service Guard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/insightboard/auth-service/config"
	"github.com/insightboard/auth-service/internal/auth/domain"
	"github.com/insightboard/auth-service/internal/metrics"
)

// Guard decides whether a login attempt may proceed and keeps the failure
// bookkeeping behind it.
type Guard interface {
	CheckRateLimit(ctx context.Context, email, ip string) (*RateLimitDecision, error)
	CheckLockout(ctx context.Context, email string) (*LockoutStatus, error)
	RecordFailure(ctx context.Context, failure FailureRecord) (bool, error)
	RecordSuccess(ctx context.Context, userID int64, email, ip, userAgent string) error
}

type RateLimitDecision struct {
	Allowed           bool
	Scope             string // "email" or "ip" when denied
	ResetAt           time.Time
	AttemptsRemaining int
}

type LockoutStatus struct {
	Locked         bool
	LockedUntil    time.Time
	FailedAttempts int
}

// FailureRecord describes one failed attempt. UserID is nil when the email
// did not resolve to an account, or when the failure must not advance the
// lockout counter (already locked, rate limited, disabled).
type FailureRecord struct {
	UserID    *int64
	Email     string
	IPAddress string
	UserAgent string
	Reason    string
}

// LoginGuard implements Guard with two deliberately distinct policies:
// windowed rate-limit counting fails open to preserve availability, while
// the hard lockout check fails closed.
type LoginGuard struct {
	users           domain.UserRepository
	attempts        domain.AttemptRepository
	emailMax        int
	ipMax           int
	window          time.Duration
	lockoutDuration time.Duration
}

var _ Guard = (*LoginGuard)(nil)

func NewLoginGuard(users domain.UserRepository, attempts domain.AttemptRepository, cfg *config.Config) *LoginGuard {
	return &LoginGuard{
		users:           users,
		attempts:        attempts,
		emailMax:        cfg.LoginMaxAttempts,
		ipMax:           cfg.LoginIPMaxAttempts,
		window:          time.Duration(cfg.LoginWindowMinutes) * time.Minute,
		lockoutDuration: time.Duration(cfg.LockoutMinutes) * time.Minute,
	}
}

// CheckRateLimit counts recent failures per IP and per email independently.
// When attempt counting is unavailable it fails open: lockout below is the
// hard stop, rate limiting only bounds attempt frequency.
func (g *LoginGuard) CheckRateLimit(ctx context.Context, email, ip string) (*RateLimitDecision, error) {
	since := time.Now().Add(-g.window)

	ipStats, err := g.attempts.FailureStatsByIP(ctx, ip, since)
	if err != nil {
		return g.failOpen(err), nil
	}
	if ipStats.Count >= g.ipMax {
		metrics.RateLimitDenials.WithLabelValues("ip").Inc()
		return &RateLimitDecision{Allowed: false, Scope: "ip", ResetAt: resetAt(ipStats, g.window)}, nil
	}

	emailStats, err := g.attempts.FailureStatsByEmail(ctx, email, since)
	if err != nil {
		return g.failOpen(err), nil
	}
	if emailStats.Count >= g.emailMax {
		metrics.RateLimitDenials.WithLabelValues("email").Inc()
		return &RateLimitDecision{Allowed: false, Scope: "email", ResetAt: resetAt(emailStats, g.window)}, nil
	}

	return &RateLimitDecision{
		Allowed:           true,
		AttemptsRemaining: g.emailMax - emailStats.Count,
	}, nil
}

func (g *LoginGuard) failOpen(err error) *RateLimitDecision {
	log.Warn().Err(err).Msg("rate limit counting unavailable, failing open")
	metrics.RateLimitFailOpen.Inc()

	return &RateLimitDecision{Allowed: true}
}

func resetAt(w *domain.FailureWindow, window time.Duration) time.Time {
	if w.Oldest != nil {
		return w.Oldest.Add(window)
	}
	return time.Now().Add(window)
}

// CheckLockout fails closed: a storage error is returned rather than
// letting the attempt through unchecked.
func (g *LoginGuard) CheckLockout(ctx context.Context, email string) (*LockoutStatus, error) {
	user, err := g.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check lockout: %w", err)
	}
	if user == nil || user.LockedUntil == nil || !user.LockedUntil.After(time.Now()) {
		return &LockoutStatus{Locked: false}, nil
	}

	return &LockoutStatus{
		Locked:         true,
		LockedUntil:    *user.LockedUntil,
		FailedAttempts: user.FailedLoginAttempts,
	}, nil
}

// RecordFailure appends the audit row and, when the account is known,
// advances the failure counter in one atomic statement. It returns whether
// this failure locked the account. Both writes are awaited: lockout
// correctness depends on them completing before the next threshold check.
func (g *LoginGuard) RecordFailure(ctx context.Context, failure FailureRecord) (bool, error) {
	metrics.LoginAttempts.WithLabelValues("failure").Inc()

	attempt := &domain.LoginAttempt{
		Email:         failure.Email,
		IPAddress:     failure.IPAddress,
		UserAgent:     failure.UserAgent,
		Success:       false,
		FailureReason: &failure.Reason,
		AttemptTime:   time.Now(),
	}
	if err := g.attempts.RecordAttempt(ctx, attempt); err != nil {
		return false, fmt.Errorf("failed to record login failure: %w", err)
	}

	if failure.UserID == nil {
		return false, nil
	}

	lockUntil := time.Now().Add(g.lockoutDuration)
	count, _, err := g.users.IncrementFailedAttempts(ctx, *failure.UserID, g.emailMax, lockUntil)
	if err != nil {
		return false, fmt.Errorf("failed to increment failure counter: %w", err)
	}

	locked := count >= g.emailMax
	if count == g.emailMax {
		metrics.AccountLockouts.Inc()
		log.Warn().Str("email", failure.Email).Time("locked_until", lockUntil).Msg("account locked")
	}

	return locked, nil
}

// RecordSuccess appends the audit row, resets the failure counter, clears
// any lockout and stamps last_login_at.
func (g *LoginGuard) RecordSuccess(ctx context.Context, userID int64, email, ip, userAgent string) error {
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	now := time.Now()
	attempt := &domain.LoginAttempt{
		Email:       email,
		IPAddress:   ip,
		UserAgent:   userAgent,
		Success:     true,
		AttemptTime: now,
	}
	if err := g.attempts.RecordAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record login success: %w", err)
	}

	if err := g.users.ClearFailureState(ctx, userID, now); err != nil {
		return fmt.Errorf("failed to clear failure state: %w", err)
	}

	return nil
}
