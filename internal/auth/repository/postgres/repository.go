package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insightboard/auth-service/internal/auth/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ domain.UserRepository = (*PostgresRepository)(nil)
var _ domain.SessionRepository = (*PostgresRepository)(nil)
var _ domain.AttemptRepository = (*PostgresRepository)(nil)

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT user_id, email, password_hash, role, is_active,
		       failed_login_attempts, locked_until, last_login_at, created_at
		FROM users
		WHERE email = lower($1)
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT user_id, email, password_hash, role, is_active,
		       failed_login_attempts, locked_until, last_login_at, created_at
		FROM users
		WHERE user_id = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.IsActive,
		&user.FailedLoginAttempts, &user.LockedUntil, &user.LastLoginAt, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, is_active, created_at)
		VALUES (lower($1), $2, $3, $4, $5)
		RETURNING user_id;
	`
	err := r.db.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// IncrementFailedAttempts is a single read-modify-write statement so that
// concurrent failures against the same account cannot lose increments or
// race past the lockout threshold.
func (r *PostgresRepository) IncrementFailedAttempts(ctx context.Context, userID int64, threshold int,
	lockUntil time.Time) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN $3
		        ELSE locked_until
		    END
		WHERE user_id = $1
		RETURNING failed_login_attempts, locked_until;
	`
	var attempts int
	var lockedUntil *time.Time
	err := r.db.QueryRow(ctx, query, userID, threshold, lockUntil).Scan(&attempts, &lockedUntil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	return attempts, lockedUntil, nil
}

func (r *PostgresRepository) ClearFailureState(ctx context.Context, userID int64, loginAt time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login_at = $2
		WHERE user_id = $1;
	`
	_, err := r.db.Exec(ctx, query, userID, loginAt)
	if err != nil {
		return fmt.Errorf("failed to clear failure state: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, refresh_token_hash, created_at,
		                      expires_at, last_activity_at, is_revoked)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE);
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.UserID, s.RefreshTokenHash, s.CreatedAt, s.ExpiresAt, s.LastActivityAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, sessionID, tokenHash string) (*domain.Session, error) {
	query := `
		SELECT session_id, user_id, refresh_token_hash, created_at,
		       expires_at, last_activity_at, is_revoked, revoke_reason
		FROM sessions
		WHERE session_id = $1 AND refresh_token_hash = $2
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, sessionID, tokenHash)

	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.CreatedAt,
		&s.ExpiresAt, &s.LastActivityAt, &s.Revoked, &s.RevokeReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

// RevokeSession is conditional on is_revoked = FALSE: revocation is terminal
// and the first reason written is never overwritten.
func (r *PostgresRepository) RevokeSession(ctx context.Context, sessionID string, reason domain.RevokeReason) error {
	query := `
		UPDATE sessions
		SET is_revoked = TRUE, revoke_reason = $2
		WHERE session_id = $1 AND is_revoked = FALSE;
	`
	_, err := r.db.Exec(ctx, query, sessionID, reason)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RevokeByTokenHash(ctx context.Context, tokenHash string, userID *int64,
	reason domain.RevokeReason) error {
	var err error
	if userID != nil {
		query := `
			UPDATE sessions
			SET is_revoked = TRUE, revoke_reason = $2
			WHERE refresh_token_hash = $1 AND user_id = $3 AND is_revoked = FALSE;
		`
		_, err = r.db.Exec(ctx, query, tokenHash, reason, *userID)
	} else {
		query := `
			UPDATE sessions
			SET is_revoked = TRUE, revoke_reason = $2
			WHERE refresh_token_hash = $1 AND is_revoked = FALSE;
		`
		_, err = r.db.Exec(ctx, query, tokenHash, reason)
	}
	if err != nil {
		return fmt.Errorf("failed to revoke session by token hash: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RevokeAllByUserID(ctx context.Context, userID int64, reason domain.RevokeReason) error {
	query := `
		UPDATE sessions
		SET is_revoked = TRUE, revoke_reason = $2
		WHERE user_id = $1 AND is_revoked = FALSE;
	`
	_, err := r.db.Exec(ctx, query, userID, reason)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions for user %d: %w", userID, err)
	}

	return nil
}

func (r *PostgresRepository) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	query := `
		UPDATE sessions
		SET last_activity_at = $2
		WHERE session_id = $1 AND is_revoked = FALSE;
	`
	_, err := r.db.Exec(ctx, query, sessionID, at)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListActiveByUserID(ctx context.Context, userID int64) ([]domain.Session, error) {
	query := `
		SELECT session_id, user_id, refresh_token_hash, created_at,
		       expires_at, last_activity_at, is_revoked, revoke_reason
		FROM sessions
		WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > now()
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.CreatedAt,
			&s.ExpiresAt, &s.LastActivityAt, &s.Revoked, &s.RevokeReason); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return sessions, nil
}

func (r *PostgresRepository) RecordAttempt(ctx context.Context, a *domain.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (email, ip_address, user_agent, success, failure_reason, attempt_time)
		VALUES (lower($1), $2, $3, $4, $5, $6);
	`
	_, err := r.db.Exec(ctx, query,
		a.Email, a.IPAddress, a.UserAgent, a.Success, a.FailureReason, a.AttemptTime)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	return nil
}

func (r *PostgresRepository) FailureStatsByEmail(ctx context.Context, email string,
	since time.Time) (*domain.FailureWindow, error) {
	query := `
		SELECT COUNT(*), MIN(attempt_time)
		FROM login_attempts
		WHERE email = lower($1) AND success = FALSE AND attempt_time >= $2;
	`
	return r.scanFailureWindow(r.db.QueryRow(ctx, query, email, since))
}

func (r *PostgresRepository) FailureStatsByIP(ctx context.Context, ip string,
	since time.Time) (*domain.FailureWindow, error) {
	query := `
		SELECT COUNT(*), MIN(attempt_time)
		FROM login_attempts
		WHERE ip_address = $1 AND success = FALSE AND attempt_time >= $2;
	`
	return r.scanFailureWindow(r.db.QueryRow(ctx, query, ip, since))
}

func (r *PostgresRepository) scanFailureWindow(row pgx.Row) (*domain.FailureWindow, error) {
	var w domain.FailureWindow
	if err := row.Scan(&w.Count, &w.Oldest); err != nil {
		return nil, fmt.Errorf("failed to count login attempts: %w", err)
	}

	return &w, nil
}
