package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightboard/auth-service/internal/auth/domain"
	repo "github.com/insightboard/auth-service/internal/auth/repository/postgres"
)

var userColumns = []string{
	"user_id", "email", "password_hash", "role", "is_active",
	"failed_login_attempts", "locked_until", "last_login_at", "created_at",
}

var sessionColumns = []string{
	"session_id", "user_id", "refresh_token_hash", "created_at",
	"expires_at", "last_activity_at", "is_revoked", "revoke_reason",
}

func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id, email").
			WithArgs("demo@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(int64(1), "demo@example.com", "hash", domain.RoleUser, true, 0, nil, nil, time.Now()))

		user, err := r.GetByEmail(ctx, "demo@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(1), user.ID)
		assert.True(t, user.IsActive)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id, email").
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)

		user, err := r.GetByEmail(ctx, "ghost@example.com")
		require.NoError(t, err) // absent user is (nil, nil), not an error
		assert.Nil(t, user)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id, email").
			WithArgs("demo@example.com").
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, "demo@example.com")
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	user := &domain.User{
		Email:        "new@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(42)))

	require.NoError(t, r.Create(ctx, user))
	assert.Equal(t, int64(42), user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementFailedAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	lockUntil := time.Now().Add(30 * time.Minute)

	t.Run("below threshold", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users").
			WithArgs(int64(1), 5, lockUntil).
			WillReturnRows(pgxmock.NewRows([]string{"failed_login_attempts", "locked_until"}).
				AddRow(3, nil))

		count, lockedUntil, err := r.IncrementFailedAttempts(ctx, 1, 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.Nil(t, lockedUntil)
	})

	t.Run("reaches threshold and locks", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users").
			WithArgs(int64(1), 5, lockUntil).
			WillReturnRows(pgxmock.NewRows([]string{"failed_login_attempts", "locked_until"}).
				AddRow(5, &lockUntil))

		count, lockedUntil, err := r.IncrementFailedAttempts(ctx, 1, 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
		require.NotNil(t, lockedUntil)
		assert.Equal(t, lockUntil, *lockedUntil)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearFailureState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	loginAt := time.Now()

	mock.ExpectExec("UPDATE users").
		WithArgs(int64(1), loginAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.ClearFailureState(context.Background(), 1, loginAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndGetSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	now := time.Now()

	session := &domain.Session{
		ID:               "session-1",
		UserID:           1,
		RefreshTokenHash: "hash",
		CreatedAt:        now,
		ExpiresAt:        now.Add(7 * 24 * time.Hour),
		LastActivityAt:   now,
	}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(session.ID, session.UserID, session.RefreshTokenHash,
			session.CreatedAt, session.ExpiresAt, session.LastActivityAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.CreateSession(ctx, session))

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT session_id, user_id").
			WithArgs("session-1", "hash").
			WillReturnRows(pgxmock.NewRows(sessionColumns).
				AddRow("session-1", int64(1), "hash", now, now.Add(7*24*time.Hour), now, false, nil))

		got, err := r.GetSession(ctx, "session-1", "hash")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "session-1", got.ID)
		assert.False(t, got.Revoked)
	})

	t.Run("wrong hash finds nothing", func(t *testing.T) {
		mock.ExpectQuery("SELECT session_id, user_id").
			WithArgs("session-1", "other-hash").
			WillReturnError(pgx.ErrNoRows)

		got, err := r.GetSession(ctx, "session-1", "other-hash")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("revokes active session", func(t *testing.T) {
		mock.ExpectExec("UPDATE sessions").
			WithArgs("session-1", domain.RevokeReasonExpired).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.RevokeSession(ctx, "session-1", domain.RevokeReasonExpired))
	})

	t.Run("already revoked is a no-op", func(t *testing.T) {
		mock.ExpectExec("UPDATE sessions").
			WithArgs("session-1", domain.RevokeReasonUserLogout).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		// Zero rows touched: the original revoke reason stays in place.
		require.NoError(t, r.RevokeSession(ctx, "session-1", domain.RevokeReasonUserLogout))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeByTokenHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("scoped to user", func(t *testing.T) {
		userID := int64(1)
		mock.ExpectExec("UPDATE sessions").
			WithArgs("hash", domain.RevokeReasonUserLogout, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.RevokeByTokenHash(ctx, "hash", &userID, domain.RevokeReasonUserLogout))
	})

	t.Run("unscoped", func(t *testing.T) {
		mock.ExpectExec("UPDATE sessions").
			WithArgs("hash", domain.RevokeReasonUserLogout).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.RevokeByTokenHash(ctx, "hash", nil, domain.RevokeReasonUserLogout))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectExec("UPDATE sessions").
		WithArgs(int64(9), domain.RevokeReasonAdmin).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	require.NoError(t, r.RevokeAllByUserID(context.Background(), 9, domain.RevokeReasonAdmin))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	at := time.Now()

	mock.ExpectExec("UPDATE sessions").
		WithArgs("session-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.TouchSession(context.Background(), "session-1", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT session_id, user_id").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow("s1", int64(1), "h1", now, now.Add(time.Hour), now, false, nil).
			AddRow("s2", int64(1), "h2", now, now.Add(time.Hour), now, false, nil))

	sessions, err := r.ListActiveByUserID(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAttempt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	reason := "bad_password"
	attempt := &domain.LoginAttempt{
		Email:         "demo@example.com",
		IPAddress:     "10.0.0.1",
		UserAgent:     "agent",
		Success:       false,
		FailureReason: &reason,
		AttemptTime:   time.Now(),
	}

	mock.ExpectExec("INSERT INTO login_attempts").
		WithArgs(attempt.Email, attempt.IPAddress, attempt.UserAgent,
			attempt.Success, attempt.FailureReason, attempt.AttemptTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.RecordAttempt(context.Background(), attempt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFailureStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	since := time.Now().Add(-15 * time.Minute)
	oldest := time.Now().Add(-10 * time.Minute)

	t.Run("by email", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("demo@example.com", since).
			WillReturnRows(pgxmock.NewRows([]string{"count", "min"}).AddRow(4, &oldest))

		w, err := r.FailureStatsByEmail(ctx, "demo@example.com", since)
		require.NoError(t, err)
		assert.Equal(t, 4, w.Count)
		require.NotNil(t, w.Oldest)
	})

	t.Run("by ip with no failures", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("10.0.0.1", since).
			WillReturnRows(pgxmock.NewRows([]string{"count", "min"}).AddRow(0, nil))

		w, err := r.FailureStatsByIP(ctx, "10.0.0.1", since)
		require.NoError(t, err)
		assert.Equal(t, 0, w.Count)
		assert.Nil(t, w.Oldest)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
