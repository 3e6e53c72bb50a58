package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/authd/internal/session/domain"
	"github.com/allisson/authd/internal/testutil"
)

// newTestSession builds a session fixture for the given user.
func newTestSession(userID uuid.UUID, expiresAt time.Time) *domain.Session {
	return &domain.Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
}

func TestNewPostgreSQLSessionRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLSessionRepository{}, repo)
}

func TestPostgreSQLSessionRepository_Create(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, db, "postgres", "alice@example.com")
	session := newTestSession(userID, time.Now().UTC().Add(24*time.Hour))

	err := repo.Create(ctx, session)
	require.NoError(t, err)

	// Verify the session was created by retrieving it
	retrieved, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
	assert.WithinDuration(t, session.CreatedAt, retrieved.CreatedAt, time.Second)
}

func TestPostgreSQLSessionRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	ctx := context.Background()

	session, err := repo.GetByID(ctx, "missing-session-id")
	assert.Nil(t, session)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPostgreSQLSessionRepository_ListByUser(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, db, "postgres", "alice@example.com")
	otherUserID := testutil.CreateTestUser(t, db, "postgres", "bob@example.com")
	now := time.Now().UTC()

	older := newTestSession(userID, now.Add(24*time.Hour))
	older.CreatedAt = now.Add(-2 * time.Hour)
	newer := newTestSession(userID, now.Add(24*time.Hour))
	expired := newTestSession(userID, now.Add(-time.Hour))
	otherUsers := newTestSession(otherUserID, now.Add(24*time.Hour))

	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, otherUsers))

	sessions, err := repo.ListByUser(ctx, userID, now)
	require.NoError(t, err)

	// Expired rows and other users' sessions are filtered, newest first
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID)
	assert.Equal(t, older.ID, sessions[1].ID)
}

func TestPostgreSQLSessionRepository_ListByUser_Empty(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	ctx := context.Background()

	sessions, err := repo.ListByUser(ctx, uuid.Must(uuid.NewV7()), time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestPostgreSQLSessionRepository_Delete(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, db, "postgres", "alice@example.com")
	session := newTestSession(userID, time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.Delete(ctx, session.ID))

	_, err := repo.GetByID(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Deleting again is a no-op
	assert.NoError(t, repo.Delete(ctx, session.ID))
}

func TestPostgreSQLSessionRepository_DeleteByUser(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, db, "postgres", "alice@example.com")
	otherUserID := testutil.CreateTestUser(t, db, "postgres", "bob@example.com")
	now := time.Now().UTC()

	session1 := newTestSession(userID, now.Add(24*time.Hour))
	session2 := newTestSession(userID, now.Add(24*time.Hour))
	otherUsers := newTestSession(otherUserID, now.Add(24*time.Hour))

	require.NoError(t, repo.Create(ctx, session1))
	require.NoError(t, repo.Create(ctx, session2))
	require.NoError(t, repo.Create(ctx, otherUsers))

	require.NoError(t, repo.DeleteByUser(ctx, userID))

	_, err := repo.GetByID(ctx, session1.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = repo.GetByID(ctx, session2.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Other users' sessions survive
	retrieved, err := repo.GetByID(ctx, otherUsers.ID)
	require.NoError(t, err)
	assert.Equal(t, otherUserID, retrieved.UserID)

	// Deleting again is a no-op
	assert.NoError(t, repo.DeleteByUser(ctx, userID))
}

func TestPostgreSQLSessionRepository_DeleteExpired(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSessionRepository(db)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, db, "postgres", "alice@example.com")
	now := time.Now().UTC()

	expired1 := newTestSession(userID, now.Add(-2*time.Hour))
	expired2 := newTestSession(userID, now.Add(-time.Minute))
	live := newTestSession(userID, now.Add(24*time.Hour))

	require.NoError(t, repo.Create(ctx, expired1))
	require.NoError(t, repo.Create(ctx, expired2))
	require.NoError(t, repo.Create(ctx, live))

	count, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The live session survives
	retrieved, err := repo.GetByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, live.ID, retrieved.ID)

	// Running again deletes nothing
	count, err = repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, count)
}
