package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basicauth/basicauth-go/internal/model"
)

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()

	db, err := NewDB(DriverSQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return NewUserRepository(db)
}

func newUser(username, email string) *model.User {
	return &model.User{
		Username:           username,
		Email:              email,
		PasswordHash:       "pw-hash",
		SecurityQuestion:   "first pet",
		SecurityAnswerHash: "answer-hash",
	}
}

func TestNewDBUnsupportedDriver(t *testing.T) {
	_, err := NewDB("oracle", "whatever")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, Migrate(context.Background(), repo.db))
}

func TestCreateAndGetByEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u := newUser("ada", "ada@example.com")
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, "pw-hash", got.PasswordHash)
	assert.Equal(t, "first pet", got.SecurityQuestion)
	assert.Equal(t, "answer-hash", got.SecurityAnswerHash)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Second)
}

func TestGetByEmailNotFound(t *testing.T) {
	_, err := newTestRepo(t).GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(ctx, newUser("ada", "ada@example.com")))

	err := repo.Create(ctx, newUser("ada", "other@example.com"))
	assert.ErrorIs(t, err, ErrDuplicate)

	err = repo.Create(ctx, newUser("grace", "ada@example.com"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u := newUser("ada", "ada@example.com")
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-hash"))

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, "x"), ErrUserNotFound)
}

func TestListOrderedAndEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	require.NoError(t, repo.Create(ctx, newUser("ada", "ada@example.com")))
	require.NoError(t, repo.Create(ctx, newUser("grace", "grace@example.com")))

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada", users[0].Username)
	assert.Equal(t, "grace", users[1].Username)
}

func TestIsDuplicateEntryError(t *testing.T) {
	assert.False(t, isDuplicateEntryError(nil))
	assert.False(t, isDuplicateEntryError(ErrUserNotFound))
	assert.True(t, isDuplicateEntryError(errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'email'")))
	assert.True(t, isDuplicateEntryError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.True(t, isDuplicateEntryError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`)))
}

func TestRebindPostgres(t *testing.T) {
	db := sqlx.NewDb(nil, DriverPostgres)
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", db.Rebind("SELECT 1 WHERE a = ? AND b = ?"))
}
