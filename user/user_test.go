package user_test

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"session-booking/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := user.NewAccessor(db)

	const name = "Pulkit"
	const email = "pulkit@example.com"
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	insertQuery := `INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(sqlmock.AnyArg(), name, email, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	t.Run("create user", func(t *testing.T) {
		createdUser, err := a.CreateUser(t.Context(), user.User{
			Name:  name,
			Email: email,
		}, now)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, createdUser.ID)
		assert.Equal(t, name, createdUser.Name)
		assert.Equal(t, email, createdUser.Email)
		assert.Equal(t, now, createdUser.CreatedAt)

		require.NoError(t, mock.ExpectationsWereMet())

		t.Run("get user", func(t *testing.T) {
			selectQuery := `SELECT id, name, email, created_at FROM users WHERE id = $1`
			rows := sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
				AddRow(createdUser.ID.String(), name, email, now)

			mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
				WithArgs(createdUser.ID).
				WillReturnRows(rows)

			u, err := a.GetUser(t.Context(), createdUser.ID)
			require.NoError(t, err)
			require.NotNil(t, u)
			assert.Equal(t, createdUser.ID, u.ID)
			assert.Equal(t, createdUser.Name, u.Name)
			assert.Equal(t, createdUser.Email, u.Email)

			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("get user - no rows", func(t *testing.T) {
			missing := uuid.New()
			selectQuery := `SELECT id, name, email, created_at FROM users WHERE id = $1`
			mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
				WithArgs(missing).
				WillReturnError(sql.ErrNoRows)

			u, err := a.GetUser(t.Context(), missing)
			require.NoError(t, err)
			assert.Nil(t, u)
		})
	})

	t.Run("create user - invalid email", func(t *testing.T) {
		_, err := a.CreateUser(t.Context(), user.User{Name: name, Email: "not-an-email"}, now)
		require.Error(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	store := user.NewMemoryStore()
	now := time.Now().UTC()

	created, err := store.CreateUser(t.Context(), user.User{Name: "Ada", Email: "ada@example.com"}, now)
	require.NoError(t, err)

	got, err := store.GetUser(t.Context(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)

	_, err = store.CreateUser(t.Context(), user.User{Name: "Ada 2", Email: "ada@example.com"}, now)
	require.Error(t, err)

	missing, err := store.GetUser(t.Context(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
