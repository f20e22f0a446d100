package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+accounts\s*\(email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+id,\s*created_at\s*$`
	selectQ = `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*created_at\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(insertQ).
		WithArgs("a@x.io", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("acc-1", now))

	got, err := repo.Create(context.Background(), &models.Account{Email: "a@x.io", PasswordHash: []byte("hash")})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, "a@x.io", got.Email)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("a@x.io", []byte("hash")).
		WillReturnError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"}))

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.io", PasswordHash: []byte("hash")})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("a@x.io", []byte("hash")).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.io", PasswordHash: []byte("hash")})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(selectQ).
		WithArgs("a@x.io").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("acc-1", "a@x.io", []byte("hash"), now))

	got, err := repo.GetByEmail(context.Background(), "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, &models.Account{ID: "acc-1", Email: "a@x.io", PasswordHash: []byte("hash"), CreatedAt: now}, got)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs("ghost@x.io").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.io")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByEmail_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs("a@x.io").WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "a@x.io")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}
