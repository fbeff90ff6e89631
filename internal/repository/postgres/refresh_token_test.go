package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avenirhq/auth-service/internal/domain"
	apperrors "github.com/avenirhq/auth-service/pkg/errors"
)

func newTokenTestFixture(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewRefreshTokenRepository(mock)
	return repo, mock
}

func sampleRefreshToken() *domain.RefreshToken {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.RefreshToken{
		ID:        "jti-refresh",
		UserID:    "u-1234",
		Username:  "alice",
		SessionID: "sess-1",
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
	}
}

func TestRefreshTokenRepository_Create_Success(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	tok := sampleRefreshToken()

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(tok.ID, tok.UserID, tok.Username, tok.SessionID, tok.ExpiresAt, tok.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), tok)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Create_DuplicateJTI(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	tok := sampleRefreshToken()

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(tok.ID, tok.UserID, tok.Username, tok.SessionID, tok.ExpiresAt, tok.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), tok)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByID_Success(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	tok := sampleRefreshToken()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs(tok.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "username", "session_id", "expires_at", "created_at",
		}).AddRow(tok.ID, tok.UserID, tok.Username, tok.SessionID, tok.ExpiresAt, tok.CreatedAt))

	got, err := repo.GetByID(context.Background(), tok.ID)
	require.NoError(t, err)
	assert.Equal(t, tok.UserID, got.UserID)
	assert.Equal(t, tok.SessionID, got.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Delete_ReportsDeletion(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("jti-refresh").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err := repo.Delete(context.Background(), "jti-refresh")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Delete_MissingRecord(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
