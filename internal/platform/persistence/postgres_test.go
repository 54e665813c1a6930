package persistence

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*PostgresDB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return NewPostgresDBFromPool(logger, mock), mock
}

func TestPostgresDB_Pool(t *testing.T) {
	db, mock := newTestDB(t)
	assert.Equal(t, mock, db.Pool(), "Pool() should return the wrapped pool")
}

func TestPostgresDB_ExecuteTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE scheduled_payments").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "UPDATE scheduled_payments SET status = 'cancelled'")
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		db, mock := newTestDB(t)
		fnErr := errors.New("insert failed")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			return fnErr
		})

		assert.ErrorIs(t, err, fnErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackFailureKeepsCause", func(t *testing.T) {
		db, mock := newTestDB(t)
		fnErr := errors.New("insert failed")
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

		err := db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			return fnErr
		})

		assert.ErrorIs(t, err, fnErr)
		assert.Contains(t, err.Error(), "rollback failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFailure", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		called := false
		err := db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			called = true
			return nil
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PanicRollsBack", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = db.ExecuteTx(ctx, func(tx pgx.Tx) error {
				panic("boom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
