package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

func TestOutboxRepository_WithTx(t *testing.T) {
	repo := &OutboxRepository{querier: nil, logger: newTestLogger()}

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	assert.NotNil(t, txRepo)
	assert.IsType(t, &OutboxRepository{}, txRepo)

	outboxRepo, ok := txRepo.(*OutboxRepository)
	assert.True(t, ok)
	assert.Equal(t, mockTx, outboxRepo.querier)
}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	message := &outbox.Message{
		PaymentID:          uuid.New(),
		ScheduledPaymentID: uuid.New(),
		Payload:            json.RawMessage(`{"payment_id":"x"}`),
		Status:             shared.OutboxStatusPending,
		CreatedAt:          time.Now(),
	}

	query := `INSERT INTO payment_outbox .* RETURNING id`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(message.PaymentID, message.ScheduledPaymentID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		err := repo.Create(ctx, message)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), message.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(query).
			WithArgs(message.PaymentID, message.ScheduledPaymentID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, message)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create outbox message")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	now := time.Now()
	lastAttempt := now.Add(-time.Minute)

	query := `FROM payment_outbox\s+WHERE status = \$1\s+ORDER BY created_at ASC\s+LIMIT \$2`
	columns := []string{"id", "payment_id", "scheduled_payment_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

	t.Run("success", func(t *testing.T) {
		paymentID, scheduleID := uuid.New(), uuid.New()
		rows := pgxmock.NewRows(columns).
			AddRow(int64(1), paymentID, scheduleID, json.RawMessage(`{}`), shared.OutboxStatusPending, 0, now, (*time.Time)(nil)).
			AddRow(int64(2), paymentID, scheduleID, json.RawMessage(`{}`), shared.OutboxStatusPending, 2, now, &lastAttempt)
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Nil(t, messages[0].LastAttemptAt)
		assert.Equal(t, 2, messages[1].Attempts)
		require.NotNil(t, messages[1].LastAttemptAt)
		assert.Equal(t, lastAttempt, *messages[1].LastAttemptAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnError(dbErr)

		messages, err := repo.GetPending(ctx, 10)
		assert.Nil(t, messages)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := `UPDATE payment_outbox\s+SET status = \$1, last_attempt_at = \$2\s+WHERE id = \$3`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, 7, shared.OutboxStatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusFailedToPublish, pgxmock.AnyArg(), int64(8)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 8, shared.OutboxStatusFailedToPublish)
		assert.ErrorIs(t, err, outbox.ErrMessageNotFound{ID: 8})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := `SET attempts = attempts \+ 1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.IncrementAttempts(ctx, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(3)).
			WillReturnError(dbErr)

		err := repo.IncrementAttempts(ctx, 3)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
