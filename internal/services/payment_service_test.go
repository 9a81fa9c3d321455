package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
)

func TestCreateIntent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 150)
	result, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	payment, err := env.paymentSvc.CreateIntent(ctx, task.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	assert.Equal(t, result.Transaction.ID, payment.TransactionID)
	assert.NotEmpty(t, payment.IntentRef)
	assert.Equal(t, constants.IntentPending, payment.Status)
	assert.Equal(t, 150.0, payment.Amount)
	assert.Equal(t, 15.0, payment.ServiceFee)
	assert.Equal(t, 135.0, payment.TaskerAmount)

	record, err := env.transactions.FindByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentPending, record.PaymentStatus)
}

func TestCreateIntent_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 150)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	first, err := env.paymentSvc.CreateIntent(ctx, task.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	second, err := env.paymentSvc.CreateIntent(ctx, task.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.IntentRef, second.IntentRef)
	assert.Equal(t, 1, env.gateway.createCalls)
}

func TestCreateIntent_OnlyPosterMay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 150)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	_, err = env.paymentSvc.CreateIntent(ctx, task.ID, Actor{ID: "tasker-1"})
	assert.ErrorIs(t, err, apperrors.ErrForbiddenActor)
}

func TestCreateIntent_NoTransaction(t *testing.T) {
	env := newTestEnv(t)

	task := env.createOpenTask(t, "poster-1", 300)

	_, err := env.paymentSvc.CreateIntent(context.Background(), task.ID, Actor{ID: "poster-1"})
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestFindForTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 150)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	// Before an intent exists the read path reports not found, not a
	// half-populated record.
	_, err = env.paymentSvc.FindForTask(ctx, task.ID, Actor{ID: "poster-1"})
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)

	created, err := env.paymentSvc.CreateIntent(ctx, task.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	// Both parties to the transaction may read it.
	for _, actorID := range []string{"poster-1", "tasker-1"} {
		payment, err := env.paymentSvc.FindForTask(ctx, task.ID, Actor{ID: actorID})
		require.NoError(t, err)
		assert.Equal(t, created.ID, payment.ID)
	}

	_, err = env.paymentSvc.FindForTask(ctx, task.ID, Actor{ID: "stranger"})
	assert.ErrorIs(t, err, apperrors.ErrForbiddenActor)

	_, err = env.paymentSvc.FindForTask(ctx, "no-such-task", Actor{ID: "poster-1"})
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
}
