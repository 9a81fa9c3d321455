package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
)

var allStatuses = []constants.TaskStatus{
	constants.TaskOpen,
	constants.TaskTodo,
	constants.TaskDone,
	constants.TaskCompleted,
	constants.TaskCancelled,
	constants.TaskExpired,
	constants.TaskOverdue,
}

func TestCanTransition_Table(t *testing.T) {
	allowed := map[constants.TaskStatus][]constants.TaskStatus{
		constants.TaskOpen: {constants.TaskTodo, constants.TaskExpired, constants.TaskCancelled},
		constants.TaskTodo: {constants.TaskDone, constants.TaskOverdue, constants.TaskCancelled},
		constants.TaskDone: {constants.TaskCompleted},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesAcceptNothing(t *testing.T) {
	for _, from := range allStatuses {
		if !from.Terminal() {
			continue
		}
		for _, to := range allStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestMarkDone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 250)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	updated, err := env.machine.MarkDone(ctx, task.ID, Actor{ID: "tasker-1"}, "finished ahead of schedule")
	require.NoError(t, err)

	assert.Equal(t, constants.TaskDone, updated.Status)
	assert.NotNil(t, updated.DoneAt)

	last := updated.History[len(updated.History)-1]
	assert.Equal(t, constants.TaskDone, last.Status)
	assert.Equal(t, "tasker-1", last.ChangedBy)
	assert.Equal(t, "finished ahead of schedule", last.Reason)

	// The transaction record mirrors the task status.
	record, err := env.transactions.FindByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskDone, record.TaskStatus)
}

func TestMarkDone_OnlyAssigneeMay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 250)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	_, err = env.machine.MarkDone(ctx, task.ID, Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrForbiddenActor)

	_, err = env.machine.MarkDone(ctx, task.ID, Actor{ID: "someone-else"}, "")
	assert.ErrorIs(t, err, apperrors.ErrForbiddenActor)
}

func TestMarkDone_RequiresAssignedTask(t *testing.T) {
	env := newTestEnv(t)

	task := env.createOpenTask(t, "poster-1", 300)

	_, err := env.machine.MarkDone(context.Background(), task.ID, Actor{ID: "tasker-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCancel_RejectsActiveOffers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	first := env.createPendingOffer(t, task.ID, "tasker-1", 250)
	second := env.createPendingOffer(t, task.ID, "tasker-2", 280)

	updated, err := env.machine.Cancel(ctx, task.ID, Actor{ID: "poster-1"}, "plans changed")
	require.NoError(t, err)

	assert.Equal(t, constants.TaskCancelled, updated.Status)
	assert.NotNil(t, updated.CancelledAt)

	for _, id := range []string{first.ID, second.ID} {
		offer, err := env.offers.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, constants.OfferRejected, offer.Status)
		assert.NotNil(t, offer.RejectedAt)
	}
}

func TestCancel_AssignedTaskRejectsAcceptedOffer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 250)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	updated, err := env.machine.Cancel(ctx, task.ID, Actor{ID: "poster-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskCancelled, updated.Status)

	rejected, err := env.offers.FindByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.OfferRejected, rejected.Status)
}

func TestCancel_OnlyPosterMay(t *testing.T) {
	env := newTestEnv(t)

	task := env.createOpenTask(t, "poster-1", 300)

	_, err := env.machine.Cancel(context.Background(), task.ID, Actor{ID: "tasker-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrForbiddenActor)
}

func TestCancel_DoneTaskFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task, _ := env.settleReady(t, "poster-1", "tasker-1", 300, 250)

	_, err := env.machine.Cancel(ctx, task.ID, Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestSystemTransitions_ForbiddenForClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)

	// The poster is refused before any state inspection happens, so even a
	// task in the right state yields 403, not a transition error.
	_, err := env.machine.Expire(ctx, task.ID, Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrForbiddenSystemTransition)

	_, err = env.machine.MarkOverdue(ctx, task.ID, Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrForbiddenSystemTransition)

	_, err = env.machine.Transition(ctx, task.ID, constants.TaskExpired, Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrForbiddenSystemTransition)
}

func TestExpire_BySystem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)

	updated, err := env.machine.Expire(ctx, task.ID, SystemActor, "Due date passed without assignment")
	require.NoError(t, err)

	assert.Equal(t, constants.TaskExpired, updated.Status)
	last := updated.History[len(updated.History)-1]
	assert.Equal(t, "system", last.ChangedBy)
	assert.Equal(t, "Due date passed without assignment", last.Reason)
}

func TestMarkOverdue_BySystem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 250)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	updated, err := env.machine.MarkOverdue(ctx, task.ID, SystemActor, "Due date passed before completion")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskOverdue, updated.Status)

	record, err := env.transactions.FindByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskOverdue, record.TaskStatus)
}

func TestExpire_AssignedTaskFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)
	offer := env.createPendingOffer(t, task.ID, "tasker-1", 250)
	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: "poster-1"})
	require.NoError(t, err)

	_, err = env.machine.Expire(ctx, task.ID, SystemActor, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestTransition_TodoTargetIsRejected(t *testing.T) {
	env := newTestEnv(t)

	task := env.createOpenTask(t, "poster-1", 300)

	_, err := env.machine.Transition(context.Background(), task.ID, constants.TaskTodo, Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestTransition_UnknownTarget(t *testing.T) {
	env := newTestEnv(t)

	task := env.createOpenTask(t, "poster-1", 300)

	_, err := env.machine.Transition(context.Background(), task.ID, constants.TaskStatus("archived"), Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestTransition_RoutesToSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task, _ := env.settleReady(t, "poster-1", "tasker-1", 300, 250)

	updated, err := env.machine.Transition(ctx, task.ID, constants.TaskCompleted, Actor{ID: "poster-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskCompleted, updated.Status)
}

func TestCommit_StaleSnapshotLosesRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)

	// Snapshot the task while it is still open, then let another writer
	// move it on. The stale commit must lose its CAS and surface as an
	// invalid transition, never as a silent overwrite.
	stale, err := env.tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)

	_, err = env.machine.Expire(ctx, task.ID, SystemActor, "")
	require.NoError(t, err)

	err = env.machine.Commit(ctx, stale, constants.TaskCancelled, Actor{ID: "poster-1"}, "", nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	reloaded, err := env.tasks.FindWithHistory(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskExpired, reloaded.Status)
	assert.Len(t, reloaded.History, 1)
}

func TestCommit_DefaultReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createOpenTask(t, "poster-1", 300)

	updated, err := env.machine.Expire(ctx, task.ID, SystemActor, "")
	require.NoError(t, err)

	last := updated.History[len(updated.History)-1]
	assert.Equal(t, "Changed to expired", last.Reason)
}

func TestTransitionOnMissingTask(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.machine.Cancel(context.Background(), "no-such-task", Actor{ID: "poster-1"}, "")
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}
