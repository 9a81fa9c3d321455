package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
	"taskmarket.app/taskmarket/internal/logging"
	model "taskmarket.app/taskmarket/internal/models"
	repository "taskmarket.app/taskmarket/internal/repositories"
)

// transitions is the legal transition table. Anything not listed fails
// with InvalidTransition.
var transitions = map[constants.TaskStatus][]constants.TaskStatus{
	constants.TaskOpen:      {constants.TaskTodo, constants.TaskExpired, constants.TaskCancelled},
	constants.TaskTodo:      {constants.TaskDone, constants.TaskOverdue, constants.TaskCancelled},
	constants.TaskDone:      {constants.TaskCompleted},
	constants.TaskCompleted: {},
	constants.TaskExpired:   {},
	constants.TaskOverdue:   {},
	constants.TaskCancelled: {},
}

// systemOnly targets may never be requested by a client, whoever they are.
var systemOnly = map[constants.TaskStatus]bool{
	constants.TaskExpired: true,
	constants.TaskOverdue: true,
}

// CanTransition reports whether the table allows from → to.
func CanTransition(from, to constants.TaskStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Settler runs the settlement flow for a done → completed transition.
// Injected to keep the coordinator's dependencies pointing at the state
// machine, not the other way round.
type Settler func(ctx context.Context, taskID string, actor Actor, reason string) (*SettlementResult, error)

// TaskStateMachine owns the task status field. Every write goes through a
// compare-and-swap on the current status inside one database transaction
// together with the history append and the Transaction status mirror, so
// a transition either commits whole or not at all.
type TaskStateMachine struct {
	db           *gorm.DB
	tasks        *repository.TaskRepository
	offers       *repository.OfferRepository
	transactions *repository.TransactionRepository
	settle       Settler
}

func NewTaskStateMachine(
	db *gorm.DB,
	tasks *repository.TaskRepository,
	offers *repository.OfferRepository,
	transactions *repository.TransactionRepository,
) *TaskStateMachine {
	return &TaskStateMachine{
		db:           db,
		tasks:        tasks,
		offers:       offers,
		transactions: transactions,
	}
}

// SetSettler wires the settlement coordinator in after construction.
func (m *TaskStateMachine) SetSettler(s Settler) {
	m.settle = s
}

// Transition is the generic entry point: it routes the requested target
// to the operation that owns it.
func (m *TaskStateMachine) Transition(
	ctx context.Context,
	taskID string,
	target constants.TaskStatus,
	actor Actor,
	reason string,
) (*model.Task, error) {
	switch target {
	case constants.TaskDone:
		return m.MarkDone(ctx, taskID, actor, reason)
	case constants.TaskCancelled:
		return m.Cancel(ctx, taskID, actor, reason)
	case constants.TaskExpired:
		return m.Expire(ctx, taskID, actor, reason)
	case constants.TaskOverdue:
		return m.MarkOverdue(ctx, taskID, actor, reason)
	case constants.TaskCompleted:
		if m.settle == nil {
			return nil, fmt.Errorf("settlement coordinator not configured")
		}
		result, err := m.settle(ctx, taskID, actor, reason)
		if err != nil {
			return nil, err
		}
		return result.Task, nil
	case constants.TaskTodo:
		return nil, apperrors.ErrInvalidTransition.WithMessage(
			"transition to todo requires accepting an offer",
		)
	default:
		return nil, apperrors.NewInvalidTransition("", string(target))
	}
}

// MarkDone moves todo → done. Only the assigned tasker may do this.
func (m *TaskStateMachine) MarkDone(ctx context.Context, taskID string, actor Actor, reason string) (*model.Task, error) {
	task, err := m.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(task.Status, constants.TaskDone) {
		return nil, apperrors.NewInvalidTransition(string(task.Status), string(constants.TaskDone))
	}
	if task.AssignedTo == nil || actor.ID != *task.AssignedTo {
		return nil, apperrors.ErrForbiddenActor
	}

	now := time.Now().UTC()
	err = m.Commit(ctx, task, constants.TaskDone, actor, reason, map[string]interface{}{
		"done_at": now,
	}, nil)
	if err != nil {
		return nil, err
	}
	return m.tasks.FindWithHistory(ctx, taskID)
}

// Cancel moves open|todo → cancelled and rejects every pending or
// accepted offer on the task in the same unit.
func (m *TaskStateMachine) Cancel(ctx context.Context, taskID string, actor Actor, reason string) (*model.Task, error) {
	task, err := m.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(task.Status, constants.TaskCancelled) {
		return nil, apperrors.NewInvalidTransition(string(task.Status), string(constants.TaskCancelled))
	}
	if actor.ID != task.CreatedBy {
		return nil, apperrors.ErrForbiddenActor
	}

	now := time.Now().UTC()
	err = m.Commit(ctx, task, constants.TaskCancelled, actor, reason, map[string]interface{}{
		"cancelled_at": now,
	}, func(tx *gorm.DB) error {
		return m.offers.WithTx(tx).RejectAllActive(ctx, taskID, now)
	})
	if err != nil {
		return nil, err
	}
	return m.tasks.FindWithHistory(ctx, taskID)
}

// Expire moves open → expired. System only.
func (m *TaskStateMachine) Expire(ctx context.Context, taskID string, actor Actor, reason string) (*model.Task, error) {
	return m.systemTransition(ctx, taskID, constants.TaskExpired, actor, reason)
}

// MarkOverdue moves todo → overdue. System only.
func (m *TaskStateMachine) MarkOverdue(ctx context.Context, taskID string, actor Actor, reason string) (*model.Task, error) {
	return m.systemTransition(ctx, taskID, constants.TaskOverdue, actor, reason)
}

func (m *TaskStateMachine) systemTransition(
	ctx context.Context,
	taskID string,
	target constants.TaskStatus,
	actor Actor,
	reason string,
) (*model.Task, error) {
	// The system check comes before any state inspection: clients get 403
	// for these targets no matter what state the task is in.
	if !actor.System {
		return nil, apperrors.ErrForbiddenSystemTransition
	}

	task, err := m.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(task.Status, target) {
		return nil, apperrors.NewInvalidTransition(string(task.Status), string(target))
	}

	err = m.Commit(ctx, task, target, actor, reason, nil, nil)
	if err != nil {
		return nil, err
	}
	return m.tasks.FindWithHistory(ctx, taskID)
}

// Commit applies a validated transition as one atomic unit: the CAS status
// update, the history append, the Transaction mirror, and any cascading
// writes supplied by the caller. A lost CAS surfaces as InvalidTransition,
// since the task is no longer in the state the caller saw.
func (m *TaskStateMachine) Commit(
	ctx context.Context,
	task *model.Task,
	target constants.TaskStatus,
	actor Actor,
	reason string,
	extra map[string]interface{},
	cascade func(tx *gorm.DB) error,
) error {
	if reason == "" {
		reason = "Changed to " + string(target)
	}

	from := task.Status
	updates := map[string]interface{}{"status": target}
	for k, v := range extra {
		updates[k] = v
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.tasks.WithTx(tx).UpdateStatusCAS(ctx, task.ID, from, updates); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				logging.Logger.Warnf("task %s: transition to %s lost the race from %s", task.ID, target, from)
				return apperrors.NewInvalidTransition(string(from), string(target))
			}
			return err
		}

		if err := m.tasks.WithTx(tx).AppendHistory(ctx, &model.StatusChange{
			TaskID:    task.ID,
			Status:    target,
			ChangedBy: actor.ID,
			ChangedAt: time.Now().UTC(),
			Reason:    reason,
		}); err != nil {
			return err
		}

		if err := m.transactions.WithTx(tx).SyncTaskStatus(ctx, task.ID, target, time.Now().UTC()); err != nil {
			return err
		}

		if cascade != nil {
			return cascade(tx)
		}
		return nil
	})
}
