package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
	"taskmarket.app/taskmarket/internal/logging"
	model "taskmarket.app/taskmarket/internal/models"
	"taskmarket.app/taskmarket/internal/outbox"
	"taskmarket.app/taskmarket/internal/pricing"
	repository "taskmarket.app/taskmarket/internal/repositories"
)

// AcceptResult is the aggregate returned by a successful acceptance.
type AcceptResult struct {
	Task        *model.Task        `json:"task"`
	Offer       *model.Offer       `json:"offer"`
	Transaction *model.Transaction `json:"transaction"`
}

// OfferLedger manages the offers on a task and enforces the single-winner
// invariant: accepting one offer assigns the task and rejects every other
// pending offer in the same database transaction.
type OfferLedger struct {
	db           *gorm.DB
	tasks        *repository.TaskRepository
	offers       *repository.OfferRepository
	transactions *repository.TransactionRepository
	fees         *pricing.ConfigService
	machine      *TaskStateMachine
	dispatcher   *outbox.Dispatcher
}

func NewOfferLedger(
	db *gorm.DB,
	tasks *repository.TaskRepository,
	offers *repository.OfferRepository,
	transactions *repository.TransactionRepository,
	fees *pricing.ConfigService,
	machine *TaskStateMachine,
	dispatcher *outbox.Dispatcher,
) *OfferLedger {
	return &OfferLedger{
		db:           db,
		tasks:        tasks,
		offers:       offers,
		transactions: transactions,
		fees:         fees,
		machine:      machine,
		dispatcher:   dispatcher,
	}
}

// Create records a pending offer on an open task.
func (l *OfferLedger) Create(
	ctx context.Context,
	taskID, taskerID string,
	amount float64,
	currency, message string,
) (*model.Offer, error) {
	task, err := l.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != constants.TaskOpen {
		return nil, apperrors.ErrTaskNotOpen
	}
	if taskerID == task.CreatedBy {
		return nil, apperrors.ErrForbiddenActor.WithMessage("posters cannot offer on their own task")
	}
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if currency == "" {
		currency = task.Currency
	}

	now := time.Now().UTC()
	offer := &model.Offer{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		TaskerID:  taskerID,
		Amount:    amount,
		Currency:  strings.ToUpper(currency),
		Message:   message,
		Status:    constants.OfferPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	l.notify(ctx, "offer_received", task.CreatedBy, map[string]string{
		"task_id":  taskID,
		"offer_id": offer.ID,
	})
	return offer, nil
}

// Accept resolves the winning offer. In one atomic unit it marks the offer
// accepted, moves the task open → todo with assignment, creates the
// Transaction record, and rejects every other pending offer. A concurrent
// acceptance loses the task CAS and fails with TaskNotOpen.
func (l *OfferLedger) Accept(ctx context.Context, taskID, offerID string, actor Actor) (*AcceptResult, error) {
	task, err := l.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if actor.ID != task.CreatedBy {
		return nil, apperrors.ErrForbiddenActor
	}
	if task.Status != constants.TaskOpen {
		return nil, apperrors.ErrTaskNotOpen
	}

	offer, err := l.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.TaskID != task.ID {
		return nil, apperrors.ErrOfferNotFound.WithMessage("offer does not belong to this task")
	}
	if offer.Status != constants.OfferPending {
		return nil, apperrors.ErrOfferNotPending
	}

	breakdown, err := pricing.CalculateServiceFee(offer.Amount, offer.Currency, l.fees.Snapshot())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &model.Transaction{
		ID:            uuid.NewString(),
		TaskID:        task.ID,
		OfferID:       offer.ID,
		PosterID:      task.CreatedBy,
		TaskerID:      offer.TaskerID,
		Amount:        offer.Amount,
		ServiceFee:    breakdown.ServiceFee,
		TotalAmount:   breakdown.TotalAmount,
		Currency:      offer.Currency,
		PaymentStatus: constants.PaymentRequiresMethod,
		TaskStatus:    constants.TaskTodo,
		ServiceType:   serviceTypeFromCategory(task.Category),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The task CAS is the single-winner arbiter and runs first: a
		// racing acceptance loses here and reports TaskNotOpen before any
		// offer state is touched.
		if err := l.tasks.WithTx(tx).UpdateStatusCAS(ctx, task.ID, constants.TaskOpen, map[string]interface{}{
			"status":      constants.TaskTodo,
			"assigned_to": offer.TaskerID,
			"assigned_at": now,
		}); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				logging.Logger.Warnf("task %s: concurrent acceptance lost the race", task.ID)
				return apperrors.ErrTaskNotOpen
			}
			return apperrors.ErrOfferAcceptanceFailed.Wrap(err)
		}

		if err := l.offers.WithTx(tx).UpdateStatusCAS(ctx, offer.ID, constants.OfferPending, map[string]interface{}{
			"status":     constants.OfferAccepted,
			"updated_at": now,
		}); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return apperrors.ErrOfferNotPending
			}
			return apperrors.ErrOfferAcceptanceFailed.Wrap(err)
		}

		if err := l.tasks.WithTx(tx).AppendHistory(ctx, &model.StatusChange{
			TaskID:    task.ID,
			Status:    constants.TaskTodo,
			ChangedBy: actor.ID,
			ChangedAt: now,
			Reason:    "Offer accepted",
		}); err != nil {
			return apperrors.ErrOfferAcceptanceFailed.Wrap(err)
		}

		if err := l.transactions.WithTx(tx).Create(ctx, record); err != nil {
			return apperrors.ErrOfferAcceptanceFailed.Wrap(err)
		}

		if err := l.offers.WithTx(tx).RejectOthers(ctx, task.ID, offer.ID, now); err != nil {
			return apperrors.ErrOfferAcceptanceFailed.Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.notify(ctx, "offer_accepted", offer.TaskerID, map[string]string{
		"task_id":  task.ID,
		"offer_id": offer.ID,
	})

	updatedTask, err := l.tasks.FindWithHistory(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	updatedOffer, err := l.offers.FindByID(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	return &AcceptResult{Task: updatedTask, Offer: updatedOffer, Transaction: record}, nil
}

// Reject lets the poster turn down a pending offer on their task.
func (l *OfferLedger) Reject(ctx context.Context, offerID string, actor Actor) (*model.Offer, error) {
	offer, err := l.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	task, err := l.tasks.FindByID(ctx, offer.TaskID)
	if err != nil {
		return nil, err
	}
	if actor.ID != task.CreatedBy {
		return nil, apperrors.ErrForbiddenActor
	}

	now := time.Now().UTC()
	err = l.offers.UpdateStatusCAS(ctx, offerID, constants.OfferPending, map[string]interface{}{
		"status":      constants.OfferRejected,
		"rejected_at": now,
		"updated_at":  now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.ErrOfferNotPending
		}
		return nil, err
	}

	l.notify(ctx, "offer_rejected", offer.TaskerID, map[string]string{
		"task_id":  offer.TaskID,
		"offer_id": offer.ID,
	})
	return l.offers.FindByID(ctx, offerID)
}

// Withdraw lets a tasker pull their own pending offer.
func (l *OfferLedger) Withdraw(ctx context.Context, offerID string, actor Actor) (*model.Offer, error) {
	offer, err := l.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actor.ID != offer.TaskerID {
		return nil, apperrors.ErrForbiddenActor
	}

	now := time.Now().UTC()
	err = l.offers.UpdateStatusCAS(ctx, offerID, constants.OfferPending, map[string]interface{}{
		"status":     constants.OfferWithdrawn,
		"updated_at": now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.ErrOfferNotPending
		}
		return nil, err
	}
	return l.offers.FindByID(ctx, offerID)
}

// ListForTask returns the poster's decision view, newest first.
func (l *OfferLedger) ListForTask(ctx context.Context, taskID string) ([]model.Offer, error) {
	if _, err := l.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return l.offers.ListByTask(ctx, taskID)
}

// RelevantForTask resolves the offer the read path should show, preferring
// an accepted offer over pending ones.
func (l *OfferLedger) RelevantForTask(ctx context.Context, taskID string) (*model.Offer, error) {
	if _, err := l.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return l.offers.RelevantForTask(ctx, taskID)
}

func (l *OfferLedger) notify(ctx context.Context, event, recipient string, payload map[string]string) {
	if l.dispatcher == nil {
		return
	}
	body := map[string]string{"event": event, "recipient": recipient}
	for k, v := range payload {
		body[k] = v
	}
	l.dispatcher.Enqueue(ctx, outbox.NewJob(outbox.JobNotification, body))
}

// serviceTypeFromCategory derives the transaction's service type from the
// first listed category.
func serviceTypeFromCategory(category string) string {
	parts := strings.Split(category, ",")
	first := strings.TrimSpace(parts[0])
	if first == "" {
		return "Other"
	}
	return first
}
