package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
	"taskmarket.app/taskmarket/internal/gateway"
	"taskmarket.app/taskmarket/internal/logging"
	model "taskmarket.app/taskmarket/internal/models"
	"taskmarket.app/taskmarket/internal/outbox"
	"taskmarket.app/taskmarket/internal/pricing"
	repository "taskmarket.app/taskmarket/internal/repositories"
)

// SettlementResult is what a completion confirmation returns. Warnings
// carry degraded-but-successful outcomes (payment pending reconciliation,
// receipts deferred); the task itself is already completed.
type SettlementResult struct {
	Task            *model.Task        `json:"task"`
	Offer           *model.Offer       `json:"offer"`
	Votes           pricing.VoteCredit `json:"votes"`
	PaymentCaptured bool               `json:"payment_captured"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// SettlementCoordinator runs the done → completed flow: commit the status
// first, then capture payment, credit reputation, complete the offer, and
// hand receipts and notifications to the outbox. Once the status commit
// lands the operation is forward-only; downstream failures degrade the
// result instead of rolling it back.
type SettlementCoordinator struct {
	db             *gorm.DB
	machine        *TaskStateMachine
	tasks          *repository.TaskRepository
	offers         *repository.OfferRepository
	transactions   *repository.TransactionRepository
	payments       *repository.PaymentRepository
	users          *repository.UserRepository
	gateway        gateway.PaymentGateway
	dispatcher     *outbox.Dispatcher
	captureTimeout time.Duration
}

func NewSettlementCoordinator(
	db *gorm.DB,
	machine *TaskStateMachine,
	tasks *repository.TaskRepository,
	offers *repository.OfferRepository,
	transactions *repository.TransactionRepository,
	payments *repository.PaymentRepository,
	users *repository.UserRepository,
	gw gateway.PaymentGateway,
	dispatcher *outbox.Dispatcher,
	captureTimeout time.Duration,
) *SettlementCoordinator {
	if captureTimeout <= 0 {
		captureTimeout = 10 * time.Second
	}
	return &SettlementCoordinator{
		db:             db,
		machine:        machine,
		tasks:          tasks,
		offers:         offers,
		transactions:   transactions,
		payments:       payments,
		users:          users,
		gateway:        gw,
		dispatcher:     dispatcher,
		captureTimeout: captureTimeout,
	}
}

// Settle confirms completion of a done task.
func (s *SettlementCoordinator) Settle(
	ctx context.Context,
	taskID string,
	actor Actor,
	reason string,
) (*SettlementResult, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(task.Status, constants.TaskCompleted) {
		return nil, apperrors.NewInvalidTransition(string(task.Status), string(constants.TaskCompleted))
	}
	if actor.ID != task.CreatedBy {
		return nil, apperrors.ErrForbiddenActor
	}

	// Defensive: the invariants make a done task without an accepted offer
	// unreachable, but settlement must not proceed on a broken aggregate.
	offer, err := s.offers.FindAcceptedByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	votes, err := pricing.CalculateVotes(task.BudgetAmount, offer.Amount)
	if err != nil {
		return nil, err
	}

	// Status commits first, independent of everything downstream: the
	// poster's confirmation must be visible even if capture is delayed.
	// A concurrent confirmation loses this CAS and gets InvalidTransition.
	now := time.Now().UTC()
	err = s.machine.Commit(ctx, task, constants.TaskCompleted, actor, reason, map[string]interface{}{
		"completed_at": now,
	}, nil)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{Votes: votes}

	captured := s.capturePayment(ctx, taskID, result)
	if captured {
		if err := s.applyCredit(ctx, task, offer, votes); err != nil {
			// Credit is retried by reconciliation; completion stands.
			logging.Logger.Errorf("task %s: vote credit failed: %v", taskID, err)
			result.Warnings = append(result.Warnings, "reputation credit deferred")
			s.enqueueReconciliation(ctx, taskID)
		}
	}

	s.enqueueReceipts(ctx, task, offer)

	result.Task, err = s.tasks.FindWithHistory(ctx, taskID)
	if err != nil {
		return nil, err
	}
	result.Offer, err = s.offers.FindByID(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// capturePayment confirms the charge with the gateway and records the
// outcome. On failure the payment is flagged and a reconciliation job is
// queued; the task status is never reverted.
func (s *SettlementCoordinator) capturePayment(ctx context.Context, taskID string, result *SettlementResult) bool {
	record, err := s.transactions.FindByTask(ctx, taskID)
	if err != nil {
		logging.Logger.Errorf("task %s: no transaction record at settlement: %v", taskID, err)
		result.Warnings = append(result.Warnings, "payment capture pending reconciliation")
		s.enqueueReconciliation(ctx, taskID)
		return false
	}

	payment, err := s.payments.FindByTransaction(ctx, record.ID)
	if err != nil {
		logging.Logger.Warnf("task %s: no payment intent at settlement: %v", taskID, err)
		result.Warnings = append(result.Warnings, "payment capture pending reconciliation")
		s.enqueueReconciliation(ctx, taskID)
		return false
	}

	captureCtx, cancel := context.WithTimeout(ctx, s.captureTimeout)
	defer cancel()

	if _, err := s.gateway.CaptureIntent(captureCtx, payment.IntentRef); err != nil {
		captureErr := apperrors.ErrPaymentCaptureFailed.Wrap(err)
		logging.Logger.Errorf("task %s: %v", taskID, captureErr)

		now := time.Now().UTC()
		if err := s.payments.UpdateStatus(ctx, payment.ID, constants.IntentFailed, now); err != nil {
			logging.Logger.Errorf("task %s: flagging payment failed: %v", taskID, err)
		}
		if err := s.transactions.UpdatePaymentStatus(ctx, taskID, constants.PaymentFailed, now); err != nil {
			logging.Logger.Errorf("task %s: flagging transaction failed: %v", taskID, err)
		}

		result.Warnings = append(result.Warnings, "payment capture failed, reconciliation scheduled")
		s.enqueueReconciliation(ctx, taskID)
		return false
	}

	now := time.Now().UTC()
	if err := s.payments.UpdateStatus(ctx, payment.ID, constants.IntentCompleted, now); err != nil {
		logging.Logger.Errorf("task %s: recording capture failed: %v", taskID, err)
	}
	if err := s.transactions.UpdatePaymentStatus(ctx, taskID, constants.PaymentSucceeded, now); err != nil {
		logging.Logger.Errorf("task %s: recording transaction capture failed: %v", taskID, err)
	}

	result.PaymentCaptured = true
	return true
}

// applyCredit marks the accepted offer completed and increments both
// parties' reputation counters in one transaction. The offer CAS is the
// exactly-once guard: a second attempt finds the offer already completed
// and does nothing.
func (s *SettlementCoordinator) applyCredit(
	ctx context.Context,
	task *model.Task,
	offer *model.Offer,
	votes pricing.VoteCredit,
) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.offers.WithTx(tx).UpdateStatusCAS(ctx, offer.ID, constants.OfferAccepted, map[string]interface{}{
			"status":       constants.OfferCompleted,
			"completed_at": now,
			"updated_at":   now,
			"poster_votes": votes.PosterVotes,
			"tasker_votes": votes.TaskerVotes,
		})
		if err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				// Already credited by an earlier attempt.
				return nil
			}
			return err
		}

		if err := s.users.WithTx(tx).CreditPoster(ctx, task.CreatedBy, votes.PosterVotes); err != nil {
			return err
		}
		return s.users.WithTx(tx).CreditTasker(ctx, offer.TaskerID, votes.TaskerVotes)
	})
}

// ReconcilePayment retries a deferred capture for a completed task and
// finishes the settlement steps that were skipped. Safe to run repeatedly.
func (s *SettlementCoordinator) ReconcilePayment(ctx context.Context, taskID string) error {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != constants.TaskCompleted {
		logging.Logger.Warnf("task %s: reconciliation skipped, status is %s", taskID, task.Status)
		return nil
	}

	offer, err := s.offers.FindAcceptedByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoAcceptedOffer) {
			// Credit already applied; nothing left to reconcile on the offer.
			return s.reconcileCaptureOnly(ctx, taskID)
		}
		return err
	}

	if err := s.reconcileCaptureOnly(ctx, taskID); err != nil {
		return err
	}

	votes, err := pricing.CalculateVotes(task.BudgetAmount, offer.Amount)
	if err != nil {
		return err
	}
	return s.applyCredit(ctx, task, offer, votes)
}

func (s *SettlementCoordinator) reconcileCaptureOnly(ctx context.Context, taskID string) error {
	record, err := s.transactions.FindByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if record.PaymentStatus == constants.PaymentSucceeded {
		return nil
	}

	payment, err := s.payments.FindByTransaction(ctx, record.ID)
	if err != nil {
		return err
	}

	captureCtx, cancel := context.WithTimeout(ctx, s.captureTimeout)
	defer cancel()

	if _, err := s.gateway.CaptureIntent(captureCtx, payment.IntentRef); err != nil {
		return apperrors.ErrPaymentCaptureFailed.Wrap(err)
	}

	now := time.Now().UTC()
	if err := s.payments.UpdateStatus(ctx, payment.ID, constants.IntentCompleted, now); err != nil {
		return err
	}
	return s.transactions.UpdatePaymentStatus(ctx, taskID, constants.PaymentSucceeded, now)
}

func (s *SettlementCoordinator) enqueueReconciliation(ctx context.Context, taskID string) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Enqueue(ctx, outbox.NewJob(outbox.JobReconciliation, map[string]string{
		"task_id": taskID,
	}))
}

func (s *SettlementCoordinator) enqueueReceipts(ctx context.Context, task *model.Task, offer *model.Offer) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Enqueue(ctx, outbox.NewJob(outbox.JobReceipts, map[string]string{
		"task_id":   task.ID,
		"poster_id": task.CreatedBy,
		"tasker_id": offer.TaskerID,
	}))
}
