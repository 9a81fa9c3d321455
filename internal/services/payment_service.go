package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
	"taskmarket.app/taskmarket/internal/gateway"
	model "taskmarket.app/taskmarket/internal/models"
	repository "taskmarket.app/taskmarket/internal/repositories"
)

// PaymentService creates the gateway charge intent for an accepted offer.
// The charged amount uses the intent-path formula (gateway.ChargeAmount),
// which deliberately differs from the quoted budget-based service fee;
// the Payment record still carries the ledger's fee split for payout.
type PaymentService struct {
	db           *gorm.DB
	transactions *repository.TransactionRepository
	payments     *repository.PaymentRepository
	gateway      gateway.PaymentGateway
	callTimeout  time.Duration
}

func NewPaymentService(
	db *gorm.DB,
	transactions *repository.TransactionRepository,
	payments *repository.PaymentRepository,
	gw gateway.PaymentGateway,
	callTimeout time.Duration,
) *PaymentService {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &PaymentService{
		db:           db,
		transactions: transactions,
		payments:     payments,
		gateway:      gw,
		callTimeout:  callTimeout,
	}
}

// CreateIntent sets up the charge for a task's transaction. Idempotent:
// a second call returns the existing payment record.
func (s *PaymentService) CreateIntent(ctx context.Context, taskID string, actor Actor) (*model.Payment, error) {
	record, err := s.transactions.FindByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperrors.ErrTaskNotFound.WithMessage("task has no transaction to pay for")
		}
		return nil, err
	}
	if actor.ID != record.PosterID {
		return nil, apperrors.ErrForbiddenActor
	}

	if existing, err := s.payments.FindByTransaction(ctx, record.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, err
	}

	// No lock is held during the gateway round trip; the unique index on
	// transaction_id resolves a concurrent duplicate attempt.
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	intentRef, err := s.gateway.CreateChargeIntent(
		callCtx,
		gateway.ChargeAmount(record.Amount),
		record.Currency,
		map[string]string{
			"task_id":        record.TaskID,
			"transaction_id": record.ID,
		},
	)
	if err != nil {
		return nil, apperrors.ErrPaymentCaptureFailed.WithMessage("charge intent creation failed").Wrap(err)
	}

	now := time.Now().UTC()
	payment := &model.Payment{
		ID:            uuid.NewString(),
		TransactionID: record.ID,
		IntentRef:     intentRef,
		Amount:        record.Amount,
		ServiceFee:    record.ServiceFee,
		TaskerAmount:  record.Amount - record.ServiceFee,
		Currency:      record.Currency,
		Status:        constants.IntentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		return s.transactions.WithTx(tx).UpdatePaymentStatus(ctx, record.TaskID, constants.PaymentPending, now)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// FindForTask returns the payment record backing a task's transaction.
// Only the two parties to the transaction may read it.
func (s *PaymentService) FindForTask(ctx context.Context, taskID string, actor Actor) (*model.Payment, error) {
	record, err := s.transactions.FindByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}
	if actor.ID != record.PosterID && actor.ID != record.TaskerID {
		return nil, apperrors.ErrForbiddenActor
	}

	payment, err := s.payments.FindByTransaction(ctx, record.ID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}
