package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"taskmarket.app/taskmarket/internal/constants"
	model "taskmarket.app/taskmarket/internal/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *TransactionRepository) FindByTask(ctx context.Context, taskID string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).First(&tx, "task_id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// SyncTaskStatus mirrors a task status change onto its transaction record.
// Invoked inside the same database transaction as the task update.
func (r *TransactionRepository) SyncTaskStatus(
	ctx context.Context,
	taskID string,
	status constants.TaskStatus,
	now time.Time,
) error {
	return r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("task_id = ?", taskID).
		Updates(map[string]interface{}{
			"task_status": status,
			"updated_at":  now,
		}).Error
}

func (r *TransactionRepository) UpdatePaymentStatus(
	ctx context.Context,
	taskID string,
	status constants.PaymentStatus,
	now time.Time,
) error {
	return r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("task_id = ?", taskID).
		Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     now,
		}).Error
}
