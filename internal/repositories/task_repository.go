package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
	model "taskmarket.app/taskmarket/internal/models"
)

// ErrStatusConflict reports a lost compare-and-swap: the row's status no
// longer matched the expected value when the update ran.
var ErrStatusConflict = errors.New("status conflict")

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindWithHistory(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at asc, id asc")
		}).
		First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&tasks).Error
	return tasks, err
}

// UpdateStatusCAS applies updates to the task only if its status still
// equals expected. RowsAffected == 0 means another writer got there first.
func (r *TaskRepository) UpdateStatusCAS(
	ctx context.Context,
	taskID string,
	expected constants.TaskStatus,
	updates map[string]interface{},
) error {
	updates["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ?", taskID, expected).
		Updates(updates)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *TaskRepository) AppendHistory(ctx context.Context, change *model.StatusChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

// ListOpenPastDue returns open tasks whose due date has passed, for the
// deadline sweeper to expire.
func (r *TaskRepository) ListOpenPastDue(ctx context.Context, now time.Time, limit int) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", constants.TaskOpen, now).
		Order("due_date asc").Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// ListAssignedPastDue returns todo tasks whose due date has passed, for
// the deadline sweeper to mark overdue.
func (r *TaskRepository) ListAssignedPastDue(ctx context.Context, now time.Time, limit int) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", constants.TaskTodo, now).
		Order("due_date asc").Limit(limit).
		Find(&tasks).Error
	return tasks, err
}
