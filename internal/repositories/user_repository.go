package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "taskmarket.app/taskmarket/internal/errors"
	model "taskmarket.app/taskmarket/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EnsureExists provisions the local user row on first sight. Identity is
// owned by the external provider; this table only tracks reputation.
func (r *UserRepository) EnsureExists(ctx context.Context, id string) (*model.User, error) {
	user := model.User{ID: id, CreatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Where("id = ?", id).FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreditPoster adds reputation votes and a completed-task count to the
// user who posted the task, provisioning the row if needed.
func (r *UserRepository) CreditPoster(ctx context.Context, userID string, votes int) error {
	if _, err := r.EnsureExists(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"poster_votes": gorm.Expr("poster_votes + ?", votes),
			"tasks_posted": gorm.Expr("tasks_posted + 1"),
		}).Error
}

// CreditTasker adds reputation votes and a completed-task count to the
// user who performed the task, provisioning the row if needed.
func (r *UserRepository) CreditTasker(ctx context.Context, userID string, votes int) error {
	if _, err := r.EnsureExists(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"tasker_votes":    gorm.Expr("tasker_votes + ?", votes),
			"tasks_performed": gorm.Expr("tasks_performed + 1"),
		}).Error
}
