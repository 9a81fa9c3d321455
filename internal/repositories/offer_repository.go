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

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) WithTx(tx *gorm.DB) *OfferRepository {
	return &OfferRepository{db: tx}
}

func (r *OfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *OfferRepository) FindByID(ctx context.Context, id string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

// ListByTask returns a task's offers newest-first, the order the poster
// sees them in the decision view.
func (r *OfferRepository) ListByTask(ctx context.Context, taskID string) ([]model.Offer, error) {
	var offers []model.Offer
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at desc").
		Find(&offers).Error
	return offers, err
}

// RelevantForTask resolves the offer a read path should show for a task:
// accepted beats pending, newest wins within a tier.
func (r *OfferRepository) RelevantForTask(ctx context.Context, taskID string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND status IN ?", taskID,
			[]constants.OfferStatus{constants.OfferAccepted, constants.OfferCompleted, constants.OfferPending}).
		Order("CASE status WHEN 'accepted' THEN 0 WHEN 'completed' THEN 1 ELSE 2 END, created_at desc").
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *OfferRepository) FindAcceptedByTask(ctx context.Context, taskID string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND status = ?", taskID, constants.OfferAccepted).
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoAcceptedOffer
		}
		return nil, err
	}
	return &offer, nil
}

// UpdateStatusCAS moves the offer's status only if it still equals expected.
func (r *OfferRepository) UpdateStatusCAS(
	ctx context.Context,
	offerID string,
	expected constants.OfferStatus,
	updates map[string]interface{},
) error {
	res := r.db.WithContext(ctx).Model(&model.Offer{}).
		Where("id = ? AND status = ?", offerID, expected).
		Updates(updates)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// RejectOthers turns every pending offer on the task except the winner
// into rejected. Runs inside the acceptance transaction.
func (r *OfferRepository) RejectOthers(ctx context.Context, taskID, winnerID string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Offer{}).
		Where("task_id = ? AND id <> ? AND status = ?", taskID, winnerID, constants.OfferPending).
		Updates(map[string]interface{}{
			"status":      constants.OfferRejected,
			"rejected_at": now,
			"updated_at":  now,
		}).Error
}

// RejectAllActive rejects every pending or accepted offer on the task.
// Used when a task is cancelled.
func (r *OfferRepository) RejectAllActive(ctx context.Context, taskID string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Offer{}).
		Where("task_id = ? AND status IN ?", taskID,
			[]constants.OfferStatus{constants.OfferPending, constants.OfferAccepted}).
		Updates(map[string]interface{}{
			"status":      constants.OfferRejected,
			"rejected_at": now,
			"updated_at":  now,
		}).Error
}

// CountAcceptedByTask exists for invariant checks in tests and audits.
func (r *OfferRepository) CountAcceptedByTask(ctx context.Context, taskID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Offer{}).
		Where("task_id = ? AND status = ?", taskID, constants.OfferAccepted).
		Count(&n).Error
	return n, err
}
