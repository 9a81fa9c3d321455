package model

import (
	"time"

	"taskmarket.app/taskmarket/internal/constants"
)

type Offer struct {
	ID          string                `gorm:"primaryKey;size:36" json:"id"`
	TaskID      string                `gorm:"size:36;not null;index" json:"task_id"`
	TaskerID    string                `gorm:"size:36;not null;index" json:"tasker_id"`
	Amount      float64               `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency    string                `gorm:"size:3;not null" json:"currency"`
	Message     string                `json:"message"`
	Status      constants.OfferStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PosterVotes int                   `json:"poster_votes,omitempty"`
	TaskerVotes int                   `json:"tasker_votes,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	RejectedAt  *time.Time            `json:"rejected_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}
