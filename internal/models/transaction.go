package model

import (
	"time"

	"taskmarket.app/taskmarket/internal/constants"
)

// Transaction is the financial record created when an offer is accepted.
// TaskStatus mirrors the owning task's status and is written in the same
// database transaction as every task status change.
type Transaction struct {
	ID            string                  `gorm:"primaryKey;size:36" json:"id"`
	TaskID        string                  `gorm:"size:36;not null;uniqueIndex" json:"task_id"`
	OfferID       string                  `gorm:"size:36;not null" json:"offer_id"`
	PosterID      string                  `gorm:"size:36;not null" json:"poster_id"`
	TaskerID      string                  `gorm:"size:36;not null" json:"tasker_id"`
	Amount        float64                 `gorm:"type:decimal(15,2);not null" json:"amount"`
	ServiceFee    float64                 `gorm:"type:decimal(15,2);not null" json:"service_fee"`
	TotalAmount   float64                 `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	Currency      string                  `gorm:"size:3;not null" json:"currency"`
	PaymentStatus constants.PaymentStatus `gorm:"type:varchar(30);not null" json:"payment_status"`
	TaskStatus    constants.TaskStatus    `gorm:"type:varchar(20);not null" json:"task_status"`
	ServiceType   string                  `gorm:"not null" json:"service_type"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}
