package model

import (
	"time"

	"taskmarket.app/taskmarket/internal/constants"
)

// Payment tracks the gateway-side charge for an accepted offer.
// TaskerAmount is what the tasker is paid out: amount minus service fee.
type Payment struct {
	ID            string                 `gorm:"primaryKey;size:36" json:"id"`
	TransactionID string                 `gorm:"size:36;not null;uniqueIndex" json:"transaction_id"`
	IntentRef     string                 `gorm:"not null" json:"intent_ref"`
	Amount        float64                `gorm:"type:decimal(15,2);not null" json:"amount"`
	ServiceFee    float64                `gorm:"type:decimal(15,2);not null" json:"service_fee"`
	TaskerAmount  float64                `gorm:"type:decimal(15,2);not null" json:"tasker_amount"`
	Currency      string                 `gorm:"size:3;not null" json:"currency"`
	Status        constants.IntentStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}
