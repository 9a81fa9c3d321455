package dto

import (
	"time"

	model "taskmarket.app/taskmarket/internal/models"
)

type CreateTaskRequest struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	BudgetAmount float64        `json:"budget_amount"`
	Currency     string         `json:"currency"`
	Location     string         `json:"location"`
	DateType     model.DateType `json:"date_type"`
	DueDate      *time.Time     `json:"due_date"`
	DueDateEnd   *time.Time     `json:"due_date_end"`
}

type CreateOfferRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Message  string  `json:"message"`
}

type TransitionRequest struct {
	Reason string `json:"reason"`
}

type GenericTransitionRequest struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

type UpdateFeeConfigRequest struct {
	BasePercentage *float64           `json:"base_percentage"`
	MinFeeUSD      *float64           `json:"min_fee_usd"`
	MaxFeeUSD      *float64           `json:"max_fee_usd"`
	Rates          map[string]float64 `json:"rates"`
}
