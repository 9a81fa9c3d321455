package model

import (
	"time"

	"taskmarket.app/taskmarket/internal/constants"
)

type DateType string

const (
	DateFlexible DateType = "flexible"
	DateDoneBy   DateType = "done_by"
	DateDoneOn   DateType = "done_on"
)

type Task struct {
	ID           string               `gorm:"primaryKey;size:36" json:"id"`
	Title        string               `gorm:"not null" json:"title"`
	Description  string               `gorm:"not null" json:"description"`
	Category     string               `json:"category"`
	BudgetAmount float64              `gorm:"type:decimal(15,2);not null" json:"budget_amount"`
	Currency     string               `gorm:"size:3;not null" json:"currency"`
	Location     string               `json:"location"`
	DateType     DateType             `gorm:"type:varchar(10);not null;default:flexible" json:"date_type"`
	DueDate      *time.Time           `json:"due_date,omitempty"`
	DueDateEnd   *time.Time           `json:"due_date_end,omitempty"`
	Status       constants.TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedBy    string               `gorm:"size:36;not null;index" json:"created_by"`
	AssignedTo   *string              `gorm:"size:36" json:"assigned_to,omitempty"`
	Version      uint                 `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time            `json:"created_at"`
	AssignedAt   *time.Time           `json:"assigned_at,omitempty"`
	DoneAt       *time.Time           `json:"done_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	CancelledAt  *time.Time           `json:"cancelled_at,omitempty"`
	History      []StatusChange       `gorm:"foreignKey:TaskID" json:"status_history,omitempty"`
}

// StatusChange is one entry in a task's append-only status history.
type StatusChange struct {
	ID        uint                 `gorm:"primaryKey;autoIncrement" json:"-"`
	TaskID    string               `gorm:"size:36;not null;index" json:"-"`
	Status    constants.TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	ChangedBy string               `gorm:"size:36;not null" json:"changed_by"`
	ChangedAt time.Time            `gorm:"not null" json:"changed_at"`
	Reason    string               `json:"reason"`
}
