package model

import "time"

type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PosterVotes    int       `gorm:"not null;default:0" json:"poster_votes"`
	TaskerVotes    int       `gorm:"not null;default:0" json:"tasker_votes"`
	TasksPosted    int       `gorm:"not null;default:0" json:"tasks_posted"`
	TasksPerformed int       `gorm:"not null;default:0" json:"tasks_performed"`
	CreatedAt      time.Time `json:"created_at"`
}
