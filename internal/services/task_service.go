package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmarket.app/taskmarket/internal/constants"
	apperrors "taskmarket.app/taskmarket/internal/errors"
	model "taskmarket.app/taskmarket/internal/models"
	repository "taskmarket.app/taskmarket/internal/repositories"
)

// TaskService covers task creation and the read paths. Status changes are
// owned by the state machine and the offer ledger, never written here.
type TaskService struct {
	tasks *repository.TaskRepository
	users *repository.UserRepository
}

func NewTaskService(tasks *repository.TaskRepository, users *repository.UserRepository) *TaskService {
	return &TaskService{tasks: tasks, users: users}
}

type CreateTaskInput struct {
	Title        string
	Description  string
	Category     string
	BudgetAmount float64
	Currency     string
	Location     string
	DateType     model.DateType
	DueDate      *time.Time
	DueDateEnd   *time.Time
}

func (s *TaskService) Create(ctx context.Context, posterID string, in CreateTaskInput) (*model.Task, error) {
	if in.BudgetAmount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if _, err := s.users.EnsureExists(ctx, posterID); err != nil {
		return nil, err
	}
	if in.DateType == "" {
		in.DateType = model.DateFlexible
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		BudgetAmount: in.BudgetAmount,
		Currency:     strings.ToUpper(in.Currency),
		Location:     in.Location,
		DateType:     in.DateType,
		DueDate:      in.DueDate,
		DueDateEnd:   in.DueDateEnd,
		Status:       constants.TaskOpen,
		CreatedBy:    posterID,
		Version:      1,
		CreatedAt:    now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.tasks.FindWithHistory(ctx, id)
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.tasks.List(ctx)
}
