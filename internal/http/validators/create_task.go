package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"

	dto "taskmarket.app/taskmarket/internal/data_models"
	model "taskmarket.app/taskmarket/internal/models"
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	if r.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if r.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}
	if r.BudgetAmount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "budget_amount must be positive")
	}
	switch r.DateType {
	case "", model.DateFlexible:
	case model.DateDoneBy, model.DateDoneOn:
		if r.DueDate == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "due_date is required for this date type")
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date_type")
	}
	return nil
}
