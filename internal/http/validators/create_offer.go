package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"

	dto "taskmarket.app/taskmarket/internal/data_models"
)

func ValidateCreateOfferRequest(r *dto.CreateOfferRequest) error {
	if r.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}
	return nil
}
