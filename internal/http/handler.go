package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskmarket.app/taskmarket/internal/constants"
	dto "taskmarket.app/taskmarket/internal/data_models"
	apperrors "taskmarket.app/taskmarket/internal/errors"
	middleware "taskmarket.app/taskmarket/internal/http/middlewares"
	"taskmarket.app/taskmarket/internal/http/validators"
	"taskmarket.app/taskmarket/internal/logging"
	"taskmarket.app/taskmarket/internal/pricing"
	"taskmarket.app/taskmarket/internal/services"
)

type Handler struct {
	tasks      *services.TaskService
	machine    *services.TaskStateMachine
	ledger     *services.OfferLedger
	settlement *services.SettlementCoordinator
	payments   *services.PaymentService
	fees       *pricing.ConfigService
}

func NewHandler(
	tasks *services.TaskService,
	machine *services.TaskStateMachine,
	ledger *services.OfferLedger,
	settlement *services.SettlementCoordinator,
	payments *services.PaymentService,
	fees *pricing.ConfigService,
) *Handler {
	return &Handler{
		tasks:      tasks,
		machine:    machine,
		ledger:     ledger,
		settlement: settlement,
		payments:   payments,
		fees:       fees,
	}
}

func actor(c echo.Context) services.Actor {
	return middleware.Actor(c)
}

// httpError maps domain exceptions onto HTTP responses. Unexpected
// internal errors are logged in full but surface as a generic 500.
func httpError(err error) error {
	code := apperrors.StatusCode(err)
	if code == http.StatusInternalServerError {
		logging.Logger.Errorf("internal error: %v", err)
		return echo.NewHTTPError(code, "internal server error")
	}
	return echo.NewHTTPError(code, err.Error())
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), actor(c).ID, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		BudgetAmount: req.BudgetAmount,
		Currency:     req.Currency,
		Location:     req.Location,
		DateType:     req.DateType,
		DueDate:      req.DueDate,
		DueDateEnd:   req.DueDateEnd,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task id is required")
	}

	task, err := h.tasks.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ListTasks(c echo.Context) error {
	tasks, err := h.tasks.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) CreateOffer(c echo.Context) error {
	var req dto.CreateOfferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateOfferRequest(&req); err != nil {
		return err
	}

	offer, err := h.ledger.Create(
		c.Request().Context(), c.Param("id"), actor(c).ID, req.Amount, req.Currency, req.Message,
	)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, offer)
}

func (h *Handler) ListOffers(c echo.Context) error {
	offers, err := h.ledger.ListForTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":  len(offers),
		"offers": offers,
	})
}

// RelevantOffer resolves the single offer the task detail view should
// highlight: the accepted one if any, otherwise the newest pending.
func (h *Handler) RelevantOffer(c echo.Context) error {
	offer, err := h.ledger.RelevantForTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, offer)
}

func (h *Handler) AcceptOffer(c echo.Context) error {
	result, err := h.ledger.Accept(c.Request().Context(), c.Param("id"), c.Param("offerId"), actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RejectOffer(c echo.Context) error {
	offer, err := h.ledger.Reject(c.Request().Context(), c.Param("id"), actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, offer)
}

func (h *Handler) WithdrawOffer(c echo.Context) error {
	offer, err := h.ledger.Withdraw(c.Request().Context(), c.Param("id"), actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, offer)
}

func (h *Handler) MarkDone(c echo.Context) error {
	var req dto.TransitionRequest
	_ = c.Bind(&req)

	task, err := h.machine.MarkDone(c.Request().Context(), c.Param("id"), actor(c), req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ConfirmCompletion(c echo.Context) error {
	var req dto.TransitionRequest
	_ = c.Bind(&req)

	result, err := h.settlement.Settle(c.Request().Context(), c.Param("id"), actor(c), req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) CancelTask(c echo.Context) error {
	var req dto.TransitionRequest
	_ = c.Bind(&req)

	task, err := h.machine.Cancel(c.Request().Context(), c.Param("id"), actor(c), req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// TransitionTask is the generic transition entry point. Accepting an
// offer has its own endpoint because it needs the offer id.
func (h *Handler) TransitionTask(c echo.Context) error {
	var req dto.GenericTransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.Target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is required")
	}

	task, err := h.machine.Transition(
		c.Request().Context(), c.Param("id"), constants.TaskStatus(req.Target), actor(c), req.Reason,
	)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) CreatePaymentIntent(c echo.Context) error {
	payment, err := h.payments.CreateIntent(c.Request().Context(), c.Param("id"), actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *Handler) GetPayment(c echo.Context) error {
	payment, err := h.payments.FindForTask(c.Request().Context(), c.Param("id"), actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *Handler) QuoteFee(c echo.Context) error {
	var query struct {
		Amount   float64 `query:"amount"`
		Currency string  `query:"currency"`
	}
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	breakdown, err := pricing.CalculateServiceFee(query.Amount, query.Currency, h.fees.Snapshot())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, breakdown)
}

func (h *Handler) UpdateFeeConfig(c echo.Context) error {
	var req dto.UpdateFeeConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	updated := h.fees.Update(func(cfg *pricing.FeeConfig) {
		if req.BasePercentage != nil {
			cfg.BasePercentage = *req.BasePercentage
		}
		if req.MinFeeUSD != nil {
			cfg.MinFeeUSD = *req.MinFeeUSD
		}
		if req.MaxFeeUSD != nil {
			cfg.MaxFeeUSD = *req.MaxFeeUSD
		}
		for code, rate := range req.Rates {
			cfg.Rates[code] = rate
		}
	})
	return c.JSON(http.StatusOK, updated)
}
