package http

import (
	"time"

	"github.com/labstack/echo/v4"

	"taskmarket.app/taskmarket/internal/gateway"
	middleware "taskmarket.app/taskmarket/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, identity gateway.IdentityProvider, rateLimitPerMinute int, adminSubjects []string) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	e.GET("/tasks", h.ListTasks)
	e.GET("/tasks/:id", h.GetTask)
	e.GET("/tasks/:id/offers/relevant", h.RelevantOffer)
	e.GET("/fees/quote", h.QuoteFee)

	auth := e.Group("", middleware.Authenticate(identity))
	auth.POST("/tasks", h.CreateTask)
	auth.POST("/tasks/:id/offers", h.CreateOffer)
	auth.GET("/tasks/:id/offers", h.ListOffers)
	auth.POST("/tasks/:id/offers/:offerId/accept", h.AcceptOffer)
	auth.POST("/tasks/:id/done", h.MarkDone)
	auth.POST("/tasks/:id/complete", h.ConfirmCompletion)
	auth.POST("/tasks/:id/cancel", h.CancelTask)
	auth.POST("/tasks/:id/transition", h.TransitionTask)
	auth.POST("/tasks/:id/payment-intent", h.CreatePaymentIntent)
	auth.GET("/tasks/:id/payment", h.GetPayment)
	auth.POST("/offers/:id/reject", h.RejectOffer)
	auth.POST("/offers/:id/withdraw", h.WithdrawOffer)
	auth.PUT("/admin/fees", h.UpdateFeeConfig, middleware.RequireSubject(adminSubjects))
}
