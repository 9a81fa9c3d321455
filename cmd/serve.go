package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	config "taskmarket.app/taskmarket/internal/configs"
	"taskmarket.app/taskmarket/internal/gateway"
	httpapi "taskmarket.app/taskmarket/internal/http"
	"taskmarket.app/taskmarket/internal/logging"
	"taskmarket.app/taskmarket/internal/outbox"
	"taskmarket.app/taskmarket/internal/pricing"
	repository "taskmarket.app/taskmarket/internal/repositories"
	"taskmarket.app/taskmarket/internal/services"
	"taskmarket.app/taskmarket/internal/sweeper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task marketplace API, the outbox dispatcher, and the deadline sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			logging.Logger.Info(".env file not found, using environment variables")
		}

		cfg := config.Load()
		logging.Init(cfg.LogLevel, cfg.LogFile)

		db := config.New(cfg.DatabaseDSN)

		taskRepo := repository.NewTaskRepository(db)
		offerRepo := repository.NewOfferRepository(db)
		txRepo := repository.NewTransactionRepository(db)
		paymentRepo := repository.NewPaymentRepository(db)
		userRepo := repository.NewUserRepository(db)

		fees := pricing.NewConfigService(feeConfigFrom(cfg))

		var queue outbox.Queue
		if cfg.RedisAddr != "" {
			redisClient, err := config.NewRedisClient(cfg.RedisAddr)
			if err != nil {
				return err
			}
			queue = outbox.NewRedisQueue(redisClient, cfg.RedisOutboxKey)
		} else {
			logging.Logger.Warn("REDIS_HOST not set, using in-memory outbox queue")
			queue = outbox.NewMemoryQueue(256)
		}
		defer queue.Close()

		dispatcher := outbox.NewDispatcher(queue, cfg.OutboxWorkers)

		gatewayTimeout := time.Duration(cfg.GatewayTimeoutSeconds) * time.Second
		var payments gateway.PaymentGateway
		var receipts gateway.ReceiptGenerator
		if cfg.PaymentGatewayURL != "" {
			payments = gateway.NewHTTPPaymentGateway(cfg.PaymentGatewayURL, gatewayTimeout)
		} else {
			logging.Logger.Warn("PAYMENT_GATEWAY_URL not set, using sandbox gateway")
			payments = gateway.NewSandbox()
		}
		if cfg.ReceiptServiceURL != "" {
			receipts = gateway.NewHTTPReceiptGenerator(cfg.ReceiptServiceURL, gatewayTimeout)
		} else {
			receipts = gateway.NewSandbox()
		}
		notifier := gateway.NewLogNotifier()
		identity := gateway.NewJWTIdentityProvider(cfg.JWTSecret)

		machine := services.NewTaskStateMachine(db, taskRepo, offerRepo, txRepo)
		ledger := services.NewOfferLedger(db, taskRepo, offerRepo, txRepo, fees, machine, dispatcher)
		settlement := services.NewSettlementCoordinator(
			db, machine, taskRepo, offerRepo, txRepo, paymentRepo, userRepo,
			payments, dispatcher, gatewayTimeout,
		)
		machine.SetSettler(settlement.Settle)
		paymentService := services.NewPaymentService(db, txRepo, paymentRepo, payments, gatewayTimeout)
		taskService := services.NewTaskService(taskRepo, userRepo)

		services.RegisterOutboxHandlers(dispatcher, settlement, receipts, notifier)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dispatcher.Start(ctx)

		sweep := sweeper.New(taskRepo, machine)
		if err := sweep.Start(cfg.SweepSchedule); err != nil {
			return err
		}

		e := echo.New()
		handler := httpapi.NewHandler(taskService, machine, ledger, settlement, paymentService, fees)
		httpapi.Register(e, handler, identity, cfg.RateLimit, cfg.AdminSubjects)

		go func() {
			logging.Logger.Infof("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				logging.Logger.Infof("server stopped: %v", err)
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		_ = e.Shutdown(shutdownCtx)
		sweep.Stop()
		dispatcher.Stop()

		logging.Logger.Info("server, sweeper and outbox dispatcher shut down gracefully")
		return nil
	},
}

func feeConfigFrom(cfg config.Config) pricing.FeeConfig {
	fees := pricing.DefaultFeeConfig()
	fees.BasePercentage = cfg.FeeBasePercentage
	fees.MinFeeUSD = cfg.MinFeeUSD
	fees.MaxFeeUSD = cfg.MaxFeeUSD
	return fees
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
