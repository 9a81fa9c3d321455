package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskmarket.app/taskmarket/internal/constants"
	"taskmarket.app/taskmarket/internal/gateway"
	model "taskmarket.app/taskmarket/internal/models"
	"taskmarket.app/taskmarket/internal/pricing"
	repository "taskmarket.app/taskmarket/internal/repositories"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.StatusChange{},
		&model.Offer{},
		&model.Transaction{},
		&model.Payment{},
	))
	return db
}

// fakeGateway stands in for the payment processor. Capture can be made to
// fail to exercise the degraded settlement path.
type fakeGateway struct {
	mu           sync.Mutex
	failCapture  bool
	createCalls  int
	captureCalls int
}

func (g *fakeGateway) CreateChargeIntent(_ context.Context, _ float64, _ string, _ map[string]string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	return "pi_" + uuid.NewString(), nil
}

func (g *fakeGateway) CaptureIntent(_ context.Context, intentRef string) (*gateway.CaptureResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captureCalls++
	if g.failCapture {
		return nil, errors.New("gateway declined the charge")
	}
	return &gateway.CaptureResult{
		IntentRef:  intentRef,
		Status:     "succeeded",
		CapturedAt: time.Now().UTC(),
	}, nil
}

func (g *fakeGateway) setFailCapture(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failCapture = fail
}

func (g *fakeGateway) captures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captureCalls
}

type testEnv struct {
	db           *gorm.DB
	tasks        *repository.TaskRepository
	offers       *repository.OfferRepository
	transactions *repository.TransactionRepository
	payments     *repository.PaymentRepository
	users        *repository.UserRepository
	fees         *pricing.ConfigService
	gateway      *fakeGateway
	machine      *TaskStateMachine
	ledger       *OfferLedger
	settlement   *SettlementCoordinator
	paymentSvc   *PaymentService
	taskSvc      *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		db:           db,
		tasks:        repository.NewTaskRepository(db),
		offers:       repository.NewOfferRepository(db),
		transactions: repository.NewTransactionRepository(db),
		payments:     repository.NewPaymentRepository(db),
		users:        repository.NewUserRepository(db),
		fees:         pricing.NewConfigService(pricing.DefaultFeeConfig()),
		gateway:      &fakeGateway{},
	}

	env.machine = NewTaskStateMachine(db, env.tasks, env.offers, env.transactions)
	env.ledger = NewOfferLedger(db, env.tasks, env.offers, env.transactions, env.fees, env.machine, nil)
	env.settlement = NewSettlementCoordinator(
		db, env.machine, env.tasks, env.offers, env.transactions,
		env.payments, env.users, env.gateway, nil, time.Second,
	)
	env.machine.SetSettler(env.settlement.Settle)
	env.paymentSvc = NewPaymentService(db, env.transactions, env.payments, env.gateway, time.Second)
	env.taskSvc = NewTaskService(env.tasks, env.users)

	return env
}

func (env *testEnv) createOpenTask(t *testing.T, posterID string, budget float64) *model.Task {
	t.Helper()

	task, err := env.taskSvc.Create(context.Background(), posterID, CreateTaskInput{
		Title:        "Assemble flat-pack wardrobe",
		Description:  "Two wardrobes, tools provided",
		Category:     "Furniture Assembly, Handyman",
		BudgetAmount: budget,
		Currency:     "USD",
		Location:     "Brooklyn",
	})
	require.NoError(t, err)
	require.Equal(t, constants.TaskOpen, task.Status)
	return task
}

func (env *testEnv) createPendingOffer(t *testing.T, taskID, taskerID string, amount float64) *model.Offer {
	t.Helper()

	offer, err := env.ledger.Create(context.Background(), taskID, taskerID, amount, "USD", "can do it this week")
	require.NoError(t, err)
	require.Equal(t, constants.OfferPending, offer.Status)
	return offer
}

// settleReady takes a fresh task all the way to done with a captured-ready
// payment intent, returning the task and the accepted offer.
func (env *testEnv) settleReady(t *testing.T, posterID, taskerID string, budget, offerAmount float64) (*model.Task, *model.Offer) {
	t.Helper()
	ctx := context.Background()

	task := env.createOpenTask(t, posterID, budget)
	offer := env.createPendingOffer(t, task.ID, taskerID, offerAmount)

	_, err := env.ledger.Accept(ctx, task.ID, offer.ID, Actor{ID: posterID})
	require.NoError(t, err)

	_, err = env.paymentSvc.CreateIntent(ctx, task.ID, Actor{ID: posterID})
	require.NoError(t, err)

	_, err = env.machine.MarkDone(ctx, task.ID, Actor{ID: taskerID}, "")
	require.NoError(t, err)

	updated, err := env.tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	accepted, err := env.offers.FindByID(ctx, offer.ID)
	require.NoError(t, err)
	return updated, accepted
}
