package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"taskmarket.app/taskmarket/internal/logging"
	repository "taskmarket.app/taskmarket/internal/repositories"
	"taskmarket.app/taskmarket/internal/services"
)

const batchSize = 50

// Sweeper applies the system-only deadline transitions on a schedule:
// open tasks past their due date expire, assigned tasks past theirs go
// overdue. Each task goes through the state machine with the system
// actor, so the CAS discipline and history logging hold; a task that
// changed state under the sweeper's feet just loses its CAS and is
// skipped.
type Sweeper struct {
	tasks   *repository.TaskRepository
	machine *services.TaskStateMachine
	cron    *cron.Cron
}

func New(tasks *repository.TaskRepository, machine *services.TaskStateMachine) *Sweeper {
	return &Sweeper{
		tasks:   tasks,
		machine: machine,
		cron:    cron.New(),
	}
}

// Start schedules the sweep. The spec expression uses the standard
// five-field cron format, e.g. "*/5 * * * *".
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.SweepOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	logging.Logger.Infof("deadline sweeper scheduled: %s", spec)
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepOnce runs a single pass. Exported so tests and operators can
// trigger it directly.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	expired, err := s.tasks.ListOpenPastDue(ctx, now, batchSize)
	if err != nil {
		logging.Logger.Errorf("sweeper: listing open past-due tasks failed: %v", err)
	}
	for _, task := range expired {
		if _, err := s.machine.Expire(ctx, task.ID, services.SystemActor, "Due date passed without assignment"); err != nil {
			logging.Logger.Warnf("sweeper: expiring task %s failed: %v", task.ID, err)
		}
	}

	overdue, err := s.tasks.ListAssignedPastDue(ctx, now, batchSize)
	if err != nil {
		logging.Logger.Errorf("sweeper: listing assigned past-due tasks failed: %v", err)
	}
	for _, task := range overdue {
		if _, err := s.machine.MarkOverdue(ctx, task.ID, services.SystemActor, "Due date passed before completion"); err != nil {
			logging.Logger.Warnf("sweeper: marking task %s overdue failed: %v", task.ID, err)
		}
	}
}
