package jobs

import (
	"context"
	"log"

	"coachly/internal/service"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the background jobs. Currently just the withdrawal status
// poller, every five minutes.
type Scheduler struct {
	cron          *cron.Cron
	withdrawalSvc *service.WithdrawalService
}

func NewScheduler(withdrawalSvc *service.WithdrawalService) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		withdrawalSvc: withdrawalSvc,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("*/5 * * * *", func() {
		s.withdrawalSvc.CheckPending(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Println("[Jobs] scheduler started, withdrawal checker runs every 5 minutes")
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[Jobs] scheduler stopped")
}
