package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/pkg/logger"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 30 * time.Second

// Expirer is satisfied by service.WaitlistService.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (*service.SweepResult, error)
}

// WaitlistSweeper periodically expires waitlist offers whose response window
// has passed and hands the seat to the next waiting user.
type WaitlistSweeper struct {
	cron    *cron.Cron
	expirer Expirer
	log     *slog.Logger
}

func NewWaitlistSweeper(schedule string, expirer Expirer, log *slog.Logger) (*WaitlistSweeper, error) {
	s := &WaitlistSweeper{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		expirer: expirer,
		log:     logger.Component(log, "sweeper"),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule waitlist sweep %q: %w", schedule, err)
	}
	s.log.Info("scheduled", "schedule", schedule)
	return s, nil
}

func (s *WaitlistSweeper) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *WaitlistSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *WaitlistSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce performs a single sweep.
func (s *WaitlistSweeper) RunOnce(ctx context.Context) {
	res, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error("waitlist sweep failed", "err", err)
	}
	if res == nil {
		return
	}
	if len(res.Expired) > 0 || len(res.Promoted) > 0 {
		s.log.Info("waitlist sweep", "expired", len(res.Expired), "promoted", len(res.Promoted))
	}
}
