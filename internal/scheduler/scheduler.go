package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"StockForecast/internal/model"
)

// Refresher purges and pre-warms the price cache.
type Refresher interface {
	Refresh(ctx context.Context, start, end time.Time) int
}

// Scheduler manages the cron tasks.
type Scheduler struct {
	Cron   *cron.Cron
	Loader Refresher
	// From returns the first day of the history window loaded on refresh.
	From func() (time.Time, error)
	Ctx  context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, loader Refresher, from func() (time.Time, error)) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Loader: loader,
		From:   from,
		Ctx:    ctx,
		now:    time.Now,
	}
}

// RegisterRefresh registers the cache refresh task. An empty spec disables it.
func (s *Scheduler) RegisterRefresh(spec string) error {
	if spec == "" {
		log.Println("[INFO] refresh schedule disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	log.Printf("[INFO] refresh scheduled: %s", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately (for RUN_ON_START) and
// returns the number of tickers loaded.
func (s *Scheduler) RunRefreshNow() int {
	return s.refresh()
}

func (s *Scheduler) refreshTask() { s.refresh() }

func (s *Scheduler) refresh() int {
	log.Println("[INFO] running cache refresh")
	start, err := s.From()
	if err != nil {
		log.Printf("[ERROR] refresh window: %v", err)
		return 0
	}
	return s.Loader.Refresh(s.Ctx, start, model.Day(s.now()))
}
