package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prasetya/credit-ledger/internal/config"
	"github.com/prasetya/credit-ledger/internal/service"
)

// Sweeper is what the cron trigger invokes; the ledger core holds no timer
// of its own.
type Sweeper interface {
	Run(ctx context.Context, now time.Time) (*service.SweepSummary, error)
}

// New builds the cron scheduler with the daily sweep job registered.
func New(cfg *config.Config, sweeper Sweeper) (*cron.Cron, error) {
	loc := cfg.GetSchedulerLocation()
	c := cron.New(cron.WithSeconds(), cron.WithLocation(loc))

	_, err := c.AddFunc(cfg.Scheduler.SweepSpec, func() {
		now := time.Now().In(loc)
		log.Printf("starting reminder sweep at %s", now.Format(time.RFC3339))

		summary, err := sweeper.Run(context.Background(), now)
		if err != nil {
			log.Printf("sweep failed: %v", err)
			return
		}

		log.Printf("sweep finished: emitted=%d failed=%d", summary.Emitted, summary.Failed)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}
