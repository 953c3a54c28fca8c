// services/scheduler.go
package services

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const defaultSweepIntervalMinutes = 10

// StartSweepScheduler runs periodic reward sweeps in the background.
// The interval comes from SWEEP_INTERVAL_MINUTES, defaulting to 10.
func (s *Sweeper) StartSweepScheduler() {
	interval := defaultSweepIntervalMinutes
	if v := os.Getenv("SWEEP_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = n
		}
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(time.Duration(interval)*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			entries, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("[Scheduler] Sweep failed: %v", err)
				return
			}
			log.Printf("[Scheduler] ✅ Sweep processed %d bounties", len(entries))
		}),
	)

	log.Printf("[Scheduler] Reward sweep scheduled every %d minutes", interval)
}
