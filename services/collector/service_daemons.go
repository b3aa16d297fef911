package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sodatrack-backend/internal/chrono"
	"sodatrack-backend/internal/weekcal"
	"sodatrack-backend/lib/timezone"
)

// StartDaemons brings up the recurring schedule. In test mode a run
// starts immediately and repeats on the configured interval, in
// production the run fires daily at the configured wall clock time
// and consolidates the month after the last weekly run.
func (s Service) StartDaemons(ctx context.Context) error {
	if s.schedule.Mode == "test" {
		slog.InfoContext(ctx, "schedule: test mode", "interval", s.schedule.TestInterval)
		go s.testScheduleDaemon(ctx)
		return nil
	}

	spec := fmt.Sprintf("%d %d * * *", s.schedule.Minute, s.schedule.Hour)
	slog.InfoContext(ctx, "schedule: production mode",
		"time", fmt.Sprintf("%02d:%02d", s.schedule.Hour, s.schedule.Minute))
	return chrono.NewStandardCron().Cron(spec, func() {
		s.runScheduled(ctx)
	})
}

func (s Service) testScheduleDaemon(ctx context.Context) {
	s.runScheduled(ctx)

	ticker := time.NewTicker(s.schedule.TestInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

// runScheduled is one scheduler tick. failures are logged and
// reported through the failure sinks inside RunWeekly, the scheduler
// itself never dies.
func (s Service) runScheduled(ctx context.Context) {
	now := timezone.Now()
	slog.InfoContext(ctx, "scheduled run starting", "time", now.Format(time.RFC3339))

	result, err := s.RunWeekly(ctx, RunRequest{})
	if err != nil {
		slog.ErrorContext(ctx, "scheduled weekly run failed", "err", err)
		return
	}
	slog.InfoContext(ctx, "scheduled run finished",
		"dataset", result.DatasetPath, "products", result.Products)

	if weekcal.IsLastWeek(now) {
		if _, err := s.RunMonthly(ctx, now); err != nil {
			slog.ErrorContext(ctx, "monthly consolidation failed", "err", err)
		}
	}
}
