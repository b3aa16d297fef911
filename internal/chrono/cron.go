// Package chrono schedules callbacks on wall clock cron specs.
package chrono

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"sodatrack-backend/lib/timezone"
)

// CronAPI is the interface that anything depending on things to happen
// on a cron job should use.
type CronAPI interface {
	Cron(spec string, callback func()) error
}

// StandardCron is the standard implementation of CronAPI using
// `github.com/robfig/cron/v3`. Specs are evaluated in the collector's
// eastern timezone.
type StandardCron struct {
	cron *cron.Cron
}

// NewStandardCron is the constructor of StandardCron.
func NewStandardCron() StandardCron {
	cronner := cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithLocation(timezone.Location),
	)
	cronner.Start()

	return StandardCron{
		cron: cronner,
	}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

type cronLogger struct{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append([]any{"err", err}, keysAndValues...)...)
}
