package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/budgetguard/core/logger"
)

// cronLogger routes robfig/cron messages to slog.
type cronLogger struct {
	log *slog.Logger
}

var _ cron.Logger = cronLogger{}

// Info is used by cron for scheduling chatter, so it goes to debug.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, append([]any{logger.Component("scheduler")}, keysAndValues...)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{logger.Component("scheduler"), logger.Error(err)}, keysAndValues...)...)
}
