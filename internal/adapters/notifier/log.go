package notifier

import (
	"context"

	"github.com/pablo-ross/komornicka100/pkg/logger"
)

// Log is a notifier that only writes to the log. Used when SMTP is not
// configured and in tests.
type Log struct {
	logger logger.Logger
}

// NewLog creates a log-only notifier.
func NewLog() *Log {
	return &Log{logger: logger.Get().Named("notifier")}
}

// NotifyVerified logs the would-be notification.
func (l *Log) NotifyVerified(ctx context.Context, v Verification) error {
	l.logger.Info(ctx, "activity verified",
		logger.String("email", v.Email),
		logger.String("activity", v.ActivityName),
		logger.String("route", v.RouteName))
	return nil
}
