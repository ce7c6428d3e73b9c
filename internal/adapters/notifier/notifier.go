// Package notifier delivers verification notifications to participants.
package notifier

import (
	"context"
	"time"
)

// Verification carries everything a notification template needs.
type Verification struct {
	Email        string
	FirstName    string
	ActivityName string
	ActivityDate time.Time
	RouteName    string
}

// Notifier sends a notification about a freshly verified activity.
// Implementations must be safe for concurrent use.
type Notifier interface {
	NotifyVerified(ctx context.Context, v Verification) error
}
