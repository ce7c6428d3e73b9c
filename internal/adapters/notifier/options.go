package notifier

import "github.com/pablo-ross/komornicka100/pkg/logger"

// EmailOption applies a configuration option to the Email notifier.
type EmailOption func(*Email)

// WithFromName sets a display name for the From header.
func WithFromName(name string) EmailOption {
	return func(e *Email) {
		e.fromName = name
	}
}

// WithLogger sets the notifier logger.
func WithLogger(l logger.Logger) EmailOption {
	return func(e *Email) {
		if l != nil {
			e.logger = l
		}
	}
}
