package routes

import "github.com/pablo-ross/komornicka100/pkg/logger"

// Option applies a configuration option to the Library.
type Option func(*Library)

// WithLogger sets the library logger.
func WithLogger(l logger.Logger) Option {
	return func(lib *Library) {
		if l != nil {
			lib.logger = l
		}
	}
}
