package repository

import (
	"time"

	"github.com/okian/peereval/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithClock overrides the timestamp source for new and refreshed rows.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBusyTimeout sets how long sqlite waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
