package store

import "insightmart/internal/platform/logger"

// Option adjusts a Store during Open
type Option func(*Store) error

// WithLogger sets the logger handed to the backends
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}
