package ingest

import "github.com/okian/palmares/pkg/logger"

// Option applies a configuration option to the Ingestor.
type Option func(*Ingestor)

// WithConcurrency bounds how many seasons are fetched at once.
func WithConcurrency(n int) Option {
	return func(i *Ingestor) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the ingestor.
func WithLogger(l logger.Logger) Option {
	return func(i *Ingestor) {
		if l != nil {
			i.logger = l
		}
	}
}
