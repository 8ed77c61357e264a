package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout is the default timeout for most database operations
	DefaultTimeout = 10 * time.Second

	// ShortTimeout is for quick operations (cache lookups, etc.)
	ShortTimeout = 2 * time.Second

	// IngestTimeout bounds a full re-ingestion run, which embeds every
	// entity in the catalog in one synchronous pass.
	IngestTimeout = 30 * time.Minute
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithShortTimeout creates a context with short timeout for quick operations
func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}

// WithIngestTimeout creates a context bounding a collection rebuild
func WithIngestTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, IngestTimeout)
}
