package blocklist

import (
	"go.uber.org/zap"

	"github.com/outofforest/blocklist/alloc"
)

// Option configures the list.
type Option func(l *List)

// WithAllocator sets the allocator used for slot arrays and element buffers.
func WithAllocator(a alloc.Allocator) Option {
	return func(l *List) {
		l.allocator = a
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *List) {
		l.log = log
	}
}
