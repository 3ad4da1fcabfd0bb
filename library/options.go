package library

import (
	"time"
)

// Logger is the logging surface used across the package. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

type options struct {
	logger   Logger
	clock    func() time.Time
	policy   Policy
	cacheCap int
	cacheTTL time.Duration
}

func defaultOptions() options {
	return options{
		logger:   discardLogger{},
		clock:    time.Now,
		policy:   DefaultPolicy(),
		cacheCap: 256,
		cacheTTL: 5 * time.Minute,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures an Engine, a StatusAggregator or a LibraryManager.
type Option func(*options)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l == nil {
			l = discardLogger{}
		}
		o.logger = l
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithPolicy overrides the loan period and fee schedule.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithBookCache sizes the title/author cache used by status reports. A size
// below one disables caching.
func WithBookCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheCap = size
		o.cacheTTL = ttl
	}
}
