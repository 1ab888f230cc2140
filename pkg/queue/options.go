package queue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/metrics"
	"github.com/jdziat/simple-task-workers/pkg/registry"
	"github.com/jdziat/simple-task-workers/pkg/schedule"
	"github.com/jdziat/simple-task-workers/pkg/security"
)

// DefaultAsyncCapacity is the bounded channel capacity of the async variant.
const DefaultAsyncCapacity = 1024

// Config holds queue configuration assembled by options before construction.
type Config struct {
	Key       string
	Capacity  int
	Bus       *core.Bus
	Registry  *registry.Registry
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Schedule  schedule.Schedule
	Limiter   *rate.Limiter
	JoinGrace time.Duration
}

// Option configures a queue variant.
type Option interface {
	Apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) Apply(c *Config) { f(c) }

// newConfig applies options and fills defaults. A caller-supplied key must
// satisfy security.ValidateKey; an invalid key panics, since it is a
// programming error at construction time.
func newConfig(opts ...Option) Config {
	config := Config{
		Capacity: DefaultAsyncCapacity,
	}
	for _, opt := range opts {
		opt.Apply(&config)
	}

	if config.Key == "" {
		config.Key = "queue-" + uuid.New().String()
	} else if err := security.ValidateKey(config.Key); err != nil {
		panic(fmt.Sprintf("workers: invalid queue key %q: %v", config.Key, err))
	}
	if config.Bus == nil {
		config.Bus = core.NewBus()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return config
}

// WithKey sets the queue's identity. Empty means a generated unique key.
func WithKey(key string) Option {
	return optionFunc(func(c *Config) {
		c.Key = key
	})
}

// Capacity sets the async variant's channel capacity.
// Values are clamped to [1, MaxCapacity]. Ignored by the other variants.
func Capacity(n int) Option {
	return optionFunc(func(c *Config) {
		c.Capacity = security.ClampCapacity(n)
	})
}

// WithBus sets the event bus shared by the queue and its workers.
func WithBus(bus *core.Bus) Option {
	return optionFunc(func(c *Config) {
		c.Bus = bus
	})
}

// WithRegistry makes the queue's workers register themselves on Start.
func WithRegistry(reg *registry.Registry) Option {
	return optionFunc(func(c *Config) {
		c.Registry = reg
	})
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		c.Logger = logger
	})
}

// WithMetrics attaches Prometheus instrumentation to the queue.
func WithMetrics(m *metrics.Metrics) Option {
	return optionFunc(func(c *Config) {
		c.Metrics = m
	})
}

// WithSchedule makes the queue's workers periodic: each drains one item per
// schedule tick instead of continuously.
func WithSchedule(s schedule.Schedule) Option {
	return optionFunc(func(c *Config) {
		c.Schedule = s
	})
}

// WithRateLimit caps handler invocations per second across the queue using
// a shared token bucket.
func WithRateLimit(perSecond float64, burst int) Option {
	return optionFunc(func(c *Config) {
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	})
}

// WithJoinGrace sets how long Join waits for each worker before cancelling
// unconditionally.
func WithJoinGrace(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.JoinGrace = d
	})
}
