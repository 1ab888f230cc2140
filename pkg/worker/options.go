package worker

import (
	"log/slog"
	"time"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
	"github.com/jdziat/simple-task-workers/pkg/registry"
	"github.com/jdziat/simple-task-workers/pkg/schedule"
	"github.com/jdziat/simple-task-workers/pkg/strategy"
)

// DefaultJoinGrace is how long Join waits for the run goroutine to exit
// before cancelling unconditionally.
const DefaultJoinGrace = time.Second

// Option configures a Worker.
type Option interface {
	ApplyWorker(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyWorker(c *Config) { f(c) }

// Config holds worker configuration assembled by options before construction.
type Config struct {
	Key        string
	Continuous bool
	Schedule   schedule.Schedule
	Bag        *databag.Bag
	Registry   *registry.Registry
	Bus        *core.Bus
	Logger     *slog.Logger
	Teardown   strategy.Strategy
	JoinGrace  time.Duration
}

// WithKey sets the worker's identity. Empty means a generated unique key.
func WithKey(key string) Option {
	return optionFunc(func(c *Config) {
		c.Key = key
	})
}

// Continuous sets whether the worker loops until cancelled (true) or runs
// the action once (false, the default).
func Continuous(continuous bool) Option {
	return optionFunc(func(c *Config) {
		c.Continuous = continuous
	})
}

// WithSchedule makes the worker periodic according to the given schedule.
func WithSchedule(s schedule.Schedule) Option {
	return optionFunc(func(c *Config) {
		c.Schedule = s
	})
}

// WithInterval makes the worker periodic with a fixed delay between iterations.
func WithInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.Schedule = schedule.Every(d)
	})
}

// WithBag supplies the data context passed to each action invocation.
func WithBag(bag *databag.Bag) Option {
	return optionFunc(func(c *Config) {
		c.Bag = bag
	})
}

// WithRegistry makes the worker register itself on Start and deregister on
// Join and loop exit.
func WithRegistry(reg *registry.Registry) Option {
	return optionFunc(func(c *Config) {
		c.Registry = reg
	})
}

// WithBus sets the event bus for error and lifecycle reporting. Queue
// variants pass a shared bus so all their workers publish to one stream.
func WithBus(bus *core.Bus) Option {
	return optionFunc(func(c *Config) {
		c.Bus = bus
	})
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		c.Logger = logger
	})
}

// WithTeardown sets the execution strategy used to release the
// cancellation resource during Dispose. Defaults to bounded retry.
func WithTeardown(s strategy.Strategy) Option {
	return optionFunc(func(c *Config) {
		c.Teardown = s
	})
}

// WithJoinGrace sets how long Join waits for the run goroutine before
// cancelling unconditionally.
func WithJoinGrace(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.JoinGrace = d
	})
}
