package engine

import (
	"runtime"

	"github.com/hashicorp/go-hclog"
)

// Option configures an Engine using the functional-option style.
type Option func(*config)

type config struct {
	workers  int
	logger   hclog.Logger
	observer *MultiObserver
}

func defaultConfig() *config {
	return &config{
		workers: runtime.NumCPU(),
		logger: hclog.New(&hclog.LoggerOptions{
			Name:  "parseq-engine",
			Level: hclog.Info,
		}),
		observer: NewMultiObserver(),
	}
}

// WithWorkers sets the fixed size of the worker-goroutine pool. It
// defaults to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger overrides the engine's go-hclog logger. The default logs at
// Info level under the name "parseq-engine".
func WithLogger(l hclog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an additional Observer to receive every
// lifecycle Event the engine emits. May be called more than once; all
// registered observers are fanned out to via a MultiObserver.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer.add(o)
	}
}
