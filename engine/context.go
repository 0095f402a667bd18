package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/parseq-go/parseq"
)

// runContext is the Context handed to every task body scheduled by a given
// Engine.Run call. It is a thin adapter onto the Engine's ready queue; it
// carries no per-task state of its own so the same value is reused across
// every task in a run.
type runContext struct {
	eng    *Engine
	stdCtx context.Context
}

var _ parseq.Context = (*runContext)(nil)

// Run implements parseq.Context.
func (c *runContext) Run(t parseq.Runnable) {
	c.eng.schedule(t)
}

// After implements parseq.Context.
func (c *runContext) After(preds ...parseq.Runnable) parseq.PendingRunner {
	return &pendingRunner{eng: c.eng, preds: preds}
}

// CreateTimer implements parseq.Context.
func (c *runContext) CreateTimer(d time.Duration, t parseq.Runnable) {
	c.eng.scheduleAfter(d, t)
}

// StdContext implements the optional contextDeadliner hook parseq's Async
// and Blocking factories use to obtain a standard-library context.Context.
func (c *runContext) StdContext() context.Context {
	return c.stdCtx
}

// pendingRunner implements parseq.PendingRunner by counting down as each
// predecessor reaches a terminal state.
type pendingRunner struct {
	eng   *Engine
	preds []parseq.Runnable
}

func (p *pendingRunner) Run(t parseq.Runnable) {
	p.waitAll(func() bool { return true }, t)
}

func (p *pendingRunner) RunSideEffect(t parseq.Runnable) {
	p.waitAll(func() bool {
		for _, pred := range p.preds {
			if pred.State() != parseq.StateDone {
				return false
			}
		}
		return true
	}, t)
}

func (p *pendingRunner) waitAll(shouldRun func() bool, t parseq.Runnable) {
	if len(p.preds) == 0 {
		p.fire(shouldRun, t)
		return
	}
	var remaining atomic.Int64
	remaining.Store(int64(len(p.preds)))
	for _, pred := range p.preds {
		pred.OnTerminal(func() {
			if remaining.Add(-1) == 0 {
				p.fire(shouldRun, t)
			}
		})
	}
}

func (p *pendingRunner) fire(shouldRun func() bool, t parseq.Runnable) {
	if shouldRun() {
		p.eng.schedule(t)
		return
	}
	t.Cancel(parseq.ErrCancelled)
}
