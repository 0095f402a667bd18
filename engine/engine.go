package engine

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/parseq-go/parseq"
	"golang.org/x/sync/errgroup"
)

// Engine is a priority-ordered, fixed-worker-pool scheduler implementing
// parseq.Context. Construct one implicitly via Run; Engine itself has no
// exported constructor because its lifetime is scoped to a single root
// task's execution.
type Engine struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  readyQueue
	seq    uint64
	closed bool

	workers  int
	logger   hclog.Logger
	observer *MultiObserver

	seen sync.Map // uuid.UUID -> struct{}, dedupes OnTerminal registration

	panicsMu sync.Mutex
	panics   *multierror.Error
}

func newEngine(cfg *config) *Engine {
	e := &Engine{
		queue:    readyQueue{},
		workers:  cfg.workers,
		logger:   cfg.logger,
		observer: cfg.observer,
	}
	e.cond = sync.NewCond(&e.mu)
	heap.Init(&e.queue)
	return e
}

// Run drives root to completion: it schedules root, starts a fixed pool
// of worker goroutines that pull from a priority-ordered ready queue, and
// returns root's own result once its promise settles. parent is used only
// as the standard-library context.Context handed to Async and Blocking
// task bodies; the engine does not watch it, so cancelling it neither
// cancels root (use root.Cancel for that) nor stops the engine from
// accepting further work.
func Run[T any](parent context.Context, root *parseq.Task[T], opts ...Option) (T, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	e := newEngine(cfg)

	ctx := &runContext{eng: e, stdCtx: parent}

	var eg errgroup.Group
	for i := 0; i < e.workers; i++ {
		eg.Go(func() error {
			e.runWorker(ctx)
			return nil
		})
	}

	done := make(chan struct{})
	var result T
	var resultErr error
	e.schedule(root)
	root.Listen(func(v T, err error) {
		result, resultErr = v, err
		close(done)
	})

	<-done
	e.shutdown()
	_ = eg.Wait()

	if pe := e.panicsOrNil(); pe != nil {
		e.logger.Error("worker goroutine recovered from panic during run", "error", pe)
	}

	return result, resultErr
}

func (e *Engine) runWorker(ctx *runContext) {
	for {
		item, ok := e.pop()
		if !ok {
			return
		}
		e.runItem(ctx, item)
	}
}

func (e *Engine) runItem(ctx *runContext, item *readyItem) {
	defer func() {
		if r := recover(); r != nil {
			e.panicsMu.Lock()
			e.panics = multierror.Append(e.panics, fmt.Errorf("task %q: %v", item.task.Name(), r))
			e.panicsMu.Unlock()
			e.logger.Error("recovered panic dispatching task", "task", item.task.Name(), "panic", r)
		}
	}()

	e.emit(item.task, EventRunning)
	e.registerTerminalEmit(item.task)
	item.task.ContextRun(ctx, nil, nil)
}

// registerTerminalEmit arranges for a done/failed/cancelled Event once t
// settles, registering at most once per task regardless of how many times
// schedule observes it (a diamond dependency schedules the same task more
// than once, but Task.ContextRun's own at-most-once guard means only the
// first dispatch actually runs the body — this mirrors that guard for
// event emission).
func (e *Engine) registerTerminalEmit(t parseq.Runnable) {
	if _, loaded := e.seen.LoadOrStore(t.ID(), struct{}{}); loaded {
		return
	}
	t.OnTerminal(func() {
		switch t.State() {
		case parseq.StateDone:
			e.emit(t, EventDone)
		case parseq.StateFailed:
			e.emit(t, EventFailed)
		case parseq.StateCancelled:
			e.emit(t, EventCancelled)
		}
	})
}

func (e *Engine) emit(t parseq.Runnable, typ EventType) {
	if e.observer == nil {
		return
	}
	e.observer.HandleEvent(Event{
		TaskID:   t.ID(),
		TaskName: t.Name(),
		Type:     typ,
		Time:     time.Now(),
	})
	e.logger.Trace("task event", "task", t.Name(), "event", typ.String())
}

// schedule enqueues t onto the ready queue at its current priority. It is
// the implementation behind Context.Run and is also used directly by Run
// to seed the root task.
func (e *Engine) schedule(t parseq.Runnable) {
	t.MarkScheduled()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.seq++
	heap.Push(&e.queue, &readyItem{task: t, prio: t.Priority(), seq: e.seq})
	e.cond.Signal()
	e.mu.Unlock()

	e.emit(t, EventScheduled)
}

// scheduleAfter arms a standard-library timer that calls schedule once d
// elapses, unless t has been cancelled by then; it is the implementation
// behind Context.CreateTimer.
func (e *Engine) scheduleAfter(d time.Duration, t parseq.Runnable) {
	time.AfterFunc(d, func() {
		if t.State() == parseq.StateCancelled {
			return
		}
		e.schedule(t)
	})
}

func (e *Engine) pop() (*readyItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) == 0 && !e.closed {
		e.cond.Wait()
	}
	if len(e.queue) == 0 {
		return nil, false
	}
	item := heap.Pop(&e.queue).(*readyItem)
	return item, true
}

// shutdown stops accepting new work and wakes every blocked worker so it
// can observe the closed queue and exit. Workers already holding queued
// items still run them to completion; shutdown does not interrupt
// in-flight task bodies.
func (e *Engine) shutdown() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *Engine) panicsOrNil() error {
	e.panicsMu.Lock()
	defer e.panicsMu.Unlock()
	if e.panics == nil {
		return nil
	}
	return e.panics.ErrorOrNil()
}
