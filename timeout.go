package parseq

import (
	"fmt"
	"sync/atomic"
	"time"
)

// WithTimeout wraps t in place via a ContextRunWrapper: t adopts its own
// result if it completes within d, or fails with ErrTimeout otherwise.
// Returns t itself (not a new task), matching the contract every other
// ContextRunWrapper consumer follows. t itself is not cancelled when the
// timeout wins the race — it keeps running and its eventual result, if
// any, is simply discarded, since t's promise has already committed.
func WithTimeout[T any](t *Task[T], d time.Duration) *Task[T] {
	_ = t.WrapContextRun(&timeoutWrapper[T]{d: d, task: t})
	return t
}

// timeoutWrapper races a MAX_PRIORITY timer task against the body's own
// promise; whichever commits first wins, enforced by an atomic flag
// (Exactly-once commit discipline, see ContextRunWrapper's contract).
type timeoutWrapper[T any] struct {
	d    time.Duration
	task *Task[T]

	committed atomic.Bool
	timerTask *Task[struct{}]
}

func (w *timeoutWrapper[T]) commit() bool {
	return w.committed.CompareAndSwap(false, true)
}

// Before schedules the timer task ahead of the body. It runs at
// MaxPriority so it cannot be starved behind ordinary work and fires as
// close to d as the scheduler allows.
func (w *timeoutWrapper[T]) Before(ctx Context) {
	w.timerTask = Action(fmt.Sprintf("timeout(%s)", w.d), func() error { return nil })
	_ = w.timerTask.SetPriority(MaxPriority)
	w.task.addRelationship(Relationship{Kind: RelationTimer, Other: w.timerTask})
	ctx.CreateTimer(w.d, w.timerTask)
}

// After returns a distinct result promise from body: the timer firing
// first commits ErrTimeout; body completing first commits body's own
// outcome. Either way the loser's eventual signal is ignored, so later
// completion of body after a timeout cannot resurrect the result.
func (w *timeoutWrapper[T]) After(ctx Context, body *Promise[T]) *Promise[T] {
	sp := NewSettablePromise[T]()

	w.timerTask.Listen(func(_ struct{}, _ error) {
		if w.commit() {
			sp.Fail(ErrTimeout)
		}
	})
	body.Listen(func(v T, err error) {
		if !w.commit() {
			return
		}
		if err != nil {
			sp.Fail(err)
			return
		}
		sp.Done(v)
	})

	return sp.Promise()
}

func (w *timeoutWrapper[T]) Compose(outer ContextRunWrapper[T]) ContextRunWrapper[T] {
	return &composedWrapper[T]{outer: outer, inner: w}
}
