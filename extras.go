package parseq

import "time"

// WithTimer returns a task that completes with a zero-value result after d
// elapses, with no work of its own — a named handle onto the scheduler's
// timer facility for composing with AndThenRun/WithSideEffect, recovered
// from the original system's ability to schedule a bare delay as a task in
// its own right rather than only as an internal WithTimeout implementation
// detail.
func WithTimer(name string, d time.Duration) *Task[struct{}] {
	return newTask(name, func(ctx Context) *Promise[struct{}] {
		sp := NewSettablePromise[struct{}]()
		timerTask := Action(name+".fire", func() error { return nil })
		ctx.CreateTimer(d, timerTask)
		timerTask.Listen(func(_ struct{}, err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(struct{}{})
		})
		return sp.Promise()
	})
}

// Share returns t unchanged. Its purpose is documentation: t's Body runs at
// most once no matter how many combinators reference it (enforced by
// Task.runOnce), so a task handed to two independent consumers is already
// shared fan-out, not a duplicated subtree. Calling Share makes that
// sharing intent explicit at the call site instead of relying on the
// reader to know the at-most-once rule.
func Share[T any](t *Task[T]) *Task[T] {
	return t
}

// TraceAttribute attaches a key/value pair to t's shallow trace and
// returns t, so it can be chained inline at the point of construction.
func TraceAttribute[T any](t *Task[T], key string, value any) *Task[T] {
	t.SetAttribute(key, value)
	return t
}

// SystemHidden marks t as hidden on rendered traces (see the tracetree
// package) without affecting scheduling or dataflow, and returns t so it
// can be chained inline. Useful for internal bookkeeping tasks — timers,
// retry-loop iterations — that would otherwise clutter a human-facing
// trace view.
func SystemHidden[T any](t *Task[T]) *Task[T] {
	t.MarkSystemHidden(true)
	return t
}
