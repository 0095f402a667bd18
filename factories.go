package parseq

import "context"

// Value returns a task that completes with v as soon as it runs; its body
// does no work of its own. Useful for lifting a constant into the
// composition graph.
func Value[T any](name string, v T) *Task[T] {
	return newTask(name, func(ctx Context) *Promise[T] {
		return Resolved(v)
	})
}

// Failure returns a task that completes immediately with err.
func Failure[T any](name string, err error) *Task[T] {
	return newTask(name, func(ctx Context) *Promise[T] {
		return Failed[T](err)
	})
}

// Callable returns a task that runs fn synchronously, on whatever
// goroutine the Context chooses to execute it, and completes with fn's
// result. A nil fn is detected at construction time: the returned task is
// a Failure task that fails with ErrNilBody when it runs. No error is
// reported before the task is run.
func Callable[T any](name string, fn func() (T, error)) *Task[T] {
	if fn == nil {
		return Failure[T](name, ErrNilBody)
	}
	return newTask(name, func(ctx Context) *Promise[T] {
		v, err := fn()
		return completedOrFailed(v, err)
	})
}

// Action returns a task that runs fn for its side effect and completes with
// the zero value of T on success. A nil fn is handled the same as in
// Callable.
func Action(name string, fn func() error) *Task[struct{}] {
	if fn == nil {
		return Failure[struct{}](name, ErrNilBody)
	}
	return Callable(name, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// Async returns a task whose body hands fn a SettablePromise and returns
// immediately; fn completes the promise from any goroutine, at any later
// time, including after ContextRun returns. Use this to bridge callback-
// based or channel-based APIs into the task graph. A nil fn is handled the
// same as in Callable.
func Async[T any](name string, fn func(ctx context.Context, p *SettablePromise[T])) *Task[T] {
	if fn == nil {
		return Failure[T](name, ErrNilBody)
	}
	return newTask(name, func(ctx Context) *Promise[T] {
		sp := NewSettablePromise[T]()
		goCtx := contextOf(ctx)
		go fn(goCtx, sp)
		return sp.Promise()
	})
}

// Executor runs submit off of whatever goroutine calls it, on its own
// schedule — a bounded worker pool, an errgroup, or (the default) a bare
// goroutine. It is the off-load mechanism Blocking delegates to instead of
// occupying a scheduler worker slot.
type Executor func(ctx context.Context, submit func())

// defaultExecutor spawns a bare goroutine per submission, matching a
// caller that has no pool abstraction of its own to plug in.
func defaultExecutor(_ context.Context, submit func()) {
	go submit()
}

// Blocking returns a task whose body runs fn via executor instead of
// occupying a scheduler worker slot, suitable for I/O calls that block for
// an unpredictable duration. A nil executor falls back to defaultExecutor
// (a bare goroutine per call). Callers that want to bound concurrency can
// pass an executor backed by a worker pool or an errgroup. A nil fn is
// handled the same as in Callable.
func Blocking[T any](name string, fn func(ctx context.Context) (T, error), executor Executor) *Task[T] {
	if fn == nil {
		return Failure[T](name, ErrNilBody)
	}
	if executor == nil {
		executor = defaultExecutor
	}
	return newTask(name, func(ctx Context) *Promise[T] {
		sp := NewSettablePromise[T]()
		stdCtx := contextOf(ctx)
		executor(stdCtx, func() {
			v, err := fn(stdCtx)
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(v)
		})
		return sp.Promise()
	})
}

func completedOrFailed[T any](v T, err error) *Promise[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Resolved(v)
}

// contextDeadliner is implemented by a Context that can expose a
// standard-library context.Context for factories that need one (Async,
// Blocking). It is optional: a Context need not implement it, in which
// case factories fall back to context.Background().
type contextDeadliner interface {
	StdContext() context.Context
}

func contextOf(ctx Context) context.Context {
	if cd, ok := ctx.(contextDeadliner); ok {
		return cd.StdContext()
	}
	return context.Background()
}
