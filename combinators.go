package parseq

// Map returns a task that, once t completes successfully, applies fn to
// its value. If t fails, the returned task fails with the same error
// without calling fn.
func Map[T, R any](t *Task[T], name string, fn func(T) (R, error)) *Task[R] {
	next := newTask(name, func(ctx Context) *Promise[R] {
		sp := NewSettablePromise[R]()
		ctx.Run(t)
		t.Listen(func(v T, err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			r, ferr := safeCall(fn, v)
			if ferr != nil {
				sp.Fail(ferr)
				return
			}
			sp.Done(r)
		})
		return sp.Promise()
	})
	return runAfter(t, next)
}

// FlatMap returns a task that, once t completes successfully, uses fn to
// produce a follow-up task and adopts its result. If t fails, the returned
// task fails with the same error without calling fn.
func FlatMap[T, R any](t *Task[T], name string, fn func(T) *Task[R]) *Task[R] {
	next := newTask(name, func(ctx Context) *Promise[R] {
		sp := NewSettablePromise[R]()
		ctx.Run(t)
		t.Listen(func(v T, err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			follow := func() (r *Task[R], ferr error) {
				defer func() {
					if rec := recover(); rec != nil {
						ferr = panicError(name, rec)
					}
				}()
				return fn(v), nil
			}
			followTask, ferr := follow()
			if ferr != nil {
				sp.Fail(ferr)
				return
			}
			ctx.Run(followTask)
			followTask.addRelationship(Relationship{Kind: RelationPredecessor, Other: t})
			followTask.Listen(func(r R, err error) {
				if err != nil {
					sp.Fail(err)
					return
				}
				sp.Done(r)
			})
		})
		return sp.Promise()
	})
	return runAfter(t, next)
}

// AndThen returns a task that, once t completes successfully, runs fn for
// its side effect against t's value and then re-emits t's value unchanged.
// If fn returns an error, the returned task fails with it instead.
func AndThen[T any](t *Task[T], name string, fn func(T) error) *Task[T] {
	return Map(t, name, func(v T) (T, error) {
		if err := fn(v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}

// AndThenRun returns a task that, once t completes successfully, schedules
// follow-up and re-emits t's value unchanged once follow-up also completes
// successfully. If t fails, or follow-up fails, the returned task fails
// with that error.
func AndThenRun[T any](t *Task[T], name string, followUp *Task[struct{}]) *Task[T] {
	next := newTask(name, func(ctx Context) *Promise[T] {
		sp := NewSettablePromise[T]()
		ctx.Run(t)
		t.Listen(func(v T, err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			ctx.Run(followUp)
			followUp.addRelationship(Relationship{Kind: RelationPredecessor, Other: t})
			followUp.Listen(func(_ struct{}, ferr error) {
				if ferr != nil {
					sp.Fail(ferr)
					return
				}
				sp.Done(v)
			})
		})
		return sp.Promise()
	})
	return runAfter(t, next)
}

// WithSideEffect returns a task that re-emits t's value or error unchanged,
// but as a side effect schedules a task derived from fn(v) whenever t
// completes successfully. The side-effect task's own outcome never affects
// the returned task's result; it is recorded on the trace as a
// RelationSideEffectParent edge so it remains observable.
func WithSideEffect[T any](t *Task[T], name string, fn func(T) *Task[struct{}]) *Task[T] {
	next := newTask(name, func(ctx Context) *Promise[T] {
		sp := NewSettablePromise[T]()
		ctx.Run(t)
		t.Listen(func(v T, err error) {
			if err == nil {
				sideEffect := func() (se *Task[struct{}], rec any) {
					defer func() { rec = recover() }()
					return fn(v), nil
				}
				se, rec := sideEffect()
				if rec == nil && se != nil {
					ctx.Run(se)
					se.addRelationship(Relationship{Kind: RelationSideEffectParent, Other: t})
				}
			}
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(v)
		})
		return sp.Promise()
	})
	return runAfter(t, next)
}

// runAfter records t as next's RelationPredecessor at construction time,
// before next is ever scheduled, and returns next. Combinators call this so the
// dependency shows up on the trace graph regardless of which Context
// eventually runs next.
func runAfter[T, R any](t *Task[T], next *Task[R]) *Task[R] {
	next.addRelationship(Relationship{Kind: RelationPredecessor, Other: t})
	return next
}

func safeCall[T, R any](fn func(T) (R, error), v T) (r R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError("map", rec)
		}
	}()
	return fn(v)
}

func panicError(name string, rec any) error {
	return &panicErr{name: name, rec: rec}
}

type panicErr struct {
	name string
	rec  any
}

func (e *panicErr) Error() string {
	return "parseq: " + e.name + " panicked: " + toString(e.rec)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic value"
}
