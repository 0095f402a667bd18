package parseq

// Try is the result of WithTry: whichever of value or err applies, exactly
// one is meaningful; Try never itself represents failure to the scheduler,
// since the task carrying it always completes successfully.
type Try[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the underlying task succeeded.
func (r Try[T]) Ok() bool { return r.Err == nil }

// WithTry returns a task that always completes successfully, carrying t's
// outcome reified as a Try[T] value instead of propagating failure. Useful
// at a Par boundary where one failing branch should not fail the whole
// group.
func WithTry[T any](t *Task[T], name string) *Task[Try[T]] {
	next := newTask(name, func(ctx Context) *Promise[Try[T]] {
		sp := NewSettablePromise[Try[T]]()
		ctx.Run(t)
		t.Listen(func(v T, err error) {
			sp.Done(Try[T]{Value: v, Err: err})
		})
		return sp.Promise()
	})
	return runAfter(t, next)
}

// Recover returns a task that, if t fails, substitutes fn's value for the
// error. If t succeeds, its value passes through unchanged.
func Recover[T any](t *Task[T], name string, fn func(error) T) *Task[T] {
	next := newTask(name, func(ctx Context) *Promise[T] {
		sp := NewSettablePromise[T]()
		ctx.Run(t)
		t.Listen(func(v T, err error) {
			if err == nil {
				sp.Done(v)
				return
			}
			r, rec := safeRecover(fn, err)
			if rec != nil {
				sp.Fail(rec)
				return
			}
			sp.Done(r)
		})
		return sp.Promise()
	})
	return runAfter(t, next)
}

// RecoverWith returns a task that, if t fails, schedules a follow-up task
// produced by fn and adopts its outcome (which may itself be a failure). If
// t succeeds, its value passes through unchanged.
func RecoverWith[T any](t *Task[T], name string, fn func(error) *Task[T]) *Task[T] {
	next := newTask(name, func(ctx Context) *Promise[T] {
		sp := NewSettablePromise[T]()
		ctx.Run(t)
		t.Listen(func(v T, err error) {
			if err == nil {
				sp.Done(v)
				return
			}
			followTask, rec := safeRecoverTask(fn, err)
			if rec != nil {
				sp.Fail(rec)
				return
			}
			ctx.Run(followTask)
			followTask.addRelationship(Relationship{Kind: RelationPredecessor, Other: t})
			followTask.Listen(func(rv T, rerr error) {
				if rerr != nil {
					sp.Fail(rerr)
					return
				}
				sp.Done(rv)
			})
		})
		return sp.Promise()
	})
	return runAfter(t, next)
}

// FallBackTo returns a task that, if primary fails, adopts fallback's
// outcome instead. Both tasks are only scheduled as needed: fallback never
// runs if primary succeeds. If fallback itself fails, the returned task
// fails with primary's original error rather than fallback's — the
// fallback is a rescue attempt, not a replacement failure mode.
func FallBackTo[T any](primary *Task[T], name string, fallback *Task[T]) *Task[T] {
	next := newTask(name, func(ctx Context) *Promise[T] {
		sp := NewSettablePromise[T]()
		ctx.Run(primary)
		primary.Listen(func(v T, originalErr error) {
			if originalErr == nil {
				sp.Done(v)
				return
			}
			ctx.Run(fallback)
			fallback.addRelationship(Relationship{Kind: RelationPredecessor, Other: primary})
			fallback.Listen(func(fv T, ferr error) {
				if ferr != nil {
					sp.Fail(originalErr)
					return
				}
				sp.Done(fv)
			})
		})
		return sp.Promise()
	})
	return runAfter(primary, next)
}

func safeRecover[T any](fn func(error) T, err error) (r T, rec error) {
	defer func() {
		if p := recover(); p != nil {
			rec = panicError("recover", p)
		}
	}()
	return fn(err), nil
}

func safeRecoverTask[T any](fn func(error) *Task[T], err error) (t *Task[T], rec error) {
	defer func() {
		if p := recover(); p != nil {
			rec = panicError("recoverWith", p)
		}
	}()
	return fn(err), nil
}
