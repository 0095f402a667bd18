package parseq

import "sync"

// parGate counts arrivals from a fixed number of branches and invokes done
// exactly once, either with the first error to arrive (branches arrive in
// completion order) or with nil once every branch has arrived successfully. It is the
// shared machinery behind the Par2..Par9 family: Go generics cannot
// express a variadic tuple of independently-typed branch results, so each
// arity is a thin, mechanically-derived wrapper (modeled on the
// Derive1..Derive9 pattern) around this one gate.
type parGate struct {
	mu       sync.Mutex
	want     int
	arrived  int
	firstErr error
	errSeen  bool
	fired    bool
	done     func(err error)
}

func newParGate(n int, done func(err error)) *parGate {
	return &parGate{want: n, done: done}
}

func (g *parGate) arrive(err error) {
	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		return
	}
	g.arrived++
	if err != nil && !g.errSeen {
		g.errSeen = true
		g.firstErr = err
	}
	allIn := g.arrived == g.want
	var fire bool
	var fireErr error
	if g.errSeen && !g.fired {
		fire = true
		fireErr = g.firstErr
		g.fired = true
	} else if allIn && !g.fired {
		fire = true
		fireErr = nil
		g.fired = true
	}
	g.mu.Unlock()

	if fire {
		g.done(fireErr)
	}
}

// ParResult2 holds the per-branch results of a two-way Par.
type ParResult2[A, B any] struct {
	A A
	B B
}

// Par2 runs two tasks concurrently and completes once both have
// terminated successfully, or fails as soon as any branch fails (the
// remaining branches are left to run to completion; their results are
// simply discarded).
func Par2[A, B any](name string, ta *Task[A], tb *Task[B]) *Task[ParResult2[A, B]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult2[A, B]] {
		sp := NewSettablePromise[ParResult2[A, B]]()
		var result ParResult2[A, B]
		g := newParGate(2, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ta.Listen(func(v A, err error) { result.A = v; g.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; g.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb))
	return next
}

// ParResult3 holds the per-branch results of a three-way Par.
type ParResult3[A, B, C any] struct {
	A A
	B B
	C C
}

// Par3 runs three tasks concurrently; see Par2 for the completion and
// failure rule.
func Par3[A, B, C any](name string, ta *Task[A], tb *Task[B], tc *Task[C]) *Task[ParResult3[A, B, C]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult3[A, B, C]] {
		sp := NewSettablePromise[ParResult3[A, B, C]]()
		var result ParResult3[A, B, C]
		g := newParGate(3, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ctx.Run(tc)
		ta.Listen(func(v A, err error) { result.A = v; g.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; g.arrive(err) })
		tc.Listen(func(v C, err error) { result.C = v; g.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb), asHandle(tc))
	return next
}

// ParResult4 holds the per-branch results of a four-way Par.
type ParResult4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

// Par4 runs four tasks concurrently; see Par2 for the completion and
// failure rule.
func Par4[A, B, C, D any](name string, ta *Task[A], tb *Task[B], tc *Task[C], td *Task[D]) *Task[ParResult4[A, B, C, D]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult4[A, B, C, D]] {
		sp := NewSettablePromise[ParResult4[A, B, C, D]]()
		var result ParResult4[A, B, C, D]
		g := newParGate(4, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ctx.Run(tc)
		ctx.Run(td)
		ta.Listen(func(v A, err error) { result.A = v; g.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; g.arrive(err) })
		tc.Listen(func(v C, err error) { result.C = v; g.arrive(err) })
		td.Listen(func(v D, err error) { result.D = v; g.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb), asHandle(tc), asHandle(td))
	return next
}

// ParResult5 holds the per-branch results of a five-way Par.
type ParResult5[A, B, C, D, E any] struct {
	A A
	B B
	C C
	D D
	E E
}

// Par5 runs five tasks concurrently; see Par2 for the completion and
// failure rule.
func Par5[A, B, C, D, E any](name string, ta *Task[A], tb *Task[B], tc *Task[C], td *Task[D], te *Task[E]) *Task[ParResult5[A, B, C, D, E]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult5[A, B, C, D, E]] {
		sp := NewSettablePromise[ParResult5[A, B, C, D, E]]()
		var result ParResult5[A, B, C, D, E]
		g := newParGate(5, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ctx.Run(tc)
		ctx.Run(td)
		ctx.Run(te)
		ta.Listen(func(v A, err error) { result.A = v; g.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; g.arrive(err) })
		tc.Listen(func(v C, err error) { result.C = v; g.arrive(err) })
		td.Listen(func(v D, err error) { result.D = v; g.arrive(err) })
		te.Listen(func(v E, err error) { result.E = v; g.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb), asHandle(tc), asHandle(td), asHandle(te))
	return next
}

// ParResult6 holds the per-branch results of a six-way Par.
type ParResult6[A, B, C, D, E, F any] struct {
	A A
	B B
	C C
	D D
	E E
	F F
}

// Par6 runs six tasks concurrently; see Par2 for the completion and
// failure rule.
func Par6[A, B, C, D, E, F any](name string, ta *Task[A], tb *Task[B], tc *Task[C], td *Task[D], te *Task[E], tf *Task[F]) *Task[ParResult6[A, B, C, D, E, F]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult6[A, B, C, D, E, F]] {
		sp := NewSettablePromise[ParResult6[A, B, C, D, E, F]]()
		var result ParResult6[A, B, C, D, E, F]
		g := newParGate(6, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ctx.Run(tc)
		ctx.Run(td)
		ctx.Run(te)
		ctx.Run(tf)
		ta.Listen(func(v A, err error) { result.A = v; g.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; g.arrive(err) })
		tc.Listen(func(v C, err error) { result.C = v; g.arrive(err) })
		td.Listen(func(v D, err error) { result.D = v; g.arrive(err) })
		te.Listen(func(v E, err error) { result.E = v; g.arrive(err) })
		tf.Listen(func(v F, err error) { result.F = v; g.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb), asHandle(tc), asHandle(td), asHandle(te), asHandle(tf))
	return next
}

// ParResult7 holds the per-branch results of a seven-way Par.
type ParResult7[A, B, C, D, E, F, G any] struct {
	A A
	B B
	C C
	D D
	E E
	F F
	G G
}

// Par7 runs seven tasks concurrently; see Par2 for the completion and
// failure rule.
func Par7[A, B, C, D, E, F, G any](name string, ta *Task[A], tb *Task[B], tc *Task[C], td *Task[D], te *Task[E], tf *Task[F], tg *Task[G]) *Task[ParResult7[A, B, C, D, E, F, G]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult7[A, B, C, D, E, F, G]] {
		sp := NewSettablePromise[ParResult7[A, B, C, D, E, F, G]]()
		var result ParResult7[A, B, C, D, E, F, G]
		gate := newParGate(7, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ctx.Run(tc)
		ctx.Run(td)
		ctx.Run(te)
		ctx.Run(tf)
		ctx.Run(tg)
		ta.Listen(func(v A, err error) { result.A = v; gate.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; gate.arrive(err) })
		tc.Listen(func(v C, err error) { result.C = v; gate.arrive(err) })
		td.Listen(func(v D, err error) { result.D = v; gate.arrive(err) })
		te.Listen(func(v E, err error) { result.E = v; gate.arrive(err) })
		tf.Listen(func(v F, err error) { result.F = v; gate.arrive(err) })
		tg.Listen(func(v G, err error) { result.G = v; gate.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb), asHandle(tc), asHandle(td), asHandle(te), asHandle(tf), asHandle(tg))
	return next
}

// ParResult8 holds the per-branch results of an eight-way Par.
type ParResult8[A, B, C, D, E, F, G, H any] struct {
	A A
	B B
	C C
	D D
	E E
	F F
	G G
	H H
}

// Par8 runs eight tasks concurrently; see Par2 for the completion and
// failure rule.
func Par8[A, B, C, D, E, F, G, H any](name string, ta *Task[A], tb *Task[B], tc *Task[C], td *Task[D], te *Task[E], tf *Task[F], tg *Task[G], th *Task[H]) *Task[ParResult8[A, B, C, D, E, F, G, H]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult8[A, B, C, D, E, F, G, H]] {
		sp := NewSettablePromise[ParResult8[A, B, C, D, E, F, G, H]]()
		var result ParResult8[A, B, C, D, E, F, G, H]
		gate := newParGate(8, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ctx.Run(tc)
		ctx.Run(td)
		ctx.Run(te)
		ctx.Run(tf)
		ctx.Run(tg)
		ctx.Run(th)
		ta.Listen(func(v A, err error) { result.A = v; gate.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; gate.arrive(err) })
		tc.Listen(func(v C, err error) { result.C = v; gate.arrive(err) })
		td.Listen(func(v D, err error) { result.D = v; gate.arrive(err) })
		te.Listen(func(v E, err error) { result.E = v; gate.arrive(err) })
		tf.Listen(func(v F, err error) { result.F = v; gate.arrive(err) })
		tg.Listen(func(v G, err error) { result.G = v; gate.arrive(err) })
		th.Listen(func(v H, err error) { result.H = v; gate.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb), asHandle(tc), asHandle(td), asHandle(te), asHandle(tf), asHandle(tg), asHandle(th))
	return next
}

// ParResult9 holds the per-branch results of a nine-way Par.
type ParResult9[A, B, C, D, E, F, G, H, I any] struct {
	A A
	B B
	C C
	D D
	E E
	F F
	G G
	H H
	I I
}

// Par9 runs nine tasks concurrently; see Par2 for the completion and
// failure rule.
func Par9[A, B, C, D, E, F, G, H, I any](name string, ta *Task[A], tb *Task[B], tc *Task[C], td *Task[D], te *Task[E], tf *Task[F], tg *Task[G], th *Task[H], ti *Task[I]) *Task[ParResult9[A, B, C, D, E, F, G, H, I]] {
	next := newTask(name, func(ctx Context) *Promise[ParResult9[A, B, C, D, E, F, G, H, I]] {
		sp := NewSettablePromise[ParResult9[A, B, C, D, E, F, G, H, I]]()
		var result ParResult9[A, B, C, D, E, F, G, H, I]
		gate := newParGate(9, func(err error) {
			if err != nil {
				sp.Fail(err)
				return
			}
			sp.Done(result)
		})
		ctx.Run(ta)
		ctx.Run(tb)
		ctx.Run(tc)
		ctx.Run(td)
		ctx.Run(te)
		ctx.Run(tf)
		ctx.Run(tg)
		ctx.Run(th)
		ctx.Run(ti)
		ta.Listen(func(v A, err error) { result.A = v; gate.arrive(err) })
		tb.Listen(func(v B, err error) { result.B = v; gate.arrive(err) })
		tc.Listen(func(v C, err error) { result.C = v; gate.arrive(err) })
		td.Listen(func(v D, err error) { result.D = v; gate.arrive(err) })
		te.Listen(func(v E, err error) { result.E = v; gate.arrive(err) })
		tf.Listen(func(v F, err error) { result.F = v; gate.arrive(err) })
		tg.Listen(func(v G, err error) { result.G = v; gate.arrive(err) })
		th.Listen(func(v H, err error) { result.H = v; gate.arrive(err) })
		ti.Listen(func(v I, err error) { result.I = v; gate.arrive(err) })
		return sp.Promise()
	})
	addParPredecessors(next, asHandle(ta), asHandle(tb), asHandle(tc), asHandle(td), asHandle(te), asHandle(tf), asHandle(tg), asHandle(th), asHandle(ti))
	return next
}

func addParPredecessors[R any](next *Task[R], handles ...TaskHandle) {
	for _, h := range handles {
		next.addRelationship(Relationship{Kind: RelationPredecessor, Other: h})
	}
}

// asHandle widens a *Task[T] to TaskHandle for storage in a Relationship,
// whose Other field must be able to hold branches of differing T.
func asHandle[T any](t *Task[T]) TaskHandle { return t }
