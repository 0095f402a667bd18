// Package parseq is an asynchronous task-composition engine: it builds
// directed acyclic graphs of deferred computations ("tasks"), exposes a
// functional combinator surface (Map, FlatMap, AndThen, WithSideEffect,
// Recover family, WithTry, WithTimeout, Par2..Par9) for composing them into
// larger tasks, and records every composition relationship into an
// immutable trace graph.
//
// # Core abstraction
//
// A Task[T] is both a node in the graph and a handle to its eventual
// result. Tasks are built eagerly via factories (Value, Failure, Callable,
// Action, Async, Blocking) and combinators; they do no work until handed to
// a Context by a scheduler (see the engine package for a reference
// implementation of Context and the worker pool that drives it).
//
// # Collaborators
//
// parseq deliberately does not implement the scheduler. Context is a
// capability surface a task body uses to enqueue further work; the engine
// package is the reference collaborator that implements it. Trace
// serialization and printing are likewise external: see the tracetree
// package for an ASCII trace renderer.
//
// # Concurrency
//
// Promise completion, task state, and the timeout commit flag all use
// atomic single-transition semantics. Listener callbacks registered on an
// already-terminal Promise fire synchronously on the calling goroutine; a
// Task's relationship set and shallow trace are only mutated along the
// task's own execution path.
package parseq
