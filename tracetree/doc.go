// Package tracetree renders a parseq.Trace as an ASCII tree, for
// debugging and for the parseqdemo CLI's closing summary. Rendering is
// isolated to this package: the trace graph itself admits edges other
// than strict parent/child (predecessor, timer, side-effect), so this
// package picks a single spanning view — parent edges first, falling back
// to the first predecessor edge found — and renders only that.
package tracetree
