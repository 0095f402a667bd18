package parseq

import (
	"errors"
	"testing"
	"time"
)

// fakeCtx is a no-op Context good enough to drive ContextRun directly in
// unit tests that don't need a real scheduler.
type fakeCtx struct {
	run []Runnable
}

func (c *fakeCtx) Run(t Runnable) { c.run = append(c.run, t); t.ContextRun(c, nil, nil) }

func (c *fakeCtx) After(preds ...Runnable) PendingRunner {
	return &fakePending{ctx: c, preds: preds}
}

func (c *fakeCtx) CreateTimer(_ time.Duration, t Runnable) { c.Run(t) }

type fakePending struct {
	ctx   *fakeCtx
	preds []Runnable
}

func (p *fakePending) Run(t Runnable)           { p.ctx.Run(t) }
func (p *fakePending) RunSideEffect(t Runnable) { p.ctx.Run(t) }

func TestTaskValueCompletesImmediately(t *testing.T) {
	task := Value("v", 5)
	ctx := &fakeCtx{}
	task.MarkScheduled()
	task.ContextRun(ctx, nil, nil)

	v, err, ok := task.Promise().Peek()
	if !ok || err != nil || v != 5 {
		t.Fatalf("got (%d, %v, %v), want (5, nil, true)", v, err, ok)
	}
	if task.State() != StateDone {
		t.Fatalf("got state %v, want done", task.State())
	}
}

func TestTaskFailurePropagates(t *testing.T) {
	wantErr := errors.New("boom")
	task := Failure[int]("f", wantErr)
	task.ContextRun(&fakeCtx{}, nil, nil)

	if task.State() != StateFailed {
		t.Fatalf("got state %v, want failed", task.State())
	}
	_, err, _ := task.Promise().Peek()
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestTaskRunsBodyAtMostOnce(t *testing.T) {
	calls := 0
	task := Callable("once", func() (int, error) {
		calls++
		return calls, nil
	})
	ctx := &fakeCtx{}
	callerA := Value("callerA", 0)
	callerB := Value("callerB", 0)
	task.ContextRun(ctx, nil, nil)
	task.ContextRun(ctx, callerA, nil)
	task.ContextRun(ctx, callerB, nil)

	if calls != 1 {
		t.Fatalf("body ran %d times, want 1", calls)
	}
	rels := task.Relationships()
	potential := 0
	for _, r := range rels {
		if r.Kind == RelationPotentialParent {
			potential++
		}
	}
	if potential == 0 {
		t.Fatal("expected at least one potential-parent relationship from the repeat callers")
	}
}

func TestTaskCancelIsSingleWinner(t *testing.T) {
	task := newTask[int]("c", func(ctx Context) *Promise[int] { return NewPromise[int]() })
	if !task.Cancel(nil) {
		t.Fatal("first Cancel should win")
	}
	if task.Cancel(nil) {
		t.Fatal("second Cancel should not win")
	}
	if task.State() != StateCancelled {
		t.Fatalf("got state %v, want cancelled", task.State())
	}
	_, err, _ := task.Promise().Peek()
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got %v, want wrapping ErrCancelled", err)
	}
}

func TestSetPriorityRejectedAfterStart(t *testing.T) {
	task := Value("p", 1)
	task.MarkScheduled()
	if err := task.SetPriority(5); !errors.Is(err, ErrTaskAlreadyStarted) {
		t.Fatalf("got %v, want ErrTaskAlreadyStarted", err)
	}
}

func TestSetPriorityRejectsOutOfRange(t *testing.T) {
	task := Value("p", 1)
	if err := task.SetPriority(MaxPriority + 1); !errors.Is(err, ErrPriorityOutOfRange) {
		t.Fatalf("got %v, want ErrPriorityOutOfRange", err)
	}
}

func TestRunBodySafelyRecoversPanic(t *testing.T) {
	task := newTask[int]("panics", func(ctx Context) *Promise[int] {
		panic("kaboom")
	})
	task.ContextRun(&fakeCtx{}, nil, nil)

	if task.State() != StateFailed {
		t.Fatalf("got state %v, want failed", task.State())
	}
	_, err, _ := task.Promise().Peek()
	if err == nil {
		t.Fatal("expected panic to surface as a task error")
	}
}
