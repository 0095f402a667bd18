package parseq

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestValueCompletesOnceScheduled(t *testing.T) {
	task := Value("v", 7)
	v, err := runToCompletion(task)
	if err != nil || v != 7 {
		t.Fatalf("got (%d, %v), want (7, nil)", v, err)
	}
}

func TestFailureCompletesWithErr(t *testing.T) {
	wantErr := errors.New("boom")
	task := Failure[int]("f", wantErr)
	_, err := runToCompletion(task)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestCallableRunsOnSchedule(t *testing.T) {
	var ran bool
	task := Callable("c", func() (int, error) {
		ran = true
		return 5, nil
	})
	if ran {
		t.Fatal("Callable body ran before being scheduled")
	}
	v, err := runToCompletion(task)
	if err != nil || v != 5 || !ran {
		t.Fatalf("got (%d, %v, ran=%v), want (5, nil, true)", v, err, ran)
	}
}

func TestActionReturnsErr(t *testing.T) {
	wantErr := errors.New("action failed")
	task := Action("a", func() error { return wantErr })
	_, err := runToCompletion(task)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestAsyncCompletesFromGoroutine(t *testing.T) {
	task := Async("async", func(ctx context.Context, p *SettablePromise[int]) {
		go p.Done(9)
	})
	ctx := &fakeCtx{}
	ctx.Run(task)

	deadline := time.After(time.Second)
	for {
		if v, err, ok := task.Promise().Peek(); ok {
			if err != nil || v != 9 {
				t.Fatalf("got (%d, %v), want (9, nil)", v, err)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("Async task never completed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBlockingRunsOnDedicatedGoroutine(t *testing.T) {
	task := Blocking("blocking", func(ctx context.Context) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 3, nil
	}, nil)
	ctx := &fakeCtx{}
	ctx.Run(task)

	deadline := time.After(time.Second)
	for {
		if v, err, ok := task.Promise().Peek(); ok {
			if err != nil || v != 3 {
				t.Fatalf("got (%d, %v), want (3, nil)", v, err)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("Blocking task never completed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBlockingUsesSuppliedExecutor(t *testing.T) {
	var usedExecutor bool
	executor := func(ctx context.Context, submit func()) {
		usedExecutor = true
		submit()
	}
	task := Blocking("blocking", func(ctx context.Context) (int, error) {
		return 11, nil
	}, executor)

	v, err := runToCompletion(task)
	if err != nil || v != 11 || !usedExecutor {
		t.Fatalf("got (%d, %v, usedExecutor=%v), want (11, nil, true)", v, err, usedExecutor)
	}
}

func TestCallableRejectsNilBody(t *testing.T) {
	task := Callable[int]("nil-body", nil)
	_, err := runToCompletion(task)
	if !errors.Is(err, ErrNilBody) {
		t.Fatalf("got %v, want ErrNilBody", err)
	}
}

func TestActionRejectsNilBody(t *testing.T) {
	task := Action("nil-body", nil)
	_, err := runToCompletion(task)
	if !errors.Is(err, ErrNilBody) {
		t.Fatalf("got %v, want ErrNilBody", err)
	}
}

func TestAsyncRejectsNilBody(t *testing.T) {
	task := Async[int]("nil-body", nil)
	_, err := runToCompletion(task)
	if !errors.Is(err, ErrNilBody) {
		t.Fatalf("got %v, want ErrNilBody", err)
	}
}

func TestBlockingRejectsNilBody(t *testing.T) {
	task := Blocking[int]("nil-body", nil, nil)
	_, err := runToCompletion(task)
	if !errors.Is(err, ErrNilBody) {
		t.Fatalf("got %v, want ErrNilBody", err)
	}
}
