package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/parseq-go/parseq"
	"github.com/parseq-go/parseq/engine"
)

func TestRunReturnsValueTaskResult(t *testing.T) {
	task := parseq.Value("v", 7)
	v, err := engine.Run(context.Background(), task)
	if err != nil || v != 7 {
		t.Fatalf("got (%d, %v), want (7, nil)", v, err)
	}
}

func TestRunPropagatesFailure(t *testing.T) {
	wantErr := errors.New("boom")
	task := parseq.Failure[int]("f", wantErr)
	_, err := engine.Run(context.Background(), task)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestRunDrivesMapChain(t *testing.T) {
	src := parseq.Callable("src", func() (int, error) { return 5, nil })
	doubled := parseq.Map(src, "doubled", func(v int) (int, error) { return v * 2, nil })

	v, err := engine.Run(context.Background(), doubled)
	if err != nil || v != 10 {
		t.Fatalf("got (%d, %v), want (10, nil)", v, err)
	}
}

func TestRunDrivesPar2Concurrently(t *testing.T) {
	a := parseq.Blocking("a", func(ctx context.Context) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return 1, nil
	}, nil)
	b := parseq.Blocking("b", func(ctx context.Context) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return 2, nil
	}, nil)
	par := parseq.Par2("par", a, b)

	start := time.Now()
	v, err := engine.Run(context.Background(), par, engine.WithWorkers(2))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.A != 1 || v.B != 2 {
		t.Fatalf("got %+v", v)
	}
	if elapsed > 60*time.Millisecond {
		t.Fatalf("branches do not appear to have run concurrently: took %s", elapsed)
	}
}

func TestRunEmitsLifecycleEvents(t *testing.T) {
	var mu sync.Mutex
	var types []engine.EventType
	observer := engine.ObserverFunc(func(e engine.Event) {
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	})

	task := parseq.Value("v", 1)
	_, err := engine.Run(context.Background(), task, engine.WithObserver(observer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(types) == 0 {
		t.Fatal("expected at least one lifecycle event")
	}
	sawDone := false
	for _, ty := range types {
		if ty == engine.EventDone {
			sawDone = true
		}
	}
	if !sawDone {
		t.Fatalf("got events %v, expected an EventDone", types)
	}
}

func TestWithTimeoutExpiresUnderEngine(t *testing.T) {
	slow := parseq.Blocking("slow", func(ctx context.Context) (int, error) {
		time.Sleep(100 * time.Millisecond)
		return 1, nil
	}, nil)
	bounded := parseq.WithTimeout(slow, 10*time.Millisecond)

	_, err := engine.Run(context.Background(), bounded)
	if !errors.Is(err, parseq.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}
