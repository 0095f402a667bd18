package parseq

import (
	"errors"
	"sync"
	"testing"
)

func TestPromiseListenBeforeCompletion(t *testing.T) {
	p := NewPromise[int]()
	var got int
	var gotErr error
	var fired bool
	p.Listen(func(v int, err error) {
		fired = true
		got, gotErr = v, err
	})
	if fired {
		t.Fatal("listener fired before completion")
	}
	p.complete(7, nil)
	if !fired {
		t.Fatal("listener did not fire on completion")
	}
	if got != 7 || gotErr != nil {
		t.Fatalf("got (%d, %v), want (7, nil)", got, gotErr)
	}
}

func TestPromiseListenAfterCompletionFiresSynchronously(t *testing.T) {
	p := NewPromise[int]()
	p.complete(9, nil)

	fired := false
	p.Listen(func(v int, err error) {
		fired = true
		if v != 9 {
			t.Errorf("got %d, want 9", v)
		}
	})
	if !fired {
		t.Fatal("listener registered on terminal promise must fire synchronously")
	}
}

func TestPromiseCompleteIsSingleAssignment(t *testing.T) {
	p := NewPromise[int]()
	if !p.complete(1, nil) {
		t.Fatal("first complete call should win")
	}
	if p.complete(2, nil) {
		t.Fatal("second complete call should not win")
	}
	v, err, ok := p.Peek()
	if !ok || v != 1 || err != nil {
		t.Fatalf("got (%d, %v, %v), want (1, nil, true)", v, err, ok)
	}
}

func TestPromiseCompleteConcurrentOnlyOneWinner(t *testing.T) {
	p := NewPromise[int]()
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.complete(i, nil) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
}

func TestFailedPromise(t *testing.T) {
	wantErr := errors.New("boom")
	p := Failed[string](wantErr)
	v, err, ok := p.Peek()
	if !ok || v != "" || !errors.Is(err, wantErr) {
		t.Fatalf("got (%q, %v, %v)", v, err, ok)
	}
}

func TestSettablePromiseDoneThenFailIsNoOp(t *testing.T) {
	sp := NewSettablePromise[int]()
	sp.Done(1)
	sp.Fail(errors.New("too late"))

	v, err, ok := sp.Promise().Peek()
	if !ok || v != 1 || err != nil {
		t.Fatalf("got (%d, %v, %v), want (1, nil, true)", v, err, ok)
	}
}
