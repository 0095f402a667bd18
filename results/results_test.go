package results_test

import (
	"testing"

	"github.com/parseq-go/parseq/results"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := results.New()
	results.Put(s, "count", 42)

	v, ok := results.Get[int](s, "count")
	if !ok || v != 42 {
		t.Fatalf("got (%d, %v), want (42, true)", v, ok)
	}
}

func TestGetWrongTypeReturnsFalse(t *testing.T) {
	s := results.New()
	results.Put(s, "name", "alice")

	_, ok := results.Get[int](s, "name")
	if ok {
		t.Fatal("expected type mismatch to report ok=false")
	}
}

func TestMustGetPanicsOnMissingKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustGet to panic on a missing key")
		}
	}()
	s := results.New()
	results.MustGet[int](s, "missing")
}

func TestDeleteAndClear(t *testing.T) {
	s := results.New()
	results.Put(s, "a", 1)
	results.Put(s, "b", 2)

	s.Delete("a")
	if s.Has("a") {
		t.Fatal("expected \"a\" to be deleted")
	}
	if s.Len() != 1 {
		t.Fatalf("got len %d, want 1", s.Len())
	}

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("got len %d, want 0 after Clear", s.Len())
	}
}
