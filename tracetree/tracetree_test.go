package tracetree_test

import (
	"context"
	"strings"
	"testing"

	"github.com/parseq-go/parseq"
	"github.com/parseq-go/parseq/engine"
	"github.com/parseq-go/parseq/tracetree"
)

func TestRenderIncludesTaskNames(t *testing.T) {
	src := parseq.Callable("fetch", func() (int, error) { return 1, nil })
	mapped := parseq.Map(src, "double", func(v int) (int, error) { return v * 2, nil })

	_, err := engine.Run(context.Background(), mapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := tracetree.Render(mapped.Trace())
	if !strings.Contains(out, "double") {
		t.Fatalf("rendered trace missing root task name:\n%s", out)
	}
	if !strings.Contains(out, "fetch") {
		t.Fatalf("rendered trace missing predecessor task name:\n%s", out)
	}
}

func TestRenderSkipsSystemHiddenSubtree(t *testing.T) {
	src := parseq.Callable("fetch", func() (int, error) { return 1, nil })
	hidden := parseq.SystemHidden(parseq.Map(src, "internal-step", func(v int) (int, error) { return v, nil }))
	top := parseq.Map(hidden, "visible", func(v int) (int, error) { return v, nil })

	_, err := engine.Run(context.Background(), top)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := tracetree.Render(top.Trace())
	if strings.Contains(out, "internal-step") {
		t.Fatalf("rendered trace should not include system-hidden task:\n%s", out)
	}
}
