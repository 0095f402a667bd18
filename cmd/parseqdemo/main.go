package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parseq-go/parseq"
	"github.com/parseq-go/parseq/engine"
	"github.com/parseq-go/parseq/retry"
	"github.com/parseq-go/parseq/tracetree"
)

// loggingObserver prints a human-readable log of task lifecycle events.
type loggingObserver struct{}

func (loggingObserver) HandleEvent(ev engine.Event) {
	fmt.Printf("[event] %-24s %-10s at %s\n", ev.TaskName, ev.Type, ev.Time.Format(time.RFC3339Nano))
}

// buildPipeline composes a small ParSeq-style graph: two independent
// fetches run in parallel, their combined result is post-processed with a
// timeout, and a flaky downstream call is wrapped in a retry policy.
func buildPipeline() *parseq.Task[string] {
	fetchUsers := parseq.Callable("fetch-users", func() (int, error) {
		time.Sleep(150 * time.Millisecond)
		return 42, nil
	})

	fetchOrders := parseq.Callable("fetch-orders", func() (int, error) {
		time.Sleep(220 * time.Millisecond)
		return 7, nil
	})

	combined := parseq.Par2("combine", fetchUsers, fetchOrders)

	summarized := parseq.Map(combined, "summarize", func(r parseq.ParResult2[int, int]) (string, error) {
		return fmt.Sprintf("%d users placed %d orders", r.A, r.B), nil
	})

	bounded := parseq.WithTimeout(summarized, 2*time.Second)

	flaky := retry.With("notify", retry.Policy{
		MaxRetries: 2,
		Backoff:    retry.ConstantBackoff{Delay: 50 * time.Millisecond},
		ShouldRetry: retry.On(errTransient),
		OnRetry: func(attempt int, err error) {
			fmt.Printf("[retry] attempt %d failed: %v\n", attempt, err)
		},
	}, func(attempt int) *parseq.Task[struct{}] {
		return parseq.Action("notify.attempt", func() error {
			if attempt < 2 {
				return errTransient
			}
			return nil
		})
	})

	return parseq.AndThenRun(bounded, "pipeline", flaky)
}

var errTransient = errors.New("transient notification failure")

func main() {
	task := buildPipeline()

	result, err := engine.Run(context.Background(), task,
		engine.WithWorkers(4),
		engine.WithObserver(loggingObserver{}),
	)
	if err != nil {
		fmt.Printf("pipeline failed: %v\n", err)
	} else {
		fmt.Println("pipeline result:", result)
	}

	fmt.Println()
	fmt.Println(tracetree.Render(task.Trace()))
}
