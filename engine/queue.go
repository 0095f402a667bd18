package engine

import (
	"container/heap"

	"github.com/parseq-go/parseq"
)

// readyItem is one entry in the scheduler's ready queue: a task that has
// become eligible to run, ordered by priority (higher first) and, within
// a priority, by arrival order (FIFO tiebreak) for tasks that become
// ready simultaneously.
type readyItem struct {
	task parseq.Runnable
	prio int
	seq  uint64
}

// readyQueue is a container/heap.Interface over readyItem, used as the
// max-priority/min-sequence binary heap backing Engine's scheduler loop.
type readyQueue []*readyItem

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].prio != q[j].prio {
		return q[i].prio > q[j].prio
	}
	return q[i].seq < q[j].seq
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) {
	*q = append(*q, x.(*readyItem))
}

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*readyQueue)(nil)
