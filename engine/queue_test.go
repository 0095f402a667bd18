package engine

import (
	"container/heap"
	"testing"
)

func TestReadyQueueOrdersByPriorityThenFIFO(t *testing.T) {
	q := &readyQueue{}
	heap.Init(q)

	heap.Push(q, &readyItem{prio: 0, seq: 1})
	heap.Push(q, &readyItem{prio: 5, seq: 2})
	heap.Push(q, &readyItem{prio: 5, seq: 3})
	heap.Push(q, &readyItem{prio: -1, seq: 4})

	var order []uint64
	for q.Len() > 0 {
		order = append(order, heap.Pop(q).(*readyItem).seq)
	}

	want := []uint64{2, 3, 1, 4}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}
