package pipeline

import (
	"container/heap"
	"sort"
)

// rankHeap keeps the worst-ranked item at the root so it can be evicted
// when a better one arrives.
type rankHeap[T any] struct {
	items  []T
	before func(a, b T) bool
}

func (h rankHeap[T]) Len() int           { return len(h.items) }
func (h rankHeap[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h rankHeap[T]) Less(i, j int) bool { return h.before(h.items[j], h.items[i]) }
func (h *rankHeap[T]) Push(x any)        { h.items = append(h.items, x.(T)) }
func (h *rankHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// TopN retains the n best items under a strict total order. before(a, b)
// reports whether a ranks ahead of b; it must break every tie so the
// result does not depend on insertion order.
type TopN[T any] struct {
	h        *rankHeap[T]
	capacity int
}

// NewTopN creates a retainer for at most capacity items. A non-positive
// capacity retains nothing.
func NewTopN[T any](capacity int, before func(a, b T) bool) *TopN[T] {
	if capacity < 0 {
		capacity = 0
	}
	h := &rankHeap[T]{items: make([]T, 0, min(capacity, 64)), before: before}
	heap.Init(h)
	return &TopN[T]{h: h, capacity: capacity}
}

// Insert offers an item to the retainer.
func (t *TopN[T]) Insert(item T) {
	if t.capacity == 0 {
		return
	}
	if t.h.Len() < t.capacity {
		heap.Push(t.h, item)
		return
	}
	if t.h.before(item, t.h.items[0]) {
		t.h.items[0] = item
		heap.Fix(t.h, 0)
	}
}

// Values returns the retained items, best first.
func (t *TopN[T]) Values() []T {
	out := make([]T, len(t.h.items))
	copy(out, t.h.items)
	sort.Slice(out, func(i, j int) bool { return t.h.before(out[i], out[j]) })
	return out
}
