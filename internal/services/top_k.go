package services

import "container/heap"

type ranked[T any] struct {
	item  T
	score float64
	seq   uint64
}

// Min-heap: the root is the worst retained candidate. Lower score is worse;
// on equal scores the later arrival is worse.
type rankedHeap[T any] []ranked[T]

func (h rankedHeap[T]) Len() int { return len(h) }
func (h rankedHeap[T]) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].seq > h[j].seq
}
func (h rankedHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *rankedHeap[T]) Push(x any)   { *h = append(*h, x.(ranked[T])) }
func (h *rankedHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopK keeps the k best candidates seen so far in O(log k) per offer.
// Not safe for concurrent use.
type TopK[T any] struct {
	k    int
	next uint64
	h    rankedHeap[T]
}

func NewTopK[T any](k int) *TopK[T] {
	return &TopK[T]{k: k, h: make(rankedHeap[T], 0, max(k, 0))}
}

// Offer records a candidate. It replaces the current worst only if it
// strictly outranks it, so earlier candidates win ties.
func (t *TopK[T]) Offer(item T, score float64) {
	seq := t.next
	t.next++
	if t.k <= 0 {
		return
	}

	c := ranked[T]{item: item, score: score, seq: seq}
	if t.h.Len() < t.k {
		heap.Push(&t.h, c)
		return
	}
	if score > t.h[0].score {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

func (t *TopK[T]) Len() int { return t.h.Len() }

// Seen reports how many candidates were offered.
func (t *TopK[T]) Seen() uint64 { return t.next }

// Drain empties the selector, returning candidates by descending score and
// ascending arrival order.
func (t *TopK[T]) Drain() []T {
	out := make([]T, t.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(ranked[T]).item
	}
	return out
}
