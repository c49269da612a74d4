// File: loop/timerheap.go
// Author: momentics <momentics@gmail.com>
//
// Min-heap of timer deadlines, tie-broken by insertion sequence so equal
// deadlines fire in registration order.

package loop

import "container/heap"

type timerEntry struct {
	deadline int64 // loop time, milliseconds
	seq      uint64
	timer    *Timer
	index    int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

func (h timerHeap) peek() (*timerEntry, bool) {
	if len(h) == 0 {
		return nil, false
	}
	return h[0], true
}

func (l *Loop) scheduleTimer(t *Timer, deadline int64) {
	l.timerSeq++
	e := &timerEntry{deadline: deadline, seq: l.timerSeq, timer: t}
	t.entry = e
	heap.Push(&l.timers, e)
}

func (l *Loop) unscheduleTimer(t *Timer) {
	if t.entry == nil || t.entry.index < 0 {
		t.entry = nil
		return
	}
	heap.Remove(&l.timers, t.entry.index)
	t.entry = nil
}
