package alnmerge

import (
	"container/heap"
	"errors"
	"io"
)

type slot[R Record] struct {
	rec    R
	key    Key
	active bool
}

// frontier holds at most one pending record per source. Slot indices match
// source indices for the whole lifetime of a merge.
type frontier[R Record] struct {
	sources []Source[R]
	slots   []slot[R]
	live    int

	heap *slotHeap[R] // nil when using linear selection

	onErr func(idx int, err error) error
}

func newFrontier[R Record](sources []Source[R], useHeap bool, onErr func(int, error) error) *frontier[R] {
	f := &frontier[R]{
		sources: sources,
		slots:   make([]slot[R], len(sources)),
		onErr:   onErr,
	}
	if useHeap {
		f.heap = &slotHeap[R]{f: f, idx: make([]int, 0, len(sources))}
	}
	return f
}

// init reads the first record of every source and returns the number of
// active slots.
func (f *frontier[R]) init() (int, error) {
	for i := range f.sources {
		if err := f.fill(i); err != nil {
			return f.live, err
		}
	}
	if f.heap != nil {
		heap.Init(f.heap)
	}
	return f.live, nil
}

// Len returns the number of active slots.
func (f *frontier[R]) Len() int { return f.live }

// peek returns the pending record of slot i.
func (f *frontier[R]) peek(i int) (R, bool) {
	s := f.slots[i]
	return s.rec, s.active
}

// selectMin returns the index of the least pending record, or -1 if the
// frontier is empty. Exact ties resolve to the lowest index.
func (f *frontier[R]) selectMin() int {
	if f.live == 0 {
		return -1
	}
	if f.heap != nil {
		return f.heap.idx[0]
	}

	best := -1
	for i := range f.slots {
		s := &f.slots[i]
		if !s.active {
			continue
		}
		if best < 0 || Compare(s.key, f.slots[best].key) < 0 {
			best = i
		}
	}
	return best
}

// advance replaces the pending record of slot i with the next one from
// its source, or deactivates the slot permanently.
func (f *frontier[R]) advance(i int) error {
	err := f.fill(i)
	if f.heap != nil && len(f.heap.idx) != 0 && f.heap.idx[0] == i {
		if f.slots[i].active {
			heap.Fix(f.heap, 0)
		} else {
			heap.Pop(f.heap)
		}
	}
	return err
}

func (f *frontier[R]) fill(i int) error {
	s := &f.slots[i]
	wasActive := s.active

	rec, err := f.sources[i].Next()
	if err == nil {
		s.rec, s.key, s.active = rec, rec.Key(), true
		if !wasActive {
			f.live++
			if f.heap != nil {
				f.heap.idx = append(f.heap.idx, i)
			}
		}
		return nil
	}

	var zero R
	s.rec, s.active = zero, false
	if wasActive {
		f.live--
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return f.onErr(i, err)
}

// release drops every pending record.
func (f *frontier[R]) release() {
	for i := range f.slots {
		f.slots[i] = slot[R]{}
	}
	f.live = 0
	if f.heap != nil {
		f.heap.idx = f.heap.idx[:0]
	}
}

// --------------------------------------------------------------------

// slotHeap is a binary min-heap of active slot indices, ordered by key and
// then by index.
type slotHeap[R Record] struct {
	f   *frontier[R]
	idx []int
}

func (h *slotHeap[R]) Len() int { return len(h.idx) }

func (h *slotHeap[R]) Less(i, j int) bool {
	a, b := h.idx[i], h.idx[j]
	if c := Compare(h.f.slots[a].key, h.f.slots[b].key); c != 0 {
		return c < 0
	}
	return a < b
}

func (h *slotHeap[R]) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }

func (h *slotHeap[R]) Push(x interface{}) { h.idx = append(h.idx, x.(int)) }

func (h *slotHeap[R]) Pop() interface{} {
	n := len(h.idx) - 1
	x := h.idx[n]
	h.idx = h.idx[:n]
	return x
}
