package alnmerge

import (
	"context"
	"fmt"
)

// Options configure a merge.
type Options struct {
	// Strict aborts the merge on the first source read failure. By default
	// a failing source is dropped and the remaining sources are merged.
	Strict bool

	// HeapThreshold is the minimum number of sources at which a binary heap
	// replaces the linear scan for selecting the next record. Both produce
	// the same order. A negative value disables the heap.
	// Default: 64.
	HeapThreshold int

	// OnDrop is called whenever a source is dropped because of a read failure.
	OnDrop func(source int, err error)
}

func (o *Options) norm() *Options {
	var oo Options
	if o != nil {
		oo = *o
	}

	if oo.HeapThreshold == 0 {
		oo.HeapThreshold = 64
	}

	return &oo
}

func (o *Options) useHeap(numSources int) bool {
	return o.HeapThreshold > 0 && numSources >= o.HeapThreshold
}

// Stats summarise a merge.
type Stats struct {
	Sources    int     // number of sources
	Selections int64   // number of records appended to the sink
	PerSource  []int64 // records appended, by source index
	Dropped    []int   // indices of sources dropped after a read failure
	Cancelled  bool    // true if the context was cancelled before completion
}

// SourceError is returned by strict merges when a source fails to read.
type SourceError struct {
	Source int
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("alnmerge: source %d: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SinkError is returned when a record cannot be appended to the sink.
type SinkError struct {
	Source int // the source the record originated from
	Err    error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("alnmerge: sink append (record from source %d): %v", e.Source, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// --------------------------------------------------------------------

type mergeState int

const (
	statePriming mergeState = iota
	stateSelecting
	stateDraining
	stateDone
)

// Merge merges sorted sources into sink. It returns once all sources are
// exhausted, a sink append fails, a source fails in strict mode or ctx is
// cancelled. Cancellation is not an error: the records appended so far
// form a valid sorted prefix and Stats.Cancelled is set.
//
// Zero sources, or sources which are all empty, result in an empty merge.
func Merge[R Record](ctx context.Context, sources []Source[R], sink Sink[R], opts *Options) (*Stats, error) {
	o := opts.norm()
	m := &merger[R]{
		sink: sink,
		opts: o,
		stats: &Stats{
			Sources:   len(sources),
			PerSource: make([]int64, len(sources)),
		},
	}
	m.front = newFrontier(sources, o.useHeap(len(sources)), m.sourceFailed)
	return m.stats, m.run(ctx)
}

type merger[R Record] struct {
	front *frontier[R]
	sink  Sink[R]
	opts  *Options
	stats *Stats
}

func (m *merger[R]) run(ctx context.Context) (err error) {
	defer m.front.release()

	for state := statePriming; state != stateDone; {
		switch state {
		case statePriming:
			state = stateSelecting
			if n, ierr := m.front.init(); ierr != nil {
				err, state = ierr, stateDraining
			} else if n == 0 {
				state = stateDraining
			}
		case stateSelecting:
			state, err = m.step(ctx)
		case stateDraining:
			m.front.release()
			state = stateDone
		}
	}
	return err
}

// step emits the least pending record and refills its slot.
func (m *merger[R]) step(ctx context.Context) (mergeState, error) {
	if ctx.Err() != nil {
		m.stats.Cancelled = true
		return stateDraining, nil
	}

	i := m.front.selectMin()
	rec, _ := m.front.peek(i)
	if err := m.sink.Append(rec); err != nil {
		return stateDraining, &SinkError{Source: i, Err: err}
	}
	m.stats.Selections++
	m.stats.PerSource[i]++

	if err := m.front.advance(i); err != nil {
		return stateDraining, err
	}
	if m.front.Len() == 0 {
		return stateDraining, nil
	}
	return stateSelecting, nil
}

func (m *merger[R]) sourceFailed(i int, err error) error {
	m.stats.Dropped = append(m.stats.Dropped, i)
	if m.opts.OnDrop != nil {
		m.opts.OnDrop(i, err)
	}
	if m.opts.Strict {
		return &SourceError{Source: i, Err: err}
	}
	return nil
}
