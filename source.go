package alnmerge

import "io"

// Record is an alignment record. The merge only ever inspects its Key.
type Record interface {
	Key() Key
}

// Source is a sequential reader over one sorted input.
// Next must return io.EOF once the input is exhausted.
type Source[R Record] interface {
	Next() (R, error)
}

// Sink is an append-only writer receiving merged records in order.
type Sink[R Record] interface {
	Append(R) error
}

// SourceFunc adapts a function to a Source.
type SourceFunc[R Record] func() (R, error)

// Next implements Source.
func (f SourceFunc[R]) Next() (R, error) { return f() }

// SinkFunc adapts a function to a Sink.
type SinkFunc[R Record] func(R) error

// Append implements Sink.
func (f SinkFunc[R]) Append(rec R) error { return f(rec) }

// --------------------------------------------------------------------

// SliceSource is an in-memory Source.
type SliceSource[R Record] struct {
	recs []R
}

// NewSliceSource creates a source over recs.
func NewSliceSource[R Record](recs ...R) *SliceSource[R] {
	return &SliceSource[R]{recs: recs}
}

// Next implements Source.
func (s *SliceSource[R]) Next() (R, error) {
	var zero R
	if len(s.recs) == 0 {
		return zero, io.EOF
	}

	rec := s.recs[0]
	s.recs[0] = zero
	s.recs = s.recs[1:]
	return rec, nil
}

// SliceSink collects records in memory.
type SliceSink[R Record] struct {
	Records []R
}

// Append implements Sink.
func (s *SliceSink[R]) Append(rec R) error {
	s.Records = append(s.Records, rec)
	return nil
}

// --------------------------------------------------------------------

// Translate wraps src and applies fn to every record read. It is the hook
// through which per-source reference and read group ids are mapped into a
// unified dictionary before the records reach the merge.
func Translate[R Record](src Source[R], fn func(R) (R, error)) Source[R] {
	return SourceFunc[R](func() (R, error) {
		rec, err := src.Next()
		if err != nil {
			return rec, err
		}
		return fn(rec)
	})
}
