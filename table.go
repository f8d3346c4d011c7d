package alnmerge

import (
	"io"
	"math"
)

// Entry is a table record, a coordinate key and an opaque encoded payload.
type Entry struct {
	K     Key
	Value []byte
}

// Key implements Record.
func (e *Entry) Key() Key { return e.K }

// TableSource reads entries from a table, in stored order.
type TableSource struct {
	iter *Iterator
}

// NewTableSource creates a source over all records of r.
func NewTableSource(r *Reader) (*TableSource, error) {
	return NewTableSourceAt(r, Key{Pos: math.MinInt32})
}

// NewTableSourceAt creates a source starting at the first record >= start.
func NewTableSourceAt(r *Reader, start Key) (*TableSource, error) {
	iter, err := r.Seek(start)
	if err != nil {
		return nil, err
	}
	return &TableSource{iter: iter}, nil
}

// Next implements Source. Values are copied, so entries remain valid
// after subsequent calls.
func (s *TableSource) Next() (*Entry, error) {
	if !s.iter.Next() {
		if err := s.iter.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	val := s.iter.Value()
	return &Entry{
		K:     s.iter.Key(),
		Value: append(make([]byte, 0, len(val)), val...),
	}, nil
}

// Release releases the underlying iterator.
func (s *TableSource) Release() { s.iter.Release() }

// TableSink appends entries to a table writer.
type TableSink struct {
	w *Writer
}

// NewTableSink wraps a writer.
func NewTableSink(w *Writer) *TableSink {
	return &TableSink{w: w}
}

// Append implements Sink.
func (s *TableSink) Append(e *Entry) error {
	return s.w.Append(e.K, e.Value)
}
