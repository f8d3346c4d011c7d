// Package bamio adapts BAM readers and writers to alnmerge sources and sinks
// and reconciles the headers of multiple BAM inputs.
package bamio

import (
	"fmt"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/bsm/alnmerge"
)

// Record wraps a SAM record.
type Record struct {
	*sam.Record
}

// Key implements alnmerge.Record.
func (r Record) Key() alnmerge.Key {
	return alnmerge.Key{RefID: int32(r.Ref.ID()), Pos: int32(r.Pos)}
}

// Source reads records from a BAM reader.
type Source struct {
	r *bam.Reader
}

// NewSource wraps a BAM reader.
func NewSource(r *bam.Reader) *Source {
	return &Source{r: r}
}

// Next implements alnmerge.Source.
func (s *Source) Next() (Record, error) {
	rec, err := s.r.Read()
	if err != nil {
		return Record{}, err
	}
	return Record{Record: rec}, nil
}

// Sink writes records to a BAM writer.
type Sink struct {
	w *bam.Writer
}

// NewSink wraps a BAM writer.
func NewSink(w *bam.Writer) *Sink {
	return &Sink{w: w}
}

// Append implements alnmerge.Sink.
func (s *Sink) Append(rec Record) error {
	return s.w.Write(rec.Record)
}

// --------------------------------------------------------------------

// Translator rebinds the references of records read from one input to the
// references of a unified header.
type Translator struct {
	refs      []*sam.Reference // unified reference, by local id
	monotonic bool
}

// Monotonic returns true if translated records keep their relative order.
func (t *Translator) Monotonic() bool { return t.monotonic }

// Apply translates rec in place.
func (t *Translator) Apply(rec Record) (Record, error) {
	var err error
	if rec.Ref, err = t.ref(rec.Ref); err != nil {
		return rec, err
	}
	if rec.MateRef, err = t.ref(rec.MateRef); err != nil {
		return rec, err
	}
	return rec, nil
}

func (t *Translator) ref(local *sam.Reference) (*sam.Reference, error) {
	id := local.ID()
	if id < 0 {
		return nil, nil
	}
	if id >= len(t.refs) {
		return nil, fmt.Errorf("bamio: reference id %d not in header", id)
	}
	return t.refs[id], nil
}

// Reconcile builds a single coordinate-sorted header from the headers of all
// inputs and returns one translator per input.
//
// Each reference is cloned from the first input declaring it, so assembly,
// species, checksum and URI tags survive. Programs are unified by id and
// comments are kept in input order. The version and group order are taken
// from the first input. Read groups are unified by id and the first
// declaration wins; see DivergentReadGroups.
func Reconcile(headers []*sam.Header) (*sam.Header, []*Translator, error) {
	dicts := make([]alnmerge.Dictionary, len(headers))
	decl := make(map[string]*sam.Reference)
	for i, h := range headers {
		for _, ref := range h.Refs() {
			dicts[i].Refs = append(dicts[i].Refs, alnmerge.Reference{Name: ref.Name(), Length: ref.Len()})
			if _, ok := decl[ref.Name()]; !ok {
				decl[ref.Name()] = ref
			}
		}
		for _, rg := range h.RGs() {
			dicts[i].ReadGroups = append(dicts[i].ReadGroups, rg.Name())
		}
	}

	unified, trans, err := alnmerge.Reconcile(dicts)
	if err != nil {
		return nil, nil, err
	}

	refs := make([]*sam.Reference, 0, len(unified.Refs))
	for _, ref := range unified.Refs {
		refs = append(refs, decl[ref.Name].Clone())
	}

	out, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, nil, err
	}
	if len(headers) != 0 {
		out.Version = headers[0].Version
		out.GroupOrder = headers[0].GroupOrder
	}
	out.SortOrder = sam.Coordinate

	rgSeen := make(map[string]struct{})
	pgSeen := make(map[string]struct{})
	coSeen := make(map[string]struct{})
	for _, h := range headers {
		for _, rg := range h.RGs() {
			if _, ok := rgSeen[rg.Name()]; ok {
				continue
			}
			rgSeen[rg.Name()] = struct{}{}
			if err := out.AddReadGroup(rg.Clone()); err != nil {
				return nil, nil, err
			}
		}
		for _, pg := range h.Progs() {
			if _, ok := pgSeen[pg.UID()]; ok {
				continue
			}
			pgSeen[pg.UID()] = struct{}{}
			if err := out.AddProgram(pg.Clone()); err != nil {
				return nil, nil, err
			}
		}
		for _, co := range h.Comments {
			if _, ok := coSeen[co]; ok {
				continue
			}
			coSeen[co] = struct{}{}
			out.Comments = append(out.Comments, co)
		}
	}

	translators := make([]*Translator, len(headers))
	for i, h := range headers {
		t := &Translator{
			refs:      make([]*sam.Reference, len(h.Refs())),
			monotonic: trans[i].Monotonic(),
		}
		for j := range t.refs {
			t.refs[j] = refs[trans[i].RefID(int32(j))]
		}
		translators[i] = t
	}
	return out, translators, nil
}

// DivergentReadGroups returns the ids of read groups which more than one
// input declares with differing fields.
func DivergentReadGroups(headers []*sam.Header) []string {
	first := make(map[string]string)
	reported := make(map[string]struct{})

	var ids []string
	for _, h := range headers {
		for _, rg := range h.RGs() {
			line := rg.String()
			prev, ok := first[rg.Name()]
			if !ok {
				first[rg.Name()] = line
				continue
			}
			if _, done := reported[rg.Name()]; !done && prev != line {
				reported[rg.Name()] = struct{}{}
				ids = append(ids, rg.Name())
			}
		}
	}
	return ids
}
