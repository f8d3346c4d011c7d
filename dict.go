package alnmerge

import (
	"errors"
	"fmt"
)

// ErrDictConflict is returned when two inputs declare the same reference
// name with different lengths.
var ErrDictConflict = errors.New("alnmerge: conflicting reference dictionaries")

// Reference is a reference sequence dictionary entry.
type Reference struct {
	Name   string
	Length int
}

// Dictionary is the reference sequence and read group dictionary of an input.
type Dictionary struct {
	Refs       []Reference
	ReadGroups []string
}

// Translation maps the ids of one input onto a unified dictionary.
type Translation struct {
	refs []int32
}

// Identity returns the translation of an input already using the unified
// dictionary.
func Identity() *Translation { return &Translation{} }

// RefID translates a local reference id. Unmapped is returned unchanged, as
// are ids of an Identity translation.
func (t *Translation) RefID(local int32) int32 {
	if local < 0 || t.refs == nil {
		return local
	}
	if int(local) >= len(t.refs) {
		return Unmapped
	}
	return t.refs[local]
}

// Monotonic returns true if the translation preserves the relative order of
// reference ids, so a sorted input stays sorted after translation.
func (t *Translation) Monotonic() bool {
	for i := 1; i < len(t.refs); i++ {
		if t.refs[i] <= t.refs[i-1] {
			return false
		}
	}
	return true
}

// Reconcile combines per-input dictionaries into one unified dictionary and
// returns a translation per input. References are unified by name, in order
// of first appearance. Read groups are unified by id and keep their ids, so
// they need no translation.
//
// When the first dictionary already contains every reference, its ids are
// preserved, so the inputs remain sorted after translation. Otherwise inputs
// with references in a different relative order may need to be re-sorted.
func Reconcile(dicts []Dictionary) (*Dictionary, []*Translation, error) {
	unified := new(Dictionary)
	refIndex := make(map[string]int32)
	rgSeen := make(map[string]struct{})
	trans := make([]*Translation, len(dicts))

	for i, d := range dicts {
		t := &Translation{refs: make([]int32, len(d.Refs))}
		for j, ref := range d.Refs {
			id, ok := refIndex[ref.Name]
			if !ok {
				id = int32(len(unified.Refs))
				refIndex[ref.Name] = id
				unified.Refs = append(unified.Refs, ref)
			} else if have := unified.Refs[id].Length; have != ref.Length {
				return nil, nil, fmt.Errorf("%w: input %d declares %s with length %d, expected %d", ErrDictConflict, i, ref.Name, ref.Length, have)
			}
			t.refs[j] = id
		}

		for _, rg := range d.ReadGroups {
			if _, ok := rgSeen[rg]; !ok {
				rgSeen[rg] = struct{}{}
				unified.ReadGroups = append(unified.ReadGroups, rg)
			}
		}
		trans[i] = t
	}
	return unified, trans, nil
}
