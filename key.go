package alnmerge

import (
	"math"
	"strconv"
)

// Unmapped is the reference id of reads without a reference alignment.
// It sorts after every real reference id.
const Unmapped int32 = -1

// Key is the coordinate ordering key of an alignment record.
type Key struct {
	RefID int32 // reference id, or Unmapped
	Pos   int32 // 0-based leftmost position
}

// IsUnmapped returns true if the key carries the unmapped sentinel.
func (k Key) IsUnmapped() bool { return k.RefID < 0 }

// Less returns true if k sorts before o.
func (k Key) Less(o Key) bool { return Compare(k, o) < 0 }

// String returns a human readable representation.
func (k Key) String() string {
	if k.IsUnmapped() {
		return "*:" + strconv.Itoa(int(k.Pos))
	}
	return strconv.Itoa(int(k.RefID)) + ":" + strconv.Itoa(int(k.Pos))
}

// Uint64 packs the key into an unsigned integer which preserves the
// coordinate order.
func (k Key) Uint64() uint64 {
	return uint64(refOrder(k.RefID))<<32 | uint64(uint32(k.Pos)^signBit)
}

// KeyFromUint64 reverses Key.Uint64. Negative reference ids are restored
// as Unmapped.
func KeyFromUint64(u uint64) Key {
	return Key{
		RefID: int32(uint32(u >> 32)),
		Pos:   int32(uint32(u) ^ signBit),
	}
}

const signBit = 1 << 31

// Compare compares two keys and returns -1, 0 or +1. Reference ids are
// compared as unsigned values, so Unmapped is treated as math.MaxUint32.
// Positions are only compared when reference ids are equal.
func Compare(a, b Key) int {
	if ra, rb := refOrder(a.RefID), refOrder(b.RefID); ra < rb {
		return -1
	} else if ra > rb {
		return 1
	}

	if a.Pos < b.Pos {
		return -1
	} else if a.Pos > b.Pos {
		return 1
	}
	return 0
}

func refOrder(id int32) uint32 {
	if id < 0 {
		return math.MaxUint32
	}
	return uint32(id)
}
