package alnmerge

import (
	"errors"
	"fmt"
)

var magic = []byte{65, 76, 78, 84, 66, 76, 1, 219}

const (
	blockNoCompression     = 0
	blockSnappyCompression = 1
)

var (
	errClosed         = errors.New("alnmerge: is closed")
	errBadMagic       = errors.New("alnmerge: bad magic byte sequence")
	errBadCompression = errors.New("alnmerge: bad compression codec")
	errReleased       = errors.New("alnmerge: iterator was released")
)

type blockInfo struct {
	MaxKey uint64 // maximum packed key in the block
	Offset int64  // block offset position
}

// --------------------------------------------------------------------

// Compression is the compression codec
type Compression byte

func (c Compression) isValid() bool {
	return c >= SnappyCompression && c < unknownCompression
}

// ParseCompression parses a codec name.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "snappy", "":
		return SnappyCompression, nil
	case "none":
		return NoCompression, nil
	}
	return unknownCompression, fmt.Errorf("alnmerge: unknown compression %q", s)
}

// Supported compression codecs
const (
	SnappyCompression Compression = iota
	NoCompression
	unknownCompression
)
