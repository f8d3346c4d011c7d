package alnmerge

// SeekBlock exposes the block search of the reader to tests.
func SeekBlock(r *Reader, key Key) (*BlockReader, error) {
	return r.seekBlock(key.Uint64())
}

// SeekSection exposes the section search of the block reader to tests.
func SeekSection(r *BlockReader, key Key) *SectionReader {
	return r.seekSection(key.Uint64())
}
