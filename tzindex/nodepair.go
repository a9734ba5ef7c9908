package tzindex

// DecodePair decodes the node value stored at byte offset off of nodeData.
// Caller must ensure off+1 is within nodeData.
func DecodePair(nodeData []byte, off int) int {
	return int(nodeData[off])*PairRadix + int(nodeData[off+1]) - PairOffset
}

// EncodePair writes idx at byte offset off of nodeData. idx must be in
// [0, IndexSpace).
func EncodePair(nodeData []byte, off int, idx int) {
	if idx < 0 || idx >= IndexSpace {
		panic("tzindex: pair value out of range")
	}
	nodeData[off] = byte(PairBase + idx/PairRadix)
	nodeData[off+1] = byte(PairBase + idx%PairRadix)
}

// RootOffset returns the byte offset of root grid cell (u, v).
func RootOffset(u, v int) int {
	return v*RootStride + u*PairBytes
}

// BlockOffset returns the byte offset of the child block for node counter n.
func BlockOffset(n int) int {
	return n*BlockBytes + RootBytes
}

// ChildOffset returns the byte offset of quadrant (u, v) within the block for
// node counter n.
func ChildOffset(n, u, v int) int {
	return BlockOffset(n) + v*4 + u*2
}

// IsLeaf reports whether idx is a leaf value for a label table of labelCount
// entries.
func IsLeaf(idx, labelCount int) bool {
	return idx+labelCount >= IndexSpace
}

// LeafOrdinal returns the label table position of the leaf value idx.
func LeafOrdinal(idx, labelCount int) int {
	return idx + labelCount - IndexSpace
}

// LeafValue is the inverse of LeafOrdinal.
func LeafValue(ordinal, labelCount int) int {
	return IndexSpace - labelCount + ordinal
}

func validPairByte(b byte) bool {
	return b >= PairBase && int(b) < PairBase+PairRadix
}
