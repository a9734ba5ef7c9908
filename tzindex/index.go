package tzindex

import (
	"fmt"

	"github.com/google/uuid"
)

// Index is an immutable view over a compiled node table and its label table.
//
// The node table is laid out as:
//
//	rootGrid || block0 || block1 || ...
//
// where:
//   - rootGrid is RootWidth*RootHeight pairs, row major
//   - each block is 4 pairs, quadrant (u, v) at v*4 + u*2
//
// An Index is safe for concurrent use by any number of goroutines. Nothing
// in the package mutates nodeData or labels after construction.
type Index struct {
	nodeData []byte
	labels   []string
	buildID  uuid.UUID
}

// NewIndex validates the shape of nodeData and labels and returns an Index
// over them. The slices are retained, not copied; the caller must not modify
// them afterwards.
func NewIndex(nodeData []byte, labels []string) (*Index, error) {
	if err := CheckNodeData(nodeData); err != nil {
		return nil, err
	}
	if err := CheckLabels(labels); err != nil {
		return nil, err
	}
	return &Index{nodeData: nodeData, labels: labels}, nil
}

// CheckNodeData checks the size of nodeData and that every pair decodes into
// [0, IndexSpace).
func CheckNodeData(nodeData []byte) error {
	if len(nodeData) < RootBytes {
		return fmt.Errorf(
			"%w: want at least %d bytes, got %d", ErrNodeDataBadSize, RootBytes, len(nodeData))
	}
	if (len(nodeData)-RootBytes)%BlockBytes != 0 {
		return fmt.Errorf(
			"%w: %d bytes past the root grid is not a whole number of blocks",
			ErrNodeDataBadSize, len(nodeData)-RootBytes)
	}
	for i, b := range nodeData {
		if !validPairByte(b) {
			return fmt.Errorf("%w: byte %d at offset %d", ErrNodeByteInvalid, b, i)
		}
	}
	return nil
}

// CheckLabels checks the label table is non empty, fits the index space and
// holds distinct, non empty identifiers.
func CheckLabels(labels []string) error {
	if len(labels) == 0 {
		return ErrLabelsEmpty
	}
	if len(labels) > IndexSpace {
		return fmt.Errorf("%w: %d labels", ErrTooManyLabels, len(labels))
	}
	seen := make(map[string]struct{}, len(labels))
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("%w: position %d", ErrEmptyLabel, i)
		}
		if _, ok := seen[l]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}
		seen[l] = struct{}{}
	}
	return nil
}

// NodeData returns the node table. The result must not be modified.
func (ix *Index) NodeData() []byte { return ix.nodeData }

// Labels returns the label table. The result must not be modified.
func (ix *Index) Labels() []string { return ix.labels }

// LabelCount returns L, the number of leaf values reserved at the top of the
// index space.
func (ix *Index) LabelCount() int { return len(ix.labels) }

// BlockCount returns the number of child blocks following the root grid.
func (ix *Index) BlockCount() int {
	return (len(ix.nodeData) - RootBytes) / BlockBytes
}

// BuildID returns the build identifier recorded in the blob header, or
// uuid.Nil for indexes constructed directly with NewIndex.
func (ix *Index) BuildID() uuid.UUID { return ix.buildID }
