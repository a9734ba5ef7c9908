package tzindex

import "fmt"

// CellDegrees is the edge length, in degrees, of a root grid cell.
const CellDegrees = 360.0 / RootWidth // 7.5

// Cell is a quadtree cell in root grid units. Root cells have Size 1 and
// Depth 0; each level below halves Size.
type Cell struct {
	X, Y  float64
	Size  float64
	Depth int
}

// Bounds returns the geodetic extent of c.
func (c Cell) Bounds() (west, south, east, north float64) {
	west = c.X*CellDegrees - 180
	east = (c.X+c.Size)*CellDegrees - 180
	north = 90 - c.Y*CellDegrees
	south = 90 - (c.Y+c.Size)*CellDegrees
	return west, south, east, north
}

// Center returns the geodetic centre of c.
func (c Cell) Center() (lat, lon float64) {
	west, south, east, north := c.Bounds()
	return (south + north) / 2, (west + east) / 2
}

// Quadrant returns the child of c at (u, v).
func (c Cell) Quadrant(u, v int) Cell {
	half := c.Size / 2
	return Cell{
		X:     c.X + float64(u)*half,
		Y:     c.Y + float64(v)*half,
		Size:  half,
		Depth: c.Depth + 1,
	}
}

// Classifier decides the content of a cell. It returns split=true to
// subdivide the cell, otherwise ordinal is the label table position of the
// leaf. At the builder's depth limit split is ignored and ordinal is used.
type Classifier func(c Cell) (ordinal int, split bool)

// Builder encodes a quadtree described by a Classifier into node data. It is
// the inverse of the decoding performed by Index.Resolve.
//
// Blocks are emitted breadth first, so every child block follows its parent
// and child pointers are stored relative to the parent:
//
//	idx = child - parent - 1
//
// with the root grid acting as parent -1.
//
// A pointer must stay below IndexSpace-L, L being the label count, or it
// would decode as a leaf. Under breadth first order the distance from a parent
// to its children is roughly the number of blocks queued on the next level,
// so a level may hold at most about IndexSpace-L blocks. With 30 labels that
// is 3106: splitting every root cell twice (1152 blocks, then 4608) already
// overflows. Build reports such trees with ErrPointerTooWide rather than
// emitting a table that decodes differently.
type Builder struct {
	labels   []string
	classify Classifier
	maxDepth int
}

// NewBuilder returns a builder for labels. maxDepth bounds the depth of the
// emitted tree and must be in [0, MaxDepth].
func NewBuilder(labels []string, classify Classifier, maxDepth int) (*Builder, error) {
	if err := CheckLabels(labels); err != nil {
		return nil, err
	}
	if maxDepth < 0 || maxDepth > MaxDepth {
		return nil, fmt.Errorf("%w: builder depth %d", ErrDepthExceeded, maxDepth)
	}
	return &Builder{labels: labels, classify: classify, maxDepth: maxDepth}, nil
}

type pendingBlock struct {
	n    int
	cell Cell
}

// Build runs the classifier over the whole grid and returns the node data.
func (b *Builder) Build() ([]byte, error) {
	labelCount := len(b.labels)
	nodeData := make([]byte, RootBytes)
	var queue []pendingBlock

	// emit classifies c and writes its value at off. parent is the node
	// counter of the block holding off, -1 for the root grid.
	emit := func(c Cell, parent, off int) error {
		ordinal, split := b.classify(c)
		if !split || c.Depth >= b.maxDepth {
			if ordinal < 0 || ordinal >= labelCount {
				return fmt.Errorf("%w: ordinal %d", ErrLeafOutOfRange, ordinal)
			}
			EncodePair(nodeData, off, LeafValue(ordinal, labelCount))
			return nil
		}

		n := (len(nodeData) - RootBytes) / BlockBytes
		idx := n - parent - 1
		if IsLeaf(idx, labelCount) {
			return fmt.Errorf("%w: block %d from %d needs %d, limit %d",
				ErrPointerTooWide, n, parent, idx, IndexSpace-labelCount-1)
		}
		nodeData = append(nodeData, make([]byte, BlockBytes)...)
		EncodePair(nodeData, off, idx)
		queue = append(queue, pendingBlock{n: n, cell: c})
		return nil
	}

	for v := 0; v < RootHeight; v++ {
		for u := 0; u < RootWidth; u++ {
			c := Cell{X: float64(u), Y: float64(v), Size: 1}
			if err := emit(c, -1, RootOffset(u, v)); err != nil {
				return nil, err
			}
		}
	}

	for len(queue) > 0 {
		pb := queue[0]
		queue = queue[1:]
		for q := 0; q < 4; q++ {
			u, v := q&1, q>>1
			if err := emit(pb.cell.Quadrant(u, v), pb.n, ChildOffset(pb.n, u, v)); err != nil {
				return nil, err
			}
		}
	}
	return nodeData, nil
}
