package tzindex

import "fmt"

// Stats summarises the reachable structure of an index.
type Stats struct {
	RootLeaves int
	// InternalNodes is the number of distinct blocks reached.
	InternalNodes int
	// Leaves counts leaf values in the root grid and in reached blocks, once
	// per block however many paths share it.
	Leaves int
	// MaxDepth is the length of the longest path, shared blocks included.
	MaxDepth       int
	Blocks         int
	LabelsReached  int
	UnusedLabels   []string
	UnreachedBytes int
}

// Verify walks every node reachable from the root grid and checks that child
// offsets stay inside the node table, that no path is deeper than MaxDepth
// and that every leaf maps into the label table. Errors wrap
// ErrDataIntegrity.
//
// Unlike Resolve, Verify visits every reachable node, so it is suitable for
// checking a table once at load time rather than on the lookup path.
func (ix *Index) Verify() (Stats, error) {
	labelCount := len(ix.labels)
	blocks := ix.BlockCount()

	st := Stats{Blocks: blocks}
	reached := make([]bool, labelCount)
	// deepest[n] is the greatest depth block n has been reached at, 0 if
	// never. A block reached again by a deeper path is walked again so that
	// every path is checked against MaxDepth. Child pointers only move
	// forward, so this terminates.
	deepest := make([]int, blocks)
	counted := make([]bool, blocks)

	type frame struct {
		n, depth int
	}
	var stack []frame

	leaf := func(idx int, count bool) error {
		ordinal := LeafOrdinal(idx, labelCount)
		if ordinal < 0 || ordinal >= labelCount {
			return fmt.Errorf("%w: %w: ordinal %d", ErrDataIntegrity, ErrLeafOutOfRange, ordinal)
		}
		reached[ordinal] = true
		if count {
			st.Leaves++
		}
		return nil
	}

	// push follows the pointer idx read from a node with counter n at depth.
	push := func(n, idx, depth int) error {
		child := n + idx + 1
		if depth > MaxDepth {
			return fmt.Errorf("%w: %w: block %d", ErrDataIntegrity, ErrDepthExceeded, child)
		}
		if child < 0 || child >= blocks {
			return fmt.Errorf(
				"%w: %w: block %d of %d", ErrDataIntegrity, ErrNodeOutOfRange, child, blocks)
		}
		st.MaxDepth = max(st.MaxDepth, depth)
		if depth <= deepest[child] {
			return nil
		}
		deepest[child] = depth
		stack = append(stack, frame{n: child, depth: depth})
		return nil
	}

	for v := 0; v < RootHeight; v++ {
		for u := 0; u < RootWidth; u++ {
			idx := DecodePair(ix.nodeData, RootOffset(u, v))
			if IsLeaf(idx, labelCount) {
				st.RootLeaves++
				if err := leaf(idx, true); err != nil {
					return st, err
				}
				continue
			}
			if err := push(-1, idx, 1); err != nil {
				return st, err
			}
		}
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth < deepest[f.n] {
			// Superseded by a deeper walk of the same block.
			continue
		}
		first := !counted[f.n]
		if first {
			counted[f.n] = true
			st.InternalNodes++
		}
		for q := 0; q < 4; q++ {
			idx := DecodePair(ix.nodeData, ChildOffset(f.n, q&1, q>>1))
			if IsLeaf(idx, labelCount) {
				if err := leaf(idx, first); err != nil {
					return st, err
				}
				continue
			}
			if err := push(f.n, idx, f.depth+1); err != nil {
				return st, err
			}
		}
	}

	for i, ok := range reached {
		if ok {
			st.LabelsReached++
			continue
		}
		st.UnusedLabels = append(st.UnusedLabels, ix.labels[i])
	}
	for _, ok := range counted {
		if !ok {
			st.UnreachedBytes += BlockBytes
		}
	}
	return st, nil
}
