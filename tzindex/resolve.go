package tzindex

import (
	"fmt"
	"time"
)

// Resolve returns the identifier of the timezone containing (lat, lon).
//
// Invalid input returns ErrMissingInput or ErrOutOfRange. A corrupt table
// returns an error wrapping ErrDataIntegrity. Points with lat >= 90 resolve
// to PoleZone without consulting the tables.
func (ix *Index) Resolve(lat, lon float64) (string, error) {
	if err := ValidCoordinate(lat, lon); err != nil {
		return "", err
	}
	if lat >= 90 {
		return PoleZone, nil
	}
	ordinal, err := ix.descend(GridPoint(lat, lon))
	if err != nil {
		return "", err
	}
	return ix.labels[ordinal], nil
}

// descend runs the quadtree descent from the root cell of p and returns the
// label table position of the leaf it reaches.
func (ix *Index) descend(p Point) (int, error) {
	labelCount := len(ix.labels)

	n := -1
	idx := ix.rootLookup(p)

	for depth := 0; !IsLeaf(idx, labelCount); depth++ {
		if depth >= MaxDepth {
			return 0, fmt.Errorf("%w: %w: cell (%d,%d)", ErrDataIntegrity, ErrDepthExceeded, p.U, p.V)
		}

		// Pointers are relative to the current node counter.
		n += idx + 1
		p = SubdivideMod(p)

		off := ChildOffset(n, p.U, p.V)
		if off < 0 || off+1 >= len(ix.nodeData) {
			return 0, fmt.Errorf(
				"%w: %w: offset %d, table %d bytes", ErrDataIntegrity, ErrNodeOutOfRange, off, len(ix.nodeData))
		}
		idx = DecodePair(ix.nodeData, off)
	}

	ordinal := LeafOrdinal(idx, labelCount)
	if ordinal < 0 || ordinal >= labelCount {
		return 0, fmt.Errorf("%w: %w: ordinal %d", ErrDataIntegrity, ErrLeafOutOfRange, ordinal)
	}
	return ordinal, nil
}

// Location resolves (lat, lon) and loads the corresponding time.Location from
// the system zone database.
func (ix *Index) Location(lat, lon float64) (*time.Location, error) {
	zone, err := ix.Resolve(lat, lon)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("tzindex: load location %q: %w", zone, err)
	}
	return loc, nil
}
