package tzindex

import "math"

// Point is a fractional position in root grid space together with the
// integer cell containing it.
type Point struct {
	X, Y float64
	U, V int
}

// ValidCoordinate classifies a geodetic coordinate. NaN in either position is
// ErrMissingInput; anything outside the closed ranges is ErrOutOfRange.
func ValidCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return ErrMissingInput
	}
	if !(lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180) {
		return ErrOutOfRange
	}
	return nil
}

// GridPoint maps a valid coordinate into root grid space. The result always
// satisfies 0 <= U < RootWidth and 0 <= V < RootHeight.
func GridPoint(lat, lon float64) Point {
	x := (180 + lon) * RootWidth / lonSpan
	y := (90 - lat) * RootHeight / latSpan
	return Point{X: x, Y: y, U: int(math.Floor(x)), V: int(math.Floor(y))}
}

// rootLookup returns the node value stored for the root cell of p.
func (ix *Index) rootLookup(p Point) int {
	return DecodePair(ix.nodeData, RootOffset(p.U, p.V))
}
