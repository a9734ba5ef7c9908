package tzindex

import "math"

// SubdivideMod rescales p into the [0,2)x[0,2) window of the cell it
// occupies and selects the quadrant it falls in. This is the step used by the
// resolver.
func SubdivideMod(p Point) Point {
	x := math.Mod((p.X-float64(p.U))*2, 2)
	y := math.Mod((p.Y-float64(p.V))*2, 2)
	return Point{X: x, Y: y, U: int(math.Floor(x)), V: int(math.Floor(y))}
}

// SubdivideFloor is the integer-truncating equivalent of SubdivideMod: the
// quadrant is floor(2*frac) mod 2 and the position is recombined from it.
func SubdivideFloor(p Point) Point {
	fx := (p.X - float64(p.U)) * 2
	fy := (p.Y - float64(p.V)) * 2
	ix := int64(math.Floor(fx))
	iy := int64(math.Floor(fy))
	u := int(ix % 2)
	v := int(iy % 2)
	return Point{
		X: fx - float64(ix-int64(u)),
		Y: fy - float64(iy-int64(v)),
		U: u,
		V: v,
	}
}
