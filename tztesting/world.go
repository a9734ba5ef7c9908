package tztesting

import (
	"fmt"
	"math"

	"github.com/forestrie/go-tzlookup/tzindex"
)

// Zone is a rectangular test zone. Edges should be dyadic fractions of a
// root cell (7.5 degrees / 2^k) so that the quadtree can represent them
// exactly.
type Zone struct {
	Name                     string
	West, South, East, North float64
}

func (z Zone) contains(west, south, east, north float64) bool {
	return z.West <= west && z.East >= east && z.South <= south && z.North >= north
}

func (z Zone) intersects(west, south, east, north float64) bool {
	return z.West < east && z.East > west && z.South < north && z.North > south
}

func (z Zone) containsPoint(lat, lon float64) bool {
	return lon >= z.West && lon <= z.East && lat >= z.South && lat <= z.North
}

// World is a synthetic map: rectangular zones over a maritime background of
// 15 degree Etc/GMT offset bands. Later zones take precedence over earlier
// ones where they overlap.
type World struct {
	Zones    []Zone
	MaxDepth int
}

// OceanZone returns the maritime zone for lon, named the way the IANA
// database names them (Etc/GMT+N lies west of Greenwich).
func OceanZone(lon float64) string {
	offset := int(math.Round(lon / 15))
	switch {
	case offset == 0:
		return "Etc/GMT"
	case offset > 0:
		return fmt.Sprintf("Etc/GMT-%d", offset)
	default:
		return fmt.Sprintf("Etc/GMT+%d", -offset)
	}
}

// Labels returns the label table for w: the 25 ocean bands followed by the
// zone names in declaration order.
func (w World) Labels() []string {
	labels := make([]string, 0, 25+len(w.Zones))
	for offset := -12; offset <= 12; offset++ {
		labels = append(labels, OceanZone(float64(offset*15)))
	}
	seen := map[string]bool{}
	for _, z := range w.Zones {
		if seen[z.Name] {
			continue
		}
		seen[z.Name] = true
		labels = append(labels, z.Name)
	}
	return labels
}

// Expect returns the zone w assigns to (lat, lon), computed from the
// rectangles directly. Points on zone or band edges are ambiguous.
func (w World) Expect(lat, lon float64) string {
	for i := len(w.Zones) - 1; i >= 0; i-- {
		if w.Zones[i].containsPoint(lat, lon) {
			return w.Zones[i].Name
		}
	}
	return OceanZone(lon)
}

// Classifier returns a tzindex.Classifier for w over labels.
func (w World) Classifier(labels []string) tzindex.Classifier {
	ordinals := make(map[string]int, len(labels))
	for i, l := range labels {
		ordinals[l] = i
	}

	return func(c tzindex.Cell) (int, bool) {
		west, south, east, north := c.Bounds()
		for i := len(w.Zones) - 1; i >= 0; i-- {
			z := w.Zones[i]
			if !z.intersects(west, south, east, north) {
				continue
			}
			if z.contains(west, south, east, north) {
				return ordinals[z.Name], false
			}
			if c.Depth >= w.MaxDepth {
				lat, lon := c.Center()
				return ordinals[w.Expect(lat, lon)], false
			}
			return 0, true
		}
		// Ocean bands are aligned with root cells.
		_, lon := c.Center()
		return ordinals[OceanZone(lon)], false
	}
}

// Build compiles w into an index.
func (w World) Build() (*tzindex.Index, error) {
	labels := w.Labels()
	b, err := tzindex.NewBuilder(labels, w.Classifier(labels), w.MaxDepth)
	if err != nil {
		return nil, err
	}
	nodeData, err := b.Build()
	if err != nil {
		return nil, err
	}
	return tzindex.NewIndex(nodeData, labels)
}

// BoundaryLon is the eastern edge of Europe/Zurich in DefaultWorld. It lies
// six levels below the root grid.
const BoundaryLon = 7.5 + 7.5*13/64 // 9.0234375

// DefaultWorld is the fixture shared by the package tests.
func DefaultWorld() World {
	return World{
		MaxDepth: 12,
		Zones: []Zone{
			{Name: "America/New_York", West: -82.5, South: 37.5, East: -67.5, North: 45},
			{Name: "Pacific/Honolulu", West: -160.3125, South: 18.75, East: -154.6875, North: 22.5},
			{Name: "Europe/Paris", West: -3.75, South: 45, East: 7.5, North: 50.625},
			{Name: "Europe/Berlin", West: 7.5, South: 45, East: 15, North: 54.375},
			{Name: "Europe/Zurich", West: 7.5, South: 45, East: BoundaryLon, North: 47.8125},
			{Name: "Asia/Tokyo", West: 129.375, South: 30, East: 146.25, North: 45.9375},
			{Name: "Australia/Sydney", West: 142.5, South: -37.5, East: 153.75, North: -28.125},
		},
	}
}
