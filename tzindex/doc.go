package tzindex

/*

# Offline timezone lookup over a compiled quadtree

This package resolves a (latitude, longitude) pair to a timezone identifier
using two precompiled, immutable tables: a node table of byte pairs and a
label table of identifiers. No polygon geometry is evaluated at query time.

It follows the same style as the other table formats in this module:

- small, composable functions
- explicit byte layouts
- index arithmetic on byte slices
- validation once at construction, none on the lookup path

## Grid

The root of the tree is a 48x24 grid over the equirectangular projection of
the earth, each cell 7.5 degrees square. The width places maritime zone edges
on cell edges; the height keeps every cell square so that each level below
the root halves both axes.

	x = (180 + lon) * 48 / W
	y = (90 - lat) * 24 / H

W and H are the smallest doubles above 360 and 180, which keeps
floor(x) < 48 at lon = 180 and floor(y) < 24 at lat = -90.

## Node values

Each node entry is a byte pair (hi, lo) decoding to

	idx = hi*56 + lo - 1995

in [0, 3136). With L labels, values idx >= 3136-L are leaves naming label
idx+L-3136. Smaller values are pointers.

## Descent

A node counter n starts at -1 for the root grid. Following pointer idx sets
n = n + idx + 1, and the child block for n starts at byte n*8 + 2304. Within a
block quadrant (u, v) is at v*4 + u*2. At each level the fractional position
inside the current cell is doubled into a [0,2)x[0,2) window to pick the
quadrant.

The descent stops at a leaf or fails with ErrDataIntegrity after MaxDepth
pointers. Latitudes at or above 90 short-circuit to "Etc/GMT".

## Concurrency

An Index holds no mutable state. Any number of goroutines may call Resolve,
ResolveBatch and ResolveBatchParallel on the same Index.

*/
