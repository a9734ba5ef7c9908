package tzindex

import "errors"

const (
	// RootWidth and RootHeight are the dimensions, in cells, of the root grid.
	RootWidth  = 48
	RootHeight = 24

	// PairBytes is the width of one encoded node entry.
	PairBytes = 2

	// RootStride is the byte length of one root grid row.
	RootStride = RootWidth * PairBytes // 96

	// RootBytes is the byte length of the root grid encoding. Child blocks
	// start immediately after it.
	RootBytes = RootWidth * RootHeight * PairBytes // 2304

	// BlockBytes is the byte length of one 2x2 child block.
	BlockBytes = 4 * PairBytes // 8

	// PairRadix is the number of distinct values each byte of a pair carries.
	PairRadix = 56

	// PairBase is the smallest valid byte value of a pair.
	PairBase = 35

	// PairOffset is subtracted from hi*PairRadix+lo when decoding a pair.
	PairOffset = PairBase*PairRadix + PairBase // 1995

	// IndexSpace is the number of distinct decoded node values. Leaves occupy
	// the topmost len(labels) values of [0, IndexSpace).
	IndexSpace = PairRadix * PairRadix // 3136

	// MaxDepth bounds the quadtree descent below the root grid. Real tables
	// are far shallower; exceeding it means the table is corrupt.
	MaxDepth = 64

	// PoleZone is returned for every point at or above the north pole.
	PoleZone = "Etc/GMT"
)

// The coordinate spans are divided by the smallest doubles strictly greater
// than 360 and 180 so that floor(x) < RootWidth and floor(y) < RootHeight hold
// for lon = 180 and lat = -90.
const (
	lonSpan = 360.0000000000000568
	latSpan = 180.0000000000000284
)

var (
	ErrMissingInput   = errors.New("tzindex: coordinate missing")
	ErrOutOfRange     = errors.New("tzindex: coordinate out of range")
	ErrLengthMismatch = errors.New("tzindex: latitude and longitude counts differ")

	// ErrDataIntegrity is wrapped by every error that means the compiled
	// tables are corrupt. It is never produced by a well formed table.
	ErrDataIntegrity  = errors.New("tzindex: data integrity")
	ErrLeafOutOfRange = errors.New("tzindex: leaf index outside label table")
	ErrNodeOutOfRange = errors.New("tzindex: node offset outside node table")
	ErrDepthExceeded  = errors.New("tzindex: quadtree depth exceeded")

	ErrNodeDataBadSize = errors.New("tzindex: node data size invalid")
	ErrNodeByteInvalid = errors.New("tzindex: node pair byte invalid")
	ErrLabelsEmpty     = errors.New("tzindex: label table empty")
	ErrTooManyLabels   = errors.New("tzindex: label table larger than the index space")
	ErrDuplicateLabel  = errors.New("tzindex: duplicate label")
	ErrEmptyLabel      = errors.New("tzindex: empty label")

	ErrBadRegionSize  = errors.New("tzindex: blob size invalid")
	ErrBadMagic       = errors.New("tzindex: blob magic invalid")
	ErrBadVersion     = errors.New("tzindex: blob version invalid")
	ErrBadLabelBlock  = errors.New("tzindex: blob label block invalid")
	ErrPointerTooWide = errors.New("tzindex: child pointer does not fit the index space")
)
