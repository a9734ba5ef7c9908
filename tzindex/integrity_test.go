package tzindex

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// chainTable returns node data where every root cell points at block 0 and
// every quadrant of block n points at block n+1. blocks blocks are allocated,
// so the last block points past the end of the table.
func chainTable(blocks int) []byte {
	nodeData := make([]byte, RootBytes+blocks*BlockBytes)
	for off := 0; off < RootBytes; off += PairBytes {
		EncodePair(nodeData, off, 0)
	}
	for n := 0; n < blocks; n++ {
		for q := 0; q < 4; q++ {
			EncodePair(nodeData, ChildOffset(n, q&1, q>>1), 0)
		}
	}
	return nodeData
}

func testLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = "Etc/Test" + string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	return labels
}

func TestResolveDepthExceeded(t *testing.T) {
	labels := testLabels(4)
	ix, err := NewIndex(chainTable(MaxDepth+6), labels)
	require.NoError(t, err)

	_, err = ix.Resolve(10, 10)
	require.ErrorIs(t, err, ErrDataIntegrity)
	require.ErrorIs(t, err, ErrDepthExceeded)

	_, err = ix.Verify()
	require.ErrorIs(t, err, ErrDataIntegrity)
	require.ErrorIs(t, err, ErrDepthExceeded)
}

func TestResolveNodeOutOfRange(t *testing.T) {
	labels := testLabels(4)
	ix, err := NewIndex(chainTable(3), labels)
	require.NoError(t, err)

	_, err = ix.Resolve(-45, 100)
	require.ErrorIs(t, err, ErrDataIntegrity)
	require.ErrorIs(t, err, ErrNodeOutOfRange)

	_, err = ix.Verify()
	require.ErrorIs(t, err, ErrNodeOutOfRange)
}

func TestResolveLeafOutOfRange(t *testing.T) {
	labels := testLabels(4)
	nodeData := make([]byte, RootBytes)
	for off := 0; off < RootBytes; off += PairBytes {
		EncodePair(nodeData, off, LeafValue(0, len(labels)))
	}
	// A byte pair outside the encoding alphabet decodes above the index
	// space. NewIndex rejects it, so build the index directly.
	off := RootOffset(GridPoint(0, 0).U, GridPoint(0, 0).V)
	nodeData[off] = 200
	_, err := NewIndex(nodeData, labels)
	require.ErrorIs(t, err, ErrNodeByteInvalid)

	ix := &Index{nodeData: nodeData, labels: labels}
	_, err = ix.Resolve(0, 0)
	require.ErrorIs(t, err, ErrDataIntegrity)
	require.ErrorIs(t, err, ErrLeafOutOfRange)

	zone, err := ix.Resolve(45, 45)
	require.NoError(t, err)
	require.Equal(t, labels[0], zone)
}

func TestResolveBatchSurfacesIntegrityFailure(t *testing.T) {
	labels := testLabels(4)
	ix, err := NewIndex(chainTable(3), labels)
	require.NoError(t, err)

	// The pole never reaches the table, the second position does.
	_, err = ix.ResolveBatch([]float64{90, 10}, []float64{0, 10})
	require.ErrorIs(t, err, ErrDataIntegrity)
}

func TestNewIndexShape(t *testing.T) {
	labels := testLabels(2)
	valid := func(n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = PairBase
		}
		return b
	}

	tests := []struct {
		name     string
		nodeData []byte
		labels   []string
		want     error
	}{
		{"root only", valid(RootBytes), labels, nil},
		{"root and block", valid(RootBytes + BlockBytes), labels, nil},
		{"short root", valid(RootBytes - 2), labels, ErrNodeDataBadSize},
		{"partial block", valid(RootBytes + 6), labels, ErrNodeDataBadSize},
		{"zero byte", make([]byte, RootBytes), labels, ErrNodeByteInvalid},
		{"no labels", valid(RootBytes), nil, ErrLabelsEmpty},
		{"duplicate label", valid(RootBytes), []string{"A/B", "A/B"}, ErrDuplicateLabel},
		{"empty label", valid(RootBytes), []string{"A/B", ""}, ErrEmptyLabel},
		{"too many labels", valid(RootBytes), testLabels(IndexSpace + 1), ErrTooManyLabels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := NewIndex(tt.nodeData, tt.labels)
			if tt.want == nil {
				require.NoError(t, err)
				require.NotNil(t, ix)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// TestVerifySharedBlockReachedDeeper checks that a block reached first by a
// short path is walked again when a longer path reaches it.
func TestVerifySharedBlockReachedDeeper(t *testing.T) {
	labels := testLabels(4)
	const blocks = 70
	nodeData := make([]byte, RootBytes+blocks*BlockBytes)
	for off := 0; off < RootBytes; off += PairBytes {
		EncodePair(nodeData, off, LeafValue(0, len(labels)))
	}
	// Blocks 0..68 chain to the next block, block 69 holds only leaves.
	for n := 0; n < blocks; n++ {
		for q := 0; q < 4; q++ {
			idx := 0
			if n == blocks-1 {
				idx = LeafValue(1, len(labels))
			}
			EncodePair(nodeData, ChildOffset(n, q&1, q>>1), idx)
		}
	}
	// Root cell (0,0) enters the chain at block 0, root cell (1,0) at block 60.
	EncodePair(nodeData, RootOffset(0, 0), 0)
	EncodePair(nodeData, RootOffset(1, 0), 60)

	ix, err := NewIndex(nodeData, labels)
	require.NoError(t, err)

	_, err = ix.Resolve(89, -179)
	require.ErrorIs(t, err, ErrDepthExceeded)

	_, err = ix.Verify()
	require.ErrorIs(t, err, ErrDataIntegrity)
	require.ErrorIs(t, err, ErrDepthExceeded)

	// Through root cell (1,0) alone the chain is shallow enough.
	zone, err := ix.Resolve(89, -171)
	require.NoError(t, err)
	require.Equal(t, labels[1], zone)
}

// TestVerifyCountsSharedBlocksOnce checks the statistics of a table whose
// root cells share one subtree.
func TestVerifyCountsSharedBlocksOnce(t *testing.T) {
	labels := testLabels(4)
	nodeData := make([]byte, RootBytes+2*BlockBytes)
	for off := 0; off < RootBytes; off += PairBytes {
		EncodePair(nodeData, off, LeafValue(0, len(labels)))
	}
	for q := 0; q < 4; q++ {
		EncodePair(nodeData, ChildOffset(0, q&1, q>>1), 0)
		EncodePair(nodeData, ChildOffset(1, q&1, q>>1), LeafValue(2, len(labels)))
	}
	EncodePair(nodeData, RootOffset(0, 0), 0) // block 0 at depth 1
	EncodePair(nodeData, RootOffset(1, 0), 1) // block 1 at depth 1
	// block 1 is also reached at depth 2 through block 0

	ix, err := NewIndex(nodeData, labels)
	require.NoError(t, err)

	st, err := ix.Verify()
	require.NoError(t, err)
	require.Equal(t, 2, st.InternalNodes)
	require.Equal(t, 2, st.MaxDepth)
	require.Equal(t, RootWidth*RootHeight-2, st.RootLeaves)
	require.Equal(t, st.RootLeaves+4, st.Leaves)
	require.Zero(t, st.UnreachedBytes)
	require.Equal(t, []string{labels[1], labels[3]}, st.UnusedLabels)
}

func TestResolveBatchParallelReportsLowestIntegrityFailure(t *testing.T) {
	ix, err := NewIndex(chainTable(3), testLabels(4))
	require.NoError(t, err)

	// Every in-range coordinate walks off the end of the chain. The first
	// three positions never touch the node data.
	lats := []float64{math.NaN(), 90, 95}
	lons := []float64{0, 0, 0}
	for i := 0; i < 200; i++ {
		lats = append(lats, float64(i%170)-85)
		lons = append(lons, float64(i%350)-175)
	}

	_, want := ix.ResolveBatch(lats, lons)
	require.ErrorIs(t, want, ErrNodeOutOfRange)
	require.ErrorContains(t, want, "position 3:")

	for _, workers := range []int{1, 2, 8, 64} {
		got, err := ix.ResolveBatchParallel(context.Background(), lats, lons, workers, WithChunkSize(1))
		require.Nil(t, got)
		require.ErrorIs(t, err, ErrDataIntegrity)
		require.Equal(t, want.Error(), err.Error(), "workers=%d", workers)
	}
}
