package tztesting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-tzlookup/tzindex"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type TestContext struct {
	Log   logger.Logger
	World World
	Index *tzindex.Index
	T     *testing.T
}

type TestConfig struct {
	TestLabelPrefix string
	// World defaults to DefaultWorld()
	World *World
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{
		T: t,
	}
	logger.New("INFO")
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)

	c.World = DefaultWorld()
	if cfg.World != nil {
		c.World = *cfg.World
	}

	var err error
	c.Index, err = c.World.Build()
	require.NoError(t, err)
	return c
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// BuildID is the deterministic build identifier stamped on blobs produced by
// the test context.
func (c *TestContext) BuildID() uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("tztesting/"+c.T.Name()))
}

// Blob returns the index encoded as a V1 blob.
func (c *TestContext) Blob() []byte {
	blob, err := tzindex.EncodeV1(c.Index.NodeData(), c.Index.Labels(), c.BuildID())
	require.NoError(c.T, err)
	return blob
}

// WriteBlob writes the V1 blob under the test's temporary directory and
// returns its path.
func (c *TestContext) WriteBlob(name string) string {
	path := filepath.Join(c.T.TempDir(), name)
	require.NoError(c.T, os.WriteFile(path, c.Blob(), 0o644))
	return path
}
