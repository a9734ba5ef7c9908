package tzstore

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/datatrails/go-datatrails-common/azblob"
)

// Source produces the raw bytes of a table, sealed or not.
type Source interface {
	Read(ctx context.Context, opts Options) ([]byte, error)
	String() string
}

type Opener interface {
	Open(string) (io.ReadCloser, error)
}

// OSOpener opens files on the local filesystem.
type OSOpener struct{}

func (OSOpener) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// FileSource reads a table from a path through an Opener.
type FileSource struct {
	Opener Opener
	Path   string
}

func NewFileSource(path string) FileSource {
	return FileSource{Opener: OSOpener{}, Path: path}
}

func (s FileSource) Read(_ context.Context, _ Options) ([]byte, error) {
	reader, err := s.Opener.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (s FileSource) String() string { return "file:" + s.Path }

// BlobReader is the read side of a blob store, satisfied by *azblob.Storer.
type BlobReader interface {
	Reader(
		ctx context.Context,
		identity string,
		opts ...azblob.Option,
	) (*azblob.ReaderResponse, error)
}

// BlobSource reads a table from a blob store. Store is typically an
// *azblob.Storer.
type BlobSource struct {
	Store    BlobReader
	BlobPath string
}

func NewBlobSource(store BlobReader, blobPath string) BlobSource {
	return BlobSource{Store: store, BlobPath: blobPath}
}

func (s BlobSource) Read(ctx context.Context, opts Options) ([]byte, error) {
	rr, err := s.Store.Reader(ctx, s.BlobPath, opts.remoteReadOpts...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.BlobPath, err)
	}
	if rr == nil || rr.Reader == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, s.BlobPath)
	}
	defer rr.Reader.Close()
	return io.ReadAll(rr.Reader)
}

func (s BlobSource) String() string { return "blob:" + s.BlobPath }
