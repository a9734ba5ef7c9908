package tzstore

import (
	"context"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-tzlookup/tzindex"
)

// Loader reads, unseals and decodes tables.
type Loader struct {
	log  logger.Logger
	opts Options
}

func NewLoader(log logger.Logger, opts ...Option) *Loader {
	return &Loader{log: log, opts: NewOptions(opts...)}
}

// Load reads src and returns the decoded table. Per call opts are applied on
// top of the loader's own.
func (l *Loader) Load(ctx context.Context, src Source, opts ...Option) (*tzindex.Index, error) {
	o := optionsCopy(l.opts)
	for _, opt := range opts {
		opt(&o)
	}

	data, err := src.Read(ctx, o)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, src)
	}

	blob, err := l.unseal(src, data, o)
	if err != nil {
		return nil, err
	}

	ix, err := tzindex.DecodeV1(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	if o.verifyIntegrity {
		st, err := ix.Verify()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		l.log.Debugf(
			"verified %s: %d internal nodes, %d leaves, depth %d, %d unused labels",
			src, st.InternalNodes, st.Leaves, st.MaxDepth, len(st.UnusedLabels))
	}

	l.log.Infof("loaded %s: build %s, %d labels, %d blocks",
		src, ix.BuildID(), ix.LabelCount(), ix.BlockCount())
	return ix, nil
}

func (l *Loader) unseal(src Source, data []byte, o Options) ([]byte, error) {
	sealed := IsSealed(data)
	switch {
	case o.sealPublicKey == nil && !sealed:
		return data, nil
	case o.sealPublicKey == nil:
		return nil, fmt.Errorf("%w: %s", ErrSealKeyMissing, src)
	case !sealed:
		return nil, fmt.Errorf("%w: %s", ErrSealRequired, src)
	}

	blob, err := Unseal(data, o.sealPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	if kid, err := SealKeyID(data); err == nil && kid != "" {
		l.log.Debugf("seal on %s verified, kid %s", src, kid)
	}
	return blob, nil
}
