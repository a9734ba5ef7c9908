package tzstore

import (
	"crypto"

	"github.com/datatrails/go-datatrails-common/azblob"
)

// Options configures a Loader. Sources ignore the options that do not apply
// to them.
type Options struct {
	// sealPublicKey, when set, makes a valid seal mandatory.
	sealPublicKey crypto.PublicKey

	// verifyIntegrity walks every reachable node after decoding.
	verifyIntegrity bool

	// options that are forwarded when issuing a read blob call
	remoteReadOpts []azblob.Option
}

type Option func(*Options)

// optionsCopy returns an independent copy of opts.
func optionsCopy(opts Options) Options {
	cpy := opts
	cpy.remoteReadOpts = make([]azblob.Option, len(opts.remoteReadOpts))
	copy(cpy.remoteReadOpts, opts.remoteReadOpts)
	return cpy
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithSealPublicKey(pub crypto.PublicKey) Option {
	return func(o *Options) {
		o.sealPublicKey = pub
	}
}

// WithIntegrityCheck runs tzindex.Index.Verify on every loaded table. This
// costs a full walk of the node table but means lookups can never surface
// ErrDataIntegrity.
func WithIntegrityCheck() Option {
	return func(o *Options) {
		o.verifyIntegrity = true
	}
}

func WithReadBlobOption(opt azblob.Option) Option {
	return func(o *Options) {
		o.remoteReadOpts = append(o.remoteReadOpts, opt)
	}
}
