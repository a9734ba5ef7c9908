package tzstore

/*
Package tzstore acquires compiled zone tables.

A table travels as a single V1 blob (see tzindex.EncodeV1). The blob may be
read from a local file or from Azure blob storage, and may optionally be
wrapped in a COSE Sign1 envelope whose payload is the V1 blob.

	loader := tzstore.NewLoader(log, tzstore.WithSealPublicKey(pub))
	ix, err := loader.Load(ctx, tzstore.NewFileSource("zones.tzq"))

When a seal public key is configured, only sealed blobs are accepted and the
signature must verify before the table is decoded. A sealed blob presented
without a key is rejected rather than silently trusted.

The returned *tzindex.Index is immutable and safe to share across goroutines.
*/
