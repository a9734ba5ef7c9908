package tzstore

import "errors"

var (
	ErrSealRequired    = errors.New("tzstore: a seal public key is configured but the table is not sealed")
	ErrSealKeyMissing  = errors.New("tzstore: the table is sealed but no seal public key is configured")
	ErrSealInvalid     = errors.New("tzstore: the table seal did not verify")
	ErrSealContentType = errors.New("tzstore: the sealed payload is not a zone table")
	ErrKeyPEM          = errors.New("tzstore: no usable key found in PEM data")
	ErrKeyNotECDSA     = errors.New("tzstore: the key is not an ECDSA key")
	ErrEmptyTable      = errors.New("tzstore: the table source returned no data")
)
