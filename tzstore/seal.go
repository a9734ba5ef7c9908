package tzstore

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/google/uuid"
	"github.com/veraison/go-cose"
)

// SealContentType identifies a V1 zone table as the payload of a Sign1
// envelope.
const SealContentType = "application/vnd.tzlookup.table.v1"

// sign1Prefix is the CBOR tag 18 followed by a four element array header.
var sign1Prefix = []byte{0xd2, 0x84}

// IsSealed reports whether data is a tagged COSE Sign1 message rather than a
// bare V1 blob.
func IsSealed(data []byte) bool {
	return len(data) >= len(sign1Prefix) && data[0] == sign1Prefix[0] && data[1] == sign1Prefix[1]
}

// Seal wraps blob in a COSE Sign1 envelope signed by signer. The payload is
// attached, so the sealed message is self contained.
func Seal(blob []byte, signer cose.Signer, keyID string) ([]byte, error) {
	coseHeaders := cose.Headers{
		Protected: cose.ProtectedHeader{
			cose.HeaderLabelAlgorithm:   signer.Algorithm(),
			cose.HeaderLabelContentType: SealContentType,
		},
	}
	if keyID != "" {
		coseHeaders.Protected[cose.HeaderLabelKeyID] = []byte(keyID)
	}

	msg := cose.Sign1Message{
		Headers: coseHeaders,
		Payload: blob,
	}
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// SealES256 seals blob with an ECDSA P-256 key, using the key's derived id as
// the kid header.
func SealES256(blob []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return nil, err
	}
	keyID, err := KeyID(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return Seal(blob, signer, keyID)
}

// Unseal verifies the envelope against pub and returns the V1 blob it
// carries.
func Unseal(data []byte, pub crypto.PublicKey) ([]byte, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealInvalid, err)
	}

	algorithm, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealInvalid, err)
	}
	verifier, err := cose.NewVerifier(algorithm, pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealInvalid, err)
	}
	if err = msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealInvalid, err)
	}

	contentType, _ := msg.Headers.Protected[cose.HeaderLabelContentType].(string)
	if contentType != SealContentType {
		return nil, fmt.Errorf("%w: %q", ErrSealContentType, contentType)
	}
	return msg.Payload, nil
}

// SealKeyID returns the kid header of a sealed table without verifying it.
func SealKeyID(data []byte) (string, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealInvalid, err)
	}
	kid, ok := msg.Headers.Protected[cose.HeaderLabelKeyID].([]byte)
	if !ok {
		return "", nil
	}
	return string(kid), nil
}

// KeyID derives a stable identifier for a public key from its PKIX encoding.
func KeyID(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, der).String(), nil
}

// ParsePublicKeyPEM reads the first PUBLIC KEY block of data.
func ParsePublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrKeyPEM
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyPEM, err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, ErrKeyNotECDSA
	}
	return ecPub, nil
}

// ParsePrivateKeyPEM accepts SEC 1 ("EC PRIVATE KEY") and PKCS #8
// ("PRIVATE KEY") encodings.
func ParsePrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrKeyPEM
	}
	switch block.Type {
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyPEM, err)
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyPEM, err)
		}
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, ErrKeyNotECDSA
		}
		return ecKey, nil
	default:
		return nil, fmt.Errorf("%w: unexpected block %q", ErrKeyPEM, block.Type)
	}
}

func EncodePublicKeyPEM(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

func EncodePrivateKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}
