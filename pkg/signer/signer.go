// Package signer provides recoverable secp256k1 signing over EIP-191
// personal messages, and the address recovery used by attestation
// verification.
//
// The Signer interface allows swapping the in-memory key for an HSM, Vault,
// or Cloud KMS backend; the core never retries or logs key material.
package signer

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/poimarket/attest/pkg/canonical"
)

// SignatureLength is the byte length of a recoverable signature: R (32) ||
// S (32) || V (1).
const SignatureLength = 65

var (
	// ErrInvalidKey indicates the private key material is malformed.
	ErrInvalidKey = errors.New("signer: invalid private key")
	// ErrInvalidSignature indicates a signature that cannot be recovered.
	ErrInvalidSignature = errors.New("signer: invalid signature")
)

// Signer produces recoverable signatures over personal messages and exposes
// the signing identity.
type Signer interface {
	// SignPersonal signs msg wrapped in the EIP-191 personal-message
	// encoding and returns a 65-byte R || S || V signature with V in
	// {27, 28}. Nonce generation is deterministic (RFC 6979), so identical
	// messages yield identical signatures.
	SignPersonal(msg string) ([]byte, error)
	// Address returns the EIP-55 checksummed address of the signing key.
	Address() string
}

// LocalSigner holds a secp256k1 private key in process memory.
type LocalSigner struct {
	key     *secp256k1.PrivateKey
	address string
}

// NewLocalSigner parses a hex-encoded private key (optional 0x prefix).
func NewLocalSigner(hexKey string) (*LocalSigner, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidKey, len(raw))
	}
	key := secp256k1.PrivKeyFromBytes(raw)
	if key.Key.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidKey)
	}
	return &LocalSigner{
		key:     key,
		address: PubKeyAddress(key.PubKey()),
	}, nil
}

// NewLocalSignerFromFile reads a hex-encoded key from path. Keys belong in
// files or injected configuration, never in source.
func NewLocalSignerFromFile(path string) (*LocalSigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidKey, path, err)
	}
	return NewLocalSigner(string(raw))
}

// Generate creates a signer with a fresh random key.
func Generate() (*LocalSigner, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("signer: key generation failed: %w", err)
	}
	return &LocalSigner{key: key, address: PubKeyAddress(key.PubKey())}, nil
}

// SignPersonal implements Signer.
func (s *LocalSigner) SignPersonal(msg string) ([]byte, error) {
	if s.key == nil || s.key.Key.IsZero() {
		return nil, fmt.Errorf("%w: signer has been zeroed", ErrInvalidKey)
	}
	digest := PersonalDigest(msg)
	// SignCompact returns V || R || S with V = 27 + recovery id for an
	// uncompressed public key. Reorder to the R || S || V wire form.
	compact := secpecdsa.SignCompact(s.key, digest, false)
	sig := make([]byte, SignatureLength)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return sig, nil
}

// Address implements Signer.
func (s *LocalSigner) Address() string {
	return s.address
}

// Zero wipes the private key material. The signer is unusable afterwards.
func (s *LocalSigner) Zero() {
	if s.key != nil {
		s.key.Zero()
	}
}

// PersonalDigest returns the Keccak-256 digest of msg wrapped in the
// EIP-191 personal-message encoding:
//
//	"\x19Ethereum Signed Message:\n" + len(msg) + msg
func PersonalDigest(msg string) []byte {
	prefixed := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(msg)) + msg
	return canonical.Keccak256([]byte(prefixed))
}

// RecoverPersonal recovers the checksummed signer address from a 65-byte
// R || S || V signature over the personal-message encoding of msg. V may be
// 27/28 or the raw recovery id 0/1.
func RecoverPersonal(msg string, sig []byte) (string, error) {
	if len(sig) != SignatureLength {
		return "", fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(sig))
	}
	v := sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return "", fmt.Errorf("%w: recovery id %d out of range", ErrInvalidSignature, sig[64])
	}
	compact := make([]byte, SignatureLength)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := secpecdsa.RecoverCompact(compact, PersonalDigest(msg))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return PubKeyAddress(pub), nil
}

// PubKeyAddress derives the EIP-55 checksummed address for a public key:
// the last 20 bytes of Keccak256(uncompressed pubkey without the 0x04 tag).
func PubKeyAddress(pub *secp256k1.PublicKey) string {
	raw := pub.SerializeUncompressed()
	digest := canonical.Keccak256(raw[1:])
	return ChecksumAddress(hex.EncodeToString(digest[12:]))
}

// ChecksumAddress renders a 20-byte hex address with EIP-55 mixed-case
// checksumming. Input may carry a 0x prefix and any letter casing.
func ChecksumAddress(addr string) string {
	lower := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	digest := canonical.Keccak256([]byte(lower))
	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out)
}

// AddressesEqual compares two addresses ignoring case and 0x prefixes.
// Signer identity comparisons in the protocol are case-insensitive.
func AddressesEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, "0x"), strings.TrimPrefix(b, "0x"))
}
