// Package canonical provides the single hashing primitive shared by the
// attestation builder and verifier: RFC 8785 (JCS) canonical JSON
// serialization plus Keccak-256 digests.
//
// Both sides of the protocol MUST route every byte-to-digest conversion
// through this package so they can never disagree about serialization.
package canonical

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"golang.org/x/crypto/sha3"
)

// Marshal serializes v to RFC 8785 canonical JSON: UTF-8, keys sorted
// lexicographically at every object level, no insignificant whitespace,
// ES6 shortest-round-trip number formatting.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: pre-marshal failed: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: jcs transform failed: %w", err)
	}
	return out, nil
}

// Transform canonicalizes an already-serialized JSON document.
func Transform(raw []byte) ([]byte, error) {
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: jcs transform failed: %w", err)
	}
	return out, nil
}

// Keccak256 computes the legacy Keccak-256 digest of the concatenation of
// the given byte slices.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// HashBytes returns the 0x-prefixed lowercase hex Keccak-256 digest of data.
func HashBytes(data []byte) string {
	return "0x" + hex.EncodeToString(Keccak256(data))
}

// HashText hashes the UTF-8 bytes of s. This is the commitment primitive
// for raw inputs, outputs, and model identities.
func HashText(s string) string {
	return HashBytes([]byte(s))
}

// HashJSON canonicalizes v and hashes the canonical bytes.
func HashJSON(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}
