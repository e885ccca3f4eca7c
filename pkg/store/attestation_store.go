// Package store persists sealed attestations as canonical JSON so any later
// reader can re-run verification with no context beyond the expected signer
// address.
package store

import (
	"context"
	"errors"

	"github.com/poimarket/attest/pkg/attestation"
)

// ErrNotFound is returned when no attestation matches the lookup.
var ErrNotFound = errors.New("store: attestation not found")

// AttestationStore is the durable interface for sealed attestations.
// Attestations are write-once: Put is idempotent on attestation hash and
// no update or delete operation exists.
type AttestationStore interface {
	Put(ctx context.Context, att *attestation.Attestation) error
	Get(ctx context.Context, attestationHash string) (*attestation.Attestation, error)
	List(ctx context.Context, limit int) ([]*attestation.Attestation, error)
	ListByValidator(ctx context.Context, validatorAddress string, limit int) ([]*attestation.Attestation, error)
}
