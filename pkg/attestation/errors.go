package attestation

import "errors"

// Construction errors. Both are fatal to the Build call: a partially built,
// unsigned attestation is never returned or persisted. Verification-time
// failures are NOT errors; they surface as Outcome reasons.
var (
	// ErrInvalidInput indicates a caller-supplied value outside its domain
	// (accuracy outside [0,1], negative gpu_seconds, empty required field).
	// Out-of-domain scores are rejected, never clamped.
	ErrInvalidInput = errors.New("attestation: invalid input")

	// ErrSigning indicates the signing operation could not complete. The
	// core never retries; retry policy belongs to the caller.
	ErrSigning = errors.New("attestation: signing failed")

	// ErrSigningTimeout indicates a remote signer (HSM, KMS) exceeded its
	// bounded deadline. In-memory signing never returns this.
	ErrSigningTimeout = errors.New("attestation: signing timed out")
)
