package attestation

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/poimarket/attest/pkg/canonical"
	"github.com/poimarket/attest/pkg/signer"
)

// BuildParams are the raw claim inputs for one attestation. All fields are
// required; the core does not silently default compute metrics.
type BuildParams struct {
	InputData    string
	OutputData   string
	ModelID      string
	ModelVersion string

	// Method tags how the accuracy score was produced. Defaults to
	// MethodSemanticSimilarity when empty.
	Method        string
	AccuracyScore float64

	GPUSeconds     float64
	EstimatedFLOPs string
}

// Builder produces sealed attestations. It is stateless apart from the
// injected signer and clock; concurrent Build calls need no coordination.
type Builder struct {
	signer signer.Signer
	now    func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock replaces the wall clock. Tests pin it so repeated builds are
// byte-identical.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder signing with s.
func NewBuilder(s signer.Signer, opts ...Option) *Builder {
	b := &Builder{signer: s, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles, hashes, and signs an attestation from p.
//
// The returned record satisfies the protocol invariants: the proof hash is
// the Keccak-256 digest of the RFC 8785 canonical JSON of the body, and the
// signature recovers to the builder's validator address. Aside from the
// clock read, Build is deterministic (RFC 6979 nonces).
func (b *Builder) Build(p BuildParams) (*Attestation, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	method := p.Method
	if method == "" {
		method = MethodSemanticSimilarity
	}
	now := b.now().Unix()

	att := &Attestation{
		Version: Version,
		Commitments: Commitments{
			InputHash:    canonical.HashText(p.InputData),
			OutputHash:   canonical.HashText(p.OutputData),
			ModelHash:    canonical.HashText(p.ModelID + ":" + p.ModelVersion),
			ModelID:      p.ModelID,
			ModelVersion: p.ModelVersion,
		},
		ComputeMetrics: ComputeMetrics{
			GPUSeconds:     p.GPUSeconds,
			EstimatedFLOPs: p.EstimatedFLOPs,
			Timestamp:      now,
		},
		Evaluation: Evaluation{
			Method:        method,
			AccuracyScore: p.AccuracyScore,
			MeetsSpec:     p.AccuracyScore >= Threshold,
			Threshold:     Threshold,
			ConfidenceInterval: ConfidenceInterval{
				Lower: max(0, p.AccuracyScore-ConfidenceMargin),
				Upper: min(1, p.AccuracyScore+ConfidenceMargin),
			},
		},
		Validator: Validator{
			Address:   b.signer.Address(),
			Timestamp: now,
		},
	}

	hash, err := canonical.HashJSON(att.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	sig, err := b.signer.SignPersonal(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	att.Proof = &Proof{
		AttestationHash: hash,
		Signature:       "0x" + hex.EncodeToString(sig),
		R:               "0x" + r.Text(16),
		S:               "0x" + s.Text(16),
		V:               int(sig[64]),
	}
	return att, nil
}

func validate(p BuildParams) error {
	if p.AccuracyScore < 0 || p.AccuracyScore > 1 {
		return fmt.Errorf("%w: accuracy_score %v outside [0,1]", ErrInvalidInput, p.AccuracyScore)
	}
	if p.GPUSeconds < 0 {
		return fmt.Errorf("%w: gpu_seconds %v is negative", ErrInvalidInput, p.GPUSeconds)
	}
	if p.EstimatedFLOPs == "" {
		return fmt.Errorf("%w: estimated_flops is required", ErrInvalidInput)
	}
	if p.ModelID == "" || p.ModelVersion == "" {
		return fmt.Errorf("%w: model_id and model_version are required", ErrInvalidInput)
	}
	return nil
}
