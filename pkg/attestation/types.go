// Package attestation implements the proof-of-inference attestation
// protocol: a signed, hash-committed record binding an input, an output, a
// model identity, compute cost, and an evaluation score to a validator, and
// the deterministic routine that re-derives and validates such a record.
package attestation

// Version tags the record shape and hash protocol. The 1.0.x line hashed
// sorted-key JSON with whitespace; 1.1.0 canonicalizes per RFC 8785 before
// hashing. Builder and verifier must agree on the serialization for a given
// version.
const Version = "1.1.0"

// Threshold is the inclusive accuracy bar an evaluation must meet for the
// claim to qualify for settlement.
const Threshold = 0.70

// ConfidenceMargin is the half-width of the derived confidence interval,
// clamped to [0, 1] around the accuracy score.
const ConfidenceMargin = 0.05

// MethodSemanticSimilarity is the evaluation method tag used by the
// reference validator.
const MethodSemanticSimilarity = "semantic_similarity"

// Attestation is the sealed, write-once record. It is immutable after
// sealing; downstream consumers treat it as an opaque hash-addressed blob.
type Attestation struct {
	Version        string         `json:"version"`
	Commitments    Commitments    `json:"commitments"`
	ComputeMetrics ComputeMetrics `json:"compute_metrics"`
	Evaluation     Evaluation     `json:"evaluation"`
	Validator      Validator      `json:"validator"`
	Proof          *Proof         `json:"proof,omitempty"`
}

// Commitments binds the claim to exact input, output, and model identity
// values without revealing them.
type Commitments struct {
	InputHash    string `json:"input_hash"`
	OutputHash   string `json:"output_hash"`
	ModelHash    string `json:"model_hash"`
	ModelID      string `json:"model_id"`
	ModelVersion string `json:"model_version"`
}

// ComputeMetrics records the claimed cost of producing the output.
type ComputeMetrics struct {
	GPUSeconds     float64 `json:"gpu_seconds"`
	EstimatedFLOPs string  `json:"estimated_flops"`
	Timestamp      int64   `json:"timestamp"`
}

// Evaluation records the validator's scoring of the claimed output.
type Evaluation struct {
	Method             string             `json:"method"`
	AccuracyScore      float64            `json:"accuracy_score"`
	MeetsSpec          bool               `json:"meets_spec"`
	Threshold          float64            `json:"threshold"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}

// ConfidenceInterval is accuracy_score ± ConfidenceMargin, clamped to [0, 1].
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Validator identifies the signer vouching for the claim.
type Validator struct {
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"`
}

// Proof seals the record: the canonical hash of every field above, and a
// recoverable signature over that hash. R, S are 0x minimal hex; V is the
// Ethereum-convention recovery value 27 or 28.
type Proof struct {
	AttestationHash string `json:"attestation_hash"`
	Signature       string `json:"signature"`
	R               string `json:"r"`
	S               string `json:"s"`
	V               int    `json:"v"`
}

// Body returns a copy of the attestation without its proof section. The
// attestation hash is always computed over the body.
func (a *Attestation) Body() Attestation {
	body := *a
	body.Proof = nil
	return body
}
