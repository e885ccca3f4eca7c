package attestation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/poimarket/attest/pkg/canonical"
	"github.com/poimarket/attest/pkg/signer"
)

// Reason classifies a verification outcome. All reasons are expected,
// non-exceptional results: verifying adversarial data is a normal operation.
type Reason string

const (
	// ReasonOK: hash recomputed, signature recovered, signer matched.
	ReasonOK Reason = "OK"
	// ReasonHashMismatch: the body was altered after signing.
	ReasonHashMismatch Reason = "HASH_MISMATCH"
	// ReasonSignatureInvalid: r/s/v do not recover to any signer.
	ReasonSignatureInvalid Reason = "SIGNATURE_INVALID"
	// ReasonSignerMismatch: the signature is genuine but from someone else.
	ReasonSignerMismatch Reason = "SIGNER_MISMATCH"
	// ReasonMalformed: required fields are missing or unparseable.
	ReasonMalformed Reason = "MALFORMED"
)

// Outcome is the verification result. Failure paths are data, never panics
// or errors, so a batch auditor can process forged attestations safely.
type Outcome struct {
	Valid           bool   `json:"valid"`
	Reason          Reason `json:"reason"`
	Detail          string `json:"detail,omitempty"`
	RecoveredSigner string `json:"recovered_signer,omitempty"`
}

func invalid(reason Reason, detail string) Outcome {
	return Outcome{Reason: reason, Detail: detail}
}

// Verify checks a typed attestation: the body hash must recompute, the
// signature must recover, and the recovered address must equal
// expectedValidator (case-insensitively).
func Verify(att *Attestation, expectedValidator string) Outcome {
	if att == nil {
		return invalid(ReasonMalformed, "attestation is nil")
	}
	if out, ok := checkProofShape(att.Proof); !ok {
		return out
	}
	computed, err := canonical.HashJSON(att.Body())
	if err != nil {
		return invalid(ReasonMalformed, fmt.Sprintf("cannot canonicalize body: %v", err))
	}
	return verifyProof(computed, att.Proof, expectedValidator)
}

// VerifyJSON checks a serialized attestation exactly as received. The hash
// is recomputed over the raw JSON object minus its "proof" member, so any
// mutation, including fields injected after signing, surfaces as
// HashMismatch rather than being silently dropped by typed decoding.
func VerifyJSON(raw []byte, expectedValidator string) Outcome {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return invalid(ReasonMalformed, fmt.Sprintf("not a JSON object: %v", err))
	}
	proofRaw, ok := top["proof"]
	if !ok {
		return invalid(ReasonMalformed, "proof section missing")
	}
	proof, out, ok := decodeProof(proofRaw)
	if !ok {
		return out
	}

	delete(top, "proof")
	body, err := joinObject(top)
	if err != nil {
		return invalid(ReasonMalformed, fmt.Sprintf("cannot reassemble body: %v", err))
	}
	canon, err := canonical.Transform(body)
	if err != nil {
		return invalid(ReasonMalformed, fmt.Sprintf("cannot canonicalize body: %v", err))
	}
	return verifyProof(canonical.HashBytes(canon), proof, expectedValidator)
}

// verifyProof runs the hash comparison and signature recovery common to
// both entry points. Step order follows the protocol: hash first, so "data
// was altered" is reported even when the signature is also broken.
func verifyProof(computed string, proof *Proof, expectedValidator string) Outcome {
	if !strings.EqualFold(computed, proof.AttestationHash) {
		return invalid(ReasonHashMismatch,
			fmt.Sprintf("recomputed %s, attestation claims %s", computed, proof.AttestationHash))
	}

	sig, out, ok := assembleSignature(proof)
	if !ok {
		return out
	}
	recovered, err := signer.RecoverPersonal(proof.AttestationHash, sig)
	if err != nil {
		return invalid(ReasonSignatureInvalid, err.Error())
	}
	if !signer.AddressesEqual(recovered, expectedValidator) {
		return Outcome{
			Reason:          ReasonSignerMismatch,
			Detail:          fmt.Sprintf("signature recovers to %s, expected %s", recovered, expectedValidator),
			RecoveredSigner: recovered,
		}
	}
	return Outcome{Valid: true, Reason: ReasonOK, RecoveredSigner: recovered}
}

// assembleSignature rebuilds the 65-byte R || S || V signature from the
// split proof components. Syntactically unparseable components are
// Malformed; a well-formed signature that fails recovery is
// SignatureInvalid.
func assembleSignature(proof *Proof) ([]byte, Outcome, bool) {
	r, okR := parseHexScalar(proof.R)
	s, okS := parseHexScalar(proof.S)
	if !okR || !okS {
		return nil, invalid(ReasonMalformed, "proof.r or proof.s is not valid hex"), false
	}
	v := proof.V
	if v == 0 || v == 1 {
		v += 27
	}
	if v != 27 && v != 28 {
		return nil, invalid(ReasonMalformed, fmt.Sprintf("proof.v %d out of range", proof.V)), false
	}

	sig := make([]byte, signer.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(v)
	return sig, Outcome{}, true
}

func parseHexScalar(s string) (*big.Int, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if trimmed == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return nil, false
	}
	return n, true
}

func checkProofShape(proof *Proof) (Outcome, bool) {
	if proof == nil {
		return invalid(ReasonMalformed, "proof section missing"), false
	}
	switch {
	case proof.AttestationHash == "":
		return invalid(ReasonMalformed, "proof.attestation_hash missing"), false
	case proof.R == "":
		return invalid(ReasonMalformed, "proof.r missing"), false
	case proof.S == "":
		return invalid(ReasonMalformed, "proof.s missing"), false
	}
	return Outcome{}, true
}

// decodeProof parses the proof member, distinguishing absent fields from
// empty ones. V must be present: a defaulted zero would alias recovery id 0.
func decodeProof(raw json.RawMessage) (*Proof, Outcome, bool) {
	var parsed struct {
		AttestationHash *string `json:"attestation_hash"`
		Signature       *string `json:"signature"`
		R               *string `json:"r"`
		S               *string `json:"s"`
		V               *int    `json:"v"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, invalid(ReasonMalformed, fmt.Sprintf("proof is not an object: %v", err)), false
	}
	for name, field := range map[string]*string{
		"attestation_hash": parsed.AttestationHash,
		"r":                parsed.R,
		"s":                parsed.S,
	} {
		if field == nil || *field == "" {
			return nil, invalid(ReasonMalformed, "proof."+name+" missing"), false
		}
	}
	if parsed.V == nil {
		return nil, invalid(ReasonMalformed, "proof.v missing"), false
	}
	proof := &Proof{
		AttestationHash: *parsed.AttestationHash,
		R:               *parsed.R,
		S:               *parsed.S,
		V:               *parsed.V,
	}
	if parsed.Signature != nil {
		proof.Signature = *parsed.Signature
	}
	return proof, Outcome{}, true
}

// joinObject re-serializes a decoded top-level object without reordering or
// reformatting the member values.
func joinObject(members map[string]json.RawMessage) ([]byte, error) {
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(members[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
