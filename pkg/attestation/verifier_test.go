package attestation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poimarket/attest/pkg/canonical"
)

func sealedAttestation(t *testing.T) *Attestation {
	t.Helper()
	att, err := NewBuilder(demoSigner(t), pinnedClock(1700000000)).Build(demoParams())
	require.NoError(t, err)
	return att
}

func TestVerifyRoundTrip(t *testing.T) {
	att := sealedAttestation(t)

	outcome := Verify(att, demoAddress)
	assert.True(t, outcome.Valid)
	assert.Equal(t, ReasonOK, outcome.Reason)
	assert.True(t, len(outcome.RecoveredSigner) == 42)
}

func TestVerifyJSONRoundTrip(t *testing.T) {
	att := sealedAttestation(t)
	raw, err := canonical.Marshal(att)
	require.NoError(t, err)

	outcome := VerifyJSON(raw, demoAddress)
	assert.True(t, outcome.Valid)
	assert.Equal(t, ReasonOK, outcome.Reason)

	// Address comparison is case-insensitive.
	lower := VerifyJSON(raw, "0x292f0e22a0245387a89d5db50f016d18d6af0bac")
	assert.True(t, lower.Valid)
}

func TestVerifyTamperSensitivity(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Attestation)
	}{
		{"input hash", func(a *Attestation) { a.Commitments.InputHash = canonical.HashText("forged") }},
		{"output hash", func(a *Attestation) { a.Commitments.OutputHash = canonical.HashText("forged") }},
		{"model id", func(a *Attestation) { a.Commitments.ModelID = "gpt-4" }},
		{"gpu seconds", func(a *Attestation) { a.ComputeMetrics.GPUSeconds = 999 }},
		{"flops", func(a *Attestation) { a.ComputeMetrics.EstimatedFLOPs = "9e99" }},
		{"compute timestamp", func(a *Attestation) { a.ComputeMetrics.Timestamp++ }},
		{"accuracy", func(a *Attestation) { a.Evaluation.AccuracyScore = 0.99 }},
		{"meets spec", func(a *Attestation) { a.Evaluation.MeetsSpec = false }},
		{"threshold", func(a *Attestation) { a.Evaluation.Threshold = 0.1 }},
		{"validator address", func(a *Attestation) { a.Validator.Address = "0x0000000000000000000000000000000000000002" }},
		{"validator timestamp", func(a *Attestation) { a.Validator.Timestamp++ }},
		{"version", func(a *Attestation) { a.Version = "9.9.9" }},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			att := sealedAttestation(t)
			m.mutate(att)

			outcome := Verify(att, demoAddress)
			assert.False(t, outcome.Valid)
			assert.Equal(t, ReasonHashMismatch, outcome.Reason)
		})
	}
}

func TestVerifyJSONInjectedFieldIsTamper(t *testing.T) {
	att := sealedAttestation(t)
	raw, err := canonical.Marshal(att)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc["bonus"] = json.RawMessage(`"claimed after signing"`)
	forged, err := json.Marshal(doc)
	require.NoError(t, err)

	outcome := VerifyJSON(forged, demoAddress)
	assert.False(t, outcome.Valid)
	assert.Equal(t, ReasonHashMismatch, outcome.Reason)
}

func TestVerifySignerMismatch(t *testing.T) {
	att := sealedAttestation(t)

	outcome := Verify(att, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.False(t, outcome.Valid)
	assert.Equal(t, ReasonSignerMismatch, outcome.Reason)
	// The hash still matches, so the recovered signer is reported for audit.
	assert.NotEmpty(t, outcome.RecoveredSigner)
}

func TestVerifyGarbageSignature(t *testing.T) {
	att := sealedAttestation(t)
	att.Proof.R = "0x0"
	att.Proof.S = "0x0"

	outcome := Verify(att, demoAddress)
	assert.False(t, outcome.Valid)
	assert.Equal(t, ReasonSignatureInvalid, outcome.Reason)
}

func TestVerifyMalformed(t *testing.T) {
	t.Run("nil attestation", func(t *testing.T) {
		outcome := Verify(nil, demoAddress)
		assert.Equal(t, ReasonMalformed, outcome.Reason)
	})

	t.Run("missing proof", func(t *testing.T) {
		att := sealedAttestation(t)
		att.Proof = nil
		outcome := Verify(att, demoAddress)
		assert.Equal(t, ReasonMalformed, outcome.Reason)
	})

	t.Run("unparseable r", func(t *testing.T) {
		att := sealedAttestation(t)
		att.Proof.R = "0xnothex"
		outcome := Verify(att, demoAddress)
		assert.Equal(t, ReasonMalformed, outcome.Reason)
	})

	t.Run("v out of range", func(t *testing.T) {
		att := sealedAttestation(t)
		att.Proof.V = 99
		outcome := Verify(att, demoAddress)
		assert.Equal(t, ReasonMalformed, outcome.Reason)
	})
}

func TestVerifyJSONMalformedNeverPanics(t *testing.T) {
	att := sealedAttestation(t)
	raw, err := canonical.Marshal(att)
	require.NoError(t, err)

	t.Run("missing proof.s", func(t *testing.T) {
		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &doc))
		var proof map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(doc["proof"], &proof))
		delete(proof, "s")
		doc["proof"], _ = json.Marshal(proof)
		mangled, _ := json.Marshal(doc)

		outcome := VerifyJSON(mangled, demoAddress)
		assert.False(t, outcome.Valid)
		assert.Equal(t, ReasonMalformed, outcome.Reason)
	})

	t.Run("missing proof.v", func(t *testing.T) {
		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &doc))
		var proof map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(doc["proof"], &proof))
		delete(proof, "v")
		doc["proof"], _ = json.Marshal(proof)
		mangled, _ := json.Marshal(doc)

		outcome := VerifyJSON(mangled, demoAddress)
		assert.Equal(t, ReasonMalformed, outcome.Reason)
	})

	for name, payload := range map[string]string{
		"not json":      "not json at all",
		"json array":    "[1,2,3]",
		"empty object":  "{}",
		"proof is null": `{"version":"1.1.0","proof":null}`,
		"proof scalar":  `{"version":"1.1.0","proof":42}`,
	} {
		t.Run(name, func(t *testing.T) {
			outcome := VerifyJSON([]byte(payload), demoAddress)
			assert.False(t, outcome.Valid)
			assert.Equal(t, ReasonMalformed, outcome.Reason)
		})
	}
}
