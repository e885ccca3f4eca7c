package rails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/poimarket/attest/pkg/attestation"
	"github.com/poimarket/attest/pkg/canonical"
)

// ReceiptRegistry persists a sealed attestation as metadata against an
// on-chain identity. The registry receives the full canonical record so
// any later reader can re-verify it offline.
type ReceiptRegistry interface {
	Mint(ctx context.Context, att *attestation.Attestation) (*Receipt, error)
}

// Receipt acknowledges a minted registry entry.
type Receipt struct {
	ReceiptID       string `json:"receipt_id"`
	AttestationHash string `json:"attestation_hash"`
	TokenID         string `json:"token_id,omitempty"`
	TransactionHash string `json:"transaction_hash,omitempty"`
}

// HTTPReceiptRegistry talks to a receipt service over its /receipts
// endpoint.
type HTTPReceiptRegistry struct {
	baseURL string
	client  *Client
}

// NewHTTPReceiptRegistry creates a registry client for the service at
// baseURL.
func NewHTTPReceiptRegistry(baseURL string, client *Client) *HTTPReceiptRegistry {
	if client == nil {
		client = NewClient()
	}
	return &HTTPReceiptRegistry{baseURL: baseURL, client: client}
}

// Mint submits the canonical serialization of a sealed attestation.
// Unsealed records are rejected here rather than surfacing as a registry
// error later.
func (r *HTTPReceiptRegistry) Mint(ctx context.Context, att *attestation.Attestation) (*Receipt, error) {
	if att == nil || att.Proof == nil {
		return nil, fmt.Errorf("rails: refusing to mint unsealed attestation")
	}
	payload, err := canonical.Marshal(att)
	if err != nil {
		return nil, fmt.Errorf("rails: canonicalize attestation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/receipts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("rails: build mint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("rails: receipt service returned status %d", resp.StatusCode)
	}
	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("rails: decode receipt response: %w", err)
	}
	return &receipt, nil
}
