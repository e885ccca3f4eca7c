package rails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PaymentRail gates a fund transfer on a verified claim. The rail consumes
// exactly two values, the attestation hash and the meets_spec boolean,
// and nothing else from the record.
type PaymentRail interface {
	Release(ctx context.Context, attestationHash string, meetsSpec bool) (*PaymentResult, error)
}

// PaymentResult is the rail's settlement acknowledgement.
type PaymentResult struct {
	Settled         bool   `json:"success"`
	PaymentHash     string `json:"paymentHash,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Amount          string `json:"amount,omitempty"`
	Error           string `json:"error,omitempty"`
}

// HTTPPaymentRail talks to a payment service over its /process-payment
// endpoint.
type HTTPPaymentRail struct {
	baseURL string
	client  *Client
}

// NewHTTPPaymentRail creates a rail client for the service at baseURL.
func NewHTTPPaymentRail(baseURL string, client *Client) *HTTPPaymentRail {
	if client == nil {
		client = NewClient()
	}
	return &HTTPPaymentRail{baseURL: baseURL, client: client}
}

// Release submits the hand-off. A claim that does not meet spec is still
// reported to the rail; withholding payment is the rail's decision, not the
// core's.
func (r *HTTPPaymentRail) Release(ctx context.Context, attestationHash string, meetsSpec bool) (*PaymentResult, error) {
	payload, err := json.Marshal(map[string]any{
		"attestation_hash": attestationHash,
		"meets_spec":       meetsSpec,
	})
	if err != nil {
		return nil, fmt.Errorf("rails: encode payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/process-payment", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("rails: build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rails: payment service returned status %d", resp.StatusCode)
	}
	var result PaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("rails: decode payment response: %w", err)
	}
	return &result, nil
}
