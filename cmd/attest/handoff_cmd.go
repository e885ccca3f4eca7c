package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/poimarket/attest/pkg/attestation"
	"github.com/poimarket/attest/pkg/audit"
	"github.com/poimarket/attest/pkg/config"
	"github.com/poimarket/attest/pkg/rails"
)

// runHandoffCmd implements `attest handoff`.
//
// Hand-off is gated on verification: the payment rail and the receipt
// registry are only contacted once the attestation verifies against the
// expected validator. The rail receives the hash and verdict; the registry
// receives the full canonical record.
func runHandoffCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	cmd := flag.NewFlagSet("handoff", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		file        string
		validator   string
		paymentURL  string
		registryURL string
	)
	cmd.StringVar(&file, "file", "", "Path to sealed attestation JSON (REQUIRED)")
	cmd.StringVar(&validator, "validator", "", "Expected validator address (REQUIRED)")
	cmd.StringVar(&paymentURL, "payment-url", cfg.PaymentURL, "Payment rail base URL")
	cmd.StringVar(&registryURL, "registry-url", cfg.RegistryURL, "Receipt registry base URL")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if file == "" || validator == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -file and -validator are required")
		return 2
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: cannot read %s: %v\n", file, err)
		return 2
	}

	outcome := attestation.VerifyJSON(raw, validator)
	if !outcome.Valid {
		_, _ = fmt.Fprintf(stdout, "INVALID (%s): %s\n", outcome.Reason, outcome.Detail)
		return 1
	}

	var att attestation.Attestation
	if err := json.Unmarshal(raw, &att); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: decode attestation: %v\n", err)
		return 2
	}

	ctx := context.Background()
	client := rails.NewClient()

	payment, err := rails.NewHTTPPaymentRail(paymentURL, client).Release(
		ctx, att.Proof.AttestationHash, att.Evaluation.MeetsSpec)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: payment hand-off: %v\n", err)
		return 2
	}

	receipt, err := rails.NewHTTPReceiptRegistry(registryURL, client).Mint(ctx, &att)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: receipt mint: %v\n", err)
		return 2
	}

	_ = audit.NewLoggerWithWriter(stderr).Record(ctx, audit.Event{
		Type:            audit.EventHandoff,
		AttestationHash: att.Proof.AttestationHash,
		Validator:       att.Validator.Address,
		Metadata: map[string]any{
			"meets_spec": att.Evaluation.MeetsSpec,
			"settled":    payment.Settled,
			"receipt_id": receipt.ReceiptID,
		},
	})

	_, _ = fmt.Fprintf(stdout, "Hand-off complete: settled=%t receipt=%s\n", payment.Settled, receipt.ReceiptID)
	return 0
}
