package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/poimarket/attest/pkg/attestation"
)

// runVerifyCmd implements `attest verify`.
//
// The verification reason is always surfaced distinctly: hash tampering,
// wrong signer, and garbage signatures imply different remediation.
//
// Exit codes:
//
//	0 = verification passed
//	1 = verification failed
//	2 = runtime error
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		file       string
		validator  string
		jsonOutput bool
	)
	cmd.StringVar(&file, "file", "", "Path to attestation JSON (REQUIRED)")
	cmd.StringVar(&validator, "validator", "", "Expected validator address (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the outcome as JSON")

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

	if jsonOutput {
		data, _ := json.MarshalIndent(outcome, "", "  ")
		_, _ = fmt.Fprintf(stdout, "%s\n", data)
	} else if outcome.Valid {
		_, _ = fmt.Fprintf(stdout, "VALID: signed by %s\n", outcome.RecoveredSigner)
	} else {
		_, _ = fmt.Fprintf(stdout, "INVALID (%s): %s\n", outcome.Reason, outcome.Detail)
	}

	if outcome.Valid {
		return 0
	}
	return 1
}
