package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/poimarket/attest/pkg/attestation"
	"github.com/poimarket/attest/pkg/audit"
	"github.com/poimarket/attest/pkg/canonical"
	"github.com/poimarket/attest/pkg/signer"
	"github.com/poimarket/attest/pkg/store"
)

// runBuildCmd implements `attest build`.
//
// The core requires explicit compute metrics; the historical demo defaults
// (0.3 gpu-seconds, 1.2e12 flops) are supplied here, at the CLI edge, so
// scripted callers keep working.
func runBuildCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("build", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		input        string
		output       string
		modelID      string
		modelVersion string
		accuracy     float64
		gpuSeconds   float64
		flops        string
		keyFile      string
		outFile      string
		dbPath       string
	)
	cmd.StringVar(&input, "input", "", "Inference input data (REQUIRED)")
	cmd.StringVar(&output, "output", "", "Claimed inference output (REQUIRED)")
	cmd.StringVar(&modelID, "model", "", "Model identifier (REQUIRED)")
	cmd.StringVar(&modelVersion, "model-version", "", "Model version (REQUIRED)")
	cmd.Float64Var(&accuracy, "accuracy", -1, "Evaluation accuracy score in [0,1] (REQUIRED)")
	cmd.Float64Var(&gpuSeconds, "gpu-seconds", 0.3, "Claimed GPU seconds")
	cmd.StringVar(&flops, "flops", "1.2e12", "Claimed FLOPs estimate")
	cmd.StringVar(&keyFile, "key-file", "", "Path to hex-encoded validator signing key (REQUIRED)")
	cmd.StringVar(&outFile, "out", "", "Write canonical attestation JSON to file (default stdout)")
	cmd.StringVar(&dbPath, "db", "", "Also persist the attestation to this SQLite database")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if input == "" || output == "" || modelID == "" || modelVersion == "" || keyFile == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -input, -output, -model, -model-version, and -key-file are required")
		return 2
	}

	s, err := signer.NewLocalSignerFromFile(keyFile)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer s.Zero()

	att, err := attestation.NewBuilder(s).Build(attestation.BuildParams{
		InputData:      input,
		OutputData:     output,
		ModelID:        modelID,
		ModelVersion:   modelVersion,
		AccuracyScore:  accuracy,
		GPUSeconds:     gpuSeconds,
		EstimatedFLOPs: flops,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	body, err := canonical.Marshal(att)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		defer func() { _ = db.Close() }()
		if err := db.Put(context.Background(), att); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		_ = audit.NewLoggerWithWriter(stderr).Record(context.Background(), audit.Event{
			Type:            audit.EventPersist,
			AttestationHash: att.Proof.AttestationHash,
			Validator:       att.Validator.Address,
		})
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, append(body, '\n'), 0o644); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: cannot write %s: %v\n", outFile, err)
			return 2
		}
		_, _ = fmt.Fprintf(stdout, "Attestation %s written to %s\n", att.Proof.AttestationHash, outFile)
	} else {
		_, _ = fmt.Fprintf(stdout, "%s\n", body)
	}
	return 0
}
