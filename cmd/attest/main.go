// Command attest builds and verifies proof-of-inference attestations.
//
// Usage:
//
//	attest build   -input ... -output ... -model ... -key-file ...
//	attest verify  -file attestation.json -validator 0x...
//	attest handoff -file attestation.json -validator 0x...
//
// Exit codes: 0 = success / verification passed, 1 = verification failed,
// 2 = usage or runtime error.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split out for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "build":
		return runBuildCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "handoff":
		return runHandoffCmd(args[2:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, `Usage: attest <command> [flags]

Commands:
  build    Build and sign an attestation from raw claim inputs
  verify   Verify a sealed attestation against an expected validator
  handoff  Verify, then release payment and mint a registry receipt
  help     Show this help`)
}
