package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/poimarket/attest/pkg/attestation"
)

func TestRecordWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf)

	err := l.Record(context.Background(), Event{
		Type:            EventBuild,
		AttestationHash: "0xabc",
		Validator:       "0xdef",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	line := buf.String()
	if !strings.HasPrefix(line, "AUDIT: ") {
		t.Fatalf("expected AUDIT prefix, got %q", line)
	}

	var event Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "AUDIT: ")), &event); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if event.Type != EventBuild {
		t.Errorf("expected BUILD event, got %s", event.Type)
	}
	if event.ID == "" {
		t.Error("expected generated event ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("expected generated timestamp")
	}
}

func TestRecordOutcomeCarriesReason(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf)

	outcome := attestation.Outcome{
		Valid:  false,
		Reason: attestation.ReasonSignerMismatch,
		Detail: "signature recovers to someone else",
	}
	if err := l.RecordOutcome(context.Background(), "0xabc", outcome); err != nil {
		t.Fatalf("RecordOutcome failed: %v", err)
	}

	var event Event
	payload := strings.TrimPrefix(strings.TrimSpace(buf.String()), "AUDIT: ")
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if event.Type != EventVerify {
		t.Errorf("expected VERIFY event, got %s", event.Type)
	}
	if event.Reason != string(attestation.ReasonSignerMismatch) {
		t.Errorf("expected reason to be surfaced, got %q", event.Reason)
	}
	if event.Metadata["valid"] != false {
		t.Error("expected valid=false in metadata")
	}
}

func TestNilWriterFallsBackToStdout(t *testing.T) {
	l := NewLoggerWithWriter(nil)
	if l == nil {
		t.Fatal("expected logger")
	}
}
