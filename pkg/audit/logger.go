// Package audit records attestation lifecycle events as structured JSON.
// Verification outcomes are logged with their reason so operators can tell
// hash tampering from a wrong signer from a garbage signature.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poimarket/attest/pkg/attestation"
)

// EventType defines the category of the audit event.
type EventType string

const (
	EventBuild   EventType = "BUILD"
	EventVerify  EventType = "VERIFY"
	EventPersist EventType = "PERSIST"
	EventHandoff EventType = "HANDOFF"
)

// Event is a structured audit record. Key material never appears here.
type Event struct {
	ID              string         `json:"id"`
	Type            EventType      `json:"type"`
	AttestationHash string         `json:"attestation_hash,omitempty"`
	Validator       string         `json:"validator,omitempty"`
	Reason          string         `json:"reason,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Logger records audit events.
type Logger interface {
	Record(ctx context.Context, event Event) error
	RecordOutcome(ctx context.Context, attestationHash string, outcome attestation.Outcome) error
}

// logger writes structured JSON lines to a configurable writer.
type logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to w. This allows injection
// for testing and custom sinks.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &logger{writer: w}
}

func (l *logger) Record(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Prefix for easy filtering alongside application logs.
	_, err = l.writer.Write(append([]byte("AUDIT: "), append(line, '\n')...))
	return err
}

// RecordOutcome logs a verification outcome against its attestation hash.
func (l *logger) RecordOutcome(ctx context.Context, attestationHash string, outcome attestation.Outcome) error {
	return l.Record(ctx, Event{
		Type:            EventVerify,
		AttestationHash: attestationHash,
		Validator:       outcome.RecoveredSigner,
		Reason:          string(outcome.Reason),
		Metadata: map[string]any{
			"valid":  outcome.Valid,
			"detail": outcome.Detail,
		},
	})
}
