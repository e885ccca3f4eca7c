package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poimarket/attest/pkg/attestation"
	"github.com/poimarket/attest/pkg/canonical"
)

// SQLiteAttestationStore is the file-backed implementation. The body column
// holds the full canonical JSON (body + proof), which is the authoritative
// record; the other columns are query indexes derived from it.
type SQLiteAttestationStore struct {
	db *sql.DB
}

// NewSQLiteAttestationStore wraps db and creates the schema if needed.
func NewSQLiteAttestationStore(db *sql.DB) (*SQLiteAttestationStore, error) {
	s := &SQLiteAttestationStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open opens (or creates) a SQLite database at path and returns a store.
func Open(path string) (*SQLiteAttestationStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return NewSQLiteAttestationStore(db)
}

func (s *SQLiteAttestationStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS attestations (
		attestation_hash TEXT PRIMARY KEY,
		model_id TEXT NOT NULL,
		model_version TEXT NOT NULL,
		validator_address TEXT NOT NULL,
		accuracy_score REAL NOT NULL,
		meets_spec INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		body TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attestations_validator
		ON attestations (validator_address, created_at DESC);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Put stores a sealed attestation. Re-inserting the same attestation hash
// is a no-op; attestations are immutable once written.
func (s *SQLiteAttestationStore) Put(ctx context.Context, att *attestation.Attestation) error {
	if att == nil || att.Proof == nil {
		return fmt.Errorf("store: refusing to persist unsealed attestation")
	}
	body, err := canonical.Marshal(att)
	if err != nil {
		return fmt.Errorf("store: canonicalize attestation: %w", err)
	}

	query := `INSERT INTO attestations (
		attestation_hash, model_id, model_version, validator_address,
		accuracy_score, meets_spec, created_at, body
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (attestation_hash) DO NOTHING`

	createdAt := time.Unix(att.Validator.Timestamp, 0).UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		strings.ToLower(att.Proof.AttestationHash),
		att.Commitments.ModelID,
		att.Commitments.ModelVersion,
		strings.ToLower(att.Validator.Address),
		att.Evaluation.AccuracyScore,
		boolToInt(att.Evaluation.MeetsSpec),
		createdAt,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("store: insert attestation: %w", err)
	}
	return nil
}

// Get returns the attestation with the given proof hash. The lookup is
// case-insensitive on the hex digest.
func (s *SQLiteAttestationStore) Get(ctx context.Context, attestationHash string) (*attestation.Attestation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body FROM attestations WHERE attestation_hash = ?`,
		strings.ToLower(attestationHash),
	)
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeBody(body)
}

// List returns the most recent attestations, newest first.
func (s *SQLiteAttestationStore) List(ctx context.Context, limit int) ([]*attestation.Attestation, error) {
	return s.list(ctx,
		`SELECT body FROM attestations ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListByValidator returns the most recent attestations signed by the given
// address, newest first.
func (s *SQLiteAttestationStore) ListByValidator(ctx context.Context, validatorAddress string, limit int) ([]*attestation.Attestation, error) {
	return s.list(ctx,
		`SELECT body FROM attestations WHERE validator_address = ? ORDER BY created_at DESC LIMIT ?`,
		strings.ToLower(validatorAddress), limit)
}

func (s *SQLiteAttestationStore) list(ctx context.Context, query string, args ...any) ([]*attestation.Attestation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*attestation.Attestation
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		att, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying database handle.
func (s *SQLiteAttestationStore) Close() error {
	return s.db.Close()
}

func decodeBody(body string) (*attestation.Attestation, error) {
	var att attestation.Attestation
	if err := json.Unmarshal([]byte(body), &att); err != nil {
		return nil, fmt.Errorf("store: corrupt attestation body: %w", err)
	}
	return &att, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
