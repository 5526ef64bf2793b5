package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Sink durably persists audit entries to an external store. It is optional:
// the ring buffer above is the source of truth for a process's lifetime;
// a Sink only extends that beyond process exit. The interface covers
// writing only; PostgresSink additionally offers Tail to read entries back.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// PostgresSink upserts audit entries into a decision_receipts table: a
// timeout-bounded sqlx.DB, one query per call, JSON columns for nested
// structures.
type PostgresSink struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresSink wraps db with a per-call timeout.
func NewPostgresSink(db *sqlx.DB, timeout time.Duration) *PostgresSink {
	return &PostgresSink{db: db, timeout: timeout}
}

// Tail returns the n most recent entries, newest last, for `audit tail`
// against a process that no longer holds them in its ring buffer.
func (s *PostgresSink) Tail(ctx context.Context, n int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		SELECT request_id, ticker, packet
		FROM decision_receipts
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryxContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var requestID, ticker string
		var packetJSON []byte
		if err := rows.Scan(&requestID, &ticker, &packetJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		var e Entry
		if err := json.Unmarshal(packetJSON, &e.Packet); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decision packet: %w", err)
		}
		e.RequestID, e.Ticker = requestID, ticker
		out = append(out, e)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// Write inserts e, keyed by RequestID so a retried webhook's decision
// doesn't duplicate a row if Write is ever called twice for it.
func (s *PostgresSink) Write(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	packetJSON, err := json.Marshal(e.Packet)
	if err != nil {
		return fmt.Errorf("failed to marshal decision packet: %w", err)
	}

	const query = `
		INSERT INTO decision_receipts (request_id, ticker, decision, engine_version, config_hash, packet, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (request_id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, query,
		e.RequestID, e.Ticker, string(e.Packet.Decision), e.Packet.EngineVersion, e.Packet.ConfigHash,
		packetJSON, time.UnixMilli(e.Packet.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}
