// Package breach persists detected rule violations and their lifecycle.
//
// A breach row is created open and never deleted; status and notes are the
// only mutable fields, and every mutation is mirrored into the audit chain.
package breach

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/governance/canonical"
	"github.com/rustyeddy/governance/engine"
	"github.com/rustyeddy/governance/ledger"
	"github.com/rustyeddy/governance/pkg/id"
	"github.com/rustyeddy/governance/policy"
)

// ErrNotFound is returned for updates against an unknown breach ID.
var ErrNotFound = errors.New("breach not found")

// Status is the lifecycle state of a breach. Transitions are unconditional:
// the governance console may move a breach between any two states.
type Status string

const (
	Open         Status = "open"
	Acknowledged Status = "acknowledged"
	Closed       Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case Open, Acknowledged, Closed:
		return true
	}
	return false
}

// Log is one persisted breach record.
type Log struct {
	ID         string
	Time       time.Time
	RuleCode   string
	Severity   policy.Severity
	Context    map[string]any
	Status     Status
	AutoAction string
	Notes      string
}

// Tracker owns the breach_log table and mirrors every write into the
// audit chain.
type Tracker struct {
	db  *sql.DB
	led *ledger.Ledger
}

// NewTracker wraps the shared governance database and ledger.
func NewTracker(db *sql.DB, led *ledger.Ledger) *Tracker {
	return &Tracker{db: db, led: led}
}

// Record persists one open breach row per detected breach and appends a
// breach audit event for each. An empty severity defaults to error, matching
// the engine's advisory-but-serious posture for blocked trades.
func (t *Tracker) Record(breaches []engine.Breach, severity policy.Severity) ([]Log, error) {
	if severity == "" {
		severity = policy.Error
	}

	var out []Log
	for _, b := range breaches {
		details := b.Details
		if details == nil {
			details = map[string]any{}
		}
		contextJSON, err := canonical.MarshalString(details)
		if err != nil {
			return out, fmt.Errorf("record breach %s: %w", b.RuleCode, err)
		}

		rec := Log{
			ID:       id.New(),
			Time:     time.Now().UTC(),
			RuleCode: b.RuleCode,
			Severity: severity,
			Context:  details,
			Status:   Open,
		}

		_, err = t.db.Exec(`
			INSERT INTO breach_log (id, ts, rule_code, severity, context_json, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Time, rec.RuleCode, string(rec.Severity), contextJSON, string(rec.Status),
		)
		if err != nil {
			return out, fmt.Errorf("record breach %s: %w", b.RuleCode, err)
		}

		payload := map[string]any{"rule_code": b.RuleCode}
		for k, v := range details {
			payload[k] = v
		}
		if _, err := t.led.Append(ledger.Audit(), "breach", payload, "breach", rec.ID); err != nil {
			return out, fmt.Errorf("record breach %s: audit: %w", b.RuleCode, err)
		}

		out = append(out, rec)
	}
	return out, nil
}

// UpdateStatus moves a breach to status and appends a breach_status_update
// audit event. Returns ErrNotFound for an unknown ID.
func (t *Tracker) UpdateStatus(breachID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("update breach %s: invalid status %q", breachID, status)
	}

	res, err := t.db.Exec(`UPDATE breach_log SET status = ? WHERE id = ?`, string(status), breachID)
	if err != nil {
		return fmt.Errorf("update breach %s: %w", breachID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update breach %s: %w", breachID, err)
	}
	if n == 0 {
		return fmt.Errorf("update breach %s: %w", breachID, ErrNotFound)
	}

	_, err = t.led.Append(ledger.Audit(), "breach_status_update", map[string]any{
		"breach_id": breachID,
		"status":    string(status),
	}, "breach", breachID)
	if err != nil {
		return fmt.Errorf("update breach %s: audit: %w", breachID, err)
	}
	return nil
}

// UpdateNotes replaces a breach's notes. The audit payload carries only the
// note length so operator text never lands in the hash chain.
func (t *Tracker) UpdateNotes(breachID, notes string) error {
	res, err := t.db.Exec(`UPDATE breach_log SET notes = ? WHERE id = ?`, notes, breachID)
	if err != nil {
		return fmt.Errorf("update breach notes %s: %w", breachID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update breach notes %s: %w", breachID, err)
	}
	if n == 0 {
		return fmt.Errorf("update breach notes %s: %w", breachID, ErrNotFound)
	}

	_, err = t.led.Append(ledger.Audit(), "breach_notes_update", map[string]any{
		"breach_id": breachID,
		"notes_len": len(notes),
	}, "breach", breachID)
	if err != nil {
		return fmt.Errorf("update breach notes %s: audit: %w", breachID, err)
	}
	return nil
}

// List returns up to limit breaches, most recent first. With openOnly set,
// only open breaches are returned.
func (t *Tracker) List(limit int, openOnly bool) ([]Log, error) {
	query := `
		SELECT id, ts, rule_code, severity, context_json, status, auto_action, notes
		FROM breach_log`
	var args []any
	if openOnly {
		query += ` WHERE status = ?`
		args = append(args, string(Open))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := t.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list breaches: %w", err)
	}
	defer rows.Close()

	var out []Log
	for rows.Next() {
		var (
			rec         Log
			severity    string
			contextJSON string
			status      string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Time, &rec.RuleCode, &severity,
			&contextJSON, &status, &rec.AutoAction, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("list breaches: %w", err)
		}
		rec.Severity = policy.Severity(severity)
		rec.Status = Status(status)
		if contextJSON != "" {
			if err := json.Unmarshal([]byte(contextJSON), &rec.Context); err != nil {
				rec.Context = map[string]any{}
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list breaches: %w", err)
	}
	return out, nil
}

// CountOpen returns the number of breaches still open, used by the exposure
// scalar blend.
func (t *Tracker) CountOpen() (int, error) {
	var n int
	err := t.db.QueryRow(`SELECT COUNT(*) FROM breach_log WHERE status = ?`, string(Open)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open breaches: %w", err)
	}
	return n, nil
}
