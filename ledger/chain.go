package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/governance/canonical"
)

// Append writes one entry to the chain and returns it. The payload is
// canonicalized before hashing so structurally equal payloads always chain
// identically. The whole read-last-hash/insert sequence holds the chain's
// mutex; a storage failure here is fatal to the caller because a retried
// write could duplicate or skip a sequence position.
func (l *Ledger) Append(c Chain, category string, payload any, refType, refID string) (Entry, error) {
	if c.kind != "" && category != c.kind {
		return Entry{}, fmt.Errorf("append %s: category %q must equal snapshot kind %q", c.table, category, c.kind)
	}

	body, err := canonical.MarshalString(payload)
	if err != nil {
		return Entry{}, err
	}

	mu := l.chainMu(c)
	mu.Lock()
	defer mu.Unlock()

	prev, err := l.lastHash(c)
	if err != nil {
		return Entry{}, fmt.Errorf("append %s: last hash: %w", c.table, err)
	}

	now := time.Now().UTC()
	hash := HashEntry(prev, category, refType, refID, body)

	res, err := l.db.Exec(fmt.Sprintf(`
		INSERT INTO %s (ts, category, ref_type, ref_id, payload_json, hash, prev_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, c.table),
		now, category, refType, refID, body, hash, prev,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append %s: %w", c.table, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("append %s: %w", c.table, err)
	}

	return Entry{
		Sequence: seq,
		Time:     now,
		Category: category,
		RefType:  refType,
		RefID:    refID,
		Payload:  body,
		Hash:     hash,
		PrevHash: prev,
	}, nil
}

// LastHash returns the most recent hash of the chain, or empty if the chain
// has no entries yet.
func (l *Ledger) LastHash(c Chain) (string, error) {
	return l.lastHash(c)
}

func (l *Ledger) lastHash(c Chain) (string, error) {
	query := fmt.Sprintf("SELECT hash FROM %s", c.table)
	var args []any
	if c.kind != "" {
		query += " WHERE category = ?"
		args = append(args, c.kind)
	}
	query += " ORDER BY id DESC LIMIT 1"

	var hash string
	err := l.db.QueryRow(query, args...).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// Verify recomputes every entry's hash from its stored fields and confirms
// the chain linkage: each entry's prev_hash must equal its predecessor's
// hash, and the first entry's prev_hash must be empty. Integrity problems are
// reported as ok=false, never as an error; err covers storage I/O only. A
// limit of 0 verifies the whole chain.
func (l *Ledger) Verify(c Chain, limit int) (bool, error) {
	query := fmt.Sprintf(
		"SELECT category, ref_type, ref_id, payload_json, hash, prev_hash FROM %s", c.table)
	var args []any
	if c.kind != "" {
		query += " WHERE category = ?"
		args = append(args, c.kind)
	}
	query += " ORDER BY id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return false, fmt.Errorf("verify %s: %w", c.table, err)
	}
	defer rows.Close()

	prev := ""
	for rows.Next() {
		var category, refType, refID, payload, hash, prevHash string
		if err := rows.Scan(&category, &refType, &refID, &payload, &hash, &prevHash); err != nil {
			return false, fmt.Errorf("verify %s: %w", c.table, err)
		}
		if HashEntry(prevHash, category, refType, refID, payload) != hash {
			return false, nil
		}
		if prevHash != prev {
			return false, nil
		}
		prev = hash
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("verify %s: %w", c.table, err)
	}
	return true, nil
}
