package ledger

import (
	"fmt"
)

// Entries returns up to limit entries of the chain, most recent first.
// A limit of 0 returns everything.
func (l *Ledger) Entries(c Chain, limit int) ([]Entry, error) {
	query := fmt.Sprintf(
		"SELECT id, ts, category, ref_type, ref_id, payload_json, hash, prev_hash FROM %s", c.table)
	var args []any
	if c.kind != "" {
		query += " WHERE category = ?"
		args = append(args, c.kind)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.Sequence,
			&e.Time,
			&e.Category,
			&e.RefType,
			&e.RefID,
			&e.Payload,
			&e.Hash,
			&e.PrevHash,
		); err != nil {
			return nil, fmt.Errorf("list %s: %w", c.table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}
	return out, nil
}
