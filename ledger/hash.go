package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashEntry computes the chain hash over an entry's identity fields:
//
//	SHA-256(prev_hash | category | ref_type | ref_id | payload)
//
// Absent fields encode as empty strings. The fields are joined with a literal
// "|" rather than length-prefixed, so a category or ref value containing "|"
// could in principle produce the same base string as a differently split
// tuple. Recorded chains depend on this exact layout, so it stays; a fresh
// deployment that doesn't need compatibility should length-prefix the tuple.
func HashEntry(prevHash, category, refType, refID, payload string) string {
	base := strings.Join([]string{prevHash, category, refType, refID, payload}, "|")
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])
}
