// Package ledger implements the append-only, hash-chained governance log.
//
// Three chain types share one primitive: the audit chain, one config-snapshot
// chain per kind, and the risk-event chain. Each chain is an independent,
// totally ordered sequence where every entry's hash covers its predecessor's
// hash, so rewriting any stored row breaks verification from that row on.
package ledger

import (
	"database/sql"
	"sync"
	"time"
)

// Chain identifies one independent hash-linked sequence.
type Chain struct {
	table string
	kind  string // partition key within config_snapshot, empty elsewhere
}

// Audit is the chain recording every governance action.
func Audit() Chain {
	return Chain{table: "audit_event"}
}

// ConfigSnapshots is the chain of configuration snapshots for one kind.
// Each kind is its own chain with its own linkage.
func ConfigSnapshots(kind string) Chain {
	return Chain{table: "config_snapshot", kind: kind}
}

// RiskEvents is the chain of threshold-triggered risk events.
func RiskEvents() Chain {
	return Chain{table: "risk_event"}
}

// Table reports the underlying table name, for operational tooling.
func (c Chain) Table() string { return c.table }

// Kind reports the config-snapshot partition, empty for other chains.
func (c Chain) Kind() string { return c.kind }

// key distinguishes chains for append serialization.
func (c Chain) key() string { return c.table + "\x00" + c.kind }

// Entry is one immutable row of a chain. Once written it is never updated
// or deleted; only appends are permitted.
type Entry struct {
	Sequence int64
	Time     time.Time
	Category string
	RefType  string
	RefID    string
	Payload  string // canonical JSON
	Hash     string
	PrevHash string // empty for the first entry of a chain
}

// Ledger appends to and verifies hash chains stored in the governance
// database. Appends to the same chain are serialized so two writers can
// never observe the same last hash and fork the chain.
type Ledger struct {
	db *sql.DB

	mu     sync.Mutex
	chains map[string]*sync.Mutex
}

// New wraps an open governance database (see the storage package).
func New(db *sql.DB) *Ledger {
	return &Ledger{
		db:     db,
		chains: make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) chainMu(c Chain) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	mu, ok := l.chains[c.key()]
	if !ok {
		mu = &sync.Mutex{}
		l.chains[c.key()] = mu
	}
	return mu
}
