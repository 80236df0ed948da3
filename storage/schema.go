// storage/schema.go
package storage

const Schema = `
CREATE TABLE IF NOT EXISTS audit_event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts DATETIME NOT NULL,
	category TEXT NOT NULL,
	ref_type TEXT NOT NULL DEFAULT '',
	ref_id TEXT NOT NULL DEFAULT '',
	payload_json TEXT NOT NULL,
	hash TEXT NOT NULL,
	prev_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS config_snapshot (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts DATETIME NOT NULL,
	category TEXT NOT NULL,
	ref_type TEXT NOT NULL DEFAULT '',
	ref_id TEXT NOT NULL DEFAULT '',
	payload_json TEXT NOT NULL,
	hash TEXT NOT NULL,
	prev_hash TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_config_snapshot_kind ON config_snapshot(category);

CREATE TABLE IF NOT EXISTS risk_event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts DATETIME NOT NULL,
	category TEXT NOT NULL,
	ref_type TEXT NOT NULL DEFAULT '',
	ref_id TEXT NOT NULL DEFAULT '',
	payload_json TEXT NOT NULL,
	hash TEXT NOT NULL,
	prev_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS policy_rule (
	code TEXT PRIMARY KEY,
	rule_type TEXT NOT NULL,
	threshold REAL,
	severity TEXT NOT NULL DEFAULT 'warn',
	active INTEGER NOT NULL DEFAULT 1,
	params_json TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS breach_log (
	id TEXT PRIMARY KEY,
	ts DATETIME NOT NULL,
	rule_code TEXT NOT NULL,
	severity TEXT NOT NULL,
	context_json TEXT NOT NULL DEFAULT '{}',
	status TEXT NOT NULL DEFAULT 'open',
	auto_action TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_breach_log_status ON breach_log(status);
`
