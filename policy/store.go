package policy

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/governance/canonical"
	"github.com/rustyeddy/governance/ledger"
)

var (
	// ErrNotFound is returned when no rule exists for a code.
	ErrNotFound = errors.New("policy rule not found")

	// ErrUnknownRuleType is returned when an upsert names a rule type
	// outside the closed set.
	ErrUnknownRuleType = errors.New("unknown rule type")
)

// DefaultRules is the baseline rule set ensured by SeedDefaults.
var DefaultRules = []Rule{
	{
		Code:      "MAX_POSITION_WEIGHT",
		Type:      PositionWeight,
		Threshold: Float(0.10),
		Severity:  Error,
		Active:    true,
		Params:    map[string]any{"basis": "portfolio_equity"},
	},
	{
		Code:      "DAILY_TURNOVER_LIMIT",
		Type:      Turnover,
		Threshold: Float(0.25),
		Severity:  Warn,
		Active:    true,
		Params:    map[string]any{"window": "1d"},
	},
}

// Store persists rules in the policy_rule table and mirrors every upsert
// into the audit chain.
type Store struct {
	db  *sql.DB
	led *ledger.Ledger
}

// NewStore wraps the shared governance database and ledger.
func NewStore(db *sql.DB, led *ledger.Ledger) *Store {
	return &Store{db: db, led: led}
}

// Upsert creates or replaces the rule identified by r.Code (last writer
// wins) and appends a rule_upsert audit event. The returned rule reflects
// the stored row.
func (s *Store) Upsert(r Rule) (Rule, error) {
	if !r.Type.Valid() {
		return Rule{}, fmt.Errorf("upsert %s: %w: %q", r.Code, ErrUnknownRuleType, r.Type)
	}
	if r.Severity == "" {
		r.Severity = Warn
	}

	params := r.Params
	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := canonical.MarshalString(params)
	if err != nil {
		return Rule{}, fmt.Errorf("upsert %s: %w", r.Code, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO policy_rule (code, rule_type, threshold, severity, active, params_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			rule_type=excluded.rule_type,
			threshold=excluded.threshold,
			severity=excluded.severity,
			active=excluded.active,
			params_json=excluded.params_json,
			updated_at=excluded.updated_at`,
		r.Code, string(r.Type), r.Threshold, string(r.Severity), r.Active, paramsJSON, time.Now().UTC(),
	)
	if err != nil {
		return Rule{}, fmt.Errorf("upsert %s: %w", r.Code, err)
	}

	_, err = s.led.Append(ledger.Audit(), "rule_upsert", map[string]any{
		"code":      r.Code,
		"rule_type": string(r.Type),
		"threshold": r.Threshold,
		"active":    r.Active,
	}, "policy_rule", r.Code)
	if err != nil {
		return Rule{}, fmt.Errorf("upsert %s: audit: %w", r.Code, err)
	}

	return s.GetByCode(r.Code)
}

// GetByCode returns the rule for code, or ErrNotFound.
func (s *Store) GetByCode(code string) (Rule, error) {
	row := s.db.QueryRow(`
		SELECT code, rule_type, threshold, severity, active, params_json, updated_at
		FROM policy_rule
		WHERE code = ?`, code)

	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Rule{}, fmt.Errorf("rule %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return Rule{}, fmt.Errorf("get rule %q: %w", code, err)
	}
	return r, nil
}

// ListActive returns every rule with active set, in code order.
func (s *Store) ListActive() ([]Rule, error) {
	rows, err := s.db.Query(`
		SELECT code, rule_type, threshold, severity, active, params_json, updated_at
		FROM policy_rule
		WHERE active = 1
		ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("list active rules: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	return out, nil
}

// SeedDefaults ensures the baseline rule set exists. Safe to call on every
// process start: existing rows keep their active flag so an operator's
// deactivation survives restarts, and no audit events are appended (the
// facade records a single governance_init event instead).
func (s *Store) SeedDefaults() error {
	for _, r := range DefaultRules {
		paramsJSON, err := canonical.MarshalString(r.Params)
		if err != nil {
			return fmt.Errorf("seed %s: %w", r.Code, err)
		}
		_, err = s.db.Exec(`
			INSERT INTO policy_rule (code, rule_type, threshold, severity, active, params_json, updated_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT(code) DO UPDATE SET
				rule_type=excluded.rule_type,
				threshold=excluded.threshold,
				severity=excluded.severity,
				params_json=excluded.params_json,
				updated_at=excluded.updated_at`,
			r.Code, string(r.Type), r.Threshold, string(r.Severity), paramsJSON, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("seed %s: %w", r.Code, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (Rule, error) {
	var (
		r          Rule
		ruleType   string
		threshold  sql.NullFloat64
		severity   string
		paramsJSON string
	)
	if err := row.Scan(&r.Code, &ruleType, &threshold, &severity, &r.Active, &paramsJSON, &r.UpdatedAt); err != nil {
		return Rule{}, err
	}

	r.Type = RuleType(ruleType)
	r.Severity = Severity(severity)
	if threshold.Valid {
		r.Threshold = Float(threshold.Float64)
	}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
			// A corrupt params blob shouldn't make the rule unreadable.
			r.Params = map[string]any{}
		}
	}
	return r, nil
}
