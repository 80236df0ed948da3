// Package governance wires the ledger, rule store, rule engine, breach
// tracker, and risk calculator behind one facade.
//
// The facade owns the database handle and the cross-cutting concerns:
// structured logging, metrics, and the ordering rule that an action's audit
// append must succeed before the action is reported as done.
package governance

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/governance/breach"
	"github.com/rustyeddy/governance/engine"
	"github.com/rustyeddy/governance/ledger"
	"github.com/rustyeddy/governance/policy"
	"github.com/rustyeddy/governance/riskcalc"
	"github.com/rustyeddy/governance/storage"
)

// Service is the governance facade. Construct one per process with Open and
// pass it explicitly; there is no package-level default instance.
type Service struct {
	db         *sql.DB
	log        *zap.Logger
	ledger     *ledger.Ledger
	rules      *policy.Store
	breaches   *breach.Tracker
	thresholds riskcalc.Thresholds
}

// Open opens (creating if needed) the governance database and builds the
// service. A nil logger disables logging.
func Open(dbPath string, log *zap.Logger, thresholds riskcalc.Thresholds) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	led := ledger.New(db)
	return &Service{
		db:         db,
		log:        log,
		ledger:     led,
		rules:      policy.NewStore(db, led),
		breaches:   breach.NewTracker(db, led),
		thresholds: thresholds,
	}, nil
}

// Close releases the database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

// Ledger exposes the underlying chains for operational tooling.
func (s *Service) Ledger() *ledger.Ledger { return s.ledger }

// Initialize seeds the default rule set and records a governance_init audit
// event. Idempotent; call it on every start.
func (s *Service) Initialize() error {
	if err := s.rules.SeedDefaults(); err != nil {
		return err
	}

	codes := make([]string, 0, len(policy.DefaultRules))
	for _, r := range policy.DefaultRules {
		codes = append(codes, r.Code)
	}
	_, err := s.ledger.Append(ledger.Audit(), "governance_init", map[string]any{
		"default_rules": codes,
	}, "", "")
	if err != nil {
		return err
	}

	s.log.Info("governance initialized", zap.Strings("default_rules", codes))
	return nil
}

// EvaluatePreTrade runs the rule engine for a proposed trade. When in.Rules
// is nil the active rule set is loaded from the store. The decision is
// advisory; nothing is recorded here.
func (s *Service) EvaluatePreTrade(in engine.Input) (engine.Decision, error) {
	if in.Rules == nil {
		rules, err := s.rules.ListActive()
		if err != nil {
			return engine.Decision{}, fmt.Errorf("evaluate pre-trade: %w", err)
		}
		in.Rules = rules
	}

	d := engine.Evaluate(in)
	evaluationsTotal.Inc()
	if d.WillBlock {
		blockedTotal.Inc()
		s.log.Warn("pre-trade breach",
			zap.String("ticker", in.Order.Ticker),
			zap.Int("breaches", len(d.Breaches)),
		)
	}
	return d, nil
}

// RecordBreaches persists the detected breaches and their audit events.
func (s *Service) RecordBreaches(breaches []engine.Breach, severity policy.Severity) ([]breach.Log, error) {
	logs, err := s.breaches.Record(breaches, severity)
	if err != nil {
		return logs, err
	}
	breachesTotal.Add(float64(len(logs)))
	for _, l := range logs {
		s.log.Warn("breach recorded",
			zap.String("breach_id", l.ID),
			zap.String("rule_code", l.RuleCode),
			zap.String("severity", string(l.Severity)),
		)
	}
	return logs, nil
}

// UpsertRule creates or updates a policy rule.
func (s *Service) UpsertRule(r policy.Rule) (policy.Rule, error) {
	stored, err := s.rules.Upsert(r)
	if err != nil {
		return policy.Rule{}, err
	}
	s.log.Info("rule upserted",
		zap.String("code", stored.Code),
		zap.String("rule_type", string(stored.Type)),
		zap.Bool("active", stored.Active),
	)
	return stored, nil
}

// GetRule returns one rule by code.
func (s *Service) GetRule(code string) (policy.Rule, error) {
	return s.rules.GetByCode(code)
}

// ListActiveRules returns the rules currently in force.
func (s *Service) ListActiveRules() ([]policy.Rule, error) {
	return s.rules.ListActive()
}

// ListBreaches returns recent breaches, most recent first.
func (s *Service) ListBreaches(limit int, openOnly bool) ([]breach.Log, error) {
	return s.breaches.List(limit, openOnly)
}

// UpdateBreachStatus transitions a breach's lifecycle state.
func (s *Service) UpdateBreachStatus(breachID string, status breach.Status) error {
	if err := s.breaches.UpdateStatus(breachID, status); err != nil {
		return err
	}
	s.log.Info("breach status updated",
		zap.String("breach_id", breachID),
		zap.String("status", string(status)),
	)
	return nil
}

// UpdateBreachNotes replaces a breach's operator notes.
func (s *Service) UpdateBreachNotes(breachID, notes string) error {
	return s.breaches.UpdateNotes(breachID, notes)
}

// SaveConfigSnapshot appends a snapshot of content to the kind's chain.
func (s *Service) SaveConfigSnapshot(kind string, content map[string]any) (ledger.Entry, error) {
	e, err := s.ledger.Append(ledger.ConfigSnapshots(kind), kind, content, "", "")
	if err != nil {
		return ledger.Entry{}, err
	}
	snapshotsTotal.Inc()
	s.log.Info("config snapshot saved", zap.String("kind", kind), zap.Int64("sequence", e.Sequence))
	return e, nil
}

// VerifyAuditChain re-verifies the audit chain (limit 0 = everything).
func (s *Service) VerifyAuditChain(limit int) (bool, error) {
	return s.verify(ledger.Audit(), limit)
}

// VerifyRiskChain re-verifies the risk-event chain.
func (s *Service) VerifyRiskChain(limit int) (bool, error) {
	return s.verify(ledger.RiskEvents(), limit)
}

// VerifyConfigSnapshots re-verifies one config-snapshot kind's chain.
func (s *Service) VerifyConfigSnapshots(kind string, limit int) (bool, error) {
	return s.verify(ledger.ConfigSnapshots(kind), limit)
}

func (s *Service) verify(c ledger.Chain, limit int) (bool, error) {
	ok, err := s.ledger.Verify(c, limit)
	if err != nil {
		return false, err
	}
	if !ok {
		verifyFailuresTotal.WithLabelValues(c.Table()).Inc()
		s.log.Error("chain verification failed",
			zap.String("chain", c.Table()),
			zap.String("kind", c.Kind()),
		)
	}
	return ok, nil
}

// LogRiskEvent appends one event to the risk chain and mirrors it into the
// audit chain, matching how every risk event is also an auditable action.
func (s *Service) LogRiskEvent(ev riskcalc.Event) (ledger.Entry, error) {
	e, err := s.ledger.Append(ledger.RiskEvents(), ev.Type, ev.Payload, ev.Severity, "")
	if err != nil {
		return ledger.Entry{}, err
	}

	mirror := map[string]any{
		"event_type": ev.Type,
		"severity":   ev.Severity,
	}
	for k, v := range ev.Payload {
		mirror[k] = v
	}
	if _, err := s.ledger.Append(ledger.Audit(), "risk_event", mirror, "", ""); err != nil {
		return ledger.Entry{}, err
	}

	riskEventsTotal.Inc()
	s.log.Warn("risk event",
		zap.String("event_type", ev.Type),
		zap.String("severity", ev.Severity),
	)
	return e, nil
}

// EmitRiskEvents checks a snapshot against the configured thresholds and
// appends an event per trip. Suppression across calls is the caller's job.
func (s *Service) EmitRiskEvents(snap riskcalc.Snapshot) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, ev := range s.thresholds.Events(snap) {
		e, err := s.LogRiskEvent(ev)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ExposureScalar blends regime probabilities with the current open-breach
// count into a position-sizing multiplier.
func (s *Service) ExposureScalar(probs *riskcalc.RegimeProbs) (float64, error) {
	open, err := s.breaches.CountOpen()
	if err != nil {
		return 0, err
	}
	return riskcalc.ExposureScalar(probs, open), nil
}
