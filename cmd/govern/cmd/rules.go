package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/governance/policy"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage policy rules",
	Long: `Inspect and change the policy rule set.

Subcommands:
  list - Show active rules
  get  - Show one rule by code
  seed - Ensure the default rule set exists
  set  - Create or update a rule (records a rule_upsert audit event)

Examples:
  govern rules list
  govern rules set --code MAX_POSITION_WEIGHT --type position_weight --threshold 0.10 --severity error`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active policy rules",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesGetCmd = &cobra.Command{
	Use:   "get <code>",
	Short: "Show one policy rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesGet,
}

var rulesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default rule set (idempotent)",
	Args:  cobra.NoArgs,
	RunE:  runRulesSeed,
}

var rulesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a policy rule",
	RunE:  runRulesSet,
}

var (
	ruleCode      string
	ruleType      string
	ruleThreshold float64
	ruleSeverity  string
	ruleActive    bool
	ruleParams    string
)

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesGetCmd)
	rulesCmd.AddCommand(rulesSeedCmd)
	rulesCmd.AddCommand(rulesSetCmd)

	rulesSetCmd.Flags().StringVar(&ruleCode, "code", "", "stable rule code (required)")
	rulesSetCmd.Flags().StringVar(&ruleType, "type", "", "rule type (position_weight, max_trade_notional_pct, sector_aggregate_weight, turnover)")
	rulesSetCmd.Flags().Float64Var(&ruleThreshold, "threshold", 0, "rule threshold")
	rulesSetCmd.Flags().StringVar(&ruleSeverity, "severity", "warn", "severity (warn, error)")
	rulesSetCmd.Flags().BoolVar(&ruleActive, "active", true, "whether the rule is enforced")
	rulesSetCmd.Flags().StringVar(&ruleParams, "params", "{}", "extra rule parameters as JSON")

	rulesSetCmd.MarkFlagRequired("code")
	rulesSetCmd.MarkFlagRequired("type")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	rules, err := svc.ListActiveRules()
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	if len(rules) == 0 {
		fmt.Println("no active rules (run 'govern rules seed')")
		return nil
	}

	for _, r := range rules {
		printRule(r)
	}
	return nil
}

func runRulesGet(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	r, err := svc.GetRule(args[0])
	if err != nil {
		return err
	}
	printRule(r)
	return nil
}

func runRulesSeed(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Initialize(); err != nil {
		return fmt.Errorf("seed rules: %w", err)
	}
	fmt.Println("default rules seeded")
	return nil
}

func runRulesSet(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	var params map[string]any
	if err := json.Unmarshal([]byte(ruleParams), &params); err != nil {
		return fmt.Errorf("parse --params: %w", err)
	}

	rule := policy.Rule{
		Code:     ruleCode,
		Type:     policy.RuleType(ruleType),
		Severity: policy.Severity(ruleSeverity),
		Active:   ruleActive,
		Params:   params,
	}
	if cmd.Flags().Changed("threshold") {
		rule.Threshold = policy.Float(ruleThreshold)
	}

	stored, err := svc.UpsertRule(rule)
	if err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}
	printRule(stored)
	return nil
}

func printRule(r policy.Rule) {
	threshold := "-"
	if r.Threshold != nil {
		threshold = fmt.Sprintf("%.4f", *r.Threshold)
	}
	state := "inactive"
	if r.Active {
		state = "active"
	}
	fmt.Printf("%-24s %-24s threshold=%-8s %-5s %s\n",
		r.Code, r.Type, threshold, r.Severity, state)
}
