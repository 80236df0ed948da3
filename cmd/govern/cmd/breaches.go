package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/governance/breach"
)

var breachesCmd = &cobra.Command{
	Use:   "breaches",
	Short: "Review and resolve rule breaches",
	Long: `List breach records and move them through their lifecycle.

Subcommands:
  list  - List recent breaches
  ack   - Acknowledge a breach
  close - Close a breach
  note  - Attach operator notes to a breach

Every change is mirrored into the audit chain.`,
}

var breachesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent breaches, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runBreachesList,
}

var breachesAckCmd = &cobra.Command{
	Use:   "ack <breach-id>",
	Short: "Acknowledge a breach",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBreachStatus(args[0], breach.Acknowledged)
	},
}

var breachesCloseCmd = &cobra.Command{
	Use:   "close <breach-id>",
	Short: "Close a breach",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBreachStatus(args[0], breach.Closed)
	},
}

var breachesNoteCmd = &cobra.Command{
	Use:   "note <breach-id> <text...>",
	Short: "Attach notes to a breach",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBreachesNote,
}

var (
	breachesLimit int
	breachesOpen  bool
)

func init() {
	rootCmd.AddCommand(breachesCmd)
	breachesCmd.AddCommand(breachesListCmd)
	breachesCmd.AddCommand(breachesAckCmd)
	breachesCmd.AddCommand(breachesCloseCmd)
	breachesCmd.AddCommand(breachesNoteCmd)

	breachesListCmd.Flags().IntVar(&breachesLimit, "limit", 50, "maximum breaches to list")
	breachesListCmd.Flags().BoolVar(&breachesOpen, "open", false, "only list open breaches")
}

func runBreachesList(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	logs, err := svc.ListBreaches(breachesLimit, breachesOpen)
	if err != nil {
		return fmt.Errorf("list breaches: %w", err)
	}
	if len(logs) == 0 {
		fmt.Println("no breaches")
		return nil
	}

	for _, l := range logs {
		fmt.Printf("%s  %s  %-24s %-5s %-12s %v\n",
			l.ID, l.Time.Format("2006-01-02 15:04:05"), l.RuleCode, l.Severity, l.Status, l.Context)
	}
	return nil
}

func setBreachStatus(breachID string, status breach.Status) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.UpdateBreachStatus(breachID, status); err != nil {
		return err
	}
	fmt.Printf("breach %s -> %s\n", breachID, status)
	return nil
}

func runBreachesNote(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	notes := strings.Join(args[1:], " ")
	if err := svc.UpdateBreachNotes(args[0], notes); err != nil {
		return err
	}
	fmt.Printf("breach %s notes updated (%d chars)\n", args[0], len(notes))
	return nil
}
