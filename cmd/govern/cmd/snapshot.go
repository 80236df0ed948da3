package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/governance/engine"
	"github.com/rustyeddy/governance/riskcalc"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Compute a risk snapshot from equity history",
	Long: `Compute concentration, volatility, drawdown and VaR from an equity
history CSV (date,total_equity) and an optional positions CSV
(ticker,shares,buy_price).

With --emit, threshold breaches are appended to the risk-event chain.

Example:
  govern snapshot --equity equity.csv --positions positions.csv --cash 2500 --emit`,
	RunE: runSnapshot,
}

var (
	snapEquityPath    string
	snapPositionsPath string
	snapCash          float64
	snapEmit          bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapEquityPath, "equity", "", "path to equity history CSV (date,total_equity) (required)")
	snapshotCmd.Flags().StringVar(&snapPositionsPath, "positions", "", "path to positions CSV (ticker,shares,buy_price)")
	snapshotCmd.Flags().Float64Var(&snapCash, "cash", 0, "current cash balance")
	snapshotCmd.Flags().BoolVar(&snapEmit, "emit", false, "append threshold breaches to the risk-event chain")

	snapshotCmd.MarkFlagRequired("equity")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	history, err := loadEquityCSV(snapEquityPath)
	if err != nil {
		return fmt.Errorf("equity history: %w", err)
	}

	var positions []engine.Position
	if snapPositionsPath != "" {
		positions, err = loadPositionsCSV(snapPositionsPath)
		if err != nil {
			return fmt.Errorf("positions: %w", err)
		}
	}

	snap := riskcalc.Compute(history, positions, snapCash)

	fmt.Printf("Equity:          $%.2f\n", snap.Equity)
	fmt.Printf("Cash:            $%.2f\n", snap.Cash)
	fmt.Printf("Top1 conc:       %.2f%%\n", snap.Top1ConcentrationPct)
	fmt.Printf("Top3 conc:       %.2f%%\n", snap.Top3ConcentrationPct)
	fmt.Printf("20d vol (ann.):  %.2f%%\n", snap.Rolling20dVolPct)
	fmt.Printf("Max drawdown:    %.2f%%\n", snap.MaxDrawdownPct)
	fmt.Printf("VaR95:           %.2f%%\n", snap.VaR95Pct)

	if !snapEmit {
		return nil
	}

	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	entries, err := svc.EmitRiskEvents(snap)
	if err != nil {
		return fmt.Errorf("emit risk events: %w", err)
	}
	fmt.Printf("\n%d risk event(s) appended\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %-20s %s\n", e.Category, e.Payload)
	}
	return nil
}

// loadEquityCSV reads rows of date,total_equity. A header row is skipped,
// blank equity cells are ignored.
func loadEquityCSV(path string) ([]riskcalc.EquityPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	var out []riskcalc.EquityPoint
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 || rec[1] == "" {
			continue
		}

		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue // header or malformed row
		}
		total, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		out = append(out, riskcalc.EquityPoint{Date: date, Total: total})
	}
	return out, nil
}

// loadPositionsCSV reads rows of ticker,shares,buy_price.
func loadPositionsCSV(path string) ([]engine.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	var out []engine.Position
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 {
			continue
		}

		shares, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue // header or malformed row
		}
		price, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		out = append(out, engine.Position{Ticker: rec[0], Shares: shares, BuyPrice: price})
	}
	return out, nil
}
