package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/governance/riskcalc"
)

var exposureCmd = &cobra.Command{
	Use:   "exposure",
	Short: "Compute the gross exposure scalar",
	Long: `Blend market-regime probabilities with the current open-breach count
into a bounded [0.4, 1.0] position-sizing multiplier.

Example:
  govern exposure --bear 0.5 --high-vol 0.3`,
	RunE: runExposure,
}

var (
	expBear    float64
	expHighVol float64
)

func init() {
	rootCmd.AddCommand(exposureCmd)

	exposureCmd.Flags().Float64Var(&expBear, "bear", 0, "bear regime probability [0,1]")
	exposureCmd.Flags().Float64Var(&expHighVol, "high-vol", 0, "high-volatility regime probability [0,1]")
}

func runExposure(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	scalar, err := svc.ExposureScalar(&riskcalc.RegimeProbs{
		Bear:    expBear,
		HighVol: expHighVol,
	})
	if err != nil {
		return fmt.Errorf("exposure scalar: %w", err)
	}

	fmt.Printf("exposure scalar: %.4f\n", scalar)
	return nil
}
