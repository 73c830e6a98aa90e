package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/roster/infra/scenario"
)

var genOpts struct {
	cfg    scenario.GenConfig
	from   string
	to     string
	output string
}

var generateCmd = &cobra.Command{
	Use:     "generate",
	Short:   "Write a synthetic scenario file for load and regression testing",
	Example: `  roster generate --from 2025-03-01 --to 2025-03-31 --drivers 25 --routes-per-day 18 -o march.yaml`,
	RunE:    runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.Int64Var(&genOpts.cfg.Seed, "seed", 1, "random seed")
	f.StringVar(&genOpts.from, "from", "", "first date (YYYY-MM-DD)")
	f.StringVar(&genOpts.to, "to", "", "last date (YYYY-MM-DD)")
	f.IntVar(&genOpts.cfg.Drivers, "drivers", 10, "number of drivers")
	f.IntVar(&genOpts.cfg.RoutesPerDay, "routes-per-day", 6, "routes on every date")
	f.Float64Var(&genOpts.cfg.MonthlyHours, "monthly-hours", 160, "budget of every driver")
	f.Float64Var(&genOpts.cfg.UnavailableRate, "unavailable", 0.1, "probability a driver is off on a date")
	f.IntVar(&genOpts.cfg.FixedRules, "fixed", 1, "drivers pinned to the Saturday routes")
	f.StringVarP(&genOpts.output, "output", "o", "-", "output file, - for stdout")
	_ = generateCmd.MarkFlagRequired("from")
	_ = generateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg := genOpts.cfg
	var err error
	if cfg.From, cfg.To, err = parseWindow(genOpts.from, genOpts.to); err != nil {
		return err
	}
	f, err := scenario.Generate(cfg)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if genOpts.output != "-" {
		out, err := os.Create(genOpts.output)
		if err != nil {
			return err
		}
		defer out.Close()
		w = out
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("write scenario: %w", err)
	}
	return enc.Close()
}
