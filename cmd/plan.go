package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/roster/app"
	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/infra/logger"
	"github.com/kilianp07/roster/pkg/export"
)

var planOpts struct {
	input  string
	from   string
	to     string
	format string
	output string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Assign drivers to the routes of a planning window",
	Example: `  roster plan --input week.yaml --format text
  roster plan -c config.yaml --from 2025-03-01 --to 2025-03-31 --format grid -o march.csv`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVarP(&planOpts.input, "input", "i", "", "scenario file (overrides the configured source)")
	f.StringVar(&planOpts.from, "from", "", "first date of the window (YYYY-MM-DD)")
	f.StringVar(&planOpts.to, "to", "", "last date of the window (YYYY-MM-DD)")
	f.StringVarP(&planOpts.format, "format", "f", export.FormatText, "output format: json, csv, grid or text")
	f.StringVarP(&planOpts.output, "output", "o", "-", "output file, - for stdout")
	rootCmd.AddCommand(planCmd)
}

func parseWindow(from, to string) (model.Date, model.Date, error) {
	var lo, hi model.Date
	var err error
	if from != "" {
		if lo, err = model.ParseDate(from); err != nil {
			return lo, hi, err
		}
	}
	if to != "" {
		if hi, err = model.ParseDate(to); err != nil {
			return lo, hi, err
		}
	}
	return lo, hi, nil
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if planOpts.input != "" {
		cfg.Input.Path = planOpts.input
		cfg.Database.DSN = ""
	}
	from, to, err := parseWindow(planOpts.from, planOpts.to)
	if err != nil {
		return err
	}

	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	doc, err := svc.Plan(ctx, from, to)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if planOpts.output != "-" && planOpts.output != "" {
		f, err := os.Create(planOpts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, planOpts.format, doc); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
