package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/infra/scenario"
	"github.com/kilianp07/roster/infra/store"
)

var importInput string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a scenario file into the configured database",
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "scenario file")
	_ = importCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is not configured")
	}
	f, err := scenario.Load(importInput)
	if err != nil {
		return err
	}
	in := f.Input(scenario.Options{DefaultDuration: model.HoursToDuration(cfg.Input.DefaultRouteHours)})

	pg, err := store.NewPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		return err
	}
	if err := pg.Import(ctx, in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d drivers, %d routes, %d availability records, %d rules\n",
		len(in.Drivers), len(in.Routes), len(in.Availability), len(in.Rules))
	return nil
}
