package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/roster/api/plans"
	"github.com/kilianp07/roster/app"
	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/infra/logger"
	"github.com/kilianp07/roster/infra/scenario"
)

var serveToken string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveToken, "token", os.Getenv("ROSTER_API_TOKEN"), "bearer token required by the API")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New("server")
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()

	handler := plans.NewHandler(svc, plans.Options{
		Token:        serveToken,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Scenario:     scenario.Options{DefaultDuration: model.HoursToDuration(cfg.Input.DefaultRouteHours)},
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.Schedule.Interval > 0 {
		log.Infof("planning %d days every %s", cfg.Schedule.Days, cfg.Schedule.Interval)
		go svc.RunSchedule(ctx, cfg.Schedule)
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("listening on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
