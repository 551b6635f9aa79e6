package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/cli"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/handler"
	"github.com/plantcare/internal/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "plantcare",
		Short:         "Houseplant care tracker with daily reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newScanCommand(), newDueCommand(), newSeedCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	gin.SetMode(a.cfg.GinMode)

	sched, err := a.startScheduler()
	if err != nil {
		return err
	}

	api := handler.NewAPI(db.DB, a.services, handler.Options{
		Language: a.cfg.Language,
		Location: a.cfg.Location,
		DevTools: a.cfg.DevTools,
		Logger:   a.logger,
		Reminder: func(ctx context.Context) error {
			return sched.Trigger(ctx, dailyReminderJob)
		},
	})

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router.SetupRouter(api, a.cfg.SessionSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", srv.Addr), zap.Bool("dev_tools", a.cfg.DevTools))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = sched.Stop(context.Background())
			return fmt.Errorf("服务器启动失败: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http server shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler shutdown", zap.Error(err))
	}
	a.logger.Info("server stopped")
	return nil
}

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one reminder scan now and print what was dispatched",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.scanOnce(cmd.Context())
			if err != nil {
				return err
			}
			cli.PrintScan(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newDueCommand() *cobra.Command {
	var days int
	var all bool

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List outstanding care events",
		Example: `
plantcare due
plantcare due --days 7
plantcare due --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			horizon := days
			if all {
				horizon = -1
			}
			rows, err := cli.CollectDue(cmd.Context(), a.services.Plants, a.services.Events, a.now(), horizon)
			if err != nil {
				return err
			}
			cli.PrintDue(cmd.OutOrStdout(), rows, a.cfg.Language, a.cfg.Location)
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 3, "show events due within this many days")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every outstanding event")
	return cmd
}

func newSeedCommand() *cobra.Command {
	var owner int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo plant collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			plants, err := cli.Seed(cmd.Context(), a.services.Plants, owner)
			if err != nil {
				return err
			}
			for _, p := range plants {
				if err := a.services.Statuses.Refresh(cmd.Context(), p.ID); err != nil {
					a.logger.Warn("refresh plant status", zap.Uint("plant_id", p.ID), zap.Error(err))
				}
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "created %d plants for owner %d\n", len(plants), owner)
			return nil
		},
	}
	cmd.Flags().Int64Var(&owner, "owner", db.GuestUserID, "user id that owns the demo plants")
	return cmd
}
