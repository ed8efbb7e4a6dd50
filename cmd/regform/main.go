// Command regform serves the live conference registration form.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/regform/pkg/config"
	"github.com/gabrielmiguelok/regform/pkg/logging"
	"github.com/gabrielmiguelok/regform/pkg/registration"
	"github.com/gabrielmiguelok/regform/pkg/shutdown"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "regform",
		Short:         "Live conference registration form",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the registration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serve.Flags().String("addr", "", "listen address, overrides the config")

	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Print the activity catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			c, err := loadCatalog(cfg.CatalogPath)
			if err != nil {
				return err
			}
			for i, a := range c.Activities {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i, a.DisplayText())
			}
			return nil
		},
	}

	root.AddCommand(serve, catalog)
	return root
}

func loadCatalog(path string) (registration.Catalog, error) {
	if path == "" {
		return registration.DefaultCatalog(), nil
	}
	return registration.LoadCatalogFile(path)
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	sd := shutdown.NewHandler(cfg.ShutdownTimeout, logger)
	sd.RegisterFunc("http", shutdown.PriorityHTTP, httpServer.Shutdown)
	// Hijacked WebSocket connections are not tracked by http.Server, so
	// the router closes its sessions separately.
	sd.RegisterFunc("sessions", shutdown.PrioritySessions, srv.router.Shutdown)
	if z, ok := logger.(*logging.ZapLogger); ok {
		sd.RegisterFunc("logger", shutdown.PriorityLast, func(context.Context) error {
			z.Sync()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			logging.String("addr", cfg.Addr),
			logging.String("env", cfg.Env),
			logging.Int("activities", srv.catalog.Len()),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
			stop()
			return
		}
		errCh <- nil
	}()

	if err := sd.Wait(ctx); err != nil {
		return err
	}
	return <-errCh
}
