package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kkfinancial/loan-consult/internal/leads"
	"github.com/kkfinancial/loan-consult/internal/notify"
	"github.com/kkfinancial/loan-consult/internal/server"
	"github.com/kkfinancial/loan-consult/internal/site"
	"github.com/kkfinancial/loan-consult/internal/store"
	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the website, the JSON API and the live calculator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, v)
		},
	}

	flags := cmd.Flags()
	flags.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flags.String("address", "", "listen address override, e.g. :8080")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, v *viper.Viper) error {
	conf, err := root.loadConfiguration()
	if err != nil {
		return err
	}

	serverConfigPath := v.GetString("server-config")
	serverConfig, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		return err
	}
	if addr := v.GetString("address"); addr != "" {
		serverConfig.Address = addr
	}

	logger, err := initializeLogger(mergeLogging(conf.Logging, serverConfig.Logging), root.logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	leadStore, err := store.Open(ctx, conf.Store, store.WithLogger(logger))
	if err != nil {
		logger.Error("failed to open lead store",
			zap.String("op", "main.serve"),
			zap.String("driver", conf.Store.Driver),
			zap.Error(err),
		)
		return err
	}
	defer func() {
		if err := leadStore.Close(); err != nil {
			logger.Warn("failed to close lead store",
				zap.String("op", "main.serve"),
				zap.Error(err),
			)
		}
	}()

	notifier, err := notify.New(conf.Notify, logger)
	if err != nil {
		logger.Error("failed to configure notifications",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
		return err
	}

	grouping := conf.Grouping()
	service := leads.NewService(logger, leadStore, notifier, conf.Notify.Recipients, leads.WithGrouping(grouping))

	var limiter *server.RateLimiter
	if serverConfig.RateLimit.Requests > 0 {
		limiter = server.NewRateLimiter(serverConfig.RateLimit.Requests, serverConfig.RateLimitWindow())
		defer limiter.Stop()
	}

	handler := server.NewHandler(logger, serverConfig, server.Dependencies{
		Leads:    service,
		Content:  site.New(*conf),
		Grouping: grouping,
		Version:  version,
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              serverConfig.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main.serve"),
			zap.String("address", serverConfig.Address),
			zap.String("store", conf.Store.Driver),
			zap.Bool("smtp", conf.Notify.SMTP.Enabled()),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server stopped unexpectedly",
				zap.String("op", "main.serve"),
				zap.Error(err),
			)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server",
		zap.String("op", "main.serve"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
		return err
	}
	return nil
}
