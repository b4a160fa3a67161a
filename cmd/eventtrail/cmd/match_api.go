package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/solatis/eventtrail/internal/core/api"
	"github.com/solatis/eventtrail/internal/core/auth"
	"github.com/solatis/eventtrail/internal/core/config"
	"github.com/solatis/eventtrail/internal/core/db"
	"github.com/solatis/eventtrail/internal/core/metrics"
	"github.com/solatis/eventtrail/internal/core/server"
	"github.com/solatis/eventtrail/internal/patterns"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const Version = "0.1.0"

var matchAPICmd = &cobra.Command{
	Use:   "match-api",
	Short: "Start gRPC match API service",
	RunE:  runMatchAPI,
}

func init() {
	rootCmd.AddCommand(matchAPICmd)
	matchAPICmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	matchAPICmd.Flags().Int("port", 50061, "gRPC server port")
}

func runMatchAPI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	}

	database, queries, err := openQueries(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	authenticator := auth.NewAuthenticator(secrets, queries, logger)

	service, err := api.NewMatchAPIService(db.NewPatternStore(queries), patterns.NewEngine(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var metricsServer *metrics.Server
	if cfg.MetricsPort > 0 {
		metricsServer = metrics.NewServer(fmt.Sprintf("%s:%d", cfg.Host, cfg.MetricsPort))
	}

	logger.Info("starting EventTrail match API", "version", Version, "addr", cfg.Address(), "metrics_port", cfg.MetricsPort)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(grpcServer.Start)
	if metricsServer != nil {
		g.Go(metricsServer.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var errs []error
		if metricsServer != nil {
			errs = append(errs, metricsServer.Shutdown(shutdownCtx))
		}
		errs = append(errs, grpcServer.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}
