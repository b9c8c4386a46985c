package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnuowned/intersight-exporter/internal/config"
	"github.com/gnuowned/intersight-exporter/internal/health"
	"github.com/gnuowned/intersight-exporter/internal/intersight"
	"github.com/gnuowned/intersight-exporter/internal/metrics"
	"github.com/gnuowned/intersight-exporter/internal/poller"
	"github.com/gnuowned/intersight-exporter/internal/server"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "intersight-exporter",
		Short: "Export Cisco Intersight inventory and HyperFlex health as Prometheus metrics",
		Long: `intersight-exporter polls the Cisco Intersight REST API on a fixed interval and
publishes server counts, HyperFlex cluster counts, cluster health and node
counts as Prometheus gauges.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath, cmd.Flags())
		},
	}

	flags := cmd.Flags()
	flags.IntP("pooltime", "t", 5, "seconds between poll cycles")
	flags.IntP("port", "p", 8000, "port to expose metrics on")
	flags.StringP("api_params", "a", config.DefaultAPIParamsPath, "path to the Intersight API params JSON file")
	flags.StringVarP(&configPath, "config", "c", "", "path to an exporter config file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")

	return cmd
}

// run wires the exporter together and blocks until ctx is cancelled or the
// HTTP server fails. Configuration problems are returned before anything is served.
func run(ctx context.Context, configPath string, flags *pflag.FlagSet) error {
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, err := config.LoadAPIParams(cfg.Intersight.APIParams)
	if err != nil {
		return err
	}

	logger.Info("configuration loaded",
		zap.String("api_base_uri", params.BaseURI),
		zap.Duration("poll_interval", cfg.Poll.Interval),
		zap.Int("server_port", cfg.Server.Port),
	)

	reg := metrics.NewRegistry()

	client, err := intersight.NewDefaultClient(intersight.ClientConfig{
		BaseURI:            params.BaseURI,
		KeyID:              params.KeyID,
		PrivateKeyPath:     params.PrivateKeyPath,
		RequestTimeout:     cfg.Intersight.RequestTimeout,
		InsecureSkipVerify: cfg.Intersight.InsecureSkipVerify,
	}, intersight.WithObserver(reg))
	if err != nil {
		return err
	}

	healthCheck := health.NewHealthCheck(logger)
	srv := server.NewServer(cfg.Server, reg.Handler(), healthCheck, logger)
	p := poller.NewPoller(client, reg, cfg.Poll.Interval, logger, poller.WithReporter(healthCheck))

	// Bind before the first cycle so the listener is up while polling starts.
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr(), err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ln)
	})
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("exporter stopped with error", zap.Error(err))
		return err
	}

	logger.Info("exporter shutdown complete")
	return nil
}
