// Command memberd runs one cluster member: it listens for client and
// peer connections, owns a slice of the global address space, and
// caches the addresses it borrows from its peers.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"distshm/internal/config"
	"distshm/internal/logging"
	"distshm/internal/member"
	"distshm/internal/metrics"
	"distshm/internal/monitor"
	"distshm/internal/topology"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (overrides LOG_LEVEL)")
	flag.Parse()

	startupLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	maxProcs := runtime.GOMAXPROCS(0)
	startupLogger.Info().Int("gomaxprocs", maxProcs).Msg("automaxprocs applied")

	cfg, err := config.LoadConfig(&startupLogger)
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	cfg.Print()

	topo, err := topology.New(cfg.ServerList(), cfg.MemorySize, cfg.ServerIndex)
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("failed to build cluster topology")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, cfg.ServerIndex, topo.SelfEndpoint())
	cfg.LogConfig(logger)

	m, err := member.New(cfg, topo, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build member")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start member")
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go monitor.Run(ctx, 10*time.Second, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	if err := m.Shutdown(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("error during member shutdown")
	}
}
