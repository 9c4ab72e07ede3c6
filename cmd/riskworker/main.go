package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/riskdesk/fi-risk-engine/internal/adminserver"
	"github.com/riskdesk/fi-risk-engine/internal/config"
	"github.com/riskdesk/fi-risk-engine/internal/curve"
	"github.com/riskdesk/fi-risk-engine/internal/health"
	"github.com/riskdesk/fi-risk-engine/internal/publish"
	"github.com/riskdesk/fi-risk-engine/internal/refdata"
	"github.com/riskdesk/fi-risk-engine/internal/risk"
	"github.com/riskdesk/fi-risk-engine/internal/stream"
	"github.com/riskdesk/fi-risk-engine/pkg/logger"
)

// Exit codes: 0 clean shutdown, 1 initialization failure, 2 fatal
// runtime error.
const (
	exitOK      = 0
	exitInit    = 1
	exitRuntime = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		initLog := logger.New(logger.Config{Level: "info"})
		initLog.Error().Err(err).Msg("Failed to load configuration")
		return exitInit
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: false,
	})
	logger.SetGlobalLogger(log)
	log = log.With().Str("worker_id", cfg.WorkerID).Logger()

	log.Info().
		Str("bus", cfg.BusEndpoint).
		Str("topic", cfg.BusTopic).
		Str("group", cfg.BusGroupID).
		Str("ref_service", cfg.RefServiceURL).
		Msg("Starting risk worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the portfolio before opening any bus or store handle; an
	// empty universe means there is nothing to price.
	loader := refdata.NewLoader(cfg.RefServiceURL, cfg.RefPageSize, log)
	portfolio, err := loader.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load portfolio")
		return exitInit
	}
	if portfolio.Len() == 0 {
		log.Error().Msg("No instruments loaded, exiting")
		return exitInit
	}

	curveBuilder := curve.NewBuilder()
	calculator := risk.NewCalculator(curveBuilder, cfg.BumpSize)

	storeAddr := net.JoinHostPort(cfg.StoreHost, strconv.Itoa(cfg.StorePort))
	publisher := publish.NewPublisher(storeAddr, time.Duration(cfg.StoreTTL)*time.Second, log)
	defer publisher.Close()
	if err := publisher.Ping(ctx); err != nil {
		log.Error().Err(err).Str("store", storeAddr).Msg("Failed to reach the shared store")
		return exitInit
	}

	coordinator := stream.NewCoordinator(
		cfg.BusEndpoint, cfg.BusTopic, cfg.BusGroupID,
		curveBuilder, calculator, publisher, portfolio, log,
	)
	defer coordinator.Close()

	// Background staleness watchdog, every 30 seconds.
	sched := health.NewScheduler(log)
	watchdog := health.NewStalenessWatchdog(curveBuilder, 2*time.Minute, log)
	if err := sched.AddJob("*/30 * * * * *", watchdog); err != nil {
		log.Error().Err(err).Msg("Failed to register staleness watchdog")
		return exitInit
	}
	sched.Start()
	defer sched.Stop()

	// Admin HTTP surface.
	collector := health.NewCollector(curveBuilder, log)
	admin := adminserver.New(cfg.AdminAddr, collector, coordinator, log)
	go func() {
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Admin server failed")
		}
	}()

	runErr := coordinator.Run(ctx)

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Admin server forced to shutdown")
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("Risk worker stopped on fatal error")
		return exitRuntime
	}
	log.Info().Msg("Risk worker stopped")
	return exitOK
}
