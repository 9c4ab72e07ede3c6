package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/riskdesk/fi-risk-engine/internal/config"
	"github.com/riskdesk/fi-risk-engine/internal/feed"
	"github.com/riskdesk/fi-risk-engine/pkg/logger"
)

func main() {
	dataFile := flag.String("data", "data/curves.csv", "CSV file of recorded yield-curve snapshots")
	replaySpeed := flag.Float64("speed", 1.0, "replay speed multiplier (1.0 = real time)")
	loopForever := flag.Bool("loop", false, "restart from the beginning when the file ends")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		initLog := logger.New(logger.Config{Level: "info"})
		initLog.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().
		Str("bus", cfg.BusEndpoint).
		Str("topic", cfg.BusTopic).
		Str("data_file", *dataFile).
		Float64("speed", *replaySpeed).
		Bool("loop", *loopForever).
		Msg("Starting market data feed")

	if _, err := os.Stat(*dataFile); err != nil {
		log.Error().Err(err).Str("path", *dataFile).Msg("Data file not found")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producer := feed.NewProducer(cfg.BusEndpoint, cfg.BusTopic, log)
	defer producer.Close()

	replayer := feed.NewReplayer(*dataFile, *replaySpeed, *loopForever, log)

	count := 0
	err = replayer.Run(ctx, func(tick feed.Tick) error {
		if err := producer.Produce(ctx, tick); err != nil {
			return err
		}
		count++
		if count%10 == 0 {
			log.Info().
				Int("published", count).
				Str("curve_type", tick.CurveType).
				Str("curve_date", tick.CurveDate).
				Msg("feed progress")
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Feed stopped on error")
		os.Exit(2)
	}

	log.Info().Int("published", count).Msg("Market data feed stopped")
}
