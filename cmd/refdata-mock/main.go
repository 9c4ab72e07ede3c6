package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskdesk/fi-risk-engine/internal/catalog"
	"github.com/riskdesk/fi-risk-engine/pkg/embedded"
	"github.com/riskdesk/fi-risk-engine/pkg/logger"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	dbPath := flag.String("db", ":memory:", "SQLite catalogue path (:memory: for ephemeral)")
	seedPath := flag.String("seed", "", "JSON instrument list to seed the catalogue with (default: embedded sample)")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error")
	flag.Parse()

	log := logger.New(logger.Config{
		Level:  *logLevel,
		Pretty: true,
	})

	store, err := catalog.New(*dbPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open catalogue")
		os.Exit(1)
	}
	defer store.Close()

	var seed io.ReadCloser
	if *seedPath != "" {
		seed, err = os.Open(*seedPath)
	} else {
		seed, err = embedded.Files.Open(embedded.SeedPath)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to open seed data")
		os.Exit(1)
	}
	n, err := store.Seed(seed)
	seed.Close()
	if err != nil {
		log.Error().Err(err).Msg("Failed to seed catalogue")
		os.Exit(1)
	}
	log.Info().Int("instruments", n).Str("db", *dbPath).Msg("Catalogue seeded")

	srv := &http.Server{
		Addr:         *addr,
		Handler:      catalog.Handler(store, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *addr).Msg("Reference-data mock listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Reference-data mock stopped")
}
