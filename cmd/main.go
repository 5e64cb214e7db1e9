package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"resize4me/internal/events"
	"resize4me/internal/logger"
	"resize4me/internal/models"
	"resize4me/internal/objectstore"
	"resize4me/internal/server"
	"resize4me/internal/service"
	"resize4me/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the service configuration")
	flag.Parse()

	cfg, err := models.LoadConfig(*configPath)
	if err != nil {
		boot := logger.Console("info")
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, os.Stdout)

	rules, err := models.LoadRules(cfg.RulesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load resize rules")
	}

	store, err := objectstore.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init object store")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		ledger   service.Ledger
		variants server.VariantLister
	)
	if cfg.DatabaseURL != "" {
		db, err := storage.NewStorage(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init storage")
		}
		defer db.Close()
		ledger, variants = db, db
	} else {
		log.Warn().Msg("database_url not set, variant ledger disabled")
	}

	proc := service.NewProcessor(rules, store, ledger, service.Options{
		PublicBaseURL:  cfg.PublicBaseURL,
		BatchSizes:     cfg.BatchSizes,
		DefaultFilter:  cfg.DefaultFilter,
		StorageTimeout: cfg.StorageTimeout,
	}, log)

	if err := proc.VerifyBuckets(ctx); err != nil {
		log.Fatal().Err(err).Msg("bucket verification failed")
	}

	var wg sync.WaitGroup

	// Batch mode: bucket notifications published to Kafka
	if cfg.KafkaBroker != "" && cfg.KafkaTopic != "" {
		consumer := events.NewConsumer([]string{cfg.KafkaBroker}, cfg.KafkaTopic, cfg.KafkaGroup, proc, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer consumer.Close()
			consumer.Run(ctx)
		}()
	} else {
		log.Warn().Msg("kafka not configured, batch mode disabled")
	}

	srv := server.NewServer(cfg.ServerAddr, rules.SourceBucket, proc, variants, log)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	wg.Wait()
}
