package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradewatch/config"
	"tradewatch/internal/dashboard"
	"tradewatch/logger"
	"tradewatch/reader/marketwatch"
	"tradewatch/scraper"
	"tradewatch/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Tradewatch.Name,
		"version":     cfg.Tradewatch.Version,
		"competition": cfg.Competition.GameURI,
	}).Info("starting tradewatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Storage.S3.Enabled || os.Getenv("AWS_REGION") != "" {
		logger.InitCloudWatch(cfg.Storage.S3.Region, cfg.Tradewatch.Name, cfg.Logging.DashboardName)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	client := marketwatch.NewClient(cfg)
	s := scraper.NewScraper(cfg, client)
	snapshotWriter := writer.NewSnapshotWriter(cfg)

	var kafkaPublisher *writer.KafkaPublisher
	if cfg.Storage.Kafka.Enabled {
		kafkaPublisher, err = writer.NewKafkaPublisher(cfg)
		if err != nil {
			log.WithError(err).Error("failed to create kafka publisher")
			os.Exit(1)
		}
	}

	var feedArchiver *writer.FeedArchiver
	if cfg.Storage.S3.Enabled {
		feedArchiver, err = writer.NewFeedArchiver(cfg)
		if err != nil {
			log.WithError(err).Error("failed to create feed archiver")
			os.Exit(1)
		}
	} else {
		log.WithComponent("main").Info("S3 storage disabled; skipping feed archiver")
	}

	dash, err := dashboard.NewServer(cfg.Dashboard, log)
	if err != nil {
		log.WithError(err).Error("failed to create dashboard server")
		os.Exit(1)
	}

	var wg sync.WaitGroup

	if dash != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dash.Run(ctx, cfg.Tradewatch.Name); err != nil {
				log.WithError(err).Warn("dashboard exited with error")
			}
		}()
	}

	runPass := func() {
		snapshot, err := s.Run(ctx)
		if err != nil {
			log.WithComponent("main").WithError(err).Error("scrape pass failed")
			return
		}
		if err := snapshotWriter.Write(snapshot); err != nil {
			log.WithComponent("main").WithError(err).Error("snapshot write failed")
		}
		dash.SetSnapshot(snapshot)
		if kafkaPublisher != nil {
			if err := kafkaPublisher.Publish(ctx, snapshot); err != nil {
				log.WithComponent("main").WithError(err).Error("kafka publish failed")
			}
		}
		if feedArchiver != nil {
			if err := feedArchiver.Archive(ctx, snapshot); err != nil {
				log.WithComponent("main").WithError(err).Error("feed archive failed")
			}
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		if cfg.Scraper.RunOnStart {
			runPass()
		}

		ticker := time.NewTicker(cfg.Scraper.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runPass()
			}
		}
	}()

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	if kafkaPublisher != nil {
		log.Info("closing kafka publisher")
		kafkaPublisher.Close()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("tradewatch stopped")
}
