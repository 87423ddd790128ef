package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/XIIITrading/Meridian-sub001/database"
	"github.com/XIIITrading/Meridian-sub001/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producers, err := service.LoadItemSources(cfg.ItemsFilePath)
	if err != nil {
		log.Printf("loading confluence item sources: %v", err)
		return
	}

	var storage database.RunStorer
	if cfg.DBEndpoint != "" {
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
		})
		if err != nil {
			log.Printf("creating database: %v", err)
			return
		}
		storage = db
	}

	scannerCfg := service.ScannerConfig{
		Markets:          cfg.Markets,
		FMPAPIKey:        cfg.FMPAPIKey,
		DataFilePath:     cfg.DataFilePath,
		ScanInterval:     time.Duration(cfg.ScanIntervalMinutes) * time.Minute,
		WeightsPath:      cfg.WeightsPath,
		MergeOverlapping: cfg.MergeOverlapping,
		MergeIdentical:   cfg.MergeIdentical,
		Producers:        producers,
		Storage:          storage,
		Cancel:           cancel,
	}
	scanner, err := service.NewScanner(&scannerCfg)
	if err != nil {
		log.Printf("creating scanner service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	scanner.Run(ctx)
}
