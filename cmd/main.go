package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jomei/notionapi"
	"github.com/ozmile/notion-daily-journal-copier/internal/journal"
	"github.com/ozmile/notion-daily-journal-copier/internal/logger"
	"github.com/ozmile/notion-daily-journal-copier/internal/notion"
)

func main() {
	// Parse command line flags
	sourceDate := flag.String("date", "", "Source journal date as YYYY-MM-DD (defaults to yesterday)")
	batchSize := flag.Int("batch-size", 0, "Blocks per read/write round-trip (defaults to 100)")
	flag.Parse()

	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	// Initialize logger
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	if err := logger.Init(logLevel); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	// Initialize Notion client
	client, err := notion.New()
	if err != nil {
		logger.Error("Failed to initialize Notion client", err, nil)
		os.Exit(1)
	}

	config := journal.ConfigFromEnv()
	if *batchSize > 0 {
		config.BatchSize = *batchSize
	}
	manager := journal.New(client, config)

	ctx := context.Background()

	var page *notionapi.Page
	if *sourceDate != "" {
		day, err := time.ParseInLocation("2006-01-02", *sourceDate, time.Local)
		if err != nil {
			logger.Error("Invalid -date value", err, map[string]interface{}{
				"date": *sourceDate,
			})
			os.Exit(1)
		}
		page, err = manager.DuplicateFrom(ctx, day)
		if err != nil {
			logger.Error("Failed to duplicate journal page", err, map[string]interface{}{
				"source_date": *sourceDate,
			})
			os.Exit(1)
		}
	} else {
		page, err = manager.DuplicateYesterday(ctx)
		if err != nil {
			logger.Error("Failed to duplicate journal page", err, nil)
			os.Exit(1)
		}
	}

	logger.Info("Journal page duplicated", map[string]interface{}{
		"page_id": page.ID,
	})
}
