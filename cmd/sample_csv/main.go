package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"tradlyst/internal/adapters/logger"
	"tradlyst/internal/csvimport"
)

// Writes the sample import file without loading the full configuration,
// so it works on a machine with no database or .env.
func main() {
	out := flag.String("o", filepath.Join("data", csvimport.SampleFileName), "Destination file")
	flag.Parse()

	// 1. Initialize Logger
	appLogger := logger.NewZapLogger(logger.ParseLevel(os.Getenv("LOG_LEVEL")), logger.FormatConsole)
	defer appLogger.Sync()

	// 2. Write Sample
	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Error creating output directory: %v", err)
	}
	if err := csvimport.WriteSampleFile(*out); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": *out})
}
