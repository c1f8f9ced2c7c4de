package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"kamatera-manager/internal/config"
	"kamatera-manager/internal/journal"
	"kamatera-manager/internal/logger"
)

func main() {
	runID := flag.String("run", "", "show the entries of one run")
	since := flag.Duration("since", 0, "only entries newer than this, e.g. 24h")
	limit := flag.Int("limit", 20, "maximum number of runs or entries (0 = no limit)")
	entries := flag.Bool("entries", false, "list entries instead of runs")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: failed to load .env: %v", err)
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if err := logger.Setup(cfg.LogFormat, cfg.LogLevel); err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if cfg.JournalPath == "" {
		log.Fatalf("no journal configured; set KAMATERA_JOURNAL to keep activity history")
	}

	if err := run(cfg.JournalPath, *runID, *entries, *since, *limit); err != nil {
		log.Fatalf("history failed: %v", err)
	}
}

// run keeps every exit path inside the deferred journal close.
func run(path, runID string, entries bool, since time.Duration, limit int) error {
	store, err := journal.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer store.Close()

	if runID == "" && !entries {
		runs, err := store.Runs(limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		journal.RenderRuns(os.Stdout, runs)
		return nil
	}

	f := journal.Filter{RunID: runID, Limit: limit}
	if since > 0 {
		f.Since = time.Now().Add(-since)
	}
	list, err := store.List(f)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	journal.WriteEntries(os.Stdout, list)
	return nil
}
