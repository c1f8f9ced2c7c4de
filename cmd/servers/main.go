package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"kamatera-manager/internal/config"
	"kamatera-manager/internal/console"
	"kamatera-manager/internal/logger"
	"kamatera-manager/internal/power"
	"kamatera-manager/internal/session"
	"kamatera-manager/internal/util"
)

func main() {
	info := flag.Bool("info", false, "show the full record of one server instead of the table")
	ids := flag.String("servers", "", "comma-separated server ids for -info")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, *info, util.SplitList(*ids))
	stop()
	if err != nil {
		log.Fatalf("servers failed: %v", err)
	}
}

// run keeps every exit path inside the deferred journal close.
func run(ctx context.Context, cfg *config.Config, info bool, ids []string) error {
	s, err := session.Open(cfg, console.NewTerminal())
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer s.Close()

	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}

	if !info {
		s.Render()
		return nil
	}
	if err := s.Choose(session.Selection{IDs: ids}); err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}
	return power.Info(ctx, s)
}
