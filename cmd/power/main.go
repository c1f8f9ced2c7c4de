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
	"kamatera-manager/internal/kamatera"
	"kamatera-manager/internal/logger"
	"kamatera-manager/internal/power"
	"kamatera-manager/internal/session"
	"kamatera-manager/internal/util"
)

func main() {
	action := flag.String("action", "", "power action: on, off or reboot")
	ids := flag.String("servers", "", "comma-separated server ids (default: choose interactively)")
	all := flag.Bool("all", false, "apply to every server")
	yes := flag.Bool("yes", false, "do not ask for confirmation")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: failed to load .env: %v", err)
		}
	}

	act, err := kamatera.ParsePowerAction(*action)
	if err != nil {
		log.Fatalf("invalid -action: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if err := logger.Setup(cfg.LogFormat, cfg.LogLevel); err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, session.Selection{IDs: util.SplitList(*ids), All: *all}, power.Options{Action: act, Yes: *yes})
	stop()
	if err != nil {
		log.Fatalf("%s failed: %v", act.DisplayName(), err)
	}
}

// run keeps every exit path inside the deferred journal close.
func run(ctx context.Context, cfg *config.Config, sel session.Selection, opts power.Options) error {
	s, err := session.Open(cfg, console.NewTerminal())
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer s.Close()

	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}
	if err := s.Choose(sel); err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}

	_, err = power.Run(ctx, s, opts)
	return err
}
