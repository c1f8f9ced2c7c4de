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
	"kamatera-manager/internal/netswitch"
	"kamatera-manager/internal/session"
	"kamatera-manager/internal/util"
)

func main() {
	target := flag.String("target", "", "target network: public or private (default: suggested from the selection)")
	auto := flag.Bool("auto", false, "try the API network change before falling back to the console (also NETSWITCH_AUTO)")
	guide := flag.Bool("guide", false, "print the manual and CLI guides for the selection and exit")
	checkCLI := flag.Bool("check-cli", false, "check whether the Kamatera CLI is installed and exit")
	ids := flag.String("servers", "", "comma-separated server ids (default: choose interactively)")
	all := flag.Bool("all", false, "switch every server")
	yes := flag.Bool("yes", false, "do not ask before starting; the console step still asks")
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
	defer stop()

	if *checkCLI {
		fmt.Print(netswitch.DetectCLI(ctx, cfg.CLIName))
		return
	}

	var network kamatera.Network
	if *target != "" {
		if network, err = kamatera.ParseNetwork(*target); err != nil {
			log.Fatalf("invalid -target: %v", err)
		}
	}

	sel := session.Selection{IDs: util.SplitList(*ids), All: *all}
	opts := netswitch.Options{Target: network, Auto: *auto || cfg.AutoNetwork, Yes: *yes}
	err = run(ctx, cfg, sel, opts, *guide)
	stop()
	if err != nil {
		log.Fatalf("network switch failed: %v", err)
	}
}

// run keeps every exit path inside the deferred journal close.
func run(ctx context.Context, cfg *config.Config, sel session.Selection, opts netswitch.Options, guide bool) error {
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

	if guide {
		servers := s.Inventory.Selected()
		network := opts.Target
		if network == "" {
			network = netswitch.SuggestTarget(servers)
		}
		fmt.Println(netswitch.ManualInstructions(servers, network, cfg.ConsoleURL))
		fmt.Print(netswitch.CLICommands(servers, network, cfg.CLIName))
		return nil
	}

	_, err = netswitch.Run(ctx, s, opts)
	return err
}
