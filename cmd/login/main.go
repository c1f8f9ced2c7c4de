package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"kamatera-manager/internal/config"
	"kamatera-manager/internal/console"
	"kamatera-manager/internal/credentials"
	"kamatera-manager/internal/kamatera"
	"kamatera-manager/internal/logger"
	"kamatera-manager/internal/secretbox"
)

// login always prompts, replacing whatever is stored, then checks the new
// key pair by listing servers.
func main() {
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

	creds, err := credentials.Login(console.NewTerminal(), cfg.CredentialsPath, secretbox.New(cfg.CredentialSecret))
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	client := kamatera.NewClient(cfg.APIBaseURL, creds.APIKey, creds.APISecret, cfg.HTTPTimeout)
	servers, err := client.ListServers(ctx)
	if err != nil {
		log.Fatalf("credentials saved but the API rejected them: %v", err)
	}
	log.Printf("Logged in; %d servers visible", len(servers))
}
