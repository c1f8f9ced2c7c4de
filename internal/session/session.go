package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"kamatera-manager/internal/config"
	"kamatera-manager/internal/console"
	"kamatera-manager/internal/credentials"
	"kamatera-manager/internal/inventory"
	"kamatera-manager/internal/journal"
	"kamatera-manager/internal/kamatera"
	"kamatera-manager/internal/logger"
	"kamatera-manager/internal/secretbox"
)

// ErrCancelled is returned when the operator declines to go on.
var ErrCancelled = errors.New("operation cancelled")

const maxSelectAttempts = 3

// API is the set of Kamatera calls the commands make.
type API interface {
	inventory.API
	SetPower(ctx context.Context, id string, action kamatera.PowerAction) (any, error)
	SetNetwork(ctx context.Context, id string, network kamatera.Network) error
}

// Session bundles what every command works with: the API client, the
// operator's terminal, the activity journal and the server inventory.
type Session struct {
	Config    *config.Config
	API       API
	Prompt    console.Prompter
	Journal   journal.Storage
	Inventory *inventory.Inventory
	Color     bool
}

// Selection is what the operator asked for on the command line. Empty means
// ask interactively.
type Selection struct {
	IDs []string
	All bool
}

// Open resolves credentials (env, then file, then interactive login) and
// opens the journal.
func Open(cfg *config.Config, p console.Prompter) (*Session, error) {
	box := secretbox.New(cfg.CredentialSecret)
	creds, err := credentials.Resolve(p, cfg.EnvAPIKey, cfg.EnvAPISecret, cfg.CredentialsPath, box)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	store, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	return &Session{
		Config:    cfg,
		API:       kamatera.NewClient(cfg.APIBaseURL, creds.APIKey, creds.APISecret, cfg.HTTPTimeout),
		Prompt:    p,
		Journal:   store,
		Inventory: inventory.New(nil),
		Color:     console.ColorEnabled(),
	}, nil
}

func (s *Session) Close() error {
	if s.Journal == nil {
		return nil
	}
	return s.Journal.Close()
}

func (s *Session) Out() io.Writer { return s.Prompt.Out() }

// Load replaces the inventory with a fresh listing.
func (s *Session) Load(ctx context.Context) error {
	logger.Info("Loading servers...")
	err := s.Inventory.Refresh(ctx, s.API, func(done, total int, srv inventory.Server) {
		logger.Debug("loaded server", "server", srv.ID, "name", srv.Name, "progress", fmt.Sprintf("%d/%d", done, total))
	})
	if err != nil {
		return err
	}
	if s.Inventory.Len() == 0 {
		logger.Info("No servers found")
		return nil
	}
	logger.Info(fmt.Sprintf("Loaded %d servers successfully", s.Inventory.Len()))
	return nil
}

// Render prints the server table.
func (s *Session) Render() {
	s.Inventory.Render(s.Out(), s.Color)
}

// Choose applies sel to the inventory. Without ids or -all the table is shown
// and the operator is asked for row numbers; a blank answer selects nothing.
func (s *Session) Choose(sel Selection) error {
	switch {
	case sel.All:
		s.Inventory.SelectAll()
		return nil
	case len(sel.IDs) > 0:
		return s.Inventory.Select(sel.IDs...)
	}
	if s.Inventory.Len() == 0 {
		return nil
	}

	s.Render()
	for attempt := 1; ; attempt++ {
		input, err := s.Prompt.Ask("Select servers (e.g. 1,3-5 or all)")
		if errors.Is(err, io.EOF) {
			return ErrCancelled
		}
		if err != nil {
			return fmt.Errorf("failed to read selection: %w", err)
		}

		rows, all, err := inventory.ParseSelection(input, s.Inventory.Len())
		if err == nil {
			if all {
				s.Inventory.SelectAll()
				return nil
			}
			if err = s.Inventory.SelectIndexes(rows...); err == nil {
				return nil
			}
		}
		s.Prompt.Warn("Invalid Selection", err.Error())
		if attempt >= maxSelectAttempts {
			return fmt.Errorf("failed to select servers: %w", err)
		}
	}
}

// Wait sleeps for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
