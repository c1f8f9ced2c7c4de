package power

import (
	"context"
	"fmt"

	"kamatera-manager/internal/inventory"
	"kamatera-manager/internal/journal"
	"kamatera-manager/internal/kamatera"
	"kamatera-manager/internal/session"
)

// sleep can be overridden by tests to skip the refresh delay.
var sleep = session.Wait

// Options for a power batch
type Options struct {
	Action kamatera.PowerAction
	// Yes skips the confirmation prompt.
	Yes bool
}

// Result of one batch. Failed holds the ids whose call was rejected.
type Result struct {
	Action    kamatera.PowerAction
	Total     int
	Succeeded int
	Failed    []string
}

// Apply sends action to every server in order. A failed call is recorded and
// the batch moves on to the next server; only ctx cancellation stops it early.
func Apply(ctx context.Context, api session.API, rec *journal.Recorder, servers []inventory.Server, action kamatera.PowerAction) (Result, error) {
	res := Result{Action: action, Total: len(servers)}
	for _, s := range servers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := api.SetPower(ctx, s.ID, action); err != nil {
			rec.Errorf("%s: %s failed: %v", s.Name, action, err)
			res.Failed = append(res.Failed, s.ID)
			continue
		}
		rec.Infof("%s: %s successful", s.Name, action)
		res.Succeeded++
	}
	return res, nil
}

// Run applies opts.Action to the selected servers after confirmation. When at
// least one call succeeded it waits RefreshDelay, reloads the inventory and
// prints the table.
func Run(ctx context.Context, s *session.Session, opts Options) (Result, error) {
	servers := s.Inventory.Selected()
	if len(servers) == 0 {
		s.Prompt.Warn("No Selection", "Please select at least one server.")
		return Result{}, inventory.ErrNoSelection
	}

	name := opts.Action.DisplayName()
	if !opts.Yes {
		ok, err := s.Prompt.Confirm(fmt.Sprintf("Are you sure you want to %s %d server(s)?", name, len(servers)))
		if err != nil {
			return Result{}, fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			return Result{}, session.ErrCancelled
		}
	}

	rec := journal.NewRecorder(s.Journal, "power")
	rec.Infof("%s initiated for %d servers", name, len(servers))

	res, err := Apply(ctx, s.API, rec, servers, opts.Action)
	if err != nil {
		return res, err
	}
	if res.Succeeded == 0 {
		rec.Errorf("%s failed for all %d servers", name, res.Total)
		return res, fmt.Errorf("%s failed for all %d server(s)", name, res.Total)
	}

	rec.Infof("%s completed: %d/%d servers", name, res.Succeeded, res.Total)
	if err := sleep(ctx, s.Config.RefreshDelay); err != nil {
		return res, err
	}
	if err := s.Load(ctx); err != nil {
		return res, fmt.Errorf("failed to refresh servers: %w", err)
	}
	s.Render()
	return res, nil
}

// Info prints the full record of the one selected server.
func Info(ctx context.Context, s *session.Session) error {
	srv, err := s.Inventory.SelectedOne()
	switch err {
	case inventory.ErrNoSelection:
		s.Prompt.Warn("No Selection", "Please select a server.")
		return err
	case inventory.ErrMultipleSelection:
		s.Prompt.Warn("Multiple Selection", "Please select only one server.")
		return err
	}

	detail, err := s.API.GetServer(ctx, srv.ID)
	if err != nil {
		s.Prompt.Warn("Error", fmt.Sprintf("Failed to get information for server %s", srv.ID))
		return fmt.Errorf("failed to get server %s: %w", srv.ID, err)
	}
	fmt.Fprintf(s.Out(), "Detailed information for server %s\n\n%s", srv.Name, inventory.FormatDetail(srv.ID, detail))
	return nil
}
