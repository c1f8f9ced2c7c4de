package netswitch

import (
	"context"
	"fmt"

	"kamatera-manager/internal/console"
	"kamatera-manager/internal/inventory"
	"kamatera-manager/internal/journal"
	"kamatera-manager/internal/kamatera"
	"kamatera-manager/internal/power"
	"kamatera-manager/internal/session"
)

// overridden in tests
var (
	sleep       = session.Wait
	openBrowser = console.OpenBrowser
)

// Options for one workflow run
type Options struct {
	// Target network; empty picks SuggestTarget.
	Target kamatera.Network
	// Auto tries the API network change first and falls back to the console
	// step when any server rejects it.
	Auto bool
	// Yes skips the start confirmation. The console step always asks.
	Yes bool
}

// Report describes a finished (or cancelled) run.
type Report struct {
	RunID      string
	Target     kamatera.Network
	PoweredOff power.Result
	PoweredOn  power.Result
	// Automatic is true when every network change went through the API.
	Automatic bool
}

// Run executes the network switching workflow on the selected servers:
//
//  1. power off every server
//  2. change the networks, through the API in auto mode or by hand in the console
//  3. power every server back on
//  4. reload the inventory and print the result
//
// Declining the console step ends the run with session.ErrCancelled and the
// servers left powered off.
func Run(ctx context.Context, s *session.Session, opts Options) (Report, error) {
	servers := s.Inventory.Selected()
	if len(servers) == 0 {
		s.Prompt.Warn("No Selection", "Please select at least one server for network switching.")
		return Report{}, inventory.ErrNoSelection
	}

	target := opts.Target
	if target == "" {
		target = SuggestTarget(servers)
	}

	rec := journal.NewRecorder(s.Journal, "netswitch")
	rep := Report{RunID: rec.RunID(), Target: target}
	rec.Infof("Starting smart network switch for %d servers", len(servers))

	fmt.Fprintln(s.Out(), Plan(servers, target, opts.Auto))
	if !opts.Yes {
		ok, err := s.Prompt.Confirm(fmt.Sprintf(
			"This will power OFF all %d selected servers, wait for the network change and power them back ON. Continue?",
			len(servers)))
		if err != nil {
			return rep, fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			rec.Warnf("Workflow cancelled by user")
			return rep, session.ErrCancelled
		}
	}

	rec.Infof("Starting automated workflow: %d servers -> %s", len(servers), target)

	rec.Infof("Step 1: Powering off servers...")
	off, err := power.Apply(ctx, s.API, rec, servers, kamatera.PowerOff)
	rep.PoweredOff = off
	if err != nil {
		return rep, err
	}
	rec.Infof("Power off completed: %d/%d servers", off.Succeeded, off.Total)
	if err := sleep(ctx, s.Config.PowerOffWait); err != nil {
		return rep, err
	}

	rec.Infof("Step 2: Network configuration")
	if opts.Auto {
		rep.Automatic = changeNetworks(ctx, s, rec, servers, target)
		if err := ctx.Err(); err != nil {
			return rep, err
		}
	}
	if !rep.Automatic {
		if err := manualStep(s, rec, servers, target); err != nil {
			return rep, err
		}
	}

	rec.Infof("Step 3: Powering on servers...")
	on, err := power.Apply(ctx, s.API, rec, servers, kamatera.PowerOn)
	rep.PoweredOn = on
	if err != nil {
		return rep, err
	}
	rec.Infof("Power on completed: %d/%d servers", on.Succeeded, on.Total)
	if err := sleep(ctx, s.Config.PowerOnWait); err != nil {
		return rep, err
	}

	rec.Infof("Step 4: Verifying network changes...")
	if err := s.Load(ctx); err != nil {
		return rep, fmt.Errorf("failed to refresh servers: %w", err)
	}
	s.Render()
	fmt.Fprintln(s.Out(), Summary(rep))
	rec.Infof("Smart network switching workflow completed successfully!")
	return rep, nil
}

// changeNetworks asks the API to switch every server and reports whether all
// of them succeeded.
func changeNetworks(ctx context.Context, s *session.Session, rec *journal.Recorder, servers []inventory.Server, target kamatera.Network) bool {
	rec.Infof("Attempting automatic network change via API...")
	ok := 0
	for _, srv := range servers {
		if ctx.Err() != nil {
			return false
		}
		rec.Infof("Changing network for: %s", srv.Name)
		if _, err := s.API.GetServer(ctx, srv.ID); err != nil {
			rec.Errorf("Failed to get server info for %s: %v", srv.ID, err)
			continue
		}
		if err := s.API.SetNetwork(ctx, srv.ID, target); err != nil {
			rec.Errorf("Automatic network change failed for %s: %v", srv.Name, err)
			continue
		}
		rec.Infof("Successfully changed network for server %s", srv.ID)
		ok++
	}
	if ok == len(servers) {
		rec.Infof("All network changes completed successfully!")
		return true
	}
	rec.Warnf("Automatic network change partially failed, switching to manual method")
	return false
}

func manualStep(s *session.Session, rec *journal.Recorder, servers []inventory.Server, target kamatera.Network) error {
	rec.Infof("Step 2: Manual network switching required")
	if err := openBrowser(s.Config.ConsoleURL); err != nil {
		rec.Warnf("Could not open the console (%v); open %s manually", err, s.Config.ConsoleURL)
	} else {
		rec.Infof("Opened Kamatera console in browser")
	}

	fmt.Fprintln(s.Out(), ConsoleSteps(servers, target))
	ok, err := s.Prompt.Confirm("All networks configured - power on servers?")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		rec.Warnf("Workflow cancelled by user; %d servers remain powered off", len(servers))
		return session.ErrCancelled
	}
	rec.Infof("User confirmed network configuration complete")
	return nil
}

// Summary is the completion notice printed after the final refresh.
func Summary(r Report) string {
	step2 := "Guided manual network configuration"
	if r.Automatic {
		step2 = fmt.Sprintf("Switched networks to %s through the API", r.Target.Title())
	}
	return fmt.Sprintf(`Smart network switching workflow completed!

  Powered off %d/%d servers
  %s
  Powered on %d/%d servers
  Refreshed server data

Please verify the network changes in the server table.
IP addresses may have changed - update DNS/firewall rules as needed.
`, r.PoweredOff.Succeeded, r.PoweredOff.Total, step2, r.PoweredOn.Succeeded, r.PoweredOn.Total)
}
