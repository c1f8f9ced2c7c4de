package power

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kamatera-manager/internal/config"
	"kamatera-manager/internal/console"
	"kamatera-manager/internal/inventory"
	"kamatera-manager/internal/journal"
	"kamatera-manager/internal/kamatera"
	"kamatera-manager/internal/kamatera/kamateratest"
	"kamatera-manager/internal/session"
)

func setup(t *testing.T, input string) (*session.Session, *kamateratest.Server, *bytes.Buffer) {
	t.Helper()
	srv := kamateratest.New(
		kamateratest.Machine{ID: "a", Name: "web", Status: "running", Power: "on", NetworkName: "wan", IP: "185.0.0.1"},
		kamateratest.Machine{ID: "b", Name: "db", Status: "running", Power: "on", NetworkName: "lan", IP: "10.0.0.2"},
	)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	cfg.EnvAPIKey = kamateratest.APIKey
	cfg.EnvAPISecret = kamateratest.APISecret
	cfg.CredentialsPath = filepath.Join(t.TempDir(), "config.json")
	cfg.RefreshDelay = 3 * time.Second

	var out bytes.Buffer
	s, err := session.Open(cfg, console.New(strings.NewReader(input), &out))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, srv, &out
}

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waited []time.Duration
	old := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waited = append(waited, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = old })
	return &waited
}

func TestRun_NoSelection(t *testing.T) {
	s, srv, out := setup(t, "")
	_, err := Run(context.Background(), s, Options{Action: kamatera.PowerOff})
	if !errors.Is(err, inventory.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if !strings.Contains(out.String(), "WARNING [No Selection]: Please select at least one server.") {
		t.Fatalf("expected warning, got:\n%s", out.String())
	}
	if len(srv.CallsMatching("PUT", "/power")) != 0 {
		t.Fatalf("no power call expected")
	}
}

func TestRun_Declined(t *testing.T) {
	s, srv, out := setup(t, "n\n")
	s.Inventory.SelectAll()
	_, err := Run(context.Background(), s, Options{Action: kamatera.PowerOff})
	if !errors.Is(err, session.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if !strings.Contains(out.String(), "Are you sure you want to Power Off 2 server(s)?") {
		t.Fatalf("expected confirmation question:\n%s", out.String())
	}
	if len(srv.CallsMatching("PUT", "/power")) != 0 {
		t.Fatalf("no power call expected")
	}
}

func TestRun_ContinuesPastFailureAndRefreshes(t *testing.T) {
	waited := noSleep(t)
	s, srv, out := setup(t, "y\n")
	srv.FailPower["a"] = true
	s.Inventory.SelectAll()

	res, err := Run(context.Background(), s, Options{Action: kamatera.PowerOff})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 2 || res.Succeeded != 1 || len(res.Failed) != 1 || res.Failed[0] != "a" {
		t.Fatalf("unexpected result %+v", res)
	}
	if calls := srv.CallsMatching("PUT", "/power"); len(calls) != 2 {
		t.Fatalf("expected both servers attempted, got %d calls", len(calls))
	}
	if len(*waited) != 1 || (*waited)[0] != 3*time.Second {
		t.Fatalf("expected one refresh delay of 3s, got %v", *waited)
	}
	if b, _ := s.Inventory.Lookup("b"); b.Power != "off" {
		t.Fatalf("expected refreshed power state, got %+v", b)
	}
	if !strings.Contains(out.String(), "stopped") {
		t.Fatalf("expected the refreshed table:\n%s", out.String())
	}

	entries, err := s.Journal.List(journal.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var msgs []string
	for _, e := range entries {
		msgs = append(msgs, e.Message)
	}
	joined := strings.Join(msgs, "\n")
	for _, want := range []string{"Power Off initiated for 2 servers", "web: off failed", "db: off successful", "Power Off completed: 1/2 servers"} {
		if !strings.Contains(joined, want) {
			t.Errorf("journal missing %q:\n%s", want, joined)
		}
	}
}

func TestRun_AllFailedSkipsRefresh(t *testing.T) {
	waited := noSleep(t)
	s, srv, _ := setup(t, "")
	srv.FailPower["a"] = true
	srv.FailPower["b"] = true
	s.Inventory.SelectAll()

	res, err := Run(context.Background(), s, Options{Action: kamatera.PowerReboot, Yes: true})
	if err == nil || !strings.Contains(err.Error(), "Reboot failed for all 2 server(s)") {
		t.Fatalf("expected all-failed error, got %v", err)
	}
	if res.Succeeded != 0 || len(*waited) != 0 {
		t.Fatalf("expected no refresh, result %+v waits %v", res, *waited)
	}
	if len(srv.CallsMatching("GET", "/servers")) != 1 {
		t.Fatalf("expected only the initial listing")
	}
}

func TestApply_StopsOnCancel(t *testing.T) {
	s, srv, _ := setup(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := journal.NewRecorder(s.Journal, "power")
	res, err := Apply(ctx, s.API, rec, s.Inventory.Servers(), kamatera.PowerOn)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Succeeded != 0 || len(srv.CallsMatching("PUT", "/power")) != 0 {
		t.Fatalf("expected nothing sent, got %+v", res)
	}
}

func TestInfo(t *testing.T) {
	s, _, out := setup(t, "")

	if err := Info(context.Background(), s); !errors.Is(err, inventory.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	s.Inventory.SelectAll()
	if err := Info(context.Background(), s); !errors.Is(err, inventory.ErrMultipleSelection) {
		t.Fatalf("expected ErrMultipleSelection, got %v", err)
	}
	if !strings.Contains(out.String(), "Please select only one server.") {
		t.Fatalf("expected multiple selection warning:\n%s", out.String())
	}

	s.Inventory.DeselectAll()
	s.Inventory.Select("b")
	out.Reset()
	if err := Info(context.Background(), s); err != nil {
		t.Fatalf("Info: %v", err)
	}
	for _, want := range []string{"Detailed information for server db", "Server b Information:", "ID: b", "DATACENTER: EU"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestInfo_DetailFailure(t *testing.T) {
	s, srv, out := setup(t, "")
	s.Inventory.Select("a")
	srv.FailDetail["a"] = true
	if err := Info(context.Background(), s); err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(out.String(), "Failed to get information for server a") {
		t.Fatalf("expected warning:\n%s", out.String())
	}
}
