package inventory

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"kamatera-manager/internal/kamatera"
)

type fakeAPI struct {
	list    []kamatera.ServerSummary
	listErr error
	details map[string]map[string]any
}

func (f *fakeAPI) ListServers(ctx context.Context) ([]kamatera.ServerSummary, error) {
	return f.list, f.listErr
}

func (f *fakeAPI) GetServer(ctx context.Context, id string) (map[string]any, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, errors.New("boom")
	}
	return d, nil
}

func TestExtractIPAndNetwork(t *testing.T) {
	tests := []struct {
		name        string
		detail      map[string]any
		wantIP      string
		wantNetwork string
	}{
		{
			name:        "named wan network",
			detail:      map[string]any{"networks": []any{map[string]any{"name": "wan-internet", "ips": []any{"185.1.2.3"}}}},
			wantIP:      "185.1.2.3",
			wantNetwork: NetworkPublic,
		},
		{
			name:        "named lan network",
			detail:      map[string]any{"networks": []any{map[string]any{"name": "lan-local-1", "ips": []any{"185.1.2.3"}}}},
			wantIP:      "185.1.2.3",
			wantNetwork: NetworkPrivate,
		},
		{
			name:        "unnamed private range",
			detail:      map[string]any{"networks": []any{map[string]any{"ips": []any{"192.168.0.4"}}}},
			wantIP:      "192.168.0.4",
			wantNetwork: NetworkPrivate,
		},
		{
			name:        "neutral name public range",
			detail:      map[string]any{"networks": []any{map[string]any{"name": "eth0", "ips": []any{"8.8.4.4"}}}},
			wantIP:      "8.8.4.4",
			wantNetwork: NetworkPublic,
		},
		{
			name: "first network without ips is skipped",
			detail: map[string]any{"networks": []any{
				map[string]any{"name": "wan", "ips": []any{}},
				"garbage",
				map[string]any{"ips": []any{"172.20.0.9"}},
			}},
			wantIP:      "172.20.0.9",
			wantNetwork: NetworkPrivate,
		},
		{
			name:        "flat private field",
			detail:      map[string]any{"privateIP": "10.0.0.5"},
			wantIP:      "10.0.0.5",
			wantNetwork: NetworkPrivate,
		},
		{
			name:        "flat generic field keeps unknown",
			detail:      map[string]any{"ip": "1.1.1.1", "publicIP": "2.2.2.2"},
			wantIP:      "1.1.1.1",
			wantNetwork: NetworkUnknown,
		},
		{
			name:        "nothing usable",
			detail:      map[string]any{"networks": "nope"},
			wantIP:      NotAvailable,
			wantNetwork: NetworkUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, network := ExtractIPAndNetwork(tt.detail)
			if ip != tt.wantIP || network != tt.wantNetwork {
				t.Fatalf("got (%s, %s), want (%s, %s)", ip, network, tt.wantIP, tt.wantNetwork)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	api := &fakeAPI{
		list: []kamatera.ServerSummary{
			{ID: "a", Name: "web", Status: "running", Power: "on"},
			{ID: "b"},
			{Name: "ghost"},
		},
		details: map[string]map[string]any{
			"a": {"networks": []any{map[string]any{"name": "wan", "ips": []any{"185.0.0.1"}}}},
		},
	}

	var calls int
	servers, err := Fetch(context.Background(), api, func(done, total int, s Server) {
		calls++
		if total != 3 || done != calls {
			t.Errorf("unexpected progress %d/%d", done, total)
		}
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 3 || len(servers) != 3 {
		t.Fatalf("expected 3 rows, got %d (progress %d)", len(servers), calls)
	}

	if s := servers[0]; s.IP != "185.0.0.1" || s.Network != NetworkPublic {
		t.Errorf("unexpected first row %+v", s)
	}
	if s := servers[1]; s.Name != "Unnamed" || s.Status != "unknown" || s.Power != "unknown" || s.Network != NetworkError || s.IP != NetworkError {
		t.Errorf("expected defaults and Error for failed detail, got %+v", s)
	}
	if s := servers[2]; s.ID != "" || s.Network != NotAvailable {
		t.Errorf("expected N/A row for missing id, got %+v", s)
	}
}

func TestFetch_ListError(t *testing.T) {
	_, err := Fetch(context.Background(), &fakeAPI{listErr: errors.New("down")}, nil)
	if err == nil || !strings.Contains(err.Error(), "failed to load servers") {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}

func TestRefresh_ReplacesStateAndSelection(t *testing.T) {
	inv := New([]Server{{ID: "old"}, {ID: "a"}})
	inv.SelectAll()

	api := &fakeAPI{
		list:    []kamatera.ServerSummary{{ID: "a"}, {ID: "c"}},
		details: map[string]map[string]any{"a": {}, "c": {}},
	}
	if err := inv.Refresh(context.Background(), api, nil); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, ok := inv.Lookup("old"); ok {
		t.Fatalf("stale row survived refresh")
	}
	if inv.Len() != 2 || len(inv.Selected()) != 0 {
		t.Fatalf("expected 2 rows and cleared selection, got %d rows, %d selected", inv.Len(), len(inv.Selected()))
	}
}

func TestSelection(t *testing.T) {
	inv := New([]Server{{ID: "a", Name: "web"}, {ID: "b", Name: "db"}, {ID: "c", Name: "cache"}})

	if _, err := inv.SelectedOne(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}

	if err := inv.Select("c", "zzz"); err == nil || !strings.Contains(err.Error(), "zzz") {
		t.Fatalf("expected unknown id error, got %v", err)
	}
	if s, err := inv.SelectedOne(); err != nil || s.ID != "c" {
		t.Fatalf("expected c selected, got %+v (%v)", s, err)
	}

	if err := inv.SelectIndexes(1); err != nil {
		t.Fatalf("SelectIndexes: %v", err)
	}
	if _, err := inv.SelectedOne(); !errors.Is(err, ErrMultipleSelection) {
		t.Fatalf("expected ErrMultipleSelection, got %v", err)
	}
	sel := inv.Selected()
	if len(sel) != 2 || sel[0].ID != "a" || sel[1].ID != "c" {
		t.Fatalf("expected table order a,c got %+v", sel)
	}

	if err := inv.SelectIndexes(4); err == nil {
		t.Fatalf("expected out of range error")
	}

	inv.DeselectAll()
	if len(inv.Selected()) != 0 {
		t.Fatalf("expected nothing selected")
	}
	inv.SelectAll()
	if len(inv.Selected()) != 3 || !inv.IsSelected("b") {
		t.Fatalf("expected everything selected")
	}
}

func TestParseSelection(t *testing.T) {
	rows, all, err := ParseSelection("3, 1-2,2", 3)
	if err != nil || all {
		t.Fatalf("unexpected result %v %v", all, err)
	}
	if len(rows) != 3 || rows[0] != 1 || rows[2] != 3 {
		t.Fatalf("unexpected rows %v", rows)
	}

	if _, all, _ := ParseSelection(" ALL ", 3); !all {
		t.Fatalf("expected all")
	}
	for _, bad := range []string{"x", "3-1", "1-b", "0", "4", "2-4"} {
		if _, _, err := ParseSelection(bad, 3); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
	if rows, _, err := ParseSelection("", 3); err != nil || len(rows) != 0 {
		t.Fatalf("expected empty selection, got %v (%v)", rows, err)
	}
}

func TestParseSelection_OversizedRangeRejectedBeforeExpanding(t *testing.T) {
	rows, _, err := ParseSelection("1-2000000000", 2)
	if err == nil || !strings.Contains(err.Error(), "out of range 1-2") {
		t.Fatalf("expected out of range error, got %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestSelection_RowsWithoutID(t *testing.T) {
	api := &fakeAPI{
		list:    []kamatera.ServerSummary{{Name: "ghost-1"}, {Name: "ghost-2"}, {ID: "a", Name: "web"}},
		details: map[string]map[string]any{"a": {}},
	}
	servers, err := Fetch(context.Background(), api, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	inv := New(servers)

	if err := inv.SelectIndexes(1); err == nil || !strings.Contains(err.Error(), "no server id") {
		t.Fatalf("expected row without id rejected, got %v", err)
	}
	if err := inv.Select(""); err != nil {
		t.Fatalf("blank id should be skipped, got %v", err)
	}
	if len(inv.Selected()) != 0 {
		t.Fatalf("expected nothing selected, got %+v", inv.Selected())
	}

	inv.SelectAll()
	if sel := inv.Selected(); len(sel) != 1 || sel[0].ID != "a" {
		t.Fatalf("SelectAll must skip rows without id, got %+v", sel)
	}

	var buf bytes.Buffer
	inv.Render(&buf, false)
	if strings.Count(buf.String(), NotAvailable) < 7 {
		t.Fatalf("expected N/A shown for missing ids:\n%s", buf.String())
	}
}

func TestRender(t *testing.T) {
	inv := New([]Server{
		{ID: "srv-1", Name: "web", Status: "running", Power: "on", IP: "185.0.0.1", Network: NetworkPublic},
		{ID: "srv-2", Name: "db", Status: "stopped", Power: "off", IP: "10.0.0.2", Network: NetworkPrivate},
	})
	inv.Select("srv-2")

	var buf bytes.Buffer
	inv.Render(&buf, false)
	out := buf.String()
	for _, want := range []string{"NETWORK", "srv-1", "185.0.0.1", "Private", "[x]", "[ ]", "2 server(s)", "1 selected"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no ANSI codes with colour disabled")
	}
}

func TestFormatDetail(t *testing.T) {
	detail := map[string]any{
		"zone":     "eu",
		"name":     "web",
		"id":       "srv-1",
		"networks": []any{map[string]any{"name": "wan"}},
		"cpu":      float64(2),
		"backup":   false,
	}
	out := FormatDetail("srv-1", detail)

	order := []string{"ID: srv-1", "NAME: web", "CPU: 2", "NETWORKS: [", "BACKUP: false", "ZONE: eu"}
	last := -1
	for _, want := range order {
		i := strings.Index(out, want)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
		if i < last {
			t.Fatalf("%q out of order in:\n%s", want, out)
		}
		last = i
	}
	if !strings.HasPrefix(out, "Server srv-1 Information:") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, `"name": "wan"`) {
		t.Fatalf("expected indented JSON for nested values:\n%s", out)
	}
}
