package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"kamatera-manager/internal/kamatera"
	"kamatera-manager/internal/logger"
)

var (
	ErrNoSelection       = errors.New("please select at least one server")
	ErrMultipleSelection = errors.New("please select only one server")
)

// Server is one row of the inventory.
type Server struct {
	ID      string
	Name    string
	Status  string
	Power   string
	IP      string
	Network string
}

// API is the part of the Kamatera client the inventory needs.
type API interface {
	ListServers(ctx context.Context) ([]kamatera.ServerSummary, error)
	GetServer(ctx context.Context, id string) (map[string]any, error)
}

// Progress is told about every loaded row; done counts from 1.
type Progress func(done, total int, s Server)

// Inventory is the refreshed-on-demand server list plus the operator's
// selection, keyed by server id.
type Inventory struct {
	servers  []Server
	selected map[string]bool
}

func New(servers []Server) *Inventory {
	inv := &Inventory{selected: make(map[string]bool)}
	inv.Replace(servers)
	return inv
}

// Fetch lists all servers and looks up each one's IP and network type. A
// failed detail lookup marks that row as Error and moves on; only a failed
// list call is an error.
func Fetch(ctx context.Context, api API, progress Progress) ([]Server, error) {
	summaries, err := api.ListServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load servers: %w", err)
	}

	servers := make([]Server, 0, len(summaries))
	for i, sum := range summaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := Server{
			ID:     strings.TrimSpace(sum.ID),
			Name:   orDefault(sum.Name, "Unnamed"),
			Status: orDefault(sum.Status, "unknown"),
			Power:  orDefault(sum.Power, "unknown"),
		}
		if s.ID == "" {
			s.IP, s.Network = NotAvailable, NotAvailable
		} else if detail, err := api.GetServer(ctx, sum.ID); err != nil {
			logger.Warn("failed to load server detail", "server", sum.ID, "error", err)
			s.IP, s.Network = NetworkError, NetworkError
		} else {
			s.IP, s.Network = ExtractIPAndNetwork(detail)
		}
		servers = append(servers, s)
		if progress != nil {
			progress(i+1, len(summaries), s)
		}
	}
	return servers, nil
}

// Refresh replaces the inventory contents with a fresh Fetch.
func (inv *Inventory) Refresh(ctx context.Context, api API, progress Progress) error {
	servers, err := Fetch(ctx, api, progress)
	if err != nil {
		return err
	}
	inv.Replace(servers)
	return nil
}

// Replace swaps in a new server list. Nothing of the previous state
// survives, the selection included.
func (inv *Inventory) Replace(servers []Server) {
	inv.servers = append([]Server(nil), servers...)
	inv.selected = make(map[string]bool)
}

func (inv *Inventory) Servers() []Server {
	return append([]Server(nil), inv.servers...)
}

func (inv *Inventory) Len() int { return len(inv.servers) }

func (inv *Inventory) Lookup(id string) (Server, bool) {
	for _, s := range inv.servers {
		if s.ID == id {
			return s, true
		}
	}
	return Server{}, false
}

func (inv *Inventory) IsSelected(id string) bool { return inv.selected[id] }

// Select marks servers by id. Blank ids are skipped; unknown ids are
// reported together.
func (inv *Inventory) Select(ids ...string) error {
	var unknown []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := inv.Lookup(id); !ok {
			unknown = append(unknown, id)
			continue
		}
		inv.selected[id] = true
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown server id(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}

// SelectIndexes marks servers by 1-based row number. Rows without a server
// id cannot be acted on and are rejected.
func (inv *Inventory) SelectIndexes(indexes ...int) error {
	for _, i := range indexes {
		if i < 1 || i > len(inv.servers) {
			return fmt.Errorf("row %d is out of range 1-%d", i, len(inv.servers))
		}
		if inv.servers[i-1].ID == "" {
			return fmt.Errorf("row %d has no server id", i)
		}
	}
	for _, i := range indexes {
		inv.selected[inv.servers[i-1].ID] = true
	}
	return nil
}

// SelectAll marks every row that has a server id.
func (inv *Inventory) SelectAll() {
	for _, s := range inv.servers {
		if s.ID != "" {
			inv.selected[s.ID] = true
		}
	}
}

func (inv *Inventory) DeselectAll() {
	inv.selected = make(map[string]bool)
}

// Selected returns the selected servers in table order.
func (inv *Inventory) Selected() []Server {
	var out []Server
	for _, s := range inv.servers {
		if inv.selected[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// SelectedOne returns the single selected server.
func (inv *Inventory) SelectedOne() (Server, error) {
	sel := inv.Selected()
	switch len(sel) {
	case 0:
		return Server{}, ErrNoSelection
	case 1:
		return sel[0], nil
	}
	return Server{}, ErrMultipleSelection
}

// ParseSelection turns "1,3-5" into row numbers within 1-n. "all" and "*"
// return nil with all set. Bounds are checked before a range is expanded.
func ParseSelection(input string, n int) (rows []int, all bool, err error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "all" || input == "*" {
		return nil, true, nil
	}
	seen := make(map[int]bool)
	for _, part := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		lo, hi := part, part
		if i := strings.Index(part, "-"); i > 0 {
			lo, hi = part[:i], part[i+1:]
		}
		from, err := strconv.Atoi(lo)
		if err != nil {
			return nil, false, fmt.Errorf("%q is not a number", lo)
		}
		to, err := strconv.Atoi(hi)
		if err != nil {
			return nil, false, fmt.Errorf("%q is not a number", hi)
		}
		if from > to {
			return nil, false, fmt.Errorf("invalid range %q", part)
		}
		if from < 1 || to > n {
			return nil, false, fmt.Errorf("%q is out of range 1-%d", part, n)
		}
		for r := from; r <= to; r++ {
			if !seen[r] {
				seen[r] = true
				rows = append(rows, r)
			}
		}
	}
	sort.Ints(rows)
	return rows, false, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
