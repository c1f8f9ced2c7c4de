package inventory

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"kamatera-manager/internal/kamatera"
)

// importantFields lead the detail view in this order; the rest follow sorted.
var importantFields = []string{"id", "name", "status", "power", "cpu", "ram", "disk", "datacenter", "os", "networks"}

// Render writes the server table. Colour is applied only when color is true.
func (inv *Inventory) Render(w io.Writer, color bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "SEL", "ID", "NAME", "STATUS", "IP", "POWER", "NETWORK"})

	for i, s := range inv.servers {
		sel := "[ ]"
		if inv.selected[s.ID] {
			sel = "[x]"
		}
		t.AppendRow(table.Row{
			i + 1,
			sel,
			orDefault(s.ID, NotAvailable),
			s.Name,
			paint(color, statusColor(s.Status), s.Status),
			s.IP,
			paint(color, powerColor(s.Power), s.Power),
			paint(color, networkColor(s.Network), s.Network),
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d server(s)", len(inv.servers)), "", "", "", fmt.Sprintf("%d selected", len(inv.Selected()))})
	t.Render()
}

func paint(enabled bool, c text.Colors, v string) string {
	if !enabled || c == nil {
		return v
	}
	return c.Sprint(v)
}

func statusColor(status string) text.Colors {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "run") || strings.Contains(s, "on"):
		return text.Colors{text.FgGreen}
	case strings.Contains(s, "stop") || strings.Contains(s, "off"):
		return text.Colors{text.FgRed}
	case strings.Contains(s, "pend"):
		return text.Colors{text.FgYellow}
	}
	return nil
}

func powerColor(power string) text.Colors {
	p := strings.ToLower(power)
	switch {
	case strings.Contains(p, "on"):
		return text.Colors{text.FgGreen}
	case strings.Contains(p, "off"):
		return text.Colors{text.FgRed}
	}
	return nil
}

func networkColor(network string) text.Colors {
	switch network {
	case NetworkPublic:
		return text.Colors{text.FgBlue}
	case NetworkPrivate:
		return text.Colors{text.FgMagenta}
	}
	return nil
}

// FormatDetail renders a server detail record as "KEY: value" lines.
// Nested values are printed as indented JSON.
func FormatDetail(id string, detail map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Server %s Information:\n\n", id)

	done := make(map[string]bool, len(importantFields))
	for _, f := range importantFields {
		if v, ok := detail[f]; ok {
			writeField(&b, f, v)
			done[f] = true
		}
	}

	rest := make([]string, 0, len(detail))
	for k := range detail {
		if !done[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		writeField(&b, k, detail[k])
	}
	return b.String()
}

func writeField(b *strings.Builder, key string, v any) {
	var value string
	switch v.(type) {
	case map[string]any, []any:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			value = fmt.Sprint(v)
		} else {
			value = string(out)
		}
	default:
		value = kamatera.String(v)
	}
	fmt.Fprintf(b, "%s: %s\n", strings.ToUpper(key), value)
}
