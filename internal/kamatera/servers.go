package kamatera

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// PowerAction is the value sent to /server/{id}/power.
type PowerAction string

const (
	PowerOn     PowerAction = "on"
	PowerOff    PowerAction = "off"
	PowerReboot PowerAction = "reboot"
)

// ParsePowerAction accepts on, off and reboot in any case.
func ParsePowerAction(s string) (PowerAction, error) {
	switch a := PowerAction(strings.ToLower(strings.TrimSpace(s))); a {
	case PowerOn, PowerOff, PowerReboot:
		return a, nil
	}
	return "", fmt.Errorf("unknown power action %q (want on, off or reboot)", s)
}

// DisplayName is the operator-facing label of the action.
func (a PowerAction) DisplayName() string {
	switch a {
	case PowerOn:
		return "Power On"
	case PowerOff:
		return "Power Off"
	case PowerReboot:
		return "Reboot"
	}
	return string(a)
}

// Network is the attachment a server can be switched to.
type Network string

const (
	NetworkPublic  Network = "public"
	NetworkPrivate Network = "private"
)

func ParseNetwork(s string) (Network, error) {
	switch n := Network(strings.ToLower(strings.TrimSpace(s))); n {
	case NetworkPublic, NetworkPrivate:
		return n, nil
	}
	return "", fmt.Errorf("unknown network type %q (want public or private)", s)
}

// APIName is the network name the API expects: "internet" for public and
// "local" for private.
func (n Network) APIName() string {
	if n == NetworkPublic {
		return "internet"
	}
	return "local"
}

// Title is "Public" or "Private".
func (n Network) Title() string {
	if n == NetworkPublic {
		return "Public"
	}
	return "Private"
}

// ServerSummary is one entry of the server list.
type ServerSummary struct {
	ID     string
	Name   string
	Status string
	Power  string
	Raw    map[string]any
}

// ListServers returns every server of the account. The endpoint has been
// seen answering with a bare array and with the array wrapped under
// "servers", "items" or "data"; all of them are accepted.
func (c *Client) ListServers(ctx context.Context) ([]ServerSummary, error) {
	res, err := c.Do(ctx, http.MethodGet, "/servers", nil)
	if err != nil {
		return nil, err
	}

	var items []any
	switch v := res.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"servers", "items", "data"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected /servers response: %.80s", v)
	default:
		return nil, fmt.Errorf("unexpected /servers response of type %T", res)
	}

	servers := make([]ServerSummary, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		servers = append(servers, ServerSummary{
			ID:     StringField(m, "id"),
			Name:   StringField(m, "name"),
			Status: StringField(m, "status"),
			Power:  StringField(m, "power"),
			Raw:    m,
		})
	}
	return servers, nil
}

// GetServer returns the detailed record of one server.
func (c *Client) GetServer(ctx context.Context, id string) (map[string]any, error) {
	res, err := c.Do(ctx, http.MethodGet, "/server/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	m, ok := res.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected /server/%s response of type %T", id, res)
	}
	return m, nil
}

// SetPower changes the power state of one server.
func (c *Client) SetPower(ctx context.Context, id string, action PowerAction) (any, error) {
	return c.Do(ctx, http.MethodPut, "/server/"+url.PathEscape(id)+"/power", map[string]string{"power": string(action)})
}

// SetNetwork asks the API to replace the server's networks with a single
// public or private one. Most account tiers reject this call.
func (c *Client) SetNetwork(ctx context.Context, id string, network Network) error {
	payload := map[string]any{
		"networks": []map[string]string{{"name": network.APIName()}},
	}
	_, err := c.Do(ctx, http.MethodPut, "/server/"+url.PathEscape(id), payload)
	return err
}

// StringField renders m[key] as a string; missing and null values are "".
func StringField(m map[string]any, key string) string {
	return String(m[key])
}

// String renders a decoded JSON value; whole numbers lose their ".0".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
	}
	return fmt.Sprint(v)
}
