package inventory

import (
	"strings"

	"kamatera-manager/internal/kamatera"
)

// Network classifications shown in the NETWORK column.
const (
	NetworkPublic  = "Public"
	NetworkPrivate = "Private"
	NetworkUnknown = "Unknown"
	NetworkError   = "Error"
	NotAvailable   = "N/A"
)

var ipFields = []string{"ip", "ipAddress", "primaryIP", "publicIP", "privateIP"}

// ExtractIPAndNetwork guesses the primary IP and network type of a server
// from its detail record. The API does not report the network type
// directly, so the first network with an address decides: its name
// (private/local vs public/internet) when it has one, the address range
// otherwise. Without a usable networks list the flat IP fields are tried.
func ExtractIPAndNetwork(detail map[string]any) (ip, network string) {
	ip, network = NotAvailable, NetworkUnknown

	if nets, ok := detail["networks"].([]any); ok {
		for _, n := range nets {
			m, ok := n.(map[string]any)
			if !ok {
				continue
			}
			ips, ok := m["ips"].([]any)
			if !ok || len(ips) == 0 {
				continue
			}
			ip = kamatera.String(ips[0])
			if ip == "" {
				ip = NotAvailable
			}

			if name, ok := m["name"].(string); ok {
				name = strings.ToLower(name)
				switch {
				case strings.Contains(name, "private") || strings.Contains(name, "local"):
					network = NetworkPrivate
				case strings.Contains(name, "public") || strings.Contains(name, "internet"):
					network = NetworkPublic
				}
			}
			if network == NetworkUnknown && ip != NotAvailable {
				network = classifyAddress(ip)
			}
			break
		}
	}

	if ip == NotAvailable {
		for _, field := range ipFields {
			v := kamatera.StringField(detail, field)
			if v == "" {
				continue
			}
			ip = v
			lower := strings.ToLower(field)
			if strings.Contains(lower, "private") {
				network = NetworkPrivate
			} else if strings.Contains(lower, "public") {
				network = NetworkPublic
			}
			break
		}
	}
	return ip, network
}

// classifyAddress treats 10.*, 172.* and 192.168.* as private (the whole 172/8, not just 172.16/12).
func classifyAddress(ip string) string {
	if strings.HasPrefix(ip, "10.") || strings.HasPrefix(ip, "172.") || strings.HasPrefix(ip, "192.168.") {
		return NetworkPrivate
	}
	return NetworkPublic
}
