package netswitch

import (
	"fmt"
	"strings"

	"kamatera-manager/internal/inventory"
	"kamatera-manager/internal/kamatera"
)

// SuggestTarget proposes Public when any server currently sits on a private
// network and Private otherwise.
func SuggestTarget(servers []inventory.Server) kamatera.Network {
	for _, s := range servers {
		if strings.EqualFold(s.Network, inventory.NetworkPrivate) {
			return kamatera.NetworkPublic
		}
	}
	return kamatera.NetworkPrivate
}

// Plan is shown before the workflow asks to start. auto describes the
// API-first network step.
func Plan(servers []inventory.Server, target kamatera.Network, auto bool) string {
	var b strings.Builder
	b.WriteString("Smart Network Switching Workflow\n\n")
	b.WriteString("  1. Automatic: power off all selected servers\n")
	if auto {
		b.WriteString("  2. Automatic: change the network through the API; the Kamatera console is opened only if a server rejects it\n")
	} else {
		b.WriteString("  2. Manual: change the network in the Kamatera console (opened for you)\n")
	}
	b.WriteString("  3. Automatic: power on all servers\n")
	b.WriteString("  4. Automatic: verify network changes\n\n")
	b.WriteString("Selected servers:\n")
	for _, s := range servers {
		fmt.Fprintf(&b, "  - %s (%s) - Current: %s\n", s.Name, s.ID, s.Network)
	}
	fmt.Fprintf(&b, "\nTarget network type: %s\n", target.Title())
	return b.String()
}

// ConsoleSteps is printed while the operator works in the web console.
func ConsoleSteps(servers []inventory.Server, target kamatera.Network) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Console opened! Now configure networks for %d servers.\n", len(servers))
	fmt.Fprintf(&b, "Switch each server to: %s Network\n\n", target.Title())
	b.WriteString("SERVERS TO CONFIGURE:\n")
	writeServerList(&b, servers)
	fmt.Fprintf(&b, `
STEPS IN KAMATERA CONSOLE:
1. Go to "Server Management" or "My Servers"
2. For each server above:
   - Click server name or "Manage"
   - Find "Network" or "Networking" section
   - Click "Edit" or "Modify Network"
   - Change to: %s Network
   - Save changes

3. When ALL servers are configured, confirm below
4. The servers are then powered back on automatically

IMPORTANT: Configure ALL servers before proceeding to power-on step.
`, target.Title())
	return b.String()
}

// ManualInstructions is the complete do-it-yourself guide, for operators who
// prefer to run every step by hand.
func ManualInstructions(servers []inventory.Server, target kamatera.Network, consoleURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `COMPLETE MANUAL NETWORK SWITCHING GUIDE

TARGET: Switch to %s Network
SERVERS: %d server(s)

STEP-BY-STEP PROCESS:

1. PREPARE SERVERS
   - Stop any critical applications running on the servers
   - Note current IP addresses for DNS/firewall updates
   - Ensure you have console access credentials

2. POWER OFF SERVERS (do this first!)
`, target.Title(), len(servers))
	writeServerList(&b, servers)
	fmt.Fprintf(&b, `
3. NETWORK CONFIGURATION IN CONSOLE
   a) Go to: %s
   b) Navigate to "Server Management" or "My Servers"
   c) For each server:
      - Click on the server name or "Manage" button
      - Look for "Network" or "Networking" section
      - Click "Edit" or "Modify Network"
      - Change from current network to %s
      - Save changes

4. POWER ON SERVERS
   - Start each server after network changes are saved
   - Wait for each server to fully boot before starting the next

5. VERIFY CHANGES
   - Check new IP addresses
   - Update DNS records if IPs changed
   - Update firewall rules if needed
   - Test connectivity to all services

6. POST-CHANGE TASKS
   - Update monitoring systems with new IPs
   - Notify team members of IP changes
   - Update documentation

IMPORTANT WARNINGS:
   ! Servers will be unreachable during this process
   ! IP addresses will likely change
   ! Plan for 15-30 minutes of downtime per server
   ! Have a rollback plan ready

TROUBLESHOOTING:
   - If server won't start: Check console for error messages
   - If network config is missing: Contact Kamatera support
   - If IPs don't change: Verify network was actually switched
`, consoleURL, target.Title())
	return b.String()
}

// CLICommands lists the equivalent commands for the provider's own CLI.
func CLICommands(servers []inventory.Server, target kamatera.Network, cli string) string {
	var b strings.Builder
	b.WriteString(`KAMATERA CLI COMMANDS (if CLI tools are available)

# Install Kamatera CLI (if not installed)
pip install kamatera-cli

# Configure credentials
export KAMATERA_API_CLIENT_ID="your_api_key"
export KAMATERA_API_SECRET="your_api_secret"

# Power off servers
`)
	for _, s := range servers {
		fmt.Fprintf(&b, "%s server power --server-id %q --power off\n", cli, s.ID)
	}
	b.WriteString("\n# Wait for servers to shut down (check status)\n")
	for _, s := range servers {
		fmt.Fprintf(&b, "%s server info --server-id %q\n", cli, s.ID)
	}
	b.WriteString("\n# Modify network (if supported by CLI)\n")
	for _, s := range servers {
		fmt.Fprintf(&b, "# %s server modify --server-id %q --network %s\n", cli, s.ID, target)
	}
	b.WriteString("\n# Power on servers\n")
	for _, s := range servers {
		fmt.Fprintf(&b, "%s server power --server-id %q --power on\n", cli, s.ID)
	}
	b.WriteString("\n# Verify changes\n")
	for _, s := range servers {
		fmt.Fprintf(&b, "%s server info --server-id %q\n", cli, s.ID)
	}
	fmt.Fprintf(&b, `
NOTE: CLI network modification commands may not be available.
If '%s server modify --network' fails, use the manual console method.
`, cli)
	return b.String()
}

func writeServerList(b *strings.Builder, servers []inventory.Server) {
	for _, s := range servers {
		fmt.Fprintf(b, "   - %s (%s)\n", s.Name, s.ID)
	}
}
