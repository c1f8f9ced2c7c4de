package netswitch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	cliTimeout = 5 * time.Second
	runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).Output()
	}
)

// CLIStatus is the outcome of probing for the provider CLI.
type CLIStatus struct {
	Name      string
	Available bool
	Version   string
	Err       error
}

// DetectCLI runs "<name> --version" with a short timeout. A missing binary,
// a non-zero exit and a timeout all count as unavailable.
func DetectCLI(ctx context.Context, name string) CLIStatus {
	ctx, cancel := context.WithTimeout(ctx, cliTimeout)
	defer cancel()

	out, err := runCommand(ctx, name, "--version")
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%s --version timed out after %s", name, cliTimeout)
		}
		return CLIStatus{Name: name, Err: err}
	}
	return CLIStatus{Name: name, Available: true, Version: strings.TrimSpace(string(out))}
}

func (s CLIStatus) String() string {
	if s.Available {
		return fmt.Sprintf("Kamatera CLI is installed!\n\nVersion info:\n%s\n", s.Version)
	}
	return "Kamatera CLI is not installed.\n\n" +
		"To install:\npip install kamatera-cli\n\n" +
		"Or use the smart workflow for automated assistance.\n"
}
