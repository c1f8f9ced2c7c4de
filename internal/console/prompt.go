package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter replaces the modal dialogs of a desktop client: every question the
// operator has to answer goes through it.
type Prompter interface {
	Confirm(question string) (bool, error)
	Ask(label string) (string, error)
	AskSecret(label string) (string, error)
	Warn(title, msg string)
	Out() io.Writer
}

// Terminal is a Prompter reading lines from in and writing to out.
type Terminal struct {
	in  *bufio.Reader
	fd  int
	tty bool
	out io.Writer
}

// NewTerminal binds to the process stdin/stdout.
func NewTerminal() *Terminal {
	t := New(os.Stdin, os.Stdout)
	t.fd = int(os.Stdin.Fd())
	t.tty = term.IsTerminal(t.fd)
	return t
}

// New builds a Terminal over arbitrary streams. Secrets are read as plain
// lines since there is no terminal to switch to no-echo mode.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Out() io.Writer { return t.out }

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) Ask(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	return t.readLine()
}

func (t *Terminal) AskSecret(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	if !t.tty {
		return t.readLine()
	}
	b, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// Confirm asks a yes/no question. Anything but y/yes is a no, including EOF.
func (t *Terminal) Confirm(question string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N]: ", question)
	answer, err := t.readLine()
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(t.out)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (t *Terminal) Warn(title, msg string) {
	fmt.Fprintf(t.out, "WARNING [%s]: %s\n", title, msg)
}

// ColorEnabled reports whether stdout is a terminal and NO_COLOR is unset.
func ColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
