// Package prompt provides Confirmer adapters for the two run modes.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// Terminal asks the operator on stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal confirmer reading from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm asks a yes/no question. Empty input selects the default.
func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}

	for {
		fmt.Fprintf(t.out, "%s %s: ", question, hint)

		line, err := t.in.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("read answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Please answer y or n.")
	}
}

// Choose presents numbered options and returns the chosen index. Empty input
// selects the default.
func (t *Terminal) Choose(question string, options []string, def int) (int, error) {
	fmt.Fprintln(t.out, question)
	for i, opt := range options {
		marker := " "
		if i == def {
			marker = "*"
		}
		fmt.Fprintf(t.out, " %s %d) %s\n", marker, i+1, opt)
	}

	for {
		fmt.Fprintf(t.out, "Choice [%d]: ", def+1)

		line, err := t.in.ReadString('\n')
		if err != nil && line == "" {
			return 0, fmt.Errorf("read choice: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return def, nil
		}

		n, convErr := strconv.Atoi(trimmed)
		if convErr == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(t.out, "Please enter a number between 1 and %d.\n", len(options))
	}
}

var _ ports.Confirmer = (*Terminal)(nil)

// Auto confirms every question silently without prompting. It backs the
// auto-confirm run mode: every step proceeds as if the operator answered yes.
type Auto struct{}

// NewAuto creates an Auto confirmer.
func NewAuto() *Auto {
	return &Auto{}
}

// Confirm answers yes.
func (a *Auto) Confirm(string, bool) (bool, error) {
	return true, nil
}

// Choose returns the default option.
func (a *Auto) Choose(_ string, _ []string, def int) (int, error) {
	return def, nil
}

var _ ports.Confirmer = (*Auto)(nil)
