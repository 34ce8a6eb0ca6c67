// Package install holds the provisioning pipeline: the run modes, step
// outcomes, the plan state threaded between steps, and the driver that
// sequences every stage.
package install

import (
	"errors"
	"fmt"
)

// RunMode governs how yes/no decisions are answered for the whole run.
type RunMode string

const (
	// ModeInteractive prompts the operator for every decision.
	ModeInteractive RunMode = "interactive"
	// ModeAutoConfirm confirms every step silently, without prompting.
	ModeAutoConfirm RunMode = "auto"
	// ModeAborted exits without touching the host.
	ModeAborted RunMode = "abort"
)

// ParseRunMode converts a CLI mode string into a RunMode.
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(s) {
	case ModeInteractive, ModeAutoConfirm, ModeAborted:
		return RunMode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want interactive, auto, or abort)", s)
}

// Status is the terminal state of a single step.
type Status string

const (
	// StatusSuccess indicates the step applied its changes (or they were
	// already in place).
	StatusSuccess Status = "success"
	// StatusSkipped indicates the operator declined the step; the
	// corresponding capability is absent from the host.
	StatusSkipped Status = "skipped"
	// StatusFailed indicates the step exhausted its attempts.
	StatusFailed Status = "failed"
)

// StepOutcome records how one named step ended. Every step produces
// exactly one outcome.
type StepOutcome struct {
	Step     string
	Status   Status
	Attempts int
	Err      error
}

// ToolkitInstallMode is the one piece of state that crosses a step
// boundary: set by the GUI-toolkit stage, consumed by the materializer.
type ToolkitInstallMode string

const (
	// ToolkitSystemPackage means the toolkit was installed system-wide;
	// the venv inherits system site packages and the toolkit entry is
	// filtered out of the dependency manifest.
	ToolkitSystemPackage ToolkitInstallMode = "system-package"
	// ToolkitIsolatedEnv means the toolkit is installed into the venv
	// with the rest of the manifest, unfiltered.
	ToolkitIsolatedEnv ToolkitInstallMode = "isolated-env"
)

// Fatal error classes. Anything wrapping one of these aborts the pipeline
// immediately; prior mutations stand (no rollback).
var (
	// ErrNotRoot is returned when the installer runs without elevated
	// privilege.
	ErrNotRoot = errors.New("installer must run as root")
	// ErrDeclined is returned when the operator declines a required step.
	ErrDeclined = errors.New("required step declined")
	// ErrStageFailed is returned when a required stage exhausts its
	// retry budget.
	ErrStageFailed = errors.New("required stage failed")
)
