package command

import (
	"context"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// DryRunner logs every command instead of executing it and reports success.
// Used by the --dry-run mode so the whole pipeline can be walked without
// mutating the host.
type DryRunner struct {
	logger ports.Logger
}

// NewDryRunner creates a DryRunner that logs through the given logger.
func NewDryRunner(logger ports.Logger) *DryRunner {
	return &DryRunner{logger: logger}
}

// Run records the command and returns a successful empty result.
func (r *DryRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	r.logger.Info(ctx, "dry-run: would execute",
		ports.F("command", command),
		ports.F("args", args))
	return ports.CommandResult{ExitCode: 0}, nil
}

var _ ports.CommandRunner = (*DryRunner)(nil)
