// Package apt installs packages through the system package manager, with
// bounded retries around every network-touching call.
package apt

import (
	"context"
	"fmt"
	"time"

	"github.com/4maggio/Kinderkuchen/internal/domain/retry"
	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// Manager wraps apt-get for the package stages.
type Manager struct {
	runner          ports.CommandRunner
	logger          ports.Logger
	indexAttempts   int
	installAttempts int
	retryDelay      time.Duration
}

// NewManager creates a Manager with the given retry budgets.
func NewManager(runner ports.CommandRunner, logger ports.Logger, indexAttempts, installAttempts int, retryDelay time.Duration) *Manager {
	return &Manager{
		runner:          runner,
		logger:          logger,
		indexAttempts:   indexAttempts,
		installAttempts: installAttempts,
		retryDelay:      retryDelay,
	}
}

// RefreshIndex runs apt-get update under the index retry budget.
func (m *Manager) RefreshIndex(ctx context.Context) retry.Result {
	return retry.Do(ctx, m.logger, retry.Policy{
		Name:     "apt index refresh",
		Attempts: m.indexAttempts,
		Delay:    m.retryDelay,
	}, func(ctx context.Context) error {
		return m.aptGet(ctx, "update")
	})
}

// FullUpgrade upgrades all installed packages under the install budget.
func (m *Manager) FullUpgrade(ctx context.Context) retry.Result {
	return retry.Do(ctx, m.logger, retry.Policy{
		Name:     "apt full upgrade",
		Attempts: m.installAttempts,
		Delay:    m.retryDelay,
		Between:  m.recover,
	}, func(ctx context.Context) error {
		return m.aptGet(ctx, "full-upgrade", "-y")
	})
}

// Install installs the given packages under the install budget. Between
// attempts the cache is cleaned and the index quietly refreshed so a
// transient mirror failure does not poison the next attempt.
func (m *Manager) Install(ctx context.Context, packages ...string) retry.Result {
	if len(packages) == 0 {
		return retry.Result{Attempts: 0}
	}

	args := append([]string{"install", "-y"}, packages...)
	return retry.Do(ctx, m.logger, retry.Policy{
		Name:     "apt install",
		Attempts: m.installAttempts,
		Delay:    m.retryDelay,
		Between:  m.recover,
	}, func(ctx context.Context) error {
		return m.aptGet(ctx, args...)
	})
}

// recover clears transient package-cache state before a retry.
func (m *Manager) recover(ctx context.Context) {
	if err := m.aptGet(ctx, "clean"); err != nil {
		m.logger.Debug(ctx, "cache clean failed before retry", ports.F("error", err))
	}
	if err := m.aptGet(ctx, "update", "-qq"); err != nil {
		m.logger.Debug(ctx, "quiet index refresh failed before retry", ports.F("error", err))
	}
}

// aptGet runs one apt-get invocation and folds a non-zero exit into an error.
func (m *Manager) aptGet(ctx context.Context, args ...string) error {
	result, err := m.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("apt-get %s exited %d: %s", args[0], result.ExitCode, firstLine(result.Stderr))
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
