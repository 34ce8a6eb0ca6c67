// Package account ensures the kiosk service account exists and can reach
// the console, video, and input devices.
package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/4maggio/Kinderkuchen/internal/domain/install"
	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// Account describes the provisioned service account after Ensure.
type Account struct {
	Name string
	// Created is true when this run created the account.
	Created bool
	// AddedGroups lists the groups this run added the account to.
	AddedGroups []string
}

// Provisioner ensures a service account and its group memberships.
type Provisioner struct {
	runner  ports.CommandRunner
	logger  ports.Logger
	confirm ports.Confirmer
	groups  []string
}

// NewProvisioner creates a Provisioner for the fixed device-access groups.
func NewProvisioner(runner ports.CommandRunner, logger ports.Logger, confirm ports.Confirmer, groups []string) *Provisioner {
	return &Provisioner{
		runner:  runner,
		logger:  logger,
		confirm: confirm,
		groups:  groups,
	}
}

// Ensure makes the named account exist and belong to the device-access
// groups. Group membership is additive only and read before mutating, so
// a second run performs zero mutations. Declining the creation prompt is
// fatal: the pipeline cannot continue without its account.
func (p *Provisioner) Ensure(ctx context.Context, name string) (Account, error) {
	acct := Account{Name: name}

	exists, err := p.exists(ctx, name)
	if err != nil {
		return acct, err
	}

	if !exists {
		ok, err := p.confirm.Confirm(fmt.Sprintf("Account %q does not exist. Create it?", name), true)
		if err != nil {
			return acct, err
		}
		if !ok {
			return acct, fmt.Errorf("account %q: %w", name, install.ErrDeclined)
		}

		if err := p.create(ctx, name); err != nil {
			return acct, err
		}
		acct.Created = true
		p.logger.Info(ctx, "account created", ports.F("account", name))
	}

	current, err := p.memberships(ctx, name)
	if err != nil {
		return acct, err
	}

	for _, group := range p.groups {
		if current[group] {
			continue
		}
		if err := p.addToGroup(ctx, name, group); err != nil {
			return acct, err
		}
		acct.AddedGroups = append(acct.AddedGroups, group)
		p.logger.Info(ctx, "group membership added",
			ports.F("account", name),
			ports.F("group", group))
	}

	return acct, nil
}

// exists checks whether the account is known to the system.
func (p *Provisioner) exists(ctx context.Context, name string) (bool, error) {
	result, err := p.runner.Run(ctx, "id", "-u", name)
	if err != nil {
		return false, fmt.Errorf("look up account %q: %w", name, err)
	}
	return result.Success(), nil
}

// create adds the account with a home directory.
func (p *Provisioner) create(ctx context.Context, name string) error {
	result, err := p.runner.Run(ctx, "useradd", "-m", "-s", "/bin/bash", name)
	if err != nil {
		return fmt.Errorf("create account %q: %w", name, err)
	}
	if !result.Success() {
		return fmt.Errorf("create account %q: useradd exited %d: %s", name, result.ExitCode, result.Stderr)
	}
	return nil
}

// memberships returns the set of groups the account currently belongs to.
func (p *Provisioner) memberships(ctx context.Context, name string) (map[string]bool, error) {
	result, err := p.runner.Run(ctx, "id", "-nG", name)
	if err != nil {
		return nil, fmt.Errorf("read group memberships for %q: %w", name, err)
	}
	if !result.Success() {
		return nil, fmt.Errorf("read group memberships for %q: id exited %d", name, result.ExitCode)
	}

	groups := make(map[string]bool)
	for _, g := range strings.Fields(result.Stdout) {
		groups[g] = true
	}
	return groups, nil
}

// addToGroup appends a single supplementary group.
func (p *Provisioner) addToGroup(ctx context.Context, name, group string) error {
	result, err := p.runner.Run(ctx, "usermod", "-aG", group, name)
	if err != nil {
		return fmt.Errorf("add %q to group %q: %w", name, group, err)
	}
	if !result.Success() {
		return fmt.Errorf("add %q to group %q: usermod exited %d: %s", name, group, result.ExitCode, result.Stderr)
	}
	return nil
}
