// Package autoboot generates the artifacts that boot the host straight
// into the kiosk session: session-init script, supervision unit, console
// auto-login, the guarded profile auto-start block, and a launch wrapper.
package autoboot

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/unit"
	"gopkg.in/ini.v1"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

const (
	// UnitPath is where the supervision unit descriptor is written.
	UnitPath = "/etc/systemd/system/kinderkuchen.service"
	// AutoLoginDir holds the getty override binding the account to tty1.
	AutoLoginDir = "/etc/systemd/system/getty@tty1.service.d"
	// AutoLoginFile is the auto-login override inside AutoLoginDir.
	AutoLoginFile = "autologin.conf"
	// restartDelaySec is the fixed backoff before the supervised
	// application is restarted after a failure.
	restartDelaySec = 5

	profileSection = "autostart"
)

// Params carries everything the artifact templates need.
type Params struct {
	Account     string
	Home        string
	TargetDir   string
	AppDir      string
	EntryScript string
	SettleDelay time.Duration
}

// Python returns the interpreter path inside the isolated environment.
func (p Params) Python() string {
	return filepath.Join(p.TargetDir, "venv", "bin", "python")
}

// Configurator writes the autoboot artifacts.
type Configurator struct {
	fs     ports.FileSystem
	runner ports.CommandRunner
	logger ports.Logger
}

// NewConfigurator creates a Configurator.
func NewConfigurator(fs ports.FileSystem, runner ports.CommandRunner, logger ports.Logger) *Configurator {
	return &Configurator{
		fs:     fs,
		runner: runner,
		logger: logger,
	}
}

// Apply writes all artifacts. Every write is a full-content upsert, so
// reruns converge on identical files.
func (c *Configurator) Apply(ctx context.Context, p Params) error {
	if err := c.writeSessionInit(ctx, p); err != nil {
		return err
	}
	if err := c.writeUnit(ctx, p); err != nil {
		return err
	}
	if err := c.writeAutoLogin(ctx, p); err != nil {
		return err
	}
	if err := c.writeProfileBlock(ctx, p); err != nil {
		return err
	}
	if err := c.writeLauncher(ctx, p); err != nil {
		return err
	}
	return c.chownArtifacts(ctx, p)
}

// writeSessionInit generates the .xinitrc: blanking off, pointer hidden,
// window manager up, settle, then exec the application.
func (c *Configurator) writeSessionInit(ctx context.Context, p Params) error {
	path := filepath.Join(p.Home, ".xinitrc")

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("# Generated by kkinstall. Edits are overwritten on reinstall.\n")
	b.WriteString("xset s off\n")
	b.WriteString("xset s noblank\n")
	b.WriteString("xset -dpms\n")
	b.WriteString("unclutter -idle 0.5 -root &\n")
	b.WriteString("matchbox-window-manager -use_titlebar no &\n")
	fmt.Fprintf(&b, "sleep %d\n", int(p.SettleDelay.Seconds()))
	fmt.Fprintf(&b, "cd %s\n", p.AppDir)
	fmt.Fprintf(&b, "exec %s %s\n", p.Python(), p.EntryScript)

	if err := c.fs.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		return fmt.Errorf("write session-init script: %w", err)
	}
	c.logger.Info(ctx, "session-init script written", ports.F("path", path))
	return nil
}

// writeUnit serializes the supervision unit: the application is restarted
// on failure after a fixed delay. The installer never inspects more than
// the process exit status; supervision is systemd's job.
func (c *Configurator) writeUnit(ctx context.Context, p Params) error {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "Kinderkuchen kiosk application"),
		unit.NewUnitOption("Unit", "After", "systemd-user-sessions.service"),
		unit.NewUnitOption("Service", "User", p.Account),
		unit.NewUnitOption("Service", "WorkingDirectory", p.AppDir),
		unit.NewUnitOption("Service", "Environment", "DISPLAY=:0"),
		unit.NewUnitOption("Service", "ExecStart", p.Python()+" "+p.EntryScript),
		unit.NewUnitOption("Service", "Restart", "on-failure"),
		unit.NewUnitOption("Service", "RestartSec", fmt.Sprintf("%d", restartDelaySec)),
		unit.NewUnitOption("Install", "WantedBy", "graphical.target"),
	}

	data, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return fmt.Errorf("serialize unit descriptor: %w", err)
	}

	if err := c.fs.WriteFile(UnitPath, data, 0o644); err != nil {
		return fmt.Errorf("write unit descriptor: %w", err)
	}
	c.logger.Info(ctx, "unit descriptor written", ports.F("path", UnitPath))
	return nil
}

// writeAutoLogin binds the account to the primary console. An existing
// override already naming the account is left untouched.
func (c *Configurator) writeAutoLogin(ctx context.Context, p Params) error {
	path := filepath.Join(AutoLoginDir, AutoLoginFile)

	if existing, err := c.fs.ReadFile(path); err == nil && autoLoginMatches(existing, p.Account) {
		c.logger.Debug(ctx, "auto-login override current, write skipped", ports.F("path", path))
		return nil
	}

	if err := c.fs.MkdirAll(AutoLoginDir, 0o755); err != nil {
		return fmt.Errorf("create auto-login override directory: %w", err)
	}

	opts := []*unit.UnitOption{
		unit.NewUnitOption("Service", "ExecStart", ""),
		unit.NewUnitOption("Service", "ExecStart",
			fmt.Sprintf("-/sbin/agetty --autologin %s --noclear %%I $TERM", p.Account)),
	}

	data, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return fmt.Errorf("serialize auto-login override: %w", err)
	}

	if err := c.fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write auto-login override: %w", err)
	}
	c.logger.Info(ctx, "auto-login override written",
		ports.F("path", path),
		ports.F("account", p.Account))
	return nil
}

// autoLoginMatches reports whether an existing override already logs the
// account in. Unit drop-ins repeat ExecStart to clear it first, so the
// file is parsed with shadows allowed.
func autoLoginMatches(data []byte, account string) bool {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, data)
	if err != nil {
		return false
	}
	key := cfg.Section("Service").Key("ExecStart")
	for _, value := range key.ValueWithShadows() {
		if strings.Contains(value, "--autologin "+account) {
			return true
		}
	}
	return false
}

// writeProfileBlock appends the guarded auto-start block to the login
// profile. The guard fires only with no display attached and only on the
// primary console; the managed markers keep reinstalls from duplicating it.
func (c *Configurator) writeProfileBlock(ctx context.Context, p Params) error {
	path := filepath.Join(p.Home, ".bash_profile")

	content := ""
	if data, err := c.fs.ReadFile(path); err == nil {
		content = string(data)
	}

	block := "if [ -z \"$DISPLAY\" ] && [ \"$(tty)\" = \"/dev/tty1\" ]; then\n" +
		"    exec startx\n" +
		"fi\n"

	if ReadManagedBlock(content, profileSection) == block {
		c.logger.Debug(ctx, "login profile current, write skipped", ports.F("path", path))
		return nil
	}

	updated := WriteManagedBlock(content, profileSection, block)
	if err := c.fs.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write login profile: %w", err)
	}
	c.logger.Info(ctx, "login profile auto-start block written", ports.F("path", path))
	return nil
}

// writeLauncher writes the wrapper script used for manual starts.
func (c *Configurator) writeLauncher(ctx context.Context, p Params) error {
	path := filepath.Join(p.TargetDir, "start-kiosk.sh")

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "cd %s\n", p.AppDir)
	fmt.Fprintf(&b, "exec %s %s \"$@\"\n", p.Python(), p.EntryScript)

	if err := c.fs.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		return fmt.Errorf("write launch script: %w", err)
	}
	c.logger.Info(ctx, "launch script written", ports.F("path", path))
	return nil
}

// chownArtifacts hands the account every generated artifact. The launch
// script is written after the materializer's recursive chown, so it needs
// its own ownership fix.
func (c *Configurator) chownArtifacts(ctx context.Context, p Params) error {
	owner := p.Account + ":" + p.Account
	for _, path := range []string{
		filepath.Join(p.Home, ".xinitrc"),
		filepath.Join(p.Home, ".bash_profile"),
		filepath.Join(p.TargetDir, "start-kiosk.sh"),
	} {
		result, err := c.runner.Run(ctx, "chown", owner, path)
		if err != nil {
			return fmt.Errorf("set ownership of %s: %w", path, err)
		}
		if !result.Success() {
			return fmt.Errorf("set ownership of %s: chown exited %d: %s", path, result.ExitCode, result.Stderr)
		}
	}
	return nil
}
