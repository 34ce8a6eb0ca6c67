// Package project copies the application tree into place and builds its
// isolated Python environment.
package project

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/4maggio/Kinderkuchen/internal/domain/install"
	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// VenvDirName is the environment directory below the install root.
const VenvDirName = "venv"

// Materializer installs the project tree and its runtime environment.
type Materializer struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
}

// NewMaterializer creates a Materializer.
func NewMaterializer(runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger) *Materializer {
	return &Materializer{
		runner: runner,
		fs:     fs,
		logger: logger,
	}
}

// Materialize copies source to target (skipped when they are the same
// path), fixes ownership, creates the venv, and installs the dependency
// manifest filtered per the toolkit mode. Environment creation is
// idempotent: an existing venv directory is reused and only dependency
// installation is re-run.
func (m *Materializer) Materialize(ctx context.Context, source, target, account string, mode install.ToolkitInstallMode, toolkitPipName string) error {
	source = filepath.Clean(source)
	target = filepath.Clean(target)

	if source != target {
		if err := m.copyTree(ctx, source, target); err != nil {
			return err
		}
	} else {
		m.logger.Debug(ctx, "source equals target, copying skipped", ports.F("path", target))
	}

	venv := filepath.Join(target, VenvDirName)
	if m.fs.IsDir(venv) {
		m.logger.Info(ctx, "virtual environment exists, creation skipped", ports.F("path", venv))
	} else {
		if err := m.createVenv(ctx, venv, mode); err != nil {
			return err
		}
	}

	if err := m.installRequirements(ctx, target, venv, mode, toolkitPipName); err != nil {
		return err
	}

	return m.chown(ctx, account, target)
}

// copyTree replicates the source tree into target.
func (m *Materializer) copyTree(ctx context.Context, source, target string) error {
	if err := m.fs.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create install root %s: %w", target, err)
	}

	result, err := m.runner.Run(ctx, "cp", "-a", source+"/.", target)
	if err != nil {
		return fmt.Errorf("copy project tree: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("copy project tree: cp exited %d: %s", result.ExitCode, result.Stderr)
	}
	return nil
}

// createVenv builds the isolated environment. With a system toolkit the
// venv inherits system site packages so the toolkit resolves from there.
func (m *Materializer) createVenv(ctx context.Context, venv string, mode install.ToolkitInstallMode) error {
	args := []string{"-m", "venv"}
	if mode == install.ToolkitSystemPackage {
		args = append(args, "--system-site-packages")
	}
	args = append(args, venv)

	result, err := m.runner.Run(ctx, "python3", args...)
	if err != nil {
		return fmt.Errorf("create virtual environment: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("create virtual environment: python3 exited %d: %s", result.ExitCode, result.Stderr)
	}
	return nil
}

// installRequirements installs the dependency manifest into the venv,
// filtered per the toolkit mode. A missing manifest is a warning.
func (m *Materializer) installRequirements(ctx context.Context, target, venv string, mode install.ToolkitInstallMode, toolkitPipName string) error {
	manifest := filepath.Join(target, "requirements.txt")
	data, err := m.fs.ReadFile(manifest)
	if err != nil {
		if !m.fs.Exists(manifest) {
			m.logger.Warn(ctx, "dependency manifest missing, install skipped", ports.F("path", manifest))
			return nil
		}
		return fmt.Errorf("read dependency manifest: %w", err)
	}

	packages := FilterRequirements(string(data), mode, toolkitPipName)
	if len(packages) == 0 {
		m.logger.Info(ctx, "no dependencies to install after filtering")
		return nil
	}

	pip := filepath.Join(venv, "bin", "pip")
	args := append([]string{"install"}, packages...)
	result, err := m.runner.Run(ctx, pip, args...)
	if err != nil {
		return fmt.Errorf("install dependencies: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("install dependencies: pip exited %d: %s", result.ExitCode, result.Stderr)
	}
	return nil
}

// chown gives the service account ownership of the install tree.
func (m *Materializer) chown(ctx context.Context, account, target string) error {
	result, err := m.runner.Run(ctx, "chown", "-R", account+":"+account, target)
	if err != nil {
		return fmt.Errorf("set ownership of %s: %w", target, err)
	}
	if !result.Success() {
		return fmt.Errorf("set ownership of %s: chown exited %d: %s", target, result.ExitCode, result.Stderr)
	}
	return nil
}

// FilterRequirements parses a requirements manifest into the package list
// to install. Comments and blanks are dropped. With a system toolkit the
// toolkit's own entry is removed so it is never double-installed; in
// isolated mode the manifest passes through unfiltered.
func FilterRequirements(manifest string, mode install.ToolkitInstallMode, toolkitPipName string) []string {
	var packages []string
	for _, line := range strings.Split(manifest, "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		if mode == install.ToolkitSystemPackage && requirementName(entry) == strings.ToLower(toolkitPipName) {
			continue
		}
		packages = append(packages, entry)
	}
	return packages
}

// requirementName extracts the bare package name from a requirement entry,
// dropping version specifiers and extras.
func requirementName(entry string) string {
	name := entry
	for _, sep := range []string{"==", ">=", "<=", "~=", "!=", ">", "<", "[", ";", " "} {
		if i := strings.Index(name, sep); i >= 0 {
			name = name[:i]
		}
	}
	return strings.ToLower(strings.TrimSpace(name))
}
