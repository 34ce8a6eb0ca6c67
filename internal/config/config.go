// Package config holds the installer manifest: stage definitions, host
// paths, and timing knobs. Defaults are compiled in; a YAML manifest can
// override any of them so fleet images can pin package lists without
// rebuilding the installer.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so manifests can write "5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Stage names, in pipeline order. The driver looks stages up by name, so
// a manifest may reorder or drop optional stages but not rename them.
const (
	StageSystemUpdate   = "system-update"
	StageDisplayStack   = "display-stack"
	StagePythonRuntime  = "python-runtime"
	StageGUIToolkit     = "gui-toolkit"
	StageBrowser        = "browser"
	StageRemoteAccess   = "remote-access"
	StageScreenKeyboard = "screen-keyboard"
)

// Stage describes one package installation stage.
type Stage struct {
	Name string `yaml:"name"`
	// Prompt is the question shown in interactive mode.
	Prompt string `yaml:"prompt"`
	// Packages are installed in order when the stage is confirmed.
	Packages []string `yaml:"packages"`
	// DefaultConfirm is the prompt default in interactive mode. Auto-confirm
	// mode proceeds with every stage regardless.
	DefaultConfirm bool `yaml:"default_confirm"`
	// Required stages abort the run when declined or exhausted.
	Required bool `yaml:"required"`
	// Capability names what the host loses when the stage is skipped.
	Capability string `yaml:"capability"`
	// HardWarning marks stages whose absence leaves the kiosk unable to
	// serve its purpose even though the run continues.
	HardWarning bool `yaml:"hard_warning"`
}

// Config is the full installer manifest.
type Config struct {
	// Account is the service account the kiosk runs as.
	Account string `yaml:"account"`
	// Groups the account must belong to for device access.
	Groups []string `yaml:"groups"`
	// BootConfigPath is the line-oriented boot configuration file.
	BootConfigPath string `yaml:"boot_config_path"`
	// SourceDir is where the project tree is checked out.
	SourceDir string `yaml:"source_dir"`
	// TargetDir is the install root the kiosk runs from.
	TargetDir string `yaml:"target_dir"`
	// AppSubdir is the application directory below TargetDir.
	AppSubdir string `yaml:"app_subdir"`
	// EntryScript is the application entry point inside AppSubdir.
	EntryScript string `yaml:"entry_script"`
	// ToolkitPackage is the system package offering the GUI toolkit.
	ToolkitPackage string `yaml:"toolkit_package"`
	// ToolkitPipName is the toolkit's name in the dependency manifest,
	// filtered out of the venv install when the system package is used.
	ToolkitPipName string `yaml:"toolkit_pip_name"`
	// SettleDelay is how long the session-init script waits for the
	// window manager before starting the application.
	SettleDelay Duration `yaml:"settle_delay"`
	// GPUMemory is the gpu_mem reservation in megabytes.
	GPUMemory int `yaml:"gpu_memory"`
	// IndexAttempts bounds index refresh retries.
	IndexAttempts int `yaml:"index_attempts"`
	// InstallAttempts bounds package install retries.
	InstallAttempts int `yaml:"install_attempts"`
	// RetryDelay is the fixed pause between retry attempts.
	RetryDelay Duration `yaml:"retry_delay"`

	Stages []Stage `yaml:"stages"`
}

// Default returns the compiled-in manifest for a Raspberry-Pi-class host.
func Default() *Config {
	return &Config{
		Account:         "kiosk",
		Groups:          []string{"tty", "video", "input"},
		BootConfigPath:  "/boot/config.txt",
		SourceDir:       ".",
		TargetDir:       "/opt/kinderkuchen",
		AppSubdir:       "apps/week_calendar",
		EntryScript:     "main.py",
		ToolkitPackage:  "python3-kivy",
		ToolkitPipName:  "kivy",
		SettleDelay:     Duration(3 * time.Second),
		GPUMemory:       128,
		IndexAttempts:   3,
		InstallAttempts: 3,
		RetryDelay:      Duration(5 * time.Second),
		Stages: []Stage{
			{
				Name:           StageSystemUpdate,
				Prompt:         "Update system packages first?",
				DefaultConfirm: true,
			},
			{
				Name:           StageDisplayStack,
				Prompt:         "Install the display stack (X server, window manager)?",
				Packages:       []string{"xserver-xorg", "xinit", "x11-xserver-utils", "matchbox-window-manager", "unclutter"},
				DefaultConfirm: true,
				Capability:     "display",
				HardWarning:    true,
			},
			{
				Name:           StagePythonRuntime,
				Prompt:         "Install the Python runtime?",
				Packages:       []string{"python3", "python3-pip", "python3-venv"},
				DefaultConfirm: true,
				Required:       true,
				Capability:     "python",
			},
			{
				Name:           StageGUIToolkit,
				Prompt:         "Install the GUI toolkit?",
				DefaultConfirm: true,
				Capability:     "toolkit",
			},
			{
				Name:           StageBrowser,
				Prompt:         "Install a browser for embedded web content?",
				Packages:       []string{"chromium-browser"},
				DefaultConfirm: true,
				Capability:     "browser",
			},
			{
				Name:           StageRemoteAccess,
				Prompt:         "Install the remote access server (VNC)?",
				Packages:       []string{"x11vnc"},
				DefaultConfirm: false,
				Capability:     "remote-access",
			},
			{
				Name:           StageScreenKeyboard,
				Prompt:         "Install the on-screen keyboard?",
				Packages:       []string{"matchbox-keyboard"},
				DefaultConfirm: true,
				Capability:     "screen-keyboard",
			},
		},
	}
}

// Load reads a YAML manifest and overlays it on the defaults. A missing
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks invariants a manifest override could break.
func (c *Config) Validate() error {
	if c.Account == "" {
		return fmt.Errorf("account must not be empty")
	}
	if c.TargetDir == "" {
		return fmt.Errorf("target_dir must not be empty")
	}
	if c.IndexAttempts < 1 || c.InstallAttempts < 1 {
		return fmt.Errorf("retry attempt budgets must be at least 1")
	}
	seen := make(map[string]bool, len(c.Stages))
	for _, stage := range c.Stages {
		if stage.Name == "" {
			return fmt.Errorf("stage with empty name")
		}
		if seen[stage.Name] {
			return fmt.Errorf("duplicate stage %q", stage.Name)
		}
		seen[stage.Name] = true
	}
	return nil
}

// FindStage returns the stage with the given name, or nil.
func (c *Config) FindStage(name string) *Stage {
	for i := range c.Stages {
		if c.Stages[i].Name == name {
			return &c.Stages[i]
		}
	}
	return nil
}
