package autoboot_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4maggio/Kinderkuchen/internal/adapters/logging"
	"github.com/4maggio/Kinderkuchen/internal/ports"
	"github.com/4maggio/Kinderkuchen/internal/provider/autoboot"
	"github.com/4maggio/Kinderkuchen/internal/testutil/mocks"
)

func params() autoboot.Params {
	return autoboot.Params{
		Account:     "kiosk",
		Home:        "/home/kiosk",
		TargetDir:   "/opt/kinderkuchen",
		AppDir:      "/opt/kinderkuchen/apps/week_calendar",
		EntryScript: "main.py",
		SettleDelay: 3 * time.Second,
	}
}

func apply(t *testing.T, fs *mocks.FileSystem) *mocks.FileSystem {
	t.Helper()

	runner := mocks.NewCommandRunner()
	runner.AddResult("chown", []string{"kiosk:kiosk", "/home/kiosk/.xinitrc"}, ports.CommandResult{})
	runner.AddResult("chown", []string{"kiosk:kiosk", "/home/kiosk/.bash_profile"}, ports.CommandResult{})
	runner.AddResult("chown", []string{"kiosk:kiosk", "/opt/kinderkuchen/start-kiosk.sh"}, ports.CommandResult{})

	configurator := autoboot.NewConfigurator(fs, runner, logging.NewNopLogger())
	require.NoError(t, configurator.Apply(context.Background(), params()))
	return fs
}

func TestApply_ArtifactsOwnedByAccount(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("chown", []string{"kiosk:kiosk", "/home/kiosk/.xinitrc"}, ports.CommandResult{})
	runner.AddResult("chown", []string{"kiosk:kiosk", "/home/kiosk/.bash_profile"}, ports.CommandResult{})
	runner.AddResult("chown", []string{"kiosk:kiosk", "/opt/kinderkuchen/start-kiosk.sh"}, ports.CommandResult{})

	configurator := autoboot.NewConfigurator(mocks.NewFileSystem(), runner, logging.NewNopLogger())
	require.NoError(t, configurator.Apply(context.Background(), params()))

	var chowned []string
	for _, call := range runner.Calls() {
		if call.Command != "chown" {
			continue
		}
		require.Len(t, call.Args, 2)
		assert.Equal(t, "kiosk:kiosk", call.Args[0])
		chowned = append(chowned, call.Args[1])
	}
	assert.ElementsMatch(t, []string{
		"/home/kiosk/.xinitrc",
		"/home/kiosk/.bash_profile",
		"/opt/kinderkuchen/start-kiosk.sh",
	}, chowned, "every generated artifact must end up owned by the account")
}

func TestApply_SessionInitScript(t *testing.T) {
	t.Parallel()

	fs := apply(t, mocks.NewFileSystem())

	script := fs.Content("/home/kiosk/.xinitrc")
	assert.Contains(t, script, "xset s off")
	assert.Contains(t, script, "xset s noblank")
	assert.Contains(t, script, "xset -dpms")
	assert.Contains(t, script, "unclutter")
	assert.Contains(t, script, "matchbox-window-manager")
	assert.Contains(t, script, "sleep 3")
	assert.Contains(t, script, "cd /opt/kinderkuchen/apps/week_calendar")
	assert.Contains(t, script, "exec /opt/kinderkuchen/venv/bin/python main.py")
	assert.Equal(t, 0o755, int(fs.Perm("/home/kiosk/.xinitrc")))

	// Window manager must be up before the app starts.
	wm := strings.Index(script, "matchbox-window-manager")
	settle := strings.Index(script, "sleep 3")
	app := strings.Index(script, "exec ")
	assert.Less(t, wm, settle)
	assert.Less(t, settle, app)
}

func TestApply_UnitDescriptor(t *testing.T) {
	t.Parallel()

	fs := apply(t, mocks.NewFileSystem())

	descriptor := fs.Content(autoboot.UnitPath)
	assert.Contains(t, descriptor, "User=kiosk")
	assert.Contains(t, descriptor, "WorkingDirectory=/opt/kinderkuchen/apps/week_calendar")
	assert.Contains(t, descriptor, "ExecStart=/opt/kinderkuchen/venv/bin/python main.py")
	assert.Contains(t, descriptor, "Restart=on-failure")
	assert.Contains(t, descriptor, "RestartSec=5")
	assert.Contains(t, descriptor, "WantedBy=graphical.target")
}

func TestApply_AutoLoginOverride(t *testing.T) {
	t.Parallel()

	fs := apply(t, mocks.NewFileSystem())

	override := fs.Content(autoboot.AutoLoginDir + "/" + autoboot.AutoLoginFile)
	assert.Contains(t, override, "[Service]")
	assert.Contains(t, override, "--autologin kiosk")
	assert.Contains(t, override, "ExecStart=\n", "ExecStart must be cleared before being redefined")
}

func TestApply_AutoLoginAlreadyCurrentIsSkipped(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	existing := "[Service]\nExecStart=\nExecStart=-/sbin/agetty --autologin kiosk --noclear %I $TERM\n"
	fs.AddFile(autoboot.AutoLoginDir+"/"+autoboot.AutoLoginFile, existing)

	apply(t, fs)

	assert.Equal(t, existing, fs.Content(autoboot.AutoLoginDir+"/"+autoboot.AutoLoginFile),
		"a current override must not be rewritten")
}

func TestApply_ProfileBlockGuardsAndConverges(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile("/home/kiosk/.bash_profile", "# existing profile\n")

	apply(t, fs)
	profile := fs.Content("/home/kiosk/.bash_profile")

	assert.Contains(t, profile, "# existing profile")
	assert.Contains(t, profile, `[ -z "$DISPLAY" ]`)
	assert.Contains(t, profile, `"$(tty)" = "/dev/tty1"`)
	assert.Contains(t, profile, "exec startx")

	apply(t, fs)
	assert.Equal(t, profile, fs.Content("/home/kiosk/.bash_profile"),
		"reinstall must not duplicate the auto-start block")
	assert.Equal(t, 1, strings.Count(fs.Content("/home/kiosk/.bash_profile"), "exec startx"))
}

func TestApply_LaunchScript(t *testing.T) {
	t.Parallel()

	fs := apply(t, mocks.NewFileSystem())

	launcher := fs.Content("/opt/kinderkuchen/start-kiosk.sh")
	assert.True(t, strings.HasPrefix(launcher, "#!/bin/sh\n"))
	assert.Contains(t, launcher, "cd /opt/kinderkuchen/apps/week_calendar")
	assert.Contains(t, launcher, "exec /opt/kinderkuchen/venv/bin/python main.py")
	assert.Equal(t, 0o755, int(fs.Perm("/opt/kinderkuchen/start-kiosk.sh")))
}
