// Package display writes the rotation, video overlay, and audio
// directives into the boot configuration.
package display

import (
	"context"
	"strconv"

	"github.com/4maggio/Kinderkuchen/internal/ports"
	"github.com/4maggio/Kinderkuchen/internal/provider/bootconfig"
)

// Boot configuration keys the configurator owns.
const (
	// KeyPanelRotate rotates the panel output.
	KeyPanelRotate = "display_rotate"
	// KeyTouchRotate rotates the DSI touchscreen, touch input included.
	// Always written together with KeyPanelRotate so the two never drift.
	KeyTouchRotate = "lcd_rotate"
	// KeyAudio is the audio enable flag.
	KeyAudio = "dtparam=audio"
	// KeyGPUMemory is the GPU memory reservation in megabytes.
	KeyGPUMemory = "gpu_mem"
	// OverlayPrefix matches every vc4 video overlay variant; only one may
	// be live at a time.
	OverlayPrefix = "dtoverlay=vc4-"
)

// Overlay variants offered to the operator.
var overlays = []string{"vc4-kms-v3d", "vc4-fkms-v3d"}

// Rotation choices, index == directive value.
var rotations = []string{"normal (no rotation)", "90°", "180°", "270°"}

// Configurator collects display choices and applies them as directives.
type Configurator struct {
	editor  *bootconfig.Editor
	confirm ports.Confirmer
	logger  ports.Logger
	gpuMem  int
}

// NewConfigurator creates a Configurator writing through the given editor.
func NewConfigurator(editor *bootconfig.Editor, confirm ports.Confirmer, logger ports.Logger, gpuMem int) *Configurator {
	return &Configurator{
		editor:  editor,
		confirm: confirm,
		logger:  logger,
		gpuMem:  gpuMem,
	}
}

// Apply asks for the rotation and overlay choices and writes all display
// directives. Safe to call on every run: each directive is an upsert.
func (c *Configurator) Apply(ctx context.Context) error {
	rotation, err := c.confirm.Choose("Screen rotation", rotations, 0)
	if err != nil {
		return err
	}
	if err := c.applyRotation(ctx, rotation); err != nil {
		return err
	}

	overlay, err := c.confirm.Choose("Video driver overlay", overlays, 0)
	if err != nil {
		return err
	}
	if err := c.editor.ReplacePrefix(ctx, OverlayPrefix, "dtoverlay="+overlays[overlay]); err != nil {
		return err
	}

	if err := c.editor.Apply(ctx, KeyAudio, "on"); err != nil {
		return err
	}

	return c.editor.Apply(ctx, KeyGPUMemory, strconv.Itoa(c.gpuMem))
}

// applyRotation writes panel and touch rotation as a pair. The default
// orientation removes both keys instead of writing a sentinel zero.
func (c *Configurator) applyRotation(ctx context.Context, rotation int) error {
	if rotation == 0 {
		if err := c.editor.Remove(ctx, KeyPanelRotate); err != nil {
			return err
		}
		return c.editor.Remove(ctx, KeyTouchRotate)
	}

	value := strconv.Itoa(rotation)
	if err := c.editor.Apply(ctx, KeyPanelRotate, value); err != nil {
		return err
	}
	return c.editor.Apply(ctx, KeyTouchRotate, value)
}
