// Package bootconfig rewrites key=value directives in the line-oriented
// boot configuration file.
package bootconfig

import (
	"context"
	"strings"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// Editor applies directives to one boot configuration file. Every mutation
// is a delete-then-append upsert, so reapplying the same directive is a
// no-op in effect and reruns converge.
type Editor struct {
	path   string
	fs     ports.FileSystem
	logger ports.Logger
}

// NewEditor creates an Editor for the file at path.
func NewEditor(path string, fs ports.FileSystem, logger ports.Logger) *Editor {
	return &Editor{
		path:   path,
		fs:     fs,
		logger: logger,
	}
}

// Path returns the file the editor operates on.
func (e *Editor) Path() string {
	return e.path
}

// Apply upserts key=value: every live line for key is removed, then the
// new line is appended. Commented lines are left alone.
func (e *Editor) Apply(ctx context.Context, key, value string) error {
	return e.rewrite(ctx, key+"=", key+"="+value)
}

// Remove deletes every live line for key without appending a replacement.
// Used for directives whose desired state is "absent", not a sentinel
// default value.
func (e *Editor) Remove(ctx context.Context, key string) error {
	return e.rewrite(ctx, key+"=", "")
}

// ReplacePrefix removes every live line starting with prefix and appends
// line. Used for directive families where variants supersede each other,
// like the vc4 video overlay selectors.
func (e *Editor) ReplacePrefix(ctx context.Context, prefix, line string) error {
	return e.rewrite(ctx, prefix, line)
}

// rewrite strips live lines matching prefix and appends replacement when
// non-empty. A missing target file is a warning, not a failure: the host
// simply has no boot configuration to edit (e.g. non-Pi test hosts).
func (e *Editor) rewrite(ctx context.Context, prefix, replacement string) error {
	data, err := e.fs.ReadFile(e.path)
	if err != nil {
		if !e.fs.Exists(e.path) {
			e.logger.Warn(ctx, "boot config file missing, directive skipped",
				ports.F("path", e.path),
				ports.F("directive", strings.TrimSuffix(prefix, "=")))
			return nil
		}
		return err
	}

	content := string(data)
	var lines []string
	if content != "" {
		lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}

	kept := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") && strings.HasPrefix(trimmed, prefix) {
			continue
		}
		kept = append(kept, line)
	}

	if replacement != "" {
		kept = append(kept, replacement)
	}

	out := strings.Join(kept, "\n") + "\n"
	return e.fs.WriteFile(e.path, []byte(out), 0o644)
}
