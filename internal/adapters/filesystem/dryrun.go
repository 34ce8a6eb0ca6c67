package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// DryRun wraps another FileSystem: reads pass through, mutations are
// logged and skipped. Used by the --dry-run mode together with the dry-run
// command runner so the whole pipeline can be walked without touching the
// host.
type DryRun struct {
	inner  ports.FileSystem
	logger ports.Logger
}

// NewDryRun creates a DryRun over the given filesystem.
func NewDryRun(inner ports.FileSystem, logger ports.Logger) *DryRun {
	return &DryRun{
		inner:  inner,
		logger: logger,
	}
}

// ReadFile reads from the wrapped filesystem.
func (f *DryRun) ReadFile(path string) ([]byte, error) {
	return f.inner.ReadFile(path)
}

// WriteFile logs the write and skips it.
func (f *DryRun) WriteFile(path string, data []byte, perm os.FileMode) error {
	f.logger.Info(context.Background(), "dry-run: would write file",
		ports.F("path", path),
		ports.F("bytes", len(data)),
		ports.F("perm", fmt.Sprintf("%#o", perm)))
	return nil
}

// Exists reports from the wrapped filesystem.
func (f *DryRun) Exists(path string) bool {
	return f.inner.Exists(path)
}

// IsDir reports from the wrapped filesystem.
func (f *DryRun) IsDir(path string) bool {
	return f.inner.IsDir(path)
}

// MkdirAll logs the directory creation and skips it.
func (f *DryRun) MkdirAll(path string, perm os.FileMode) error {
	f.logger.Info(context.Background(), "dry-run: would create directory",
		ports.F("path", path))
	return nil
}

// Remove logs the removal and skips it.
func (f *DryRun) Remove(path string) error {
	f.logger.Info(context.Background(), "dry-run: would remove",
		ports.F("path", path))
	return nil
}

var _ ports.FileSystem = (*DryRun)(nil)
