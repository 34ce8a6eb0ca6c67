// Package filesystem provides filesystem adapters.
package filesystem

import (
	"os"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// Real implements ports.FileSystem using the OS filesystem.
type Real struct{}

// NewReal creates a new Real filesystem adapter.
func NewReal() *Real {
	return &Real{}
}

// ReadFile reads the named file.
func (f *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to the named file, creating it with perm if needed.
func (f *Real) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	// WriteFile does not change the mode of an existing file; reruns must
	// still converge on perm.
	return os.Chmod(path, perm)
}

// Exists reports whether the path exists.
func (f *Real) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether the path is a directory.
func (f *Real) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MkdirAll creates the directory and any missing parents.
func (f *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes the named file.
func (f *Real) Remove(path string) error {
	return os.Remove(path)
}

// Ensure Real implements ports.FileSystem.
var _ ports.FileSystem = (*Real)(nil)
