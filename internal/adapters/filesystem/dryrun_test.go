package filesystem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4maggio/Kinderkuchen/internal/adapters/filesystem"
	"github.com/4maggio/Kinderkuchen/internal/adapters/logging"
	"github.com/4maggio/Kinderkuchen/internal/testutil/mocks"
)

func TestDryRun_ReadsPassThrough(t *testing.T) {
	t.Parallel()

	inner := mocks.NewFileSystem()
	inner.AddFile("/boot/config.txt", "gpu_mem=64\n")
	inner.AddDir("/opt/kinderkuchen")

	fs := filesystem.NewDryRun(inner, logging.NewNopLogger())

	data, err := fs.ReadFile("/boot/config.txt")
	require.NoError(t, err)
	assert.Equal(t, "gpu_mem=64\n", string(data))
	assert.True(t, fs.Exists("/boot/config.txt"))
	assert.True(t, fs.IsDir("/opt/kinderkuchen"))

	_, err = fs.ReadFile("/absent")
	assert.Error(t, err)
}

func TestDryRun_MutationsAreSkipped(t *testing.T) {
	t.Parallel()

	inner := mocks.NewFileSystem()
	inner.AddFile("/boot/config.txt", "gpu_mem=64\n")
	before := inner.Snapshot()

	fs := filesystem.NewDryRun(inner, logging.NewNopLogger())

	require.NoError(t, fs.WriteFile("/etc/systemd/system/kinderkuchen.service", []byte("[Unit]\n"), 0o644))
	require.NoError(t, fs.MkdirAll("/etc/systemd/system/getty@tty1.service.d", 0o755))
	require.NoError(t, fs.Remove("/boot/config.txt"))

	assert.Equal(t, before, inner.Snapshot(), "no write may reach the wrapped filesystem")
	assert.False(t, inner.Exists("/etc/systemd/system/kinderkuchen.service"))
	assert.False(t, inner.IsDir("/etc/systemd/system/getty@tty1.service.d"))
	assert.True(t, inner.Exists("/boot/config.txt"))
}
