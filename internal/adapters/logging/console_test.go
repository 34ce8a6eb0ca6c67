package logging_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4maggio/Kinderkuchen/internal/adapters/logging"
	"github.com/4maggio/Kinderkuchen/internal/ports"
)

func TestConsoleLogger_TextFormat(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	logger := logging.NewConsoleLogger(logging.WithOutput(&out))

	logger.Info(context.Background(), "stage finished", ports.F("stage", "browser"), ports.F("attempts", 2))

	line := out.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "stage finished")
	assert.Contains(t, line, "stage=browser")
	assert.Contains(t, line, "attempts=2")
}

func TestConsoleLogger_LevelFilter(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	logger := logging.NewConsoleLogger(logging.WithOutput(&out), logging.WithLevel(ports.LevelWarn))

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "hidden")
	logger.Warn(context.Background(), "visible warning")
	logger.Error(context.Background(), "visible error")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "visible warning")
	assert.Contains(t, out.String(), "visible error")
}

func TestConsoleLogger_JSONFormat(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	logger := logging.NewConsoleLogger(logging.WithOutput(&out), logging.WithJSONFormat(true))

	logger.Info(context.Background(), "venv created", ports.F("path", "/opt/kinderkuchen/venv"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out.String()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "venv created", entry["msg"])
	assert.Equal(t, "/opt/kinderkuchen/venv", entry["path"])
	assert.NotEmpty(t, entry["time"])
}

func TestConsoleLogger_WithFields(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	logger := logging.NewConsoleLogger(logging.WithOutput(&out)).With(ports.F("component", "apt"))

	logger.Info(context.Background(), "index refreshed", ports.F("attempts", 1))

	assert.Contains(t, out.String(), "component=apt")
	assert.Contains(t, out.String(), "attempts=1")
}

func TestConsoleLogger_SetLevel(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	logger := logging.NewConsoleLogger(logging.WithOutput(&out))

	logger.Debug(context.Background(), "before")
	logger.SetLevel(ports.LevelDebug)
	logger.Debug(context.Background(), "after")

	assert.NotContains(t, out.String(), "before")
	assert.Contains(t, out.String(), "after")
	assert.Equal(t, ports.LevelDebug, logger.Level())
}
