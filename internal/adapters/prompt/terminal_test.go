package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4maggio/Kinderkuchen/internal/adapters/prompt"
)

func TestTerminalConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"yes word", "yes\n", false, true},
		{"no", "n\n", true, false},
		{"uppercase", "Y\n", false, true},
		{"empty takes default true", "\n", true, true},
		{"empty takes default false", "\n", false, false},
		{"garbage then answer", "maybe\ny\n", false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out strings.Builder
			term := prompt.NewTerminal(strings.NewReader(tt.input), &out)

			got, err := term.Confirm("Install the display stack?", tt.def)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Install the display stack?")
		})
	}
}

func TestTerminalConfirm_DefaultHint(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	term := prompt.NewTerminal(strings.NewReader("\n"), &out)
	_, err := term.Confirm("Proceed?", true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Y/n]")

	out.Reset()
	term = prompt.NewTerminal(strings.NewReader("\n"), &out)
	_, err = term.Confirm("Proceed?", false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[y/N]")
}

func TestTerminalConfirm_ClosedInput(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	term := prompt.NewTerminal(strings.NewReader(""), &out)

	_, err := term.Confirm("Proceed?", true)

	assert.Error(t, err)
}

func TestTerminalChoose(t *testing.T) {
	t.Parallel()

	options := []string{"system package", "isolated environment"}

	tests := []struct {
		name  string
		input string
		def   int
		want  int
	}{
		{"first option", "1\n", 1, 0},
		{"second option", "2\n", 0, 1},
		{"empty takes default", "\n", 1, 1},
		{"out of range then valid", "7\n2\n", 0, 1},
		{"not a number then valid", "x\n1\n", 0, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out strings.Builder
			term := prompt.NewTerminal(strings.NewReader(tt.input), &out)

			got, err := term.Choose("GUI toolkit installation strategy", options, tt.def)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "1) system package")
			assert.Contains(t, out.String(), "2) isolated environment")
		})
	}
}

func TestAuto_ConfirmsSilently(t *testing.T) {
	t.Parallel()

	auto := prompt.NewAuto()

	ok, err := auto.Confirm("anything", true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auto.Confirm("anything", false)
	require.NoError(t, err)
	assert.True(t, ok, "auto mode proceeds even where the interactive default is no")

	choice, err := auto.Choose("anything", []string{"a", "b"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, choice)
}
