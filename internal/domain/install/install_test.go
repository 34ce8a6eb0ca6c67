package install_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4maggio/Kinderkuchen/internal/domain/install"
)

func TestParseRunMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  install.RunMode
		ok    bool
	}{
		{"interactive", install.ModeInteractive, true},
		{"auto", install.ModeAutoConfirm, true},
		{"abort", install.ModeAborted, true},
		{"yes", "", false},
		{"", "", false},
		{"Interactive", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			mode, err := install.ParseRunMode(tt.input)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.want, mode)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewPlan_Defaults(t *testing.T) {
	t.Parallel()

	plan := install.NewPlan(install.ModeAutoConfirm, "kiosk")

	assert.Equal(t, install.ModeAutoConfirm, plan.Mode)
	assert.Equal(t, "kiosk", plan.Account)
	assert.Equal(t, install.ToolkitIsolatedEnv, plan.ToolkitMode)
	assert.Empty(t, plan.Outcomes())
	assert.False(t, plan.Failed())
}

func TestPlan_RecordKeepsOrder(t *testing.T) {
	t.Parallel()

	plan := install.NewPlan(install.ModeInteractive, "kiosk")
	plan.Record(install.StepOutcome{Step: "first", Status: install.StatusSuccess})
	plan.Record(install.StepOutcome{Step: "second", Status: install.StatusSkipped})
	plan.Record(install.StepOutcome{Step: "third", Status: install.StatusFailed, Err: errors.New("boom")})

	outcomes := plan.Outcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, "first", outcomes[0].Step)
	assert.Equal(t, "second", outcomes[1].Step)
	assert.Equal(t, "third", outcomes[2].Step)
	assert.True(t, plan.Failed())
}

func TestPlan_AbsentCapabilities(t *testing.T) {
	t.Parallel()

	plan := install.NewPlan(install.ModeInteractive, "kiosk")

	assert.True(t, plan.HasCapability("display"))

	plan.MarkAbsent("display")
	plan.MarkAbsent("display")
	plan.MarkAbsent("")
	plan.MarkAbsent("browser")

	assert.False(t, plan.HasCapability("display"))
	assert.False(t, plan.HasCapability("browser"))
	assert.True(t, plan.HasCapability("python"))
	assert.Equal(t, []string{"display", "browser"}, plan.AbsentCapabilities())
}

func TestReport_Render(t *testing.T) {
	t.Parallel()

	plan := install.NewPlan(install.ModeAutoConfirm, "kiosk")
	plan.Record(install.StepOutcome{Step: "service-account", Status: install.StatusSuccess})
	plan.Record(install.StepOutcome{Step: "browser", Status: install.StatusFailed, Attempts: 3, Err: errors.New("mirror unreachable")})
	plan.MarkAbsent("browser")

	report := install.NewReport(plan, time.Now())

	var out strings.Builder
	report.Render(&out)
	rendered := out.String()

	assert.Contains(t, rendered, "Provisioning summary")
	assert.Contains(t, rendered, report.RunID.String())
	assert.Contains(t, rendered, "service-account")
	assert.Contains(t, rendered, "success")
	assert.Contains(t, rendered, "(3 attempts)")
	assert.Contains(t, rendered, "mirror unreachable")
	assert.Contains(t, rendered, "Capabilities absent: browser")
}
