package install

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Report summarizes one provisioning run.
type Report struct {
	RunID    uuid.UUID
	Mode     RunMode
	Started  time.Time
	Duration time.Duration
	Outcomes []StepOutcome
	Absent   []string
}

// NewReport builds a report from a finished plan.
func NewReport(plan *Plan, started time.Time) *Report {
	return &Report{
		RunID:    uuid.New(),
		Mode:     plan.Mode,
		Started:  started,
		Duration: time.Since(started),
		Outcomes: plan.Outcomes(),
		Absent:   plan.AbsentCapabilities(),
	}
}

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	successStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	skippedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
)

func styleFor(status Status) lipgloss.Style {
	switch status {
	case StatusSuccess:
		return successStyle
	case StatusSkipped:
		return skippedStyle
	case StatusFailed:
		return failedStyle
	}
	return dimStyle
}

// Render writes the human-readable summary.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, reportTitleStyle.Render("Provisioning summary"))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("run %s, mode %s, took %s",
		r.RunID, r.Mode, r.Duration.Round(time.Millisecond))))

	width := 0
	for _, o := range r.Outcomes {
		if len(o.Step) > width {
			width = len(o.Step)
		}
	}

	for _, o := range r.Outcomes {
		line := fmt.Sprintf("  %-*s  %s", width, o.Step, styleFor(o.Status).Render(string(o.Status)))
		if o.Attempts > 1 {
			line += dimStyle.Render(fmt.Sprintf(" (%d attempts)", o.Attempts))
		}
		if o.Err != nil {
			line += dimStyle.Render(" " + o.Err.Error())
		}
		fmt.Fprintln(w, line)
	}

	if len(r.Absent) > 0 {
		fmt.Fprintln(w, skippedStyle.Render(
			"Capabilities absent: "+strings.Join(r.Absent, ", ")))
	}
}
