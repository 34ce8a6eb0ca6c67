package install

// Plan carries the state threaded through the pipeline. All cross-step
// communication happens through explicit fields here; no step reads
// ambient globals or process exit codes.
type Plan struct {
	// Mode is the run mode selected at start.
	Mode RunMode
	// Account is the service account the pipeline provisions.
	Account string
	// ToolkitMode is set by the GUI-toolkit stage and consumed by the
	// materializer. Defaults to ToolkitIsolatedEnv, the path that cannot
	// silently miss the dependency.
	ToolkitMode ToolkitInstallMode

	outcomes []StepOutcome
	absent   []string
}

// NewPlan creates a Plan for the given mode and account.
func NewPlan(mode RunMode, account string) *Plan {
	return &Plan{
		Mode:        mode,
		Account:     account,
		ToolkitMode: ToolkitIsolatedEnv,
	}
}

// Record appends a step outcome.
func (p *Plan) Record(outcome StepOutcome) {
	p.outcomes = append(p.outcomes, outcome)
}

// MarkAbsent records a capability the host will not have.
func (p *Plan) MarkAbsent(capability string) {
	if capability == "" {
		return
	}
	for _, c := range p.absent {
		if c == capability {
			return
		}
	}
	p.absent = append(p.absent, capability)
}

// HasCapability reports whether a capability was not marked absent.
func (p *Plan) HasCapability(capability string) bool {
	for _, c := range p.absent {
		if c == capability {
			return false
		}
	}
	return true
}

// Outcomes returns all recorded step outcomes in order.
func (p *Plan) Outcomes() []StepOutcome {
	return p.outcomes
}

// AbsentCapabilities returns the capabilities skipped or failed stages
// left off the host.
func (p *Plan) AbsentCapabilities() []string {
	return p.absent
}

// Failed reports whether any step failed.
func (p *Plan) Failed() bool {
	for _, o := range p.outcomes {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}
