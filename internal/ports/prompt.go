package ports

// Confirmer is the single decision provider for the pipeline. Interactive
// mode asks the operator; auto-confirm mode answers with the defaults.
// Every yes/no and multiple-choice decision in the installer flows through
// this interface so both modes share one code path.
type Confirmer interface {
	// Confirm asks a yes/no question and returns the answer.
	Confirm(question string, def bool) (bool, error)

	// Choose asks the operator to pick one of options and returns its index.
	Choose(question string, options []string, def int) (int, error)
}
