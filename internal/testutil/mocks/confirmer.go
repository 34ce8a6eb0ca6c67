package mocks

import (
	"sync"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// Confirmer is a scripted test double for ports.Confirmer. Answers are
// keyed by question; unscripted questions return the default, like an
// operator accepting every suggested answer.
type Confirmer struct {
	mu      sync.Mutex
	answers map[string]bool
	choices map[string]int
	asked   []string
}

// NewConfirmer creates a new Confirmer mock.
func NewConfirmer() *Confirmer {
	return &Confirmer{
		answers: make(map[string]bool),
		choices: make(map[string]int),
	}
}

// ScriptAnswer sets the answer for a yes/no question.
func (c *Confirmer) ScriptAnswer(question string, answer bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers[question] = answer
}

// ScriptChoice sets the chosen index for a multiple-choice question.
func (c *Confirmer) ScriptChoice(question string, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.choices[question] = index
}

// Confirm returns the scripted answer, or the default when unscripted.
func (c *Confirmer) Confirm(question string, def bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, question)
	if answer, ok := c.answers[question]; ok {
		return answer, nil
	}
	return def, nil
}

// Choose returns the scripted choice, or the default when unscripted.
func (c *Confirmer) Choose(question string, _ []string, def int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, question)
	if idx, ok := c.choices[question]; ok {
		return idx, nil
	}
	return def, nil
}

// Asked returns every question asked, in order.
func (c *Confirmer) Asked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	asked := make([]string, len(c.asked))
	copy(asked, c.asked)
	return asked
}

var _ ports.Confirmer = (*Confirmer)(nil)
