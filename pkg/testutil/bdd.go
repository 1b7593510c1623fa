package testutil

import (
	"strings"
	"testing"
)

// Scenario runs Given/When/Then steps in order inside one test and names the
// failing step in the output. Steps share state through closures.
type Scenario struct {
	t     *testing.T
	steps []string
}

func NewScenario(t *testing.T) *Scenario {
	return &Scenario{t: t}
}

func (s *Scenario) Given(desc string, fn func()) *Scenario { return s.step("Given", desc, fn) }
func (s *Scenario) When(desc string, fn func()) *Scenario  { return s.step("When", desc, fn) }
func (s *Scenario) Then(desc string, fn func()) *Scenario  { return s.step("Then", desc, fn) }
func (s *Scenario) And(desc string, fn func()) *Scenario   { return s.step("And", desc, fn) }

func (s *Scenario) step(keyword, desc string, fn func()) *Scenario {
	s.t.Helper()
	if s.t.Failed() {
		return s
	}
	s.steps = append(s.steps, keyword+" "+desc)
	fn()
	if s.t.Failed() {
		s.t.Logf("scenario failed at:\n  %s", strings.Join(s.steps, "\n  "))
	}
	return s
}
