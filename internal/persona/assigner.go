package persona

import (
	"math"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/signal"
)

// Assigner evaluates the rule cascade. It holds no mutable state and is safe
// for concurrent use.
type Assigner struct {
	deriver signal.Deriver
	rules   []Rule
}

// NewAssigner creates an assigner using DefaultRules.
func NewAssigner(deriver signal.Deriver) *Assigner {
	return NewAssignerWithRules(deriver, DefaultRules)
}

// NewAssignerWithRules creates an assigner with a custom cascade, evaluated in slice order.
func NewAssignerWithRules(deriver signal.Deriver, rules []Rule) *Assigner {
	return &Assigner{deriver: deriver, rules: rules}
}

// Assign returns the first persona whose rule fires, or balanced.
func (a *Assigner) Assign(s *model.BehaviorSignals) (model.PersonaAssignment, error) {
	if s == nil {
		return model.PersonaAssignment{}, common.InvalidInput("signals", "are required")
	}

	tags := a.deriver.Derive(s)

	for _, rule := range a.rules {
		if confidence, ok := rule.Evaluate(s); ok {
			return model.PersonaAssignment{
				Type:                rule.Persona,
				Confidence:          round2(math.Min(confidence, 1.0)),
				TriggeredSignalTags: tags,
			}, nil
		}
	}

	return model.PersonaAssignment{
		Type:                model.PersonaBalanced,
		Confidence:          FallbackConfidence,
		TriggeredSignalTags: tags,
	}, nil
}

// round2 trims float noise from repeated additions so outputs compare cleanly.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
