package model

import "fmt"

// PersonaType is the fixed vocabulary of behavioral personas.
type PersonaType string

// Persona types in assignment priority order.
const (
	PersonaHighUtilization   PersonaType = "high_utilization"
	PersonaVariableIncome    PersonaType = "variable_income"
	PersonaDebtConsolidator  PersonaType = "debt_consolidator"
	PersonaSubscriptionHeavy PersonaType = "subscription_heavy"
	PersonaSavingsBuilder    PersonaType = "savings_builder"
	PersonaBalanced          PersonaType = "balanced"
)

// AllPersonas lists every persona, most urgent first.
var AllPersonas = []PersonaType{
	PersonaHighUtilization,
	PersonaVariableIncome,
	PersonaDebtConsolidator,
	PersonaSubscriptionHeavy,
	PersonaSavingsBuilder,
	PersonaBalanced,
}

// Valid reports whether p belongs to the closed persona set.
func (p PersonaType) Valid() bool {
	for _, known := range AllPersonas {
		if p == known {
			return true
		}
	}
	return false
}

// DisplayName returns the human-facing persona label.
func (p PersonaType) DisplayName() string {
	switch p {
	case PersonaHighUtilization:
		return "High Utilization"
	case PersonaVariableIncome:
		return "Variable Income"
	case PersonaDebtConsolidator:
		return "Debt Consolidator"
	case PersonaSubscriptionHeavy:
		return "Subscription Heavy"
	case PersonaSavingsBuilder:
		return "Savings Builder"
	case PersonaBalanced:
		return "Balanced"
	default:
		return string(p)
	}
}

// ParsePersona converts a string into a PersonaType.
func ParsePersona(s string) (PersonaType, error) {
	p := PersonaType(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown persona %q", s)
	}
	return p, nil
}

// PersonaAssignment is the result of running the persona rule cascade.
type PersonaAssignment struct {
	Type                PersonaType `json:"persona_type"`
	TriggeredSignalTags []string    `json:"triggered_signal_tags"`
	Confidence          float64     `json:"confidence"`
}
