// Package persona assigns a single behavioral persona from aggregated signals.
package persona

import (
	"math"

	"github.com/ppiont/spendsense/internal/model"
)

// Rule is one step of the assignment cascade. Evaluate returns the confidence
// and whether the rule fired.
type Rule struct {
	Evaluate func(s *model.BehaviorSignals) (float64, bool)
	Persona  model.PersonaType
}

// FallbackConfidence is the confidence reported for the balanced persona.
const FallbackConfidence = 0.60

// DefaultRules is the cascade in priority order, most urgent first.
var DefaultRules = []Rule{
	{Persona: model.PersonaHighUtilization, Evaluate: highUtilization},
	{Persona: model.PersonaVariableIncome, Evaluate: variableIncome},
	{Persona: model.PersonaDebtConsolidator, Evaluate: debtConsolidator},
	{Persona: model.PersonaSubscriptionHeavy, Evaluate: subscriptionHeavy},
	{Persona: model.PersonaSavingsBuilder, Evaluate: savingsBuilder},
}

// highUtilization fires at 50% utilization or on any credit warning flag.
func highUtilization(s *model.BehaviorSignals) (float64, bool) {
	c := s.Credit
	if c == nil {
		return 0, false
	}

	var confidence float64
	switch u := c.OverallUtilization; {
	case u >= 90:
		confidence = 0.90
	case u >= 80:
		confidence = 0.85
	case u >= 70:
		confidence = 0.80
	case u >= 50:
		confidence = 0.70
	}

	const ceiling = 0.98
	if c.HasFlag(model.FlagOverdue) {
		confidence = math.Min(confidence+0.10, ceiling)
	}
	if c.HasFlag(model.FlagInterestCharges) {
		confidence = math.Min(confidence+0.05, ceiling)
	}
	if c.HasFlag(model.FlagMinimumPaymentOnly) {
		confidence = math.Min(confidence+0.05, ceiling)
	}

	if confidence == 0 {
		return 0, false
	}
	return math.Max(confidence, 0.65), true
}

// variableIncome fires when pay gaps exceed 45 days and the buffer is under a month.
func variableIncome(s *model.BehaviorSignals) (float64, bool) {
	inc := s.Income
	if inc == nil || inc.MedianGapDays <= 45 || inc.BufferMonths >= 1.0 {
		return 0, false
	}

	var confidence float64
	switch gap := inc.MedianGapDays; {
	case gap >= 90:
		confidence = 0.90
	case gap >= 60:
		confidence = 0.85
	default:
		confidence = 0.75
	}

	const ceiling = 0.95
	switch {
	case inc.BufferMonths < 0.25:
		confidence = math.Min(confidence+0.10, ceiling)
	case inc.BufferMonths < 0.5:
		confidence = math.Min(confidence+0.05, ceiling)
	}

	return confidence, true
}

// debtConsolidator fires for several carried balances at moderate utilization
// with interest, no overdue payments and a known pay frequency.
func debtConsolidator(s *model.BehaviorSignals) (float64, bool) {
	c, inc := s.Credit, s.Income
	if c == nil || inc == nil {
		return 0, false
	}

	u := c.OverallUtilization
	cards := c.CardsWithBalance()
	if u < 30 || u >= 70 || cards < 2 || c.MonthlyInterest <= 0 || c.HasFlag(model.FlagOverdue) {
		return 0, false
	}
	if inc.Frequency == "" || inc.Frequency == "unknown" {
		return 0, false
	}

	var confidence float64
	switch {
	case u >= 60:
		confidence = 0.88
	case u >= 50:
		confidence = 0.85
	default:
		confidence = 0.75
	}

	const ceiling = 0.92
	switch {
	case cards >= 4:
		confidence = math.Min(confidence+0.05, ceiling)
	case cards >= 3:
		confidence = math.Min(confidence+0.03, ceiling)
	}
	switch {
	case c.MonthlyInterest >= 20000:
		confidence = math.Min(confidence+0.05, ceiling)
	case c.MonthlyInterest >= 10000:
		confidence = math.Min(confidence+0.03, ceiling)
	}

	return confidence, true
}

// subscriptionHeavy fires at three or more subscriptions. Spend level moves
// confidence but does not gate the rule.
func subscriptionHeavy(s *model.BehaviorSignals) (float64, bool) {
	sub := s.Subscriptions
	if sub == nil || sub.Count < 3 {
		return 0, false
	}

	var confidence float64
	switch {
	case sub.Count >= 7:
		confidence = 0.85
	case sub.Count >= 5:
		confidence = 0.80
	default:
		confidence = 0.70
	}

	const ceiling = 0.90
	switch {
	case sub.MonthlyRecurringSpend >= 20000:
		confidence = math.Min(confidence+0.08, ceiling)
	case sub.MonthlyRecurringSpend >= 10000:
		confidence = math.Min(confidence+0.05, ceiling)
	case sub.MonthlyRecurringSpend < 5000 && sub.PercentageOfSpending < 10:
		confidence = math.Max(confidence-0.05, 0.65)
	}
	if sub.PercentageOfSpending >= 20 {
		confidence = math.Min(confidence+0.05, ceiling)
	}

	return confidence, true
}

// savingsBuilder fires on 2% growth or $200/month inflow while utilization stays under 30%.
func savingsBuilder(s *model.BehaviorSignals) (float64, bool) {
	sav := s.Savings
	if sav == nil {
		return 0, false
	}
	if sav.GrowthRate < 2.0 && sav.MonthlyInflow < 20000 {
		return 0, false
	}
	if s.Utilization() >= 30 {
		return 0, false
	}

	var confidence float64
	switch g := sav.GrowthRate; {
	case g >= 5:
		confidence = 0.85
	case g >= 3:
		confidence = 0.80
	case g >= 2:
		confidence = 0.75
	default:
		confidence = 0.70
	}

	const ceiling = 0.88
	switch {
	case sav.MonthlyInflow >= 50000:
		confidence = math.Min(confidence+0.05, ceiling)
	case sav.MonthlyInflow >= 30000:
		confidence = math.Min(confidence+0.03, ceiling)
	}
	if s.Utilization() >= 20 {
		confidence = math.Max(confidence-0.05, 0.65)
	}

	return confidence, true
}
