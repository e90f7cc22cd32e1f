package rationale

import (
	"fmt"

	"github.com/ppiont/spendsense/internal/model"
)

// DefaultNote is the value-free content note.
const DefaultNote = "This matches your current financial profile."

var defaultTexts = map[model.PersonaType]string{
	model.PersonaHighUtilization: "You've been identified as a High Utilization user because your credit card balances are high relative to your limits. " +
		"Keeping utilization below 30% can support your credit score and reduce interest costs.",
	model.PersonaVariableIncome: "You've been identified as a Variable Income user because your income arrives on an irregular schedule. " +
		"A larger cash buffer and percentage-based budgeting can smooth out the gaps between payments.",
	model.PersonaDebtConsolidator: "You've been identified as a Debt Consolidator because you're carrying balances across several cards. " +
		"Combining them into a single lower-rate payment can reduce interest costs and simplify repayment.",
	model.PersonaSubscriptionHeavy: "You've been identified as a Subscription Heavy user because a noticeable share of your spending goes to recurring services. " +
		"A periodic subscription review can help you keep only the ones you use.",
	model.PersonaSavingsBuilder: "You've been identified as a Savings Builder because you're making consistent progress toward your financial goals. " +
		"Automating your savings and growing your emergency fund can build on that momentum.",
	model.PersonaBalanced: "You've been identified as a Balanced user, which means you're generally maintaining healthy financial habits. " +
		"Continue monitoring your financial wellness and consider setting specific goals.",
}

// DefaultText is the fixed, value-free description for a persona.
func DefaultText(persona model.PersonaType) string {
	if text, ok := defaultTexts[persona]; ok {
		return text
	}
	return defaultTexts[model.PersonaBalanced]
}

// valuesFor extracts the template inputs for persona. Keys are only set when
// the underlying signal is present so templates fail on anything missing.
func valuesFor(persona model.PersonaType, s *model.BehaviorSignals) map[string]any {
	data := map[string]any{}
	if s == nil {
		return data
	}

	switch persona {
	case model.PersonaHighUtilization:
		if c := s.Credit; c != nil {
			data["Utilization"] = c.OverallUtilization
			data["Balance"] = c.TotalBalance
			if c.TotalLimit > 0 {
				data["Limit"] = c.TotalLimit
			}
			data["Interest"] = c.HasFlag(model.FlagInterestCharges)
			data["Overdue"] = c.HasFlag(model.FlagOverdue)
		}

	case model.PersonaVariableIncome:
		if inc := s.Income; inc != nil && inc.MedianGapDays > 0 {
			data["GapDays"] = inc.MedianGapDays
			data["BufferMonths"] = inc.BufferMonths
			if inc.AverageAmount > 0 {
				data["AverageAmount"] = inc.AverageAmount
			}
		}

	case model.PersonaDebtConsolidator:
		if c := s.Credit; c != nil {
			if n := c.CardsWithBalance(); n > 0 {
				data["Cards"] = n
			}
			data["Utilization"] = c.OverallUtilization
			if c.MonthlyInterest > 0 {
				data["Interest"] = c.MonthlyInterest
			}
		}

	case model.PersonaSubscriptionHeavy:
		if sub := s.Subscriptions; sub != nil && sub.Count > 0 {
			data["Count"] = sub.Count
			data["Spend"] = sub.MonthlyRecurringSpend
			data["Share"] = sub.PercentageOfSpending
		}

	case model.PersonaSavingsBuilder:
		if sav := s.Savings; sav != nil {
			data["GrowthRate"] = sav.GrowthRate
			data["Inflow"] = sav.MonthlyInflow
		}
		data["HasCredit"] = s.Credit != nil
		if s.Credit != nil {
			data["Utilization"] = s.Credit.OverallUtilization
		}

	case model.PersonaBalanced:
		data["Insights"] = balancedInsights(s)
	}

	return data
}

func balancedInsights(s *model.BehaviorSignals) []string {
	insights := []string{}
	if c := s.Credit; c != nil && c.OverallUtilization < 30 {
		insights = append(insights, fmt.Sprintf("your credit utilization of %s is in a healthy range", formatPercent(c.OverallUtilization)))
	}
	if inc := s.Income; inc != nil && inc.Stability == model.StabilityStable {
		insights = append(insights, "you have stable, regular income")
	}
	if sav := s.Savings; sav != nil && sav.MonthlyInflow > 0 {
		insights = append(insights, fmt.Sprintf("you're saving consistently with %s monthly inflow", FormatCents(sav.MonthlyInflow)))
	}
	return insights
}
