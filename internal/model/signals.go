// Package model defines the core data structures for the spendsense pipeline.
package model

// IncomeStability describes how regularly income arrives.
type IncomeStability string

const (
	// StabilityStable represents regular, predictable pay.
	StabilityStable IncomeStability = "stable"
	// StabilityVariable represents irregular pay.
	StabilityVariable IncomeStability = "variable"
	// StabilityUnknown is used when there is not enough income history.
	StabilityUnknown IncomeStability = "unknown"
)

// Credit flags emitted by the upstream aggregator.
const (
	FlagInterestCharges    = "interest_charges"
	FlagOverdue            = "overdue"
	FlagMinimumPaymentOnly = "minimum_payment_only"
)

// BehaviorSignals is an immutable snapshot of aggregated behavior for one user
// over one window. A nil group means the aggregator produced no data for it.
type BehaviorSignals struct {
	Credit        *CreditSignals       `json:"credit,omitempty" yaml:"credit,omitempty"`
	Income        *IncomeSignals       `json:"income,omitempty" yaml:"income,omitempty"`
	Savings       *SavingsSignals      `json:"savings,omitempty" yaml:"savings,omitempty"`
	Subscriptions *SubscriptionSignals `json:"subscriptions,omitempty" yaml:"subscriptions,omitempty"`
}

// CreditSignals summarizes credit card usage. Amounts are in cents.
type CreditSignals struct {
	Flags              []string     `json:"flags,omitempty" yaml:"flags,omitempty"`
	Cards              []CardSignal `json:"cards,omitempty" yaml:"cards,omitempty"`
	OverallUtilization float64      `json:"overall_utilization" yaml:"overall_utilization"`
	TotalBalance       int64        `json:"total_balance" yaml:"total_balance"`
	TotalLimit         int64        `json:"total_limit" yaml:"total_limit"`
	MonthlyInterest    int64        `json:"monthly_interest" yaml:"monthly_interest"`
}

// CardSignal is the per-card breakdown. It deliberately carries no account identifier.
type CardSignal struct {
	Utilization float64 `json:"utilization" yaml:"utilization"`
	Balance     int64   `json:"balance" yaml:"balance"`
	Limit       int64   `json:"limit" yaml:"limit"`
}

// HasFlag reports whether the aggregator raised the given credit flag.
func (c *CreditSignals) HasFlag(flag string) bool {
	if c == nil {
		return false
	}
	for _, f := range c.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// CardsWithBalance counts cards carrying a positive balance.
func (c *CreditSignals) CardsWithBalance() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, card := range c.Cards {
		if card.Balance > 0 {
			n++
		}
	}
	return n
}

// IncomeSignals summarizes pay cadence. Amounts are in cents.
type IncomeSignals struct {
	Stability     IncomeStability `json:"stability" yaml:"stability"`
	Frequency     string          `json:"frequency" yaml:"frequency"`
	MedianGapDays int             `json:"median_gap_days" yaml:"median_gap_days"`
	BufferMonths  float64         `json:"buffer_months" yaml:"buffer_months"`
	AverageAmount int64           `json:"average_amount" yaml:"average_amount"`
}

// SavingsSignals summarizes savings trajectory. Amounts are in cents.
type SavingsSignals struct {
	GrowthRate          float64 `json:"growth_rate" yaml:"growth_rate"`
	MonthlyInflow       int64   `json:"monthly_inflow" yaml:"monthly_inflow"`
	EmergencyFundMonths float64 `json:"emergency_fund_months" yaml:"emergency_fund_months"`
}

// SubscriptionSignals summarizes recurring spend. Amounts are in cents.
type SubscriptionSignals struct {
	Count                 int     `json:"count" yaml:"count"`
	MonthlyRecurringSpend int64   `json:"monthly_recurring_spend" yaml:"monthly_recurring_spend"`
	PercentageOfSpending  float64 `json:"percentage_of_spending" yaml:"percentage_of_spending"`
}

// GroupCount returns how many signal groups carry data.
func (s *BehaviorSignals) GroupCount() int {
	if s == nil {
		return 0
	}
	n := 0
	if s.Credit != nil {
		n++
	}
	if s.Income != nil {
		n++
	}
	if s.Savings != nil {
		n++
	}
	if s.Subscriptions != nil {
		n++
	}
	return n
}

// Utilization returns overall credit utilization, or zero when credit data is absent.
func (s *BehaviorSignals) Utilization() float64 {
	if s == nil || s.Credit == nil {
		return 0
	}
	return s.Credit.OverallUtilization
}
