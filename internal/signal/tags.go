// Package signal derives signal tags from aggregated behavior signals.
package signal

import (
	"fmt"

	"github.com/ppiont/spendsense/internal/model"
)

// Signal tags emitted by Derive.
const (
	TagHighUtilization80     = "high_utilization_80"
	TagHighUtilization50     = "high_utilization_50"
	TagModerateUtilization30 = "moderate_utilization_30"
	TagInterestCharges       = model.FlagInterestCharges
	TagOverdue               = model.FlagOverdue
	TagSubscriptionHeavy     = "subscription_heavy"
	TagVariableIncome        = "variable_income"
	TagStableIncome          = "stable_income"
	TagPositiveSavings       = "positive_savings"
	TagLowEmergencyFund      = "low_emergency_fund"
)

// TierMode controls how multi-tier numeric thresholds are emitted.
type TierMode string

const (
	// TierHighest emits only the highest tier the value reaches.
	TierHighest TierMode = "highest"
	// TierCascade emits every tier at or below the value, highest first.
	TierCascade TierMode = "cascade"
)

// ParseTierMode validates a configured tier mode.
func ParseTierMode(s string) (TierMode, error) {
	switch TierMode(s) {
	case TierHighest, "":
		return TierHighest, nil
	case TierCascade:
		return TierCascade, nil
	default:
		return "", fmt.Errorf("unknown tier mode %q", s)
	}
}

// Thresholds used for tag derivation.
const (
	VariableIncomeGapDays  = 45
	SubscriptionHeavyCount = 3
	LowEmergencyFundMonths = 3.0
)

// utilizationTiers are checked highest first.
var utilizationTiers = []struct {
	tag       string
	threshold float64
}{
	{TagHighUtilization80, 80.0},
	{TagHighUtilization50, 50.0},
	{TagModerateUtilization30, 30.0},
}

// Deriver turns signals into an ordered tag list.
type Deriver struct {
	mode TierMode
}

// NewDeriver creates a Deriver for the given tier mode.
func NewDeriver(mode TierMode) Deriver {
	if mode == "" {
		mode = TierHighest
	}
	return Deriver{mode: mode}
}

// Mode returns the tier mode in use.
func (d Deriver) Mode() TierMode {
	return d.mode
}

// Derive returns active tags in a fixed order: credit utilization, credit flags,
// subscriptions, income, savings. The same signals always produce the same slice.
func (d Deriver) Derive(s *model.BehaviorSignals) []string {
	tags := []string{}
	if s == nil {
		return tags
	}

	if c := s.Credit; c != nil {
		for _, tier := range utilizationTiers {
			if c.OverallUtilization >= tier.threshold {
				tags = append(tags, tier.tag)
				if d.mode != TierCascade {
					break
				}
			}
		}
		if c.HasFlag(model.FlagInterestCharges) {
			tags = append(tags, TagInterestCharges)
		}
		if c.HasFlag(model.FlagOverdue) {
			tags = append(tags, TagOverdue)
		}
	}

	if sub := s.Subscriptions; sub != nil && sub.Count >= SubscriptionHeavyCount {
		tags = append(tags, TagSubscriptionHeavy)
	}

	if inc := s.Income; inc != nil {
		if inc.MedianGapDays > VariableIncomeGapDays {
			tags = append(tags, TagVariableIncome)
		}
		if inc.Stability == model.StabilityStable {
			tags = append(tags, TagStableIncome)
		}
	}

	if sav := s.Savings; sav != nil {
		if sav.MonthlyInflow > 0 {
			tags = append(tags, TagPositiveSavings)
		}
		if sav.EmergencyFundMonths < LowEmergencyFundMonths {
			tags = append(tags, TagLowEmergencyFund)
		}
	}

	return tags
}

// Derive runs the default (highest-tier) derivation.
func Derive(s *model.BehaviorSignals) []string {
	return NewDeriver(TierHighest).Derive(s)
}
