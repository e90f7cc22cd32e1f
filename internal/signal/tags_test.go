package signal

import (
	"testing"

	"github.com/ppiont/spendsense/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriver_Derive(t *testing.T) {
	tests := []struct {
		signals *model.BehaviorSignals
		name    string
		mode    TierMode
		want    []string
	}{
		{
			name:    "nil signals",
			signals: nil,
			mode:    TierHighest,
			want:    []string{},
		},
		{
			name: "utilization 75 with interest emits only 50 tier",
			signals: &model.BehaviorSignals{
				Credit: &model.CreditSignals{OverallUtilization: 75.0, Flags: []string{"interest_charges"}},
			},
			mode: TierHighest,
			want: []string{TagHighUtilization50, TagInterestCharges},
		},
		{
			name: "utilization 75 cascading emits every tier at or below",
			signals: &model.BehaviorSignals{
				Credit: &model.CreditSignals{OverallUtilization: 75.0, Flags: []string{"interest_charges"}},
			},
			mode: TierCascade,
			want: []string{TagHighUtilization50, TagModerateUtilization30, TagInterestCharges},
		},
		{
			name: "utilization exactly 80 cascading",
			signals: &model.BehaviorSignals{
				Credit: &model.CreditSignals{OverallUtilization: 80.0},
			},
			mode: TierCascade,
			want: []string{TagHighUtilization80, TagHighUtilization50, TagModerateUtilization30},
		},
		{
			name: "low utilization emits nothing for credit",
			signals: &model.BehaviorSignals{
				Credit: &model.CreditSignals{OverallUtilization: 12.0},
			},
			mode: TierHighest,
			want: []string{},
		},
		{
			name: "overdue flag",
			signals: &model.BehaviorSignals{
				Credit: &model.CreditSignals{OverallUtilization: 30.0, Flags: []string{"overdue"}},
			},
			mode: TierHighest,
			want: []string{TagModerateUtilization30, TagOverdue},
		},
		{
			name: "subscription count three",
			signals: &model.BehaviorSignals{
				Subscriptions: &model.SubscriptionSignals{Count: 3},
			},
			mode: TierHighest,
			want: []string{TagSubscriptionHeavy},
		},
		{
			name: "income gap boundary is exclusive",
			signals: &model.BehaviorSignals{
				Income: &model.IncomeSignals{MedianGapDays: 45, Stability: model.StabilityStable},
			},
			mode: TierHighest,
			want: []string{TagStableIncome},
		},
		{
			name: "variable income",
			signals: &model.BehaviorSignals{
				Income: &model.IncomeSignals{MedianGapDays: 46, Stability: model.StabilityVariable},
			},
			mode: TierHighest,
			want: []string{TagVariableIncome},
		},
		{
			name: "savings with thin buffer",
			signals: &model.BehaviorSignals{
				Savings: &model.SavingsSignals{MonthlyInflow: 25000, EmergencyFundMonths: 1.5},
			},
			mode: TierHighest,
			want: []string{TagPositiveSavings, TagLowEmergencyFund},
		},
		{
			name: "savings with healthy buffer and no inflow",
			signals: &model.BehaviorSignals{
				Savings: &model.SavingsSignals{EmergencyFundMonths: 4},
			},
			mode: TierHighest,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDeriver(tt.mode).Derive(tt.signals)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriver_Deterministic(t *testing.T) {
	signals := &model.BehaviorSignals{
		Credit:        &model.CreditSignals{OverallUtilization: 91, Flags: []string{"overdue", "interest_charges"}},
		Income:        &model.IncomeSignals{MedianGapDays: 60},
		Savings:       &model.SavingsSignals{MonthlyInflow: 100},
		Subscriptions: &model.SubscriptionSignals{Count: 8},
	}

	first := Derive(signals)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Derive(signals))
	}
	assert.Equal(t, []string{
		TagHighUtilization80, TagInterestCharges, TagOverdue, TagSubscriptionHeavy,
		TagVariableIncome, TagPositiveSavings, TagLowEmergencyFund,
	}, first)
}

func TestParseTierMode(t *testing.T) {
	mode, err := ParseTierMode("")
	require.NoError(t, err)
	assert.Equal(t, TierHighest, mode)

	mode, err = ParseTierMode("cascade")
	require.NoError(t, err)
	assert.Equal(t, TierCascade, mode)

	_, err = ParseTierMode("all")
	assert.Error(t, err)
}
