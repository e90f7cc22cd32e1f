// Package users provides a fluent builder for test user records.
//
// Example usage:
//
//	u := users.New("user_001").
//		WithConsent().
//		WithCredit(75, 340000, 450000, model.FlagInterestCharges).
//		WithAccount("credit", "credit card").
//		Record()
//
//	db := testutil.SetupTestDB(t, u)
package users

import (
	"github.com/ppiont/spendsense/internal/model"
)

// DefaultWindow is the signal window the builder writes to unless told otherwise.
const DefaultWindow = 30

// Builder constructs a model.UserRecord.
type Builder struct {
	signals map[int]*model.BehaviorSignals
	record  model.UserRecord
	windows []int
	window  int
}

// New starts a user with no consent, no accounts, and an empty signal window.
func New(id string) *Builder {
	b := &Builder{
		record:  model.UserRecord{ID: id},
		signals: make(map[int]*model.BehaviorSignals),
	}
	return b.InWindow(DefaultWindow)
}

// InWindow directs subsequent signal calls to windowDays.
func (b *Builder) InWindow(windowDays int) *Builder {
	if _, ok := b.signals[windowDays]; !ok {
		b.signals[windowDays] = &model.BehaviorSignals{}
		b.windows = append(b.windows, windowDays)
	}
	b.window = windowDays
	return b
}

// WithConsent grants consent.
func (b *Builder) WithConsent() *Builder {
	b.record.Consent = true
	return b
}

// WithIncome sets annual and monthly income in cents.
func (b *Builder) WithIncome(annual, monthly int64) *Builder {
	b.record.AnnualIncome = annual
	b.record.MonthlyIncome = monthly
	return b
}

// WithAccount adds an account.
func (b *Builder) WithAccount(accountType, subtype string) *Builder {
	b.record.Accounts = append(b.record.Accounts, model.Account{Type: accountType, Subtype: subtype})
	return b
}

// WithCredit sets the credit group.
func (b *Builder) WithCredit(utilization float64, balance, limit int64, flags ...string) *Builder {
	b.current().Credit = &model.CreditSignals{
		OverallUtilization: utilization,
		TotalBalance:       balance,
		TotalLimit:         limit,
		Flags:              flags,
	}
	return b
}

// WithCards sets per-card balances and the monthly interest on the credit group.
func (b *Builder) WithCards(monthlyInterest int64, balances ...int64) *Builder {
	c := b.current().Credit
	if c == nil {
		c = &model.CreditSignals{}
		b.current().Credit = c
	}
	c.MonthlyInterest = monthlyInterest
	c.Cards = c.Cards[:0]
	for _, bal := range balances {
		c.Cards = append(c.Cards, model.CardSignal{Balance: bal})
	}
	return b
}

// WithPay sets the income group.
func (b *Builder) WithPay(stability model.IncomeStability, frequency string, medianGapDays int, bufferMonths float64, average int64) *Builder {
	b.current().Income = &model.IncomeSignals{
		Stability:     stability,
		Frequency:     frequency,
		MedianGapDays: medianGapDays,
		BufferMonths:  bufferMonths,
		AverageAmount: average,
	}
	return b
}

// WithSavings sets the savings group.
func (b *Builder) WithSavings(growthRate float64, monthlyInflow int64, emergencyMonths float64) *Builder {
	b.current().Savings = &model.SavingsSignals{
		GrowthRate:          growthRate,
		MonthlyInflow:       monthlyInflow,
		EmergencyFundMonths: emergencyMonths,
	}
	return b
}

// WithSubscriptions sets the subscription group.
func (b *Builder) WithSubscriptions(count int, monthlySpend int64, share float64) *Builder {
	b.current().Subscriptions = &model.SubscriptionSignals{
		Count:                 count,
		MonthlyRecurringSpend: monthlySpend,
		PercentageOfSpending:  share,
	}
	return b
}

// Record returns the built record. Windows appear in the order first used.
func (b *Builder) Record() model.UserRecord {
	r := b.record
	r.Accounts = append([]model.Account(nil), b.record.Accounts...)
	r.Windows = make([]model.SignalWindow, 0, len(b.windows))
	for _, w := range b.windows {
		r.Windows = append(r.Windows, model.SignalWindow{WindowDays: w, Signals: *b.signals[w]})
	}
	return r
}

// Signals returns the signals built for windowDays.
func (b *Builder) Signals(windowDays int) *model.BehaviorSignals {
	s, ok := b.signals[windowDays]
	if !ok {
		return nil
	}
	out := *s
	return &out
}

func (b *Builder) current() *model.BehaviorSignals {
	return b.signals[b.window]
}
