package users

import "github.com/ppiont/spendsense/internal/model"

// Fixture returns a consenting user whose 30-day signals land on persona.
func Fixture(id string, persona model.PersonaType) *Builder {
	b := New(id).WithConsent()
	switch persona {
	case model.PersonaHighUtilization:
		return b.WithIncome(6000000, 500000).
			WithAccount("credit", "credit card").
			WithAccount("depository", "checking").
			WithCredit(75, 340000, 450000, model.FlagInterestCharges).
			WithPay(model.StabilityStable, "biweekly", 14, 2, 250000)
	case model.PersonaVariableIncome:
		return b.WithIncome(2500000, 210000).
			WithAccount("depository", "checking").
			WithPay(model.StabilityVariable, "irregular", 60, 0.4, 210000).
			WithSavings(0, 0, 0.4)
	case model.PersonaDebtConsolidator:
		return b.WithIncome(5500000, 460000).
			WithAccount("credit", "credit card").
			WithAccount("depository", "checking").
			WithCredit(45, 450000, 1000000).
			WithCards(12550, 200000, 150000, 100000).
			WithPay(model.StabilityStable, "monthly", 30, 1.5, 460000)
	case model.PersonaSubscriptionHeavy:
		return b.WithIncome(4800000, 400000).
			WithAccount("depository", "checking").
			WithSubscriptions(5, 12000, 18).
			WithPay(model.StabilityStable, "biweekly", 14, 1.2, 200000)
	case model.PersonaSavingsBuilder:
		return b.WithIncome(7000000, 580000).
			WithAccount("depository", "checking").
			WithAccount("credit", "credit card").
			WithCredit(12, 60000, 500000).
			WithSavings(3.2, 40000, 4).
			WithPay(model.StabilityStable, "biweekly", 14, 4, 290000)
	default:
		return b.WithIncome(6500000, 540000).
			WithAccount("depository", "checking").
			WithCredit(10, 50000, 500000).
			WithSavings(0.5, 5000, 6).
			WithPay(model.StabilityStable, "biweekly", 14, 3, 270000)
	}
}

// OnePerPersona returns one consenting user per persona, ids "user_<persona>".
func OnePerPersona() []model.UserRecord {
	records := make([]model.UserRecord, 0, len(model.AllPersonas))
	for _, p := range model.AllPersonas {
		records = append(records, Fixture("user_"+string(p), p).Record())
	}
	return records
}
