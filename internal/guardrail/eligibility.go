// Package guardrail holds the compliance checks applied to every
// recommendation regardless of the strategy that produced it.
package guardrail

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiont/spendsense/internal/model"
)

// DefaultAPRCap is the highest APR an offer may carry.
const DefaultAPRCap = 36.0

// DefaultBlockedTypes lists predatory offer types that are never shown.
var DefaultBlockedTypes = []string{"payday_loan", "title_loan", "rent_to_own"}

// Eligibility filters partner offers against a user's financial profile.
// All rules combine with AND logic; an unmet rule excludes the offer.
type Eligibility struct {
	BlockedTypes []string
	APRCap       float64
}

// DefaultEligibility returns the standard compliance rules.
func DefaultEligibility() Eligibility {
	return Eligibility{
		APRCap:       DefaultAPRCap,
		BlockedTypes: slices.Clone(DefaultBlockedTypes),
	}
}

// Filter returns the offers the profile qualifies for, in input order.
func (e Eligibility) Filter(offers []model.OfferItem, profile model.FinancialProfile) []model.OfferItem {
	eligible := make([]model.OfferItem, 0, len(offers))
	for _, offer := range offers {
		if e.Eligible(offer, profile) {
			eligible = append(eligible, offer)
		}
	}
	return eligible
}

// Eligible reports whether the profile qualifies for offer.
func (e Eligibility) Eligible(offer model.OfferItem, profile model.FinancialProfile) bool {
	return e.Check(offer, profile) == ""
}

// Check returns the first rule offer fails, or "" when it passes them all.
func (e Eligibility) Check(offer model.OfferItem, profile model.FinancialProfile) string {
	if reason := e.checkGlobal(offer, profile); reason != "" {
		return reason
	}
	return checkRules(offer.Rules, profile)
}

func (e Eligibility) checkGlobal(offer model.OfferItem, profile model.FinancialProfile) string {
	offerType := strings.ToLower(offer.OfferType)
	for _, blocked := range e.BlockedTypes {
		if offerType == strings.ToLower(blocked) {
			return fmt.Sprintf("blocked offer type %s", offer.OfferType)
		}
	}

	if offer.APR > e.APRCap {
		return fmt.Sprintf("apr %.2f above cap %.2f", offer.APR, e.APRCap)
	}

	if offer.MinIncome > 0 && profile.AnnualIncome < offer.MinIncome {
		return "annual income below offer minimum"
	}

	if offer.AccountType != "" && profile.HasAccountSubtype(offer.AccountType) {
		return fmt.Sprintf("already holds a %s account", offer.AccountType)
	}

	return ""
}

// checkRules evaluates per-offer rules. A numeric rule whose signal group is
// absent fails.
func checkRules(r model.EligibilityRules, profile model.FinancialProfile) string {
	s := profile.Signals

	if r.MinCreditUtilization != nil || r.MaxCreditUtilization != nil {
		if s == nil || s.Credit == nil {
			return "credit data required"
		}
		u := s.Credit.OverallUtilization
		if r.MinCreditUtilization != nil && u < *r.MinCreditUtilization {
			return "utilization below minimum"
		}
		if r.MaxCreditUtilization != nil && u > *r.MaxCreditUtilization {
			return "utilization above maximum"
		}
	}

	if r.MinMonthlyIncome != nil && profile.MonthlyIncome < *r.MinMonthlyIncome {
		return "monthly income below minimum"
	}

	for _, required := range r.RequiredAccountTypes {
		if !profile.HasAccountType(required) {
			return fmt.Sprintf("requires a %s account", required)
		}
	}

	for _, excluded := range r.ExcludedAccountSubtypes {
		if profile.HasAccountSubtype(excluded) {
			return fmt.Sprintf("holds excluded %s account", excluded)
		}
	}

	for _, required := range r.RequiredSignals {
		if !profile.HasSignal(required) {
			return fmt.Sprintf("missing signal %s", required)
		}
	}

	for _, excluded := range r.ExcludedSignals {
		if profile.HasSignal(excluded) {
			return fmt.Sprintf("excluded signal %s", excluded)
		}
	}

	if r.MinEmergencyFundMonths != nil || r.MaxEmergencyFundMonths != nil {
		if s == nil || s.Savings == nil {
			return "savings data required"
		}
		months := s.Savings.EmergencyFundMonths
		if r.MinEmergencyFundMonths != nil && months < *r.MinEmergencyFundMonths {
			return "emergency fund below minimum"
		}
		if r.MaxEmergencyFundMonths != nil && months > *r.MaxEmergencyFundMonths {
			return "emergency fund above maximum"
		}
	}

	return ""
}
