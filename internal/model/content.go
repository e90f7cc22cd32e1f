package model

import "slices"

// ContentItem is a piece of curated financial education from the catalog.
type ContentItem struct {
	ID          string        `yaml:"id" json:"id" validate:"required"`
	Title       string        `yaml:"title" json:"title" validate:"required"`
	Summary     string        `yaml:"summary" json:"summary" validate:"required"`
	Body        string        `yaml:"body" json:"body" validate:"required"`
	CTA         string        `yaml:"cta" json:"cta" validate:"required"`
	Source      string        `yaml:"source" json:"source" validate:"required"`
	PersonaTags []PersonaType `yaml:"persona_tags" json:"persona_tags"`
	SignalTags  []string      `yaml:"signal_tags" json:"signal_tags"`
}

// HasPersona reports whether the item is tagged for persona p.
func (c ContentItem) HasPersona(p PersonaType) bool {
	return slices.Contains(c.PersonaTags, p)
}

// EligibilityRules are per-offer requirements combined with AND logic.
// Unset pointer fields impose no constraint.
type EligibilityRules struct {
	MinCreditUtilization    *float64 `yaml:"min_credit_utilization,omitempty" json:"min_credit_utilization,omitempty" validate:"omitempty,gte=0,lte=100"`
	MaxCreditUtilization    *float64 `yaml:"max_credit_utilization,omitempty" json:"max_credit_utilization,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinMonthlyIncome        *int64   `yaml:"min_monthly_income,omitempty" json:"min_monthly_income,omitempty" validate:"omitempty,gte=0"`
	MinEmergencyFundMonths  *float64 `yaml:"min_emergency_fund_months,omitempty" json:"min_emergency_fund_months,omitempty" validate:"omitempty,gte=0"`
	MaxEmergencyFundMonths  *float64 `yaml:"max_emergency_fund_months,omitempty" json:"max_emergency_fund_months,omitempty" validate:"omitempty,gte=0"`
	RequiredAccountTypes    []string `yaml:"required_account_types,omitempty" json:"required_account_types,omitempty"`
	ExcludedAccountSubtypes []string `yaml:"excluded_account_subtypes,omitempty" json:"excluded_account_subtypes,omitempty"`
	RequiredSignals         []string `yaml:"required_signals,omitempty" json:"required_signals,omitempty"`
	ExcludedSignals         []string `yaml:"excluded_signals,omitempty" json:"excluded_signals,omitempty"`
}

// OfferItem is a partner product offer from the catalog.
type OfferItem struct {
	ID                     string           `yaml:"id" json:"id" validate:"required"`
	Title                  string           `yaml:"title" json:"title" validate:"required"`
	Provider               string           `yaml:"provider" json:"provider" validate:"required"`
	OfferType              string           `yaml:"offer_type" json:"offer_type" validate:"required"`
	Summary                string           `yaml:"summary" json:"summary" validate:"required"`
	EligibilityExplanation string           `yaml:"eligibility_explanation" json:"eligibility_explanation"`
	CTA                    string           `yaml:"cta" json:"cta" validate:"required"`
	CTAURL                 string           `yaml:"cta_url" json:"cta_url" validate:"omitempty,url"`
	Disclaimer             string           `yaml:"disclaimer" json:"disclaimer"`
	AccountType            string           `yaml:"account_type,omitempty" json:"account_type,omitempty"`
	Benefits               []string         `yaml:"benefits" json:"benefits"`
	PersonaTags            []PersonaType    `yaml:"persona_tags" json:"persona_tags"`
	SignalTags             []string         `yaml:"signal_tags" json:"signal_tags"`
	Rules                  EligibilityRules `yaml:"eligibility_rules" json:"eligibility_rules"`
	APR                    float64          `yaml:"apr,omitempty" json:"apr,omitempty" validate:"gte=0"`
	MinIncome              int64            `yaml:"min_income,omitempty" json:"min_income,omitempty" validate:"gte=0"`
}

// HasPersona reports whether the offer is tagged for persona p.
func (o OfferItem) HasPersona(p PersonaType) bool {
	return slices.Contains(o.PersonaTags, p)
}

// ScoredItem pairs an education item with its relevance for one request.
type ScoredItem struct {
	Item           ContentItem `json:"item"`
	RelevanceScore float64     `json:"relevance_score"`
}

// Rating maps the relevance score onto a 1-5 scale.
func (s ScoredItem) Rating() int {
	return ratingFor(s.RelevanceScore)
}

// ScoredOffer is an offer that passed eligibility, with its relevance.
type ScoredOffer struct {
	Offer          OfferItem `json:"offer"`
	RelevanceScore float64   `json:"relevance_score"`
	EligibilityMet bool      `json:"eligibility_met"`
}

// Rating maps the relevance score onto a 1-5 scale.
func (s ScoredOffer) Rating() int {
	return ratingFor(s.RelevanceScore)
}

func ratingFor(score float64) int {
	switch {
	case score < 0.2:
		return 1
	case score < 0.4:
		return 2
	case score < 0.6:
		return 3
	case score < 0.8:
		return 4
	default:
		return 5
	}
}
