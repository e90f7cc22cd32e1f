package model

// Rationale explains why a persona was assigned, anchored to concrete signal values.
type Rationale struct {
	PersonaType  PersonaType       `json:"persona_type"`
	Explanation  string            `json:"explanation"`
	KeySignals   []string          `json:"key_signals"`
	ContentNotes map[string]string `json:"content_notes,omitempty"`
	Confidence   float64           `json:"confidence"`
}

// RecommendationResult is the complete output of one pipeline run.
type RecommendationResult struct {
	UserID        string            `json:"user_id"`
	Strategy      string            `json:"strategy,omitempty"`
	Disclaimer    string            `json:"disclaimer,omitempty"`
	Persona       PersonaAssignment `json:"persona"`
	Rationale     Rationale         `json:"rationale"`
	Education     []ScoredItem      `json:"education"`
	Offers        []ScoredOffer     `json:"offers"`
	WindowDays    int               `json:"window_days"`
	ConsentDenied bool              `json:"consent_denied,omitempty"`
}

// IsEmpty reports whether the result carries no recommendations.
func (r RecommendationResult) IsEmpty() bool {
	return len(r.Education) == 0 && len(r.Offers) == 0 && r.Rationale.Explanation == ""
}

// EmptyResult is the defined result when a user has not granted consent.
func EmptyResult(userID string, windowDays int) RecommendationResult {
	return RecommendationResult{
		UserID:        userID,
		WindowDays:    windowDays,
		Education:     []ScoredItem{},
		Offers:        []ScoredOffer{},
		ConsentDenied: true,
	}
}

// Account is the non-identifying view of a user account used for eligibility.
type Account struct {
	Type    string `json:"type" yaml:"type" validate:"required"`
	Subtype string `json:"subtype" yaml:"subtype"`
}

// FinancialProfile is the per-user data eligibility rules are evaluated against.
// Amounts are in cents.
type FinancialProfile struct {
	Signals       *BehaviorSignals `json:"-"`
	Accounts      []Account        `json:"accounts"`
	SignalTags    []string         `json:"signal_tags"`
	AnnualIncome  int64            `json:"annual_income"`
	MonthlyIncome int64            `json:"monthly_income"`
}

// HasAccountType reports whether the user holds an account of the given type.
func (f FinancialProfile) HasAccountType(accountType string) bool {
	for _, a := range f.Accounts {
		if a.Type == accountType {
			return true
		}
	}
	return false
}

// HasAccountSubtype reports whether the user holds an account of the given subtype.
func (f FinancialProfile) HasAccountSubtype(subtype string) bool {
	for _, a := range f.Accounts {
		if a.Subtype == subtype {
			return true
		}
	}
	return false
}

// HasSignal reports whether tag is among the user's active signal tags.
func (f FinancialProfile) HasSignal(tag string) bool {
	for _, t := range f.SignalTags {
		if t == tag {
			return true
		}
	}
	return false
}
