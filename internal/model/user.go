package model

import "time"

// UserRecord is one user as imported into the profile store.
// Amounts are in cents.
type UserRecord struct {
	ID            string         `yaml:"id" json:"id" validate:"required"`
	Accounts      []Account      `yaml:"accounts" json:"accounts" validate:"dive"`
	Windows       []SignalWindow `yaml:"signals" json:"signals" validate:"dive"`
	AnnualIncome  int64          `yaml:"annual_income" json:"annual_income" validate:"gte=0"`
	MonthlyIncome int64          `yaml:"monthly_income" json:"monthly_income" validate:"gte=0"`
	Consent       bool           `yaml:"consent" json:"consent"`
}

// SignalWindow is the aggregated signal snapshot for one window length.
type SignalWindow struct {
	Signals    BehaviorSignals `yaml:",inline" json:"signals"`
	WindowDays int             `yaml:"window_days" json:"window_days" validate:"gt=0"`
}

// Profile returns the eligibility view of the record.
func (u UserRecord) Profile() FinancialProfile {
	return FinancialProfile{
		Accounts:      u.Accounts,
		AnnualIncome:  u.AnnualIncome,
		MonthlyIncome: u.MonthlyIncome,
	}
}

// AssignmentRecord is one persona assignment in the audit log.
type AssignmentRecord struct {
	CreatedAt  time.Time   `json:"created_at"`
	RunID      string      `json:"run_id"`
	UserID     string      `json:"user_id"`
	Persona    PersonaType `json:"persona"`
	Strategy   string      `json:"strategy"`
	SignalTags []string    `json:"signal_tags"`
	Confidence float64     `json:"confidence"`
	WindowDays int         `json:"window_days"`
}
