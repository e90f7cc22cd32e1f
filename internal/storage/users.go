package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// SaveUser inserts or replaces a user with its accounts and signal snapshots.
// Snapshots for windows not in the record are left untouched.
func (s *SQLiteStorage) SaveUser(ctx context.Context, u model.UserRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateUser(u); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveUserTx(ctx, tx, u)
	})
}

// SaveUsers writes a batch of users atomically.
func (s *SQLiteStorage) SaveUsers(ctx context.Context, users []model.UserRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	seen := make(map[string]bool, len(users))
	for i, u := range users {
		if err := ValidateUser(u); err != nil {
			return fmt.Errorf("user at index %d: %w", i, err)
		}
		if seen[u.ID] {
			return fmt.Errorf("user at index %d: %w: %s", i, common.ErrDuplicateEntry, u.ID)
		}
		seen[u.ID] = true
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, u := range users {
			if err := s.saveUserTx(ctx, tx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) saveUserTx(ctx context.Context, q queryable, u model.UserRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, consent, annual_income, monthly_income)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			consent = excluded.consent,
			annual_income = excluded.annual_income,
			monthly_income = excluded.monthly_income,
			updated_at = CURRENT_TIMESTAMP
	`, u.ID, u.Consent, u.AnnualIncome, u.MonthlyIncome)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", u.ID, err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, u.ID); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}
	for _, a := range u.Accounts {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO accounts (user_id, type, subtype) VALUES (?, ?, ?)`,
			u.ID, a.Type, a.Subtype); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
	}

	for _, w := range u.Windows {
		if err := s.saveSignalsTx(ctx, q, u.ID, w.WindowDays, &w.Signals); err != nil {
			return err
		}
	}
	return nil
}

// SaveSignals stores the signal snapshot for one user and window.
func (s *SQLiteStorage) SaveSignals(ctx context.Context, userID string, windowDays int, signals *model.BehaviorSignals) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateWindow(windowDays); err != nil {
		return err
	}
	if signals == nil {
		return common.InvalidInput("signals", "are required")
	}
	if err := s.requireUser(ctx, s.db, userID); err != nil {
		return err
	}
	return s.saveSignalsTx(ctx, s.db, userID, windowDays, signals)
}

func (s *SQLiteStorage) saveSignalsTx(ctx context.Context, q queryable, userID string, windowDays int, signals *model.BehaviorSignals) error {
	data, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("failed to encode signals: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO signal_snapshots (user_id, window_days, signals)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, window_days) DO UPDATE SET
			signals = excluded.signals,
			updated_at = CURRENT_TIMESTAMP
	`, userID, windowDays, string(data))
	if err != nil {
		return fmt.Errorf("failed to save signals for %s/%d: %w", userID, windowDays, err)
	}
	return nil
}

// SetConsent records whether a user has granted consent.
func (s *SQLiteStorage) SetConsent(ctx context.Context, userID string, granted bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET consent = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		granted, userID)
	if err != nil {
		return fmt.Errorf("failed to update consent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check consent update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	return nil
}

// Consent reports whether userID has granted consent.
func (s *SQLiteStorage) Consent(ctx context.Context, userID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return false, err
	}

	var granted bool
	err := s.db.QueryRowContext(ctx, `SELECT consent FROM users WHERE id = ?`, userID).Scan(&granted)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read consent: %w", err)
	}
	return granted, nil
}

// Signals returns the stored snapshot for userID and windowDays.
func (s *SQLiteStorage) Signals(ctx context.Context, userID string, windowDays int) (*model.BehaviorSignals, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateWindow(windowDays); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT signals FROM signal_snapshots WHERE user_id = ? AND window_days = ?`,
		userID, windowDays).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		if userErr := s.requireUser(ctx, s.db, userID); userErr != nil {
			return nil, userErr
		}
		return nil, fmt.Errorf("%w: %s/%d days", common.ErrSignalsNotFound, userID, windowDays)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read signals: %w", err)
	}

	var signals model.BehaviorSignals
	if err := json.Unmarshal([]byte(data), &signals); err != nil {
		return nil, fmt.Errorf("failed to decode signals for %s/%d: %w", userID, windowDays, err)
	}
	return &signals, nil
}

// Profile returns the eligibility profile for userID. Signals and tags are
// left for the caller to fill.
func (s *SQLiteStorage) Profile(ctx context.Context, userID string) (model.FinancialProfile, error) {
	if err := validateContext(ctx); err != nil {
		return model.FinancialProfile{}, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return model.FinancialProfile{}, err
	}

	var profile model.FinancialProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT annual_income, monthly_income FROM users WHERE id = ?`, userID).
		Scan(&profile.AnnualIncome, &profile.MonthlyIncome)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FinancialProfile{}, fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	if err != nil {
		return model.FinancialProfile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, subtype FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return model.FinancialProfile{}, fmt.Errorf("failed to read accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	profile.Accounts = []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Type, &a.Subtype); err != nil {
			return model.FinancialProfile{}, fmt.Errorf("failed to scan account: %w", err)
		}
		profile.Accounts = append(profile.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return model.FinancialProfile{}, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return profile, nil
}

// ListUsers returns every user id in ascending order.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteUser removes a user and everything stored for them.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	return nil
}

func (s *SQLiteStorage) requireUser(ctx context.Context, q queryable, userID string) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return nil
}
