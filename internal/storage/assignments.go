package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// RecordAssignment appends one persona assignment to the audit log.
func (s *SQLiteStorage) RecordAssignment(ctx context.Context, r model.AssignmentRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAssignment(r); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Strategy == "" {
		r.Strategy = "template"
	}
	if r.SignalTags == nil {
		r.SignalTags = []string{}
	}

	tags, err := json.Marshal(r.SignalTags)
	if err != nil {
		return fmt.Errorf("failed to encode signal tags: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireUser(ctx, tx, r.UserID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO persona_assignments
				(run_id, user_id, window_days, persona, confidence, signal_tags, strategy, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, r.UserID, r.WindowDays, string(r.Persona), r.Confidence, string(tags), r.Strategy, r.CreatedAt.UTC())
		if isConstraint(err) {
			return fmt.Errorf("%w: run %s", common.ErrDuplicateEntry, r.RunID)
		}
		if err != nil {
			return fmt.Errorf("failed to record assignment: %w", err)
		}
		return nil
	})
}

// Assignments returns the audit log for userID, newest first. A limit of
// zero or less returns everything.
func (s *SQLiteStorage) Assignments(ctx context.Context, userID string, limit int) ([]model.AssignmentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, user_id, window_days, persona, confidence, signal_tags, strategy, created_at
		FROM persona_assignments
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.AssignmentRecord
	for rows.Next() {
		var (
			r       model.AssignmentRecord
			persona string
			tags    string
		)
		if err := rows.Scan(&r.RunID, &r.UserID, &r.WindowDays, &persona, &r.Confidence, &tags, &r.Strategy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		r.Persona = model.PersonaType(persona)
		if err := json.Unmarshal([]byte(tags), &r.SignalTags); err != nil {
			return nil, fmt.Errorf("failed to decode signal tags for run %s: %w", r.RunID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// PersonaCounts returns how many audit rows exist per persona.
func (s *SQLiteStorage) PersonaCounts(ctx context.Context) (map[model.PersonaType]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT persona, COUNT(*) FROM persona_assignments GROUP BY persona`)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.PersonaType]int)
	for rows.Next() {
		var (
			persona string
			n       int
		)
		if err := rows.Scan(&persona, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[model.PersonaType(persona)] = n
	}
	return counts, rows.Err()
}

func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
