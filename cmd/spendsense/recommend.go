package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiont/spendsense/internal/cli"
	"github.com/ppiont/spendsense/internal/model"
)

type recommendOptions struct {
	windowDays int
	jsonOutput bool
	noRecord   bool
}

func recommendCmd() *cobra.Command {
	var opts recommendOptions

	cmd := &cobra.Command{
		Use:   "recommend <user-id>",
		Short: "Generate recommendations for one user",
		Long: `Run the full pipeline for a user: consent check, persona assignment,
education selection, rationale, offer eligibility, and disclosure.

Each assignment is appended to the audit log unless --no-record is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if !cmd.Flags().Changed("window") {
				opts.windowDays = a.cfg.WindowDays
			}
			return runRecommend(cmd.Context(), a, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.windowDays, "window", "w", 0, "signal window in days (default: recommend.window_days)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.noRecord, "no-record", false, "do not write the assignment to the audit log")

	return cmd
}

func runRecommend(ctx context.Context, a *app, w io.Writer, userID string, opts recommendOptions) error {
	result, err := a.engine.GenerateRecommendations(ctx, userID, opts.windowDays)
	if err != nil {
		return fmt.Errorf("failed to generate recommendations for %s: %w", userID, err)
	}

	if !opts.noRecord && !result.ConsentDenied {
		runID := uuid.NewString()
		if err := a.store.RecordAssignment(ctx, assignmentRecord(runID, result)); err != nil {
			return fmt.Errorf("failed to record assignment: %w", err)
		}
		a.logger.Info("Recorded persona assignment",
			"run_id", runID,
			"user_id", userID,
			"persona", result.Persona.Type)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	_, err = fmt.Fprintln(w, cli.RenderResult(result))
	return err
}

func assignmentRecord(runID string, res model.RecommendationResult) model.AssignmentRecord {
	return model.AssignmentRecord{
		CreatedAt:  time.Now(),
		RunID:      runID,
		UserID:     res.UserID,
		Persona:    res.Persona.Type,
		Strategy:   res.Strategy,
		SignalTags: res.Persona.TriggeredSignalTags,
		Confidence: res.Persona.Confidence,
		WindowDays: res.WindowDays,
	}
}
