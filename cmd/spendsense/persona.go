package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiont/spendsense/internal/cli"
)

type personaOptions struct {
	windowDays int
	history    int
}

func personaCmd() *cobra.Command {
	var opts personaOptions

	cmd := &cobra.Command{
		Use:   "persona <user-id>",
		Short: "Show a user's persona and assignment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if !cmd.Flags().Changed("window") {
				opts.windowDays = a.cfg.WindowDays
			}
			return runPersona(cmd.Context(), a, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.windowDays, "window", "w", 0, "signal window in days (default: recommend.window_days)")
	cmd.Flags().IntVar(&opts.history, "history", 5, "number of past assignments to show (0 for none)")

	return cmd
}

func runPersona(ctx context.Context, a *app, w io.Writer, userID string, opts personaOptions) error {
	result, err := a.engine.GenerateRecommendations(ctx, userID, opts.windowDays)
	if err != nil {
		return fmt.Errorf("failed to assign persona for %s: %w", userID, err)
	}

	if result.ConsentDenied {
		_, err = fmt.Fprintln(w, cli.RenderResult(result))
		return err
	}

	fmt.Fprintln(w, cli.RenderAssignment(userID, result.Persona))

	if opts.history <= 0 {
		return nil
	}

	records, err := a.store.Assignments(ctx, userID, opts.history)
	if err != nil {
		return fmt.Errorf("failed to read assignment history: %w", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.BoldStyle.Render("History"))
	if len(records) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("  no recorded assignments"))
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(w, "  %s  %-20s %3.0f%%  %dd  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Persona,
			r.Confidence*100,
			r.WindowDays,
			strings.Join(r.SignalTags, ","))
	}
	return nil
}
