package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ppiont/spendsense/internal/cli"
	"github.com/ppiont/spendsense/internal/eval"
)

type evalOptions struct {
	metricsFile string
	reportFile  string
	windowDays  int
	concurrency int
	jsonOutput  bool
	quiet       bool
}

func evalCmd() *cobra.Command {
	var opts evalOptions

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the pipeline over every imported user",
		Long: `Run recommendations for every user and report coverage, explainability,
relevance, persona distribution, fairness, and latency.

Nothing is written to the audit log. Send SIGHUP to reload the catalog
during a run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if !cmd.Flags().Changed("window") {
				opts.windowDays = a.cfg.WindowDays
			}
			if !cmd.Flags().Changed("concurrency") {
				opts.concurrency = a.cfg.Concurrency
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Evaluation")
			defer handler.Stop()

			stopReload := a.watchReload(ctx)
			defer stopReload()

			return runEval(ctx, a, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.windowDays, "window", "w", 0, "signal window in days (default: recommend.window_days)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "users evaluated in parallel (default: eval.concurrency)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	cmd.Flags().StringVar(&opts.reportFile, "report", "", "write the JSON report to this path")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}

func runEval(ctx context.Context, a *app, out, progressOut io.Writer, opts evalOptions) error {
	userIDs, err := a.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(userIDs) == 0 {
		_, err = fmt.Fprintln(out, cli.FormatWarning("No users to evaluate. Import some with 'spendsense users import'."))
		return err
	}

	var progress func()
	if !opts.quiet {
		bar := newProgressBar(progressOut, len(userIDs))
		defer func() { _ = bar.Finish() }()
		progress = func() { _ = bar.Add(1) }
	}

	harness := eval.NewHarness(a.engine, a.store)
	report, err := harness.Run(ctx, userIDs, eval.Options{
		Progress:    progress,
		Logger:      a.logger,
		WindowDays:  opts.windowDays,
		Concurrency: opts.concurrency,
	})
	if err != nil {
		return err
	}

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, a.registry); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
		a.logger.Info("Wrote metrics", "path", opts.metricsFile)
	}

	if opts.reportFile != "" {
		if err := writeReport(opts.reportFile, report); err != nil {
			return err
		}
		a.logger.Info("Wrote report", "path", opts.reportFile)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, err = fmt.Fprintln(out, cli.RenderReport(report))
	return err
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Evaluating users...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func writeReport(path string, report *eval.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// watchReload reloads the catalog on SIGHUP until ctx ends or the returned
// stop func is called.
func (a *app) watchReload(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				if err := a.reloadCatalog(); err != nil {
					a.logger.Warn("Catalog reload failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}
