// Package eval runs the recommendation pipeline over a batch of users and
// summarizes coverage, explainability, relevance, fairness, and latency.
package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// DefaultConcurrency bounds in-flight pipeline runs.
const DefaultConcurrency = 8

// Recommender is the pipeline under evaluation.
type Recommender interface {
	GenerateRecommendations(ctx context.Context, userID string, windowDays int) (model.RecommendationResult, error)
}

// SignalSource reads the signals a user was evaluated on.
type SignalSource interface {
	Signals(ctx context.Context, userID string, windowDays int) (*model.BehaviorSignals, error)
}

// Options configures a batch run.
type Options struct {
	// Progress is called once per finished user. It may be called concurrently.
	Progress    func()
	Logger      *slog.Logger
	WindowDays  int
	Concurrency int
}

// Harness evaluates a Recommender.
type Harness struct {
	recommender Recommender
	signals     SignalSource
	clock       func() time.Time
}

// NewHarness creates a harness.
func NewHarness(recommender Recommender, signals SignalSource) *Harness {
	return &Harness{recommender: recommender, signals: signals, clock: time.Now}
}

// outcome is one user's run. Each goroutine writes only its own slot.
type outcome struct {
	err          error
	result       model.RecommendationResult
	userID       string
	latency      time.Duration
	signalGroups int
}

// Run evaluates every user. Per-user failures are counted in the report;
// only context cancellation aborts the batch.
func (h *Harness) Run(ctx context.Context, userIDs []string, opts Options) (*Report, error) {
	if opts.WindowDays <= 0 {
		return nil, common.InvalidInput("window_days", "must be positive")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	outcomes := make([]outcome, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = h.evaluate(gctx, userID, opts.WindowDays)
			if opts.Progress != nil {
				opts.Progress()
			}
			if errors.Is(outcomes[i].err, context.Canceled) {
				return outcomes[i].err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation aborted: %w", err)
	}

	report := summarize(outcomes)
	logger.Info("Evaluation complete",
		"users", report.TotalUsers,
		"errors", report.Errors,
		"coverage", report.Coverage,
		"explainability", report.Explainability,
		"p95", report.Latency.P95)
	return report, nil
}

func (h *Harness) evaluate(ctx context.Context, userID string, windowDays int) outcome {
	out := outcome{userID: userID}

	start := h.clock()
	result, err := h.recommender.GenerateRecommendations(ctx, userID, windowDays)
	out.latency = h.clock().Sub(start)
	if err != nil {
		out.err = err
		return out
	}
	out.result = result

	if result.ConsentDenied || h.signals == nil {
		return out
	}
	signals, err := h.signals.Signals(ctx, userID, windowDays)
	if err != nil {
		out.err = fmt.Errorf("failed to read signals for coverage: %w", err)
		return out
	}
	out.signalGroups = signals.GroupCount()
	return out
}
