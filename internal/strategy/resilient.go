package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// Resilience tunes how a non-deterministic strategy is guarded.
type Resilience struct {
	Logger      *slog.Logger
	OnFallback  func(op string, err error)
	Retry       common.RetryOptions
	Timeout     time.Duration
	MaxFailures uint32
}

// DefaultResilience returns the standard timeout and breaker settings.
func DefaultResilience() Resilience {
	return Resilience{
		Timeout:     2 * time.Second,
		MaxFailures: 3,
		Retry: common.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     200 * time.Millisecond,
			Multiplier:   2,
		},
	}
}

// Resilient runs a primary strategy under a timeout, retry and circuit
// breaker, and answers from the fallback whenever the primary fails.
type Resilient struct {
	primary    Strategy
	fallback   Strategy
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	onFallback func(op string, err error)
	retry      common.RetryOptions
	timeout    time.Duration
}

// NewResilient wraps primary with fallback.
func NewResilient(primary, fallback Strategy, cfg Resilience) *Resilient {
	def := DefaultResilience()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = def.Retry
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	maxFailures := cfg.MaxFailures
	settings := gobreaker.Settings{
		Name:     "strategy-" + primary.Name(),
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("Strategy breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Resilient{
		primary:    primary,
		fallback:   fallback,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     cfg.Logger,
		onFallback: cfg.OnFallback,
		retry:      cfg.Retry,
		timeout:    cfg.Timeout,
	}
}

// Name implements Strategy.
func (r *Resilient) Name() string { return r.primary.Name() }

// BreakerState reports the breaker state, for diagnostics.
func (r *Resilient) BreakerState() gobreaker.State { return r.breaker.State() }

// Education implements Strategy.
func (r *Resilient) Education(ctx context.Context, req Request) ([]model.ScoredItem, error) {
	return guarded(ctx, r, "education",
		func(ctx context.Context) ([]model.ScoredItem, error) { return r.primary.Education(ctx, req) },
		func(ctx context.Context) ([]model.ScoredItem, error) { return r.fallback.Education(ctx, req) },
	)
}

// Rationale implements Strategy.
func (r *Resilient) Rationale(ctx context.Context, req Request, education []model.ScoredItem) (model.Rationale, error) {
	return guarded(ctx, r, "rationale",
		func(ctx context.Context) (model.Rationale, error) { return r.primary.Rationale(ctx, req, education) },
		func(ctx context.Context) (model.Rationale, error) { return r.fallback.Rationale(ctx, req, education) },
	)
}

// RankOffers implements Strategy.
func (r *Resilient) RankOffers(ctx context.Context, req Request, eligible []model.OfferItem) ([]model.ScoredOffer, error) {
	return guarded(ctx, r, "offers",
		func(ctx context.Context) ([]model.ScoredOffer, error) { return r.primary.RankOffers(ctx, req, eligible) },
		func(ctx context.Context) ([]model.ScoredOffer, error) { return r.fallback.RankOffers(ctx, req, eligible) },
	)
}

type outcome[T any] struct {
	val T
	err error
}

func guarded[T any](ctx context.Context, r *Resilient, op string, primary, fallback func(context.Context) (T, error)) (T, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		var out T
		err := common.WithRetry(callCtx, func() error {
			done := make(chan outcome[T], 1)
			go func() {
				val, err := primary(callCtx)
				done <- outcome[T]{val: val, err: err}
			}()

			select {
			case <-callCtx.Done():
				return callCtx.Err()
			case res := <-done:
				out = res.val
				return res.err
			}
		}, r.retry)
		return out, err
	})
	if err == nil {
		return v.(T), nil
	}

	if ctx.Err() != nil {
		var zero T
		return zero, ctx.Err()
	}

	r.logger.Warn("Strategy failed, using fallback",
		"strategy", r.primary.Name(),
		"fallback", r.fallback.Name(),
		"op", op,
		"error", err)
	if r.onFallback != nil {
		r.onFallback(op, err)
	}
	return fallback(ctx)
}
