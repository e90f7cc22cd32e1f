package eval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/engine"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/rationale"
	"github.com/ppiont/spendsense/internal/scoring"
	"github.com/ppiont/spendsense/internal/signal"
	"github.com/ppiont/spendsense/internal/strategy"
)

// fakeRecommender serves canned results.
type fakeRecommender struct {
	results map[string]model.RecommendationResult
	errs    map[string]error
	calls   atomic.Int32
}

func (f *fakeRecommender) GenerateRecommendations(_ context.Context, userID string, _ int) (model.RecommendationResult, error) {
	f.calls.Add(1)
	if err, ok := f.errs[userID]; ok {
		return model.RecommendationResult{}, err
	}
	return f.results[userID], nil
}

type fakeSignals map[string]*model.BehaviorSignals

func (f fakeSignals) Signals(_ context.Context, userID string, _ int) (*model.BehaviorSignals, error) {
	s, ok := f[userID]
	if !ok {
		return nil, common.ErrSignalsNotFound
	}
	return s, nil
}

func fullResult(userID string, persona model.PersonaType, score float64) model.RecommendationResult {
	return model.RecommendationResult{
		UserID:     userID,
		Persona:    model.PersonaAssignment{Type: persona, Confidence: 0.8, TriggeredSignalTags: []string{"x"}},
		Rationale:  model.Rationale{Explanation: "text", KeySignals: []string{"x"}},
		Education:  []model.ScoredItem{{Item: model.ContentItem{ID: "e"}, RelevanceScore: score}},
		Offers:     []model.ScoredOffer{},
		Disclaimer: "d",
	}
}

func threeGroups() *model.BehaviorSignals {
	return &model.BehaviorSignals{
		Credit:  &model.CreditSignals{},
		Income:  &model.IncomeSignals{},
		Savings: &model.SavingsSignals{},
	}
}

func TestHarness_Run(t *testing.T) {
	rec := &fakeRecommender{
		results: map[string]model.RecommendationResult{
			"a":      fullResult("a", model.PersonaHighUtilization, 0.7),
			"b":      fullResult("b", model.PersonaHighUtilization, 0.5),
			"c":      fullResult("c", model.PersonaSavingsBuilder, 0.9),
			"denied": model.EmptyResult("denied", 30),
		},
		errs: map[string]error{"broken": errors.New("boom")},
	}
	signals := fakeSignals{"a": threeGroups(), "b": {Credit: &model.CreditSignals{}}, "c": threeGroups()}

	var progress atomic.Int32
	report, err := NewHarness(rec, signals).Run(context.Background(),
		[]string{"a", "b", "c", "denied", "broken"},
		Options{WindowDays: 30, Concurrency: 2, Logger: common.DiscardLogger(), Progress: func() { progress.Add(1) }})
	require.NoError(t, err)

	assert.Equal(t, int32(5), progress.Load())
	assert.Equal(t, 5, report.TotalUsers)
	assert.Equal(t, 3, report.Evaluated)
	assert.Equal(t, 1, report.ConsentDenied)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, []Failure{{UserID: "broken", Error: "boom"}}, report.Failures)

	assert.InDelta(t, 200.0/3, report.Coverage, 1e-9)
	assert.InDelta(t, 100.0, report.Explainability, 1e-9)
	assert.InDelta(t, 100.0, report.Auditability, 1e-9)
	assert.Equal(t, 3, report.Recommendations)
	assert.InDelta(t, 0.7, report.AverageRelevance, 1e-9)
	assert.InDelta(t, 4.0, report.AverageRating, 1e-9)
	assert.Equal(t, map[int]int{3: 1, 4: 1, 5: 1}, report.RatingDistribution)

	assert.Equal(t, map[model.PersonaType]int{
		model.PersonaHighUtilization: 2,
		model.PersonaSavingsBuilder:  1,
	}, report.PersonaDistribution)
	assert.True(t, report.Fairness.Dominated)
	assert.InDelta(t, 200.0/3, report.Fairness.MaxPersonaShare, 1e-9)
	assert.ElementsMatch(t, []model.PersonaType{
		model.PersonaVariableIncome,
		model.PersonaDebtConsolidator,
		model.PersonaSubscriptionHeavy,
	}, report.Fairness.Underrepresented)
}

func TestHarness_InvalidWindow(t *testing.T) {
	_, err := NewHarness(&fakeRecommender{}, nil).Run(context.Background(), []string{"a"}, Options{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestHarness_CanceledContext(t *testing.T) {
	rec := &fakeRecommender{results: map[string]model.RecommendationResult{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHarness(rec, nil).Run(ctx, []string{"a", "b", "c"}, Options{WindowDays: 30, Concurrency: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), rec.calls.Load())
}

func TestHarness_Latency(t *testing.T) {
	rec := &fakeRecommender{results: map[string]model.RecommendationResult{
		"a": fullResult("a", model.PersonaBalanced, 0.5),
		"b": fullResult("b", model.PersonaBalanced, 0.5),
	}}
	h := NewHarness(rec, nil)

	var (
		mu  sync.Mutex
		now = time.Unix(0, 0)
	)
	h.clock = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(10 * time.Millisecond)
		return now
	}

	report, err := h.Run(context.Background(), []string{"a", "b"}, Options{WindowDays: 30, Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, report.Latency.P50)
	assert.Equal(t, 10*time.Millisecond, report.Latency.P95)
	assert.Equal(t, 10*time.Millisecond, report.Latency.Mean)
	assert.Zero(t, report.Coverage)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{10, 20, 30, 40, 50}

	tests := []struct {
		p    float64
		want time.Duration
	}{
		{p: 0, want: 10},
		{p: 50, want: 30},
		{p: 95, want: 48},
		{p: 100, want: 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentile(sorted, tt.p), "p%v", tt.p)
	}
	assert.Equal(t, time.Duration(7), percentile([]time.Duration{7}, 95))
}

func TestFairness(t *testing.T) {
	even := map[model.PersonaType]int{}
	for _, p := range model.AllPersonas {
		even[p] = 2
	}
	f := fairness(even, 12)
	assert.False(t, f.Dominated)
	assert.Empty(t, f.Underrepresented)
	assert.InDelta(t, 1.0, f.NormalizedEntropy, 1e-9)

	empty := fairness(map[model.PersonaType]int{}, 0)
	assert.Len(t, empty.Underrepresented, 5)
	assert.Zero(t, empty.MaxPersonaShare)
}

func TestHarness_WithEngine(t *testing.T) {
	c, err := catalog.LoadDefault()
	require.NoError(t, err)

	deriver := signal.NewDeriver(signal.TierHighest)
	gen, err := rationale.NewGenerator(deriver)
	require.NoError(t, err)
	tmpl := strategy.NewTemplate(scoring.NewScorer(deriver), gen)

	source := engine.NewMockSource(map[string]engine.MockUser{
		"u1": {Consent: true, Signals: &model.BehaviorSignals{
			Credit:  &model.CreditSignals{OverallUtilization: 85, TotalBalance: 85000, TotalLimit: 100000},
			Income:  &model.IncomeSignals{Stability: model.StabilityStable, MedianGapDays: 14, Frequency: "biweekly"},
			Savings: &model.SavingsSignals{EmergencyFundMonths: 1},
		}},
		"u2": {Consent: true, Signals: &model.BehaviorSignals{
			Subscriptions: &model.SubscriptionSignals{Count: 6, MonthlyRecurringSpend: 12000, PercentageOfSpending: 15},
		}},
		"u3": {Consent: false},
	})
	eng := engine.New(source, engine.StaticCatalog{Catalog: c}, tmpl, nil, engine.DefaultConfig(),
		engine.WithLogger(common.DiscardLogger()))

	report, err := NewHarness(eng, source).Run(context.Background(), []string{"u1", "u2", "u3"},
		Options{WindowDays: 30, Logger: common.DiscardLogger()})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Evaluated)
	assert.Equal(t, 1, report.ConsentDenied)
	assert.Zero(t, report.Errors)
	assert.InDelta(t, 50.0, report.Coverage, 1e-9)
	assert.InDelta(t, 100.0, report.Explainability, 1e-9)
	assert.Equal(t, 1, report.PersonaDistribution[model.PersonaHighUtilization])
	assert.Equal(t, 1, report.PersonaDistribution[model.PersonaSubscriptionHeavy])
	assert.Positive(t, report.AverageRelevance)
	assert.LessOrEqual(t, report.AverageRelevance, 1.0)
}
