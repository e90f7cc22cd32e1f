package engine

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/guardrail"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/rationale"
	"github.com/ppiont/spendsense/internal/scoring"
	"github.com/ppiont/spendsense/internal/signal"
	"github.com/ppiont/spendsense/internal/strategy"
)

// countingCatalog counts snapshot reads.
type countingCatalog struct {
	catalog *catalog.Catalog
	reads   atomic.Int32
}

func (c *countingCatalog) Snapshot() *catalog.Catalog {
	c.reads.Add(1)
	return c.catalog
}

// countingRecorder tallies recorder calls.
type countingRecorder struct {
	outcomes map[string]int
	tone     map[string]int
	mu       sync.Mutex
	excluded int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[string]int{}, tone: map[string]int{}}
}

func (r *countingRecorder) RecordRequest(outcome, _ string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *countingRecorder) RecordPersona(model.PersonaType) {}

func (r *countingRecorder) RecordToneSubstitution(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tone[field]++
}

func (r *countingRecorder) RecordOffersExcluded(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.excluded += n
}

func highUtilizationSignals() *model.BehaviorSignals {
	return &model.BehaviorSignals{
		Credit: &model.CreditSignals{
			OverallUtilization: 75,
			TotalBalance:       340000,
			TotalLimit:         450000,
			Flags:              []string{"interest_charges"},
		},
		Income: &model.IncomeSignals{Stability: model.StabilityStable, Frequency: "biweekly", MedianGapDays: 14},
	}
}

func testUsers() map[string]MockUser {
	return map[string]MockUser{
		"user-hu": {
			Consent: true,
			Signals: highUtilizationSignals(),
			Profile: model.FinancialProfile{
				Accounts:      []model.Account{{Type: "credit", Subtype: "credit card"}, {Type: "depository", Subtype: "checking"}},
				AnnualIncome:  6000000,
				MonthlyIncome: 500000,
			},
		},
		"user-denied": {
			Consent: false,
			Signals: highUtilizationSignals(),
		},
		"user-subs": {
			Consent: true,
			Signals: &model.BehaviorSignals{Subscriptions: &model.SubscriptionSignals{Count: 3, MonthlyRecurringSpend: 4500}},
		},
		"user-nosignals": {Consent: true},
	}
}

type fixture struct {
	engine   *Engine
	source   *MockSource
	catalog  *countingCatalog
	recorder *countingRecorder
	template *strategy.Template
}

func newTemplate(t *testing.T) *strategy.Template {
	t.Helper()
	deriver := signal.NewDeriver(signal.TierHighest)
	gen, err := rationale.NewGenerator(deriver)
	require.NoError(t, err)
	return strategy.NewTemplate(scoring.NewScorer(deriver), gen)
}

func newFixture(t *testing.T, wrap func(*strategy.Template) strategy.Strategy) fixture {
	t.Helper()
	c, err := catalog.LoadDefault()
	require.NoError(t, err)

	tmpl := newTemplate(t)
	var strat strategy.Strategy = tmpl
	if wrap != nil {
		strat = wrap(tmpl)
	}

	f := fixture{
		source:   NewMockSource(testUsers()),
		catalog:  &countingCatalog{catalog: c},
		recorder: newCountingRecorder(),
		template: tmpl,
	}
	f.engine = New(f.source, f.catalog, strat, nil, DefaultConfig(),
		WithLogger(common.DiscardLogger()),
		WithRecorder(f.recorder))
	return f
}

func TestGenerateRecommendations(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.engine.GenerateRecommendations(context.Background(), "user-hu", 30)
	require.NoError(t, err)

	assert.Equal(t, "user-hu", result.UserID)
	assert.Equal(t, 30, result.WindowDays)
	assert.Equal(t, strategy.NameTemplate, result.Strategy)
	assert.False(t, result.ConsentDenied)

	assert.Equal(t, model.PersonaHighUtilization, result.Persona.Type)
	assert.InDelta(t, 0.85, result.Persona.Confidence, 1e-9)
	assert.Equal(t, []string{signal.TagHighUtilization50, signal.TagInterestCharges, signal.TagStableIncome}, result.Persona.TriggeredSignalTags)

	assert.Equal(t, result.Persona.TriggeredSignalTags, result.Rationale.KeySignals)
	assert.Contains(t, result.Rationale.Explanation, "75.0%")
	assert.Contains(t, result.Rationale.Explanation, "$3,400.00")

	require.NotEmpty(t, result.Education)
	assert.LessOrEqual(t, len(result.Education), 3)
	for _, item := range result.Education {
		assert.True(t, item.Item.HasPersona(model.PersonaHighUtilization))
		assert.Contains(t, result.Rationale.ContentNotes, item.Item.ID)
	}

	ids := make([]string, 0, len(result.Offers))
	for _, o := range result.Offers {
		ids = append(ids, o.Offer.ID)
		assert.True(t, o.EligibilityMet)
	}
	assert.Equal(t, []string{"offer_balance_transfer_01", "offer_consolidation_loan_01"}, ids)

	assert.Equal(t, guardrail.Disclaimer, result.Disclaimer)
	assert.Equal(t, 1, f.recorder.outcomes[OutcomeOK])
	assert.Positive(t, f.recorder.excluded)
}

func TestGenerateRecommendations_OfferEligibilityInvariant(t *testing.T) {
	f := newFixture(t, nil)
	users := testUsers()
	eligibility := guardrail.DefaultEligibility()

	for _, userID := range []string{"user-hu", "user-subs"} {
		result, err := f.engine.GenerateRecommendations(context.Background(), userID, 30)
		require.NoError(t, err)

		profile := users[userID].Profile
		profile.Signals = users[userID].Signals
		profile.SignalTags = result.Persona.TriggeredSignalTags
		for _, o := range result.Offers {
			assert.True(t, o.EligibilityMet)
			assert.Empty(t, eligibility.Check(o.Offer, profile), "offer %s", o.Offer.ID)
		}
	}
}

func TestGenerateRecommendations_ConsentDenied(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.engine.GenerateRecommendations(context.Background(), "user-denied", 30)
	require.NoError(t, err)

	assert.Equal(t, model.EmptyResult("user-denied", 30), result)
	assert.True(t, result.IsEmpty())
	assert.Empty(t, result.Disclaimer)
	assert.Empty(t, result.Rationale.Explanation)
	assert.Equal(t, int32(0), f.catalog.reads.Load(), "no catalog reads without consent")
	assert.Equal(t, 0, f.source.SignalsCalls("user-denied"))
	assert.Equal(t, 1, f.recorder.outcomes[OutcomeConsentDenied])
}

func TestGenerateRecommendations_UnknownUserGetsEmptyResult(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.engine.GenerateRecommendations(context.Background(), "ghost", 30)
	require.NoError(t, err)
	assert.True(t, result.ConsentDenied)
	assert.Equal(t, int32(0), f.catalog.reads.Load())
}

func TestGenerateRecommendations_SubscriptionScenario(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.engine.GenerateRecommendations(context.Background(), "user-subs", 30)
	require.NoError(t, err)
	assert.Equal(t, model.PersonaSubscriptionHeavy, result.Persona.Type)
	assert.Contains(t, result.Persona.TriggeredSignalTags, signal.TagSubscriptionHeavy)
	assert.Equal(t, guardrail.Disclaimer, result.Disclaimer)
}

func TestGenerateRecommendations_InvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.GenerateRecommendations(ctx, "", 30)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.engine.GenerateRecommendations(ctx, "user-hu", 0)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.engine.GenerateRecommendations(ctx, "user-nosignals", 30)
	assert.ErrorIs(t, err, common.ErrSignalsNotFound)
	assert.Equal(t, 1, f.recorder.outcomes[OutcomeError])
}

func TestGenerateRecommendations_Deterministic(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.engine.GenerateRecommendations(ctx, "user-hu", 30)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again, err := f.engine.GenerateRecommendations(ctx, "user-hu", 30)
			if !assert.NoError(t, err) {
				return
			}
			got, err := json.Marshal(again)
			if assert.NoError(t, err) {
				assert.Equal(t, string(want), string(got))
			}
		}()
	}
	wg.Wait()
}

// shamingStrategy returns text the tone screen must catch.
type shamingStrategy struct {
	*strategy.Template
}

func (s shamingStrategy) Rationale(ctx context.Context, req strategy.Request, education []model.ScoredItem) (model.Rationale, error) {
	r, err := s.Template.Rationale(ctx, req, education)
	if err != nil {
		return r, err
	}
	r.Explanation = "You're overspending and making poor choices."
	for id := range r.ContentNotes {
		r.ContentNotes[id] = "Stop wasting money."
	}
	return r, nil
}

func TestGenerateRecommendations_ToneSubstitution(t *testing.T) {
	f := newFixture(t, func(tmpl *strategy.Template) strategy.Strategy { return shamingStrategy{tmpl} })

	result, err := f.engine.GenerateRecommendations(context.Background(), "user-hu", 30)
	require.NoError(t, err)

	assert.Equal(t, rationale.DefaultText(model.PersonaHighUtilization), result.Rationale.Explanation)
	for _, note := range result.Rationale.ContentNotes {
		assert.Equal(t, rationale.DefaultNote, note)
	}
	assert.Equal(t, 1, f.recorder.tone["explanation"])
	assert.Equal(t, len(result.Education), f.recorder.tone["content_note"])
	assert.Equal(t, guardrail.Disclaimer, result.Disclaimer)
}

// leakyStrategy tries to surface offers that never passed eligibility.
type leakyStrategy struct {
	*strategy.Template
	extra model.OfferItem
}

func (s leakyStrategy) RankOffers(_ context.Context, _ strategy.Request, _ []model.OfferItem) ([]model.ScoredOffer, error) {
	return []model.ScoredOffer{{Offer: s.extra, RelevanceScore: 1, EligibilityMet: true}}, nil
}

func TestGenerateRecommendations_GuardrailViolation(t *testing.T) {
	c, err := catalog.LoadDefault()
	require.NoError(t, err)
	payday, ok := c.Offer("offer_quick_cash_01")
	require.True(t, ok)
	transfer, ok := c.Offer("offer_balance_transfer_01")
	require.True(t, ok)
	tampered := transfer
	tampered.APR = 99

	tests := []struct {
		name  string
		offer model.OfferItem
	}{
		{name: "blocked offer", offer: payday},
		{name: "offer outside the catalog", offer: model.OfferItem{ID: "invented", PersonaTags: []model.PersonaType{model.PersonaHighUtilization}}},
		{name: "eligible id with tampered terms", offer: tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(tmpl *strategy.Template) strategy.Strategy {
				return leakyStrategy{Template: tmpl, extra: tt.offer}
			})

			result, err := f.engine.GenerateRecommendations(context.Background(), "user-hu", 30)
			require.ErrorIs(t, err, common.ErrGuardrailViolation)
			assert.Empty(t, result.Offers)
		})
	}
}

// inventingStrategy returns education that is not in the catalog.
type inventingStrategy struct {
	*strategy.Template
}

func (s inventingStrategy) Education(context.Context, strategy.Request) ([]model.ScoredItem, error) {
	return []model.ScoredItem{{Item: model.ContentItem{ID: "invented"}, RelevanceScore: 0.9}}, nil
}

func TestGenerateRecommendations_EducationMustComeFromCatalog(t *testing.T) {
	f := newFixture(t, func(tmpl *strategy.Template) strategy.Strategy { return inventingStrategy{tmpl} })

	_, err := f.engine.GenerateRecommendations(context.Background(), "user-hu", 30)
	assert.ErrorIs(t, err, common.ErrGuardrailViolation)
}

func TestGenerateRecommendations_StrategySubstitution(t *testing.T) {
	templateRun := newFixture(t, nil)
	externalRun := newFixture(t, func(tmpl *strategy.Template) strategy.Strategy {
		s, err := strategy.New(strategy.Config{
			Name: strategy.NameExternal,
			Resilience: strategy.Resilience{
				Logger:  common.DiscardLogger(),
				Timeout: 50 * time.Millisecond,
				Retry:   common.RetryOptions{MaxAttempts: 1, InitialDelay: time.Millisecond},
			},
		}, tmpl)
		require.NoError(t, err)
		return s
	})
	ctx := context.Background()

	for _, userID := range []string{"user-hu", "user-subs", "user-denied"} {
		want, err := templateRun.engine.GenerateRecommendations(ctx, userID, 30)
		require.NoError(t, err)
		got, err := externalRun.engine.GenerateRecommendations(ctx, userID, 30)
		require.NoError(t, err)

		if !want.ConsentDenied {
			assert.Equal(t, strategy.NameExternal, got.Strategy)
			got.Strategy = want.Strategy
		}
		assert.Equal(t, want, got, "user %s", userID)
	}
}
