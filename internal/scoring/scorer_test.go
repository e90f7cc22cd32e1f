package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/signal"
)

// fakeReader serves a fixed item list, filtering by persona like the real catalog.
type fakeReader struct {
	items  []model.ContentItem
	offers []model.OfferItem
}

func (f fakeReader) ItemsForPersona(p model.PersonaType) []model.ContentItem {
	var out []model.ContentItem
	for _, item := range f.items {
		if item.HasPersona(p) {
			out = append(out, item)
		}
	}
	return out
}

func (f fakeReader) Offers() []model.OfferItem { return f.offers }

var _ catalog.Reader = fakeReader{}

func item(id string, personas []model.PersonaType, tags ...string) model.ContentItem {
	return model.ContentItem{ID: id, Title: id, PersonaTags: personas, SignalTags: tags}
}

func hu() []model.PersonaType { return []model.PersonaType{model.PersonaHighUtilization} }

func TestRelevance(t *testing.T) {
	tests := []struct {
		name       string
		persona    model.PersonaType
		personas   []model.PersonaType
		itemTags   []string
		active     []string
		wantScore  float64
		wantScored bool
	}{
		{
			name:       "persona mismatch is never scored",
			persona:    model.PersonaBalanced,
			personas:   hu(),
			itemTags:   []string{"interest_charges"},
			active:     []string{"interest_charges"},
			wantScored: false,
		},
		{
			name:       "persona match with no tags",
			persona:    model.PersonaHighUtilization,
			personas:   hu(),
			wantScore:  0.5,
			wantScored: true,
		},
		{
			name:       "one matching tag",
			persona:    model.PersonaHighUtilization,
			personas:   hu(),
			itemTags:   []string{"high_utilization_80", "interest_charges"},
			active:     []string{"high_utilization_50", "interest_charges"},
			wantScore:  0.6,
			wantScored: true,
		},
		{
			name:       "bonus capped at 0.5",
			persona:    model.PersonaHighUtilization,
			personas:   hu(),
			itemTags:   []string{"a", "b", "c", "d", "e", "f", "g"},
			active:     []string{"a", "b", "c", "d", "e", "f", "g"},
			wantScore:  1.0,
			wantScored: true,
		},
		{
			name:       "duplicate item tags count once",
			persona:    model.PersonaHighUtilization,
			personas:   hu(),
			itemTags:   []string{"overdue", "overdue"},
			active:     []string{"overdue"},
			wantScore:  0.6,
			wantScored: true,
		},
		{
			name:       "three matches",
			persona:    model.PersonaHighUtilization,
			personas:   hu(),
			itemTags:   []string{"a", "b", "c"},
			active:     []string{"c", "b", "a"},
			wantScore:  0.8,
			wantScored: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := Relevance(tt.persona, tt.personas, tt.itemTags, tt.active)
			assert.Equal(t, tt.wantScored, ok)
			if tt.wantScored {
				assert.InDelta(t, tt.wantScore, score, 1e-12)
			}
		})
	}
}

func TestScorer_ConcreteScenario(t *testing.T) {
	reader := fakeReader{items: []model.ContentItem{
		item("target", hu(), "high_utilization_80", "interest_charges"),
	}}
	signals := &model.BehaviorSignals{
		Credit: &model.CreditSignals{OverallUtilization: 75.0, Flags: []string{"interest_charges"}},
	}

	scored, err := NewScorer(signal.NewDeriver(signal.TierHighest)).Score(model.PersonaHighUtilization, signals, reader)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.InDelta(t, 0.6, scored[0].RelevanceScore, 1e-12)
	assert.Equal(t, 4, scored[0].Rating())
}

func TestScorer_ExcludesPersonaMismatch(t *testing.T) {
	reader := fakeReader{items: []model.ContentItem{
		item("match", hu()),
		item("other", []model.PersonaType{model.PersonaSavingsBuilder}, "interest_charges"),
	}}

	scored, err := NewScorer(signal.Deriver{}).Score(model.PersonaHighUtilization, &model.BehaviorSignals{}, reader)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "match", scored[0].Item.ID)
}

func TestScorer_SelectStableTies(t *testing.T) {
	reader := fakeReader{items: []model.ContentItem{
		item("first", hu()),
		item("second", hu(), "interest_charges"),
		item("third", hu()),
		item("fourth", hu()),
	}}
	signals := &model.BehaviorSignals{
		Credit: &model.CreditSignals{OverallUtilization: 10, Flags: []string{"interest_charges"}},
	}

	got, err := NewScorer(signal.Deriver{}).Select(model.PersonaHighUtilization, signals, reader, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "second", got[0].Item.ID)
	assert.Equal(t, "first", got[1].Item.ID)
	assert.Equal(t, "third", got[2].Item.ID)
}

func TestScorer_BoundsAndDeterminism(t *testing.T) {
	c, err := catalog.LoadDefault()
	require.NoError(t, err)

	signals := &model.BehaviorSignals{
		Credit:        &model.CreditSignals{OverallUtilization: 88, Flags: []string{"interest_charges", "overdue"}},
		Income:        &model.IncomeSignals{MedianGapDays: 50, Stability: model.StabilityVariable},
		Savings:       &model.SavingsSignals{MonthlyInflow: 5000, EmergencyFundMonths: 0.5},
		Subscriptions: &model.SubscriptionSignals{Count: 5},
	}
	scorer := NewScorer(signal.NewDeriver(signal.TierCascade))

	for _, p := range model.AllPersonas {
		first, err := scorer.Score(p, signals, c)
		require.NoError(t, err)
		for _, s := range first {
			assert.GreaterOrEqual(t, s.RelevanceScore, 0.5)
			assert.LessOrEqual(t, s.RelevanceScore, 1.0)
			assert.True(t, s.Item.HasPersona(p))
		}

		for i := 0; i < 20; i++ {
			again, err := scorer.Score(p, signals, c)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestScorer_InvalidInput(t *testing.T) {
	scorer := NewScorer(signal.Deriver{})
	reader := fakeReader{}

	_, err := scorer.Score("", &model.BehaviorSignals{}, reader)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = scorer.Score(model.PersonaBalanced, nil, reader)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = scorer.Select(model.PersonaBalanced, &model.BehaviorSignals{}, reader, 0)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRankOffers(t *testing.T) {
	offers := []model.OfferItem{
		{ID: "plain", PersonaTags: hu()},
		{ID: "other-persona", PersonaTags: []model.PersonaType{model.PersonaBalanced}, SignalTags: []string{"overdue"}},
		{ID: "tagged", PersonaTags: hu(), SignalTags: []string{"overdue"}},
		{ID: "plain-2", PersonaTags: hu()},
	}

	got := RankOffers(model.PersonaHighUtilization, []string{"overdue"}, offers, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "tagged", got[0].Offer.ID)
	assert.Equal(t, "plain", got[1].Offer.ID)
	for _, o := range got {
		assert.True(t, o.EligibilityMet)
	}
}
