// Package scoring ranks catalog items against a persona and active signal tags.
package scoring

import (
	"slices"
	"sort"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/signal"
)

// Scoring constants, in tenths so sums stay exact.
const (
	baseTenths     = 5
	perTagTenths   = 1
	maxBonusTenths = 5
)

// DefaultLimit is the number of education items selected per request.
const DefaultLimit = 3

// Scorer computes relevance scores. The zero value uses highest-tier tags.
type Scorer struct {
	deriver signal.Deriver
}

// NewScorer creates a scorer deriving tags with d.
func NewScorer(d signal.Deriver) Scorer {
	return Scorer{deriver: d}
}

// Relevance scores one item. Items not tagged for persona are not scored (ok=false).
func Relevance(persona model.PersonaType, personaTags []model.PersonaType, itemTags, activeTags []string) (score float64, ok bool) {
	if !slices.Contains(personaTags, persona) {
		return 0, false
	}

	matches := 0
	seen := make(map[string]bool, len(itemTags))
	for _, tag := range itemTags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		if slices.Contains(activeTags, tag) {
			matches++
		}
	}

	bonus := min(matches*perTagTenths, maxBonusTenths)
	return min(float64(baseTenths+bonus)/10, 1.0), true
}

// Score returns every persona-matching item with its score, in catalog order.
func (s Scorer) Score(persona model.PersonaType, signals *model.BehaviorSignals, reader catalog.Reader) ([]model.ScoredItem, error) {
	if persona == "" {
		return nil, common.InvalidInput("persona_type", "is required")
	}
	if signals == nil {
		return nil, common.InvalidInput("signals", "are required")
	}
	if reader == nil {
		return nil, common.InvalidInput("catalog", "is required")
	}

	return s.ScoreTags(persona, s.deriver.Derive(signals), reader), nil
}

// ScoreTags scores against an already derived tag set.
func (s Scorer) ScoreTags(persona model.PersonaType, tags []string, reader catalog.Reader) []model.ScoredItem {
	items := reader.ItemsForPersona(persona)
	scored := make([]model.ScoredItem, 0, len(items))
	for _, item := range items {
		score, ok := Relevance(persona, item.PersonaTags, item.SignalTags, tags)
		if !ok {
			continue
		}
		scored = append(scored, model.ScoredItem{Item: item, RelevanceScore: score})
	}
	return scored
}

// Select returns the top limit items by score. Ties keep catalog order.
func (s Scorer) Select(persona model.PersonaType, signals *model.BehaviorSignals, reader catalog.Reader, limit int) ([]model.ScoredItem, error) {
	if limit < 1 {
		return nil, common.InvalidInput("limit", "must be at least 1")
	}

	scored, err := s.Score(persona, signals, reader)
	if err != nil {
		return nil, err
	}
	return Top(scored, limit), nil
}

// Top stable-sorts by descending score and truncates to limit.
func Top(scored []model.ScoredItem, limit int) []model.ScoredItem {
	out := slices.Clone(scored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RankOffers scores eligible offers for persona and returns the top limit.
// Offers not tagged for the persona are dropped. Ties keep input order.
func RankOffers(persona model.PersonaType, tags []string, eligible []model.OfferItem, limit int) []model.ScoredOffer {
	ranked := make([]model.ScoredOffer, 0, len(eligible))
	for _, offer := range eligible {
		score, ok := Relevance(persona, offer.PersonaTags, offer.SignalTags, tags)
		if !ok {
			continue
		}
		ranked = append(ranked, model.ScoredOffer{Offer: offer, RelevanceScore: score, EligibilityMet: true})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
