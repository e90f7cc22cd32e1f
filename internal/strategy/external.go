package strategy

import (
	"context"
	"fmt"
	"slices"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// Provider is a content generation backend. No real provider ships with this
// module; Unavailable is the default.
type Provider interface {
	// Explain writes the persona explanation.
	Explain(ctx context.Context, req Request) (string, error)
	// Order returns candidate item ids in preferred order.
	Order(ctx context.Context, req Request, candidates []model.ContentItem) ([]string, error)
}

// Unavailable is the provider stub. Every call fails with ErrProviderUnavailable.
type Unavailable struct{}

// Explain implements Provider.
func (Unavailable) Explain(context.Context, Request) (string, error) {
	return "", common.ErrProviderUnavailable
}

// Order implements Provider.
func (Unavailable) Order(context.Context, Request, []model.ContentItem) ([]string, error) {
	return nil, common.ErrProviderUnavailable
}

// External delegates ordering and explanation to a Provider. Candidates
// still come from the catalog scorer, so a provider can reorder items but
// never introduce new ones.
type External struct {
	provider Provider
	template *Template
}

// NewExternal creates an external strategy backed by provider.
func NewExternal(provider Provider, template *Template) *External {
	return &External{provider: provider, template: template}
}

// Name implements Strategy.
func (e *External) Name() string { return NameExternal }

// Education implements Strategy.
func (e *External) Education(ctx context.Context, req Request) ([]model.ScoredItem, error) {
	candidates := e.template.scorer.ScoreTags(req.Assignment.Type, req.Tags, req.Catalog)
	if len(candidates) == 0 {
		return candidates, nil
	}

	items := make([]model.ContentItem, len(candidates))
	byID := make(map[string]model.ScoredItem, len(candidates))
	for i, c := range candidates {
		items[i] = c.Item
		byID[c.Item.ID] = c
	}

	order, err := e.provider.Order(ctx, req, items)
	if err != nil {
		return nil, fmt.Errorf("provider ordering failed: %w", err)
	}

	out := make([]model.ScoredItem, 0, req.Limit)
	for _, id := range order {
		scored, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: provider returned unknown item %q", common.ErrProviderUnavailable, id)
		}
		delete(byID, id)
		out = append(out, scored)
		if len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

// Rationale implements Strategy. Key signals and notes stay template-derived.
func (e *External) Rationale(ctx context.Context, req Request, education []model.ScoredItem) (model.Rationale, error) {
	text, err := e.provider.Explain(ctx, req)
	if err != nil {
		return model.Rationale{}, fmt.Errorf("provider explanation failed: %w", err)
	}
	if text == "" {
		return model.Rationale{}, fmt.Errorf("%w: empty explanation", common.ErrProviderUnavailable)
	}

	return model.Rationale{
		PersonaType:  req.Assignment.Type,
		Confidence:   req.Assignment.Confidence,
		Explanation:  text,
		KeySignals:   slices.Clone(req.Tags),
		ContentNotes: e.template.generator.ContentNotes(req.Assignment.Type, req.Signals, education),
	}, nil
}

// RankOffers implements Strategy.
func (e *External) RankOffers(ctx context.Context, req Request, eligible []model.OfferItem) ([]model.ScoredOffer, error) {
	return e.template.RankOffers(ctx, req, eligible)
}
