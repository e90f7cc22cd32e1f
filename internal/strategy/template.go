package strategy

import (
	"context"
	"slices"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/rationale"
	"github.com/ppiont/spendsense/internal/scoring"
)

// Template is the deterministic strategy: tag-based scoring and fixed
// explanation templates.
type Template struct {
	generator *rationale.Generator
	scorer    scoring.Scorer
}

// NewTemplate creates the template strategy.
func NewTemplate(scorer scoring.Scorer, generator *rationale.Generator) *Template {
	return &Template{scorer: scorer, generator: generator}
}

// Name implements Strategy.
func (t *Template) Name() string { return NameTemplate }

// Education implements Strategy.
func (t *Template) Education(_ context.Context, req Request) ([]model.ScoredItem, error) {
	if req.Catalog == nil {
		return nil, common.InvalidInput("catalog", "is required")
	}
	if req.Limit < 1 {
		return nil, common.InvalidInput("limit", "must be at least 1")
	}

	scored := t.scorer.ScoreTags(req.Assignment.Type, req.Tags, req.Catalog)
	return scoring.Top(scored, req.Limit), nil
}

// Rationale implements Strategy.
func (t *Template) Rationale(_ context.Context, req Request, education []model.ScoredItem) (model.Rationale, error) {
	r, err := t.generator.Generate(req.Assignment.Type, req.Assignment.Confidence, req.Signals)
	if err != nil {
		return model.Rationale{}, err
	}
	r.KeySignals = slices.Clone(req.Tags)
	r.ContentNotes = t.generator.ContentNotes(req.Assignment.Type, req.Signals, education)
	return r, nil
}

// RankOffers implements Strategy.
func (t *Template) RankOffers(_ context.Context, req Request, eligible []model.OfferItem) ([]model.ScoredOffer, error) {
	return scoring.RankOffers(req.Assignment.Type, req.Tags, eligible, req.OfferLimit), nil
}
