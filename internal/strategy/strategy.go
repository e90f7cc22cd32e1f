// Package strategy defines the interchangeable content generation strategies.
// Every strategy sits between the same guardrail stages, so swapping one for
// another never changes what reaches the user unchecked.
package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/model"
)

// Strategy names accepted by New.
const (
	NameTemplate = "template"
	NameExternal = "external"
)

// Request carries everything a strategy may use for one user.
type Request struct {
	Catalog    catalog.Reader
	Signals    *model.BehaviorSignals
	Assignment model.PersonaAssignment
	Tags       []string
	Limit      int
	OfferLimit int
}

// Strategy selects education, explains the persona and orders offers.
// RankOffers only ever sees offers that already passed eligibility.
type Strategy interface {
	Name() string
	Education(ctx context.Context, req Request) ([]model.ScoredItem, error)
	Rationale(ctx context.Context, req Request, education []model.ScoredItem) (model.Rationale, error)
	RankOffers(ctx context.Context, req Request, eligible []model.OfferItem) ([]model.ScoredOffer, error)
}

// Config selects and tunes a strategy.
type Config struct {
	Name     string
	Provider Provider
	Resilience
}

// New builds the configured strategy. The external strategy is always wrapped
// so provider failures fall back to the template.
func New(cfg Config, template *Template) (Strategy, error) {
	switch strings.ToLower(cfg.Name) {
	case NameTemplate, "":
		return template, nil
	case NameExternal:
		provider := cfg.Provider
		if provider == nil {
			provider = Unavailable{}
		}
		return NewResilient(NewExternal(provider, template), template, cfg.Resilience), nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %s", cfg.Name)
	}
}
