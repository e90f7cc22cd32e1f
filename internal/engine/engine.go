// Package engine implements the recommendation pipeline: consent, persona
// assignment, content selection, rationale, and the compliance guardrails.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/guardrail"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/persona"
	"github.com/ppiont/spendsense/internal/rationale"
	"github.com/ppiont/spendsense/internal/signal"
	"github.com/ppiont/spendsense/internal/strategy"
)

// Request outcomes reported to the Recorder.
const (
	OutcomeOK            = "ok"
	OutcomeConsentDenied = "consent_denied"
	OutcomeError         = "error"
)

// Config holds pipeline settings.
type Config struct {
	Eligibility guardrail.Eligibility
	TierMode    signal.TierMode
	Limit       int
	OfferLimit  int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Limit:       3,
		OfferLimit:  3,
		TierMode:    signal.TierHighest,
		Eligibility: guardrail.DefaultEligibility(),
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// Engine orchestrates one recommendation request. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	source      ProfileSource
	catalogs    CatalogSource
	strategy    strategy.Strategy
	tone        *guardrail.ToneScreen
	assigner    *persona.Assigner
	logger      *slog.Logger
	recorder    Recorder
	eligibility guardrail.Eligibility
	limit       int
	offerLimit  int
}

// New creates an engine. The strategy is fixed for the engine's lifetime.
func New(source ProfileSource, catalogs CatalogSource, strat strategy.Strategy, tone *guardrail.ToneScreen, cfg Config, opts ...Option) *Engine {
	if tone == nil {
		// Default patterns always compile.
		tone, _ = guardrail.NewToneScreen(nil)
	}
	e := &Engine{
		source:      source,
		catalogs:    catalogs,
		strategy:    strat,
		tone:        tone,
		assigner:    persona.NewAssigner(signal.NewDeriver(cfg.TierMode)),
		eligibility: cfg.Eligibility,
		limit:       cfg.Limit,
		offerLimit:  cfg.OfferLimit,
		logger:      slog.Default(),
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StrategyName reports the configured strategy.
func (e *Engine) StrategyName() string { return e.strategy.Name() }

// GenerateRecommendations runs the full pipeline for one user and window.
// A user without consent gets model.EmptyResult and no catalog access.
func (e *Engine) GenerateRecommendations(ctx context.Context, userID string, windowDays int) (model.RecommendationResult, error) {
	if userID == "" {
		return model.RecommendationResult{}, common.InvalidInput("user_id", "is required")
	}
	if windowDays <= 0 {
		return model.RecommendationResult{}, common.InvalidInput("window_days", "must be positive")
	}

	start := time.Now()
	logger := e.logger.With("run_id", uuid.NewString(), "user_id", userID, "window_days", windowDays)

	result, outcome, err := e.generate(ctx, logger, userID, windowDays)
	e.recorder.RecordRequest(outcome, e.strategy.Name(), time.Since(start))
	if err != nil {
		logger.Error("Recommendation failed", "error", err)
		return model.RecommendationResult{}, err
	}
	return result, nil
}

func (e *Engine) generate(ctx context.Context, logger *slog.Logger, userID string, windowDays int) (model.RecommendationResult, string, error) {
	granted, err := guardrail.CheckConsent(ctx, e.source, userID)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, err
	}
	if !granted {
		logger.Info("Consent not granted, returning empty result")
		return model.EmptyResult(userID, windowDays), OutcomeConsentDenied, nil
	}

	signals, err := e.source.Signals(ctx, userID, windowDays)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, fmt.Errorf("failed to load signals: %w", err)
	}

	assignment, err := e.assigner.Assign(signals)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, err
	}
	e.recorder.RecordPersona(assignment.Type)
	logger.Debug("Persona assigned",
		"persona", assignment.Type,
		"confidence", assignment.Confidence,
		"signal_tags", assignment.TriggeredSignalTags)

	snapshot := e.catalogs.Snapshot()
	req := strategy.Request{
		Catalog:    snapshot,
		Signals:    signals,
		Assignment: assignment,
		Tags:       assignment.TriggeredSignalTags,
		Limit:      e.limit,
		OfferLimit: e.offerLimit,
	}

	education, err := e.strategy.Education(ctx, req)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, fmt.Errorf("failed to select education: %w", err)
	}
	if err := verifyEducation(education, req); err != nil {
		return model.RecommendationResult{}, OutcomeError, err
	}

	why, err := e.strategy.Rationale(ctx, req, education)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, fmt.Errorf("failed to generate rationale: %w", err)
	}
	why = e.screenRationale(logger, why, assignment)

	profile, err := e.source.Profile(ctx, userID)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, fmt.Errorf("failed to load financial profile: %w", err)
	}
	profile.Signals = signals
	profile.SignalTags = assignment.TriggeredSignalTags

	all := snapshot.Offers()
	eligible := e.eligibility.Filter(all, profile)
	if excluded := len(all) - len(eligible); excluded > 0 {
		e.recorder.RecordOffersExcluded(excluded)
		logger.Debug("Eligibility guardrail excluded offers", "excluded", excluded, "eligible", len(eligible))
	}

	offers, err := e.strategy.RankOffers(ctx, req, eligible)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, fmt.Errorf("failed to rank offers: %w", err)
	}
	offers, err = e.verifyOffers(offers, eligible, profile)
	if err != nil {
		return model.RecommendationResult{}, OutcomeError, err
	}

	result := guardrail.Disclose(model.RecommendationResult{
		UserID:     userID,
		Strategy:   e.strategy.Name(),
		WindowDays: windowDays,
		Persona:    assignment,
		Rationale:  why,
		Education:  education,
		Offers:     offers,
	})

	logger.Info("Generated recommendations",
		"persona", assignment.Type,
		"confidence", assignment.Confidence,
		"strategy", result.Strategy,
		"education", len(result.Education),
		"offers", len(result.Offers))

	return result, OutcomeOK, nil
}

// screenRationale pins persona fields to the assignment and replaces any
// text that fails the tone screen.
func (e *Engine) screenRationale(logger *slog.Logger, r model.Rationale, assignment model.PersonaAssignment) model.Rationale {
	r.PersonaType = assignment.Type
	r.Confidence = assignment.Confidence
	r.KeySignals = assignment.TriggeredSignalTags

	text, violations := e.tone.Replace(r.Explanation, rationale.DefaultText(assignment.Type))
	if len(violations) > 0 {
		logger.Warn("Tone guardrail replaced explanation", "persona", assignment.Type, "violations", violations)
		e.recorder.RecordToneSubstitution("explanation")
	}
	r.Explanation = text

	if r.ContentNotes == nil {
		return r
	}
	notes := make(map[string]string, len(r.ContentNotes))
	for id, note := range r.ContentNotes {
		clean, violations := e.tone.Replace(note, rationale.DefaultNote)
		if len(violations) > 0 {
			logger.Warn("Tone guardrail replaced content note", "item_id", id, "violations", violations)
			e.recorder.RecordToneSubstitution("content_note")
		}
		notes[id] = clean
	}
	r.ContentNotes = notes
	return r
}

// verifyEducation rejects items that are not in the catalog snapshot.
func verifyEducation(items []model.ScoredItem, req strategy.Request) error {
	if len(items) > req.Limit {
		return common.GuardrailViolation("education", fmt.Sprintf("%d items exceed limit %d", len(items), req.Limit))
	}

	known := make(map[string]bool)
	for _, item := range req.Catalog.ItemsForPersona(req.Assignment.Type) {
		known[item.ID] = true
	}
	for _, scored := range items {
		if !known[scored.Item.ID] {
			return common.GuardrailViolation("education", fmt.Sprintf("item %q is not a catalog item for %s", scored.Item.ID, req.Assignment.Type))
		}
		if scored.RelevanceScore < 0 || scored.RelevanceScore > 1 {
			return common.GuardrailViolation("education", fmt.Sprintf("item %q score %v out of range", scored.Item.ID, scored.RelevanceScore))
		}
	}
	return nil
}

// verifyOffers re-checks every ranked offer against the eligible set and the
// eligibility rules. Any escape fails the request.
func (e *Engine) verifyOffers(offers []model.ScoredOffer, eligible []model.OfferItem, profile model.FinancialProfile) ([]model.ScoredOffer, error) {
	allowed := make(map[string]bool, len(eligible))
	for _, o := range eligible {
		allowed[o.ID] = true
	}

	if len(offers) > e.offerLimit {
		offers = offers[:e.offerLimit]
	}

	verified := make([]model.ScoredOffer, 0, len(offers))
	for _, scored := range offers {
		if !allowed[scored.Offer.ID] {
			return nil, common.GuardrailViolation("eligibility", fmt.Sprintf("offer %q escaped filtering", scored.Offer.ID))
		}
		if reason := e.eligibility.Check(scored.Offer, profile); reason != "" {
			return nil, common.GuardrailViolation("eligibility", fmt.Sprintf("offer %q: %s", scored.Offer.ID, reason))
		}
		scored.EligibilityMet = true
		verified = append(verified, scored)
	}
	return verified, nil
}
