package engine

import (
	"context"
	"time"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/model"
)

// ProfileSource supplies per-user data. It is the boundary to persistence.
type ProfileSource interface {
	Consent(ctx context.Context, userID string) (bool, error)
	Signals(ctx context.Context, userID string, windowDays int) (*model.BehaviorSignals, error)
	Profile(ctx context.Context, userID string) (model.FinancialProfile, error)
}

// CatalogSource hands out the current catalog snapshot.
type CatalogSource interface {
	Snapshot() *catalog.Catalog
}

// Recorder receives pipeline measurements.
type Recorder interface {
	RecordRequest(outcome, strategy string, d time.Duration)
	RecordPersona(p model.PersonaType)
	RecordToneSubstitution(field string)
	RecordOffersExcluded(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, time.Duration) {}
func (nopRecorder) RecordPersona(model.PersonaType)             {}
func (nopRecorder) RecordToneSubstitution(string)               {}
func (nopRecorder) RecordOffersExcluded(int)                    {}

// StaticCatalog serves a fixed catalog.
type StaticCatalog struct {
	Catalog *catalog.Catalog
}

// Snapshot implements CatalogSource.
func (s StaticCatalog) Snapshot() *catalog.Catalog { return s.Catalog }
