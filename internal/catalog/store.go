package catalog

import (
	"log/slog"
	"sync/atomic"
)

// Store holds the process-wide catalog. Readers always see a complete snapshot;
// Reload builds the replacement fully before swapping it in.
type Store struct {
	current atomic.Pointer[Catalog]
	logger  *slog.Logger
	path    string
}

// NewStore loads the catalog at path (empty for the embedded default).
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path, logger: logger}
	s.current.Store(c)

	st := c.Stats()
	logger.Info("Loaded catalog",
		"source", c.Source(),
		"education_items", st.Education,
		"partner_offers", st.Offers)

	return s, nil
}

// NewStoreFrom wraps an already loaded catalog.
func NewStoreFrom(c *Catalog) *Store {
	s := &Store{path: c.Source(), logger: slog.Default()}
	s.current.Store(c)
	return s
}

// Snapshot returns the current catalog. The returned value never changes.
func (s *Store) Snapshot() *Catalog {
	return s.current.Load()
}

// Reload re-reads the configured source and swaps it in. On failure the
// previous snapshot stays in place.
func (s *Store) Reload() error {
	c, err := Load(s.path)
	if err != nil {
		s.logger.Error("Catalog reload failed, keeping previous snapshot", "source", s.path, "error", err)
		return err
	}

	s.current.Store(c)
	s.logger.Info("Reloaded catalog", "source", c.Source(), "education_items", len(c.education))
	return nil
}
