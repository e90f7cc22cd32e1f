package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// DefaultSource is the name reported for the embedded catalog.
const DefaultSource = "embedded:catalog.yaml"

//go:embed data/catalog.yaml
var defaultFS embed.FS

var (
	errNoTags         = errors.New("persona_tags and signal_tags are both empty")
	errDuplicateID    = errors.New("duplicate id")
	errUnknownPersona = errors.New("unknown persona tag")
	errEmptyCatalog   = errors.New("catalog has no education items")
)

// document mirrors the declarative catalog file.
type document struct {
	Education []model.ContentItem `yaml:"education"`
	Offers    []model.OfferItem   `yaml:"partner_offers"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a catalog file. An empty path loads the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return LoadDefault()
	}

	data, err := os.ReadFile(path) //nolint:gosec // catalog path comes from operator config
	if err != nil {
		return nil, &common.CatalogLoadError{Source: path, Err: err}
	}

	return Parse(path, data)
}

// LoadDefault loads the catalog embedded in the binary.
func LoadDefault() (*Catalog, error) {
	data, err := defaultFS.ReadFile("data/catalog.yaml")
	if err != nil {
		return nil, &common.CatalogLoadError{Source: DefaultSource, Err: err}
	}
	return Parse(DefaultSource, data)
}

// Parse decodes and validates catalog YAML. source is only used in errors.
func Parse(source string, data []byte) (*Catalog, error) {
	var doc document

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &common.CatalogLoadError{Source: source, Err: errEmptyCatalog}
		}
		return nil, &common.CatalogLoadError{Source: source, Err: fmt.Errorf("malformed catalog: %w", err)}
	}

	if len(doc.Education) == 0 {
		return nil, &common.CatalogLoadError{Source: source, Err: errEmptyCatalog}
	}

	seen := make(map[string]bool, len(doc.Education)+len(doc.Offers))

	for _, item := range doc.Education {
		if err := checkEntry(item, item.ID, item.PersonaTags, item.SignalTags, seen); err != nil {
			return nil, &common.CatalogLoadError{Source: source, EntryID: item.ID, Err: err}
		}
	}

	for _, offer := range doc.Offers {
		if err := checkEntry(offer, offer.ID, offer.PersonaTags, offer.SignalTags, seen); err != nil {
			return nil, &common.CatalogLoadError{Source: source, EntryID: offer.ID, Err: err}
		}
	}

	return newCatalog(source, doc.Education, doc.Offers), nil
}

func checkEntry(entry any, id string, personas []model.PersonaType, signals []string, seen map[string]bool) error {
	if err := validate.Struct(entry); err != nil {
		return describe(err)
	}
	if seen[id] {
		return errDuplicateID
	}
	seen[id] = true

	if len(personas) == 0 && len(signals) == 0 {
		return errNoTags
	}
	for _, p := range personas {
		if !p.Valid() {
			return fmt.Errorf("%w: %q", errUnknownPersona, p)
		}
	}
	return nil
}

// describe flattens validator output into a single readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			parts = append(parts, fmt.Sprintf("missing required field %s", strings.ToLower(fe.Field())))
			continue
		}
		parts = append(parts, fmt.Sprintf("field %s fails %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
