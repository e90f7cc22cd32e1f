// Package catalog loads and indexes the static education and partner offer catalog.
package catalog

import (
	"slices"

	"github.com/ppiont/spendsense/internal/model"
)

// Reader is read access to one catalog snapshot.
type Reader interface {
	// ItemsForPersona returns education items tagged for persona p, in catalog order.
	ItemsForPersona(p model.PersonaType) []model.ContentItem
	// Offers returns every partner offer, in catalog order.
	Offers() []model.OfferItem
}

// Catalog is an immutable, fully validated catalog snapshot.
type Catalog struct {
	byPersona map[model.PersonaType][]model.ContentItem
	source    string
	education []model.ContentItem
	offers    []model.OfferItem
}

var _ Reader = (*Catalog)(nil)

func newCatalog(source string, education []model.ContentItem, offers []model.OfferItem) *Catalog {
	byPersona := make(map[model.PersonaType][]model.ContentItem, len(model.AllPersonas))
	for _, item := range education {
		for _, p := range uniquePersonas(item.PersonaTags) {
			byPersona[p] = append(byPersona[p], item)
		}
	}

	return &Catalog{
		source:    source,
		education: education,
		offers:    offers,
		byPersona: byPersona,
	}
}

// Source names where the snapshot was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// ItemsForPersona returns education items tagged for persona p, in catalog order.
func (c *Catalog) ItemsForPersona(p model.PersonaType) []model.ContentItem {
	return slices.Clone(c.byPersona[p])
}

// Education returns every education item, in catalog order.
func (c *Catalog) Education() []model.ContentItem {
	return slices.Clone(c.education)
}

// Offers returns every partner offer, in catalog order.
func (c *Catalog) Offers() []model.OfferItem {
	return slices.Clone(c.offers)
}

// Item looks up an education item by id.
func (c *Catalog) Item(id string) (model.ContentItem, bool) {
	for _, item := range c.education {
		if item.ID == id {
			return item, true
		}
	}
	return model.ContentItem{}, false
}

// Offer looks up a partner offer by id.
func (c *Catalog) Offer(id string) (model.OfferItem, bool) {
	for _, offer := range c.offers {
		if offer.ID == id {
			return offer, true
		}
	}
	return model.OfferItem{}, false
}

// Stats summarizes catalog size.
type Stats struct {
	ByPersona map[model.PersonaType]int
	Education int
	Offers    int
}

// Stats counts items overall and per persona.
func (c *Catalog) Stats() Stats {
	st := Stats{
		Education: len(c.education),
		Offers:    len(c.offers),
		ByPersona: make(map[model.PersonaType]int, len(c.byPersona)),
	}
	for p, items := range c.byPersona {
		st.ByPersona[p] = len(items)
	}
	return st
}

func uniquePersonas(tags []model.PersonaType) []model.PersonaType {
	out := make([]model.PersonaType, 0, len(tags))
	for _, t := range tags {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
