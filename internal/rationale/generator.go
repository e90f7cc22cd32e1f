// Package rationale builds data-anchored explanations for persona assignments.
package rationale

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/signal"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var printer = message.NewPrinter(language.English)

// Generator renders persona explanations from templates. It is safe for
// concurrent use once constructed.
type Generator struct {
	tmpl    *template.Template
	deriver signal.Deriver
}

// NewGenerator parses the embedded explanation templates.
func NewGenerator(deriver signal.Deriver) (*Generator, error) {
	funcMap := template.FuncMap{
		"money":  FormatCents,
		"pct":    formatPercent,
		"months": formatMonths,
		"join":   strings.Join,
	}

	tmpl, err := template.New("rationale").
		Funcs(funcMap).
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse rationale templates: %w", err)
	}

	return &Generator{tmpl: tmpl, deriver: deriver}, nil
}

// Generate builds the rationale for an assignment. KeySignals carries the
// derived tags in derivation order.
func (g *Generator) Generate(persona model.PersonaType, confidence float64, s *model.BehaviorSignals) (model.Rationale, error) {
	if persona == "" {
		return model.Rationale{}, common.InvalidInput("persona_type", "is required")
	}
	if s == nil {
		return model.Rationale{}, common.InvalidInput("signals", "are required")
	}

	explanation, _ := g.Explain(persona, s)

	return model.Rationale{
		PersonaType: persona,
		Confidence:  confidence,
		Explanation: explanation,
		KeySignals:  g.deriver.Derive(s),
	}, nil
}

// Explain renders the persona template. When a value the template needs is
// absent it returns DefaultText and false.
func (g *Generator) Explain(persona model.PersonaType, s *model.BehaviorSignals) (string, bool) {
	text, err := g.render(string(persona), valuesFor(persona, s))
	if err != nil {
		return DefaultText(persona), false
	}
	return text, true
}

// ContentNotes returns one short sentence per item explaining why it was
// picked, keyed by item id.
func (g *Generator) ContentNotes(persona model.PersonaType, s *model.BehaviorSignals, items []model.ScoredItem) map[string]string {
	if len(items) == 0 {
		return nil
	}

	note, err := g.render("note_"+string(persona), valuesFor(persona, s))
	if err != nil {
		note = DefaultNote
	}

	tags := g.deriver.Derive(s)
	notes := make(map[string]string, len(items))
	for _, scored := range items {
		notes[scored.Item.ID] = note + coverage(scored.Item.SignalTags, tags)
	}
	return notes
}

func (g *Generator) render(name string, data map[string]any) (string, error) {
	if g.tmpl.Lookup(name) == nil {
		return "", fmt.Errorf("no template for %q", name)
	}

	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// coverage names the active tags an item addresses.
func coverage(itemTags, active []string) string {
	var hit []string
	for _, tag := range active {
		for _, t := range itemTags {
			if t == tag {
				hit = append(hit, strings.ReplaceAll(tag, "_", " "))
				break
			}
		}
	}
	if len(hit) == 0 {
		return ""
	}
	return " It addresses: " + strings.Join(hit, ", ") + "."
}

// FormatCents renders an amount in cents as dollars with thousands separators.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + printer.Sprintf("%d", cents/100) + fmt.Sprintf(".%02d", cents%100)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatMonths(v float64) string {
	if v == 1 {
		return "1.0 month"
	}
	return fmt.Sprintf("%.1f months", v)
}
