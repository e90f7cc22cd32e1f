package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/eval"
	"github.com/ppiont/spendsense/internal/model"
)

// RenderResult renders one recommendation result for the terminal.
func RenderResult(res model.RecommendationResult) string {
	if res.ConsentDenied {
		return FormatWarning(fmt.Sprintf("User %s has not granted consent. No recommendations were generated.", res.UserID))
	}

	var b strings.Builder
	b.WriteString(RenderAssignment(res.UserID, res.Persona))
	b.WriteString("\n\n")

	if res.Rationale.Explanation != "" {
		b.WriteString(BoldStyle.Render("Why this persona"))
		b.WriteString("\n")
		b.WriteString(res.Rationale.Explanation)
		b.WriteString("\n\n")
	}

	b.WriteString(BoldStyle.Render(BookIcon + " Education"))
	b.WriteString("\n")
	if len(res.Education) == 0 {
		b.WriteString(SubtleStyle.Render("  (none)"))
		b.WriteString("\n")
	}
	for i, item := range res.Education {
		fmt.Fprintf(&b, "  %d. %s %s\n", i+1, item.Item.Title, stars(item.Rating()))
		fmt.Fprintf(&b, "     %s\n", SubtleStyle.Render(item.Item.Summary))
		if note := res.Rationale.ContentNotes[item.Item.ID]; note != "" {
			fmt.Fprintf(&b, "     %s\n", InfoStyle.Render(note))
		}
	}

	b.WriteString("\n")
	b.WriteString(BoldStyle.Render(OfferIcon + " Offers"))
	b.WriteString("\n")
	if len(res.Offers) == 0 {
		b.WriteString(SubtleStyle.Render("  (no eligible offers)"))
		b.WriteString("\n")
	}
	for i, o := range res.Offers {
		fmt.Fprintf(&b, "  %d. %s (%s) %s\n", i+1, o.Offer.Title, o.Offer.Provider, stars(o.Rating()))
		if o.Offer.EligibilityExplanation != "" {
			fmt.Fprintf(&b, "     %s\n", SubtleStyle.Render(o.Offer.EligibilityExplanation))
		}
	}

	if res.Disclaimer != "" {
		b.WriteString("\n")
		b.WriteString(SubtleStyle.Render(res.Disclaimer))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderAssignment renders a persona assignment summary.
func RenderAssignment(userID string, a model.PersonaAssignment) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("User:       %s", userID),
		fmt.Sprintf("Persona:    %s", BoldStyle.Render(a.Type.DisplayName())),
		fmt.Sprintf("Confidence: %.0f%%", a.Confidence*100),
		fmt.Sprintf("Signals:    %s", tagList(a.TriggeredSignalTags)),
	)
	return RenderBox("Persona", content)
}

// RenderReport renders an evaluation report.
func RenderReport(r *eval.Report) string {
	var b strings.Builder

	b.WriteString(FormatTitle(ChartIcon + " Evaluation Report"))
	b.WriteString("\n")

	rows := [][2]string{
		{"Users", fmt.Sprintf("%d", r.TotalUsers)},
		{"Evaluated", fmt.Sprintf("%d", r.Evaluated)},
		{"Consent denied", fmt.Sprintf("%d", r.ConsentDenied)},
		{"Errors", fmt.Sprintf("%d", r.Errors)},
		{"Recommendations", fmt.Sprintf("%d", r.Recommendations)},
		{"Coverage", fmt.Sprintf("%.1f%%", r.Coverage)},
		{"Explainability", fmt.Sprintf("%.1f%%", r.Explainability)},
		{"Auditability", fmt.Sprintf("%.1f%%", r.Auditability)},
		{"Avg relevance", fmt.Sprintf("%.2f", r.AverageRelevance)},
		{"Avg rating", fmt.Sprintf("%.2f", r.AverageRating)},
		{"Latency p50", formatDuration(r.Latency.P50)},
		{"Latency p95", formatDuration(r.Latency.P95)},
		{"Latency max", formatDuration(r.Latency.Max)},
	}
	b.WriteString(table([2]string{"Metric", "Value"}, rows))
	b.WriteString("\n")

	b.WriteString(BoldStyle.Render("Persona distribution"))
	b.WriteString("\n")
	var personas [][2]string
	for _, p := range model.AllPersonas {
		personas = append(personas, [2]string{p.DisplayName(), fmt.Sprintf("%d", r.PersonaDistribution[p])})
	}
	b.WriteString(table([2]string{"Persona", "Users"}, personas))
	b.WriteString("\n")

	if r.Fairness.Dominated {
		b.WriteString(FormatWarning(fmt.Sprintf("One persona holds %.0f%% of assignments", r.Fairness.MaxPersonaShare*100)))
		b.WriteString("\n")
	}
	if len(r.Fairness.Underrepresented) > 0 {
		names := make([]string, 0, len(r.Fairness.Underrepresented))
		for _, p := range r.Fairness.Underrepresented {
			names = append(names, string(p))
		}
		b.WriteString(FormatInfo("Underrepresented: " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}

	for _, f := range r.Failures {
		b.WriteString(FormatError(fmt.Sprintf("%s: %s", f.UserID, f.Error)))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderCatalogStats renders catalog size per persona.
func RenderCatalogStats(source string, st catalog.Stats) string {
	var b strings.Builder
	b.WriteString(FormatSuccess(fmt.Sprintf("Catalog %s is valid", source)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Education items: %d\n", st.Education)
	fmt.Fprintf(&b, "  Partner offers:  %d\n\n", st.Offers)

	var rows [][2]string
	for _, p := range model.AllPersonas {
		rows = append(rows, [2]string{string(p), fmt.Sprintf("%d", st.ByPersona[p])})
	}
	b.WriteString(table([2]string{"Persona", "Items"}, rows))
	return b.String()
}

func table(header [2]string, rows [][2]string) string {
	width := len(header[0])
	for _, r := range rows {
		width = max(width, lipgloss.Width(r[0]))
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-*s  %s", width, header[0], header[1])))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(TableCellStyle.Render(fmt.Sprintf("%-*s", width, r[0])))
		b.WriteString(r[1])
		b.WriteString("\n")
	}
	return b.String()
}

func stars(rating int) string {
	return WarningStyle.Render(strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating))
}

func tagList(tags []string) string {
	if len(tags) == 0 {
		return SubtleStyle.Render("none")
	}
	sorted := slices.Clone(tags)
	slices.Sort(sorted)
	return strings.Join(sorted, ", ")
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return d.Round(10 * time.Microsecond).String()
}
