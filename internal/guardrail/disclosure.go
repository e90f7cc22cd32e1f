package guardrail

import "github.com/ppiont/spendsense/internal/model"

// Disclaimer is attached to every non-empty result.
const Disclaimer = "This content is for educational purposes only and does not constitute " +
	"financial advice. Please consult with a qualified financial professional " +
	"before making financial decisions."

// Disclose attaches the disclaimer. Empty results are returned unchanged.
func Disclose(r model.RecommendationResult) model.RecommendationResult {
	if r.IsEmpty() {
		return r
	}
	r.Disclaimer = Disclaimer
	return r
}
