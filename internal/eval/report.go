package eval

import (
	"math"
	"slices"
	"time"

	"github.com/ppiont/spendsense/internal/model"
)

// MinSignalGroups is the signal group count a user needs to count as covered.
const MinSignalGroups = 3

// Report summarizes one evaluation run. Percentages are in [0,100].
type Report struct {
	PersonaDistribution map[model.PersonaType]int `json:"persona_distribution"`
	RatingDistribution  map[int]int               `json:"rating_distribution"`
	Failures            []Failure                 `json:"failures,omitempty"`
	Fairness            Fairness                  `json:"fairness"`
	Latency             LatencyStats              `json:"latency"`
	TotalUsers          int                       `json:"total_users"`
	Evaluated           int                       `json:"evaluated"`
	ConsentDenied       int                       `json:"consent_denied"`
	Errors              int                       `json:"errors"`
	Recommendations     int                       `json:"recommendations"`
	Coverage            float64                   `json:"coverage"`
	Explainability      float64                   `json:"explainability"`
	Auditability        float64                   `json:"auditability"`
	AverageRelevance    float64                   `json:"average_relevance"`
	AverageRating       float64                   `json:"average_rating"`
}

// Failure records one user whose run errored.
type Failure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// LatencyStats are computed over successful runs.
type LatencyStats struct {
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P95  time.Duration `json:"p95"`
	Max  time.Duration `json:"max"`
}

// Fairness describes how evenly personas are spread.
type Fairness struct {
	Underrepresented  []model.PersonaType `json:"underrepresented,omitempty"`
	MaxPersonaShare   float64             `json:"max_persona_share"`
	NormalizedEntropy float64             `json:"normalized_entropy"`
	Dominated         bool                `json:"dominated"`
}

func summarize(outcomes []outcome) *Report {
	r := &Report{
		TotalUsers:          len(outcomes),
		PersonaDistribution: make(map[model.PersonaType]int),
		RatingDistribution:  make(map[int]int),
	}

	var (
		covered, explained, audited int
		scoreSum                    float64
		ratingSum, scored           int
		latencies                   []time.Duration
	)

	for _, o := range outcomes {
		if o.err != nil {
			r.Errors++
			r.Failures = append(r.Failures, Failure{UserID: o.userID, Error: o.err.Error()})
			continue
		}
		if o.result.ConsentDenied {
			r.ConsentDenied++
			continue
		}

		r.Evaluated++
		latencies = append(latencies, o.latency)

		res := o.result
		if res.Persona.Type != "" {
			r.PersonaDistribution[res.Persona.Type]++
			if o.signalGroups >= MinSignalGroups {
				covered++
			}
		}

		r.Recommendations += len(res.Education) + len(res.Offers)
		if res.Rationale.Explanation != "" && len(res.Rationale.KeySignals) > 0 {
			explained++
		}
		if complete(res) {
			audited++
		}

		for _, item := range res.Education {
			scoreSum += item.RelevanceScore
			ratingSum += item.Rating()
			r.RatingDistribution[item.Rating()]++
			scored++
		}
		for _, offer := range res.Offers {
			scoreSum += offer.RelevanceScore
			ratingSum += offer.Rating()
			r.RatingDistribution[offer.Rating()]++
			scored++
		}
	}

	if r.Evaluated > 0 {
		r.Coverage = percent(covered, r.Evaluated)
		r.Explainability = percent(explained, r.Evaluated)
		r.Auditability = percent(audited, r.Evaluated)
	}
	if scored > 0 {
		r.AverageRelevance = scoreSum / float64(scored)
		r.AverageRating = float64(ratingSum) / float64(scored)
	}
	r.Latency = latencyStats(latencies)
	r.Fairness = fairness(r.PersonaDistribution, r.Evaluated)
	return r
}

// complete reports whether a result carries a full decision trace.
func complete(res model.RecommendationResult) bool {
	return res.Persona.Type != "" &&
		res.Persona.Confidence > 0 &&
		res.Rationale.Explanation != "" &&
		len(res.Rationale.KeySignals) > 0 &&
		len(res.Education)+len(res.Offers) > 0 &&
		res.Disclaimer != ""
}

func percent(n, total int) float64 {
	return float64(n) / float64(total) * 100
}

func latencyStats(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	return LatencyStats{
		Mean: sum / time.Duration(len(sorted)),
		P50:  percentile(sorted, 50),
		P95:  percentile(sorted, 95),
		Max:  sorted[len(sorted)-1],
	}
}

// percentile interpolates linearly between closest ranks of a sorted slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 1 {
		return sorted[0]
	}
	index := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return time.Duration(math.Round(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight))
}

func fairness(dist map[model.PersonaType]int, total int) Fairness {
	var f Fairness
	for _, p := range model.AllPersonas {
		if p != model.PersonaBalanced && dist[p] == 0 {
			f.Underrepresented = append(f.Underrepresented, p)
		}
	}
	if total == 0 {
		return f
	}

	var entropy float64
	present := 0
	for _, p := range model.AllPersonas {
		count := dist[p]
		if count == 0 {
			continue
		}
		present++
		share := float64(count) / float64(total)
		f.MaxPersonaShare = max(f.MaxPersonaShare, share*100)
		entropy -= share * math.Log2(share)
	}
	if present > 1 {
		f.NormalizedEntropy = entropy / math.Log2(float64(present))
	}
	f.Dominated = f.MaxPersonaShare > 50
	return f
}
