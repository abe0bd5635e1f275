package reconcile

import (
	"strings"

	"github.com/leaseguard/leaseguard-api/internal/models"
	"github.com/leaseguard/leaseguard-api/internal/prescreen"
)

const (
	validationNote      = "Result validated by reconciliation pass"
	degradedNote        = "Secondary result missing or unusable; primary-only output"
	provenancePrevious  = "[carried over from previous analysis]"
	provenancePrescreen = "[flagged by automated pre-screening]"
)

// Options configures the severity keyword lists. All lists are externally
// supplied; empty options disable the corresponding rules.
type Options struct {
	CriticalTitles        []string
	SummaryTitles         []string
	InformationalKeywords []string
	SeriousKeywords       []string
}

// Reconciler merges generative and heuristic findings into the final
// authoritative result. Reconcile never fails; on bad input it degrades to
// primary-only output with a note attached.
type Reconciler struct {
	opts  Options
	rules []severityRule
}

func New(opts Options) *Reconciler {
	return &Reconciler{
		opts:  opts,
		rules: severityRules(opts),
	}
}

// Reconcile merges primary (the fresh generation result), an optional
// secondary (a previously stored result) and the pre-screen scan into one
// result. Inputs are not mutated.
func (r *Reconciler) Reconcile(primary, secondary *models.AnalysisResult, pre prescreen.Result) *models.AnalysisResult {
	var out models.AnalysisResult
	if primary != nil {
		out = cloneResult(primary)
	} else if secondary != nil {
		out = cloneResult(secondary)
		secondary = nil
		addNote(&out, degradedNote)
	}

	if secondary != nil {
		mergeFields(&out, secondary)
		mergeInsights(&out, secondary.Insights, provenancePrevious)
	}

	mergeInsights(&out, pre.Insights(), provenancePrescreen)

	if len(out.ComplianceFindings) == 0 {
		out.ComplianceFindings = append([]models.ComplianceFinding(nil), pre.ComplianceFindings...)
	}

	normalizeSeverities(out.Insights, r.rules)

	r.settleScore(&out, secondary)
	addNote(&out, validationNote)

	return &out
}

// mergeFields takes a structured field from secondary only when primary
// marked it low-confidence and secondary did not.
func mergeFields(out, secondary *models.AnalysisResult) {
	if out.PropertyDetails.LowConfidence && !secondary.PropertyDetails.LowConfidence {
		out.PropertyDetails = secondary.PropertyDetails
	}
	if out.FinancialTerms.LowConfidence && !secondary.FinancialTerms.LowConfidence {
		out.FinancialTerms = secondary.FinancialTerms
	}
	if out.LeasePeriod.LowConfidence && !secondary.LeasePeriod.LowConfidence {
		out.LeasePeriod = secondary.LeasePeriod
	}
	if out.Parties.LowConfidence && !secondary.Parties.LowConfidence {
		out.Parties = secondary.Parties
	}
}

// mergeInsights unions incoming insights into out by case-insensitive title.
// Matching titles may only upgrade severity, never downgrade. New insights
// are appended with a provenance marker unless their content already carries
// one, which keeps repeated reconciliation from stacking markers.
func mergeInsights(out *models.AnalysisResult, incoming []models.Insight, marker string) {
	index := make(map[string]int, len(out.Insights))
	for i, in := range out.Insights {
		index[insightKey(in.Title)] = i
	}

	for _, in := range incoming {
		if i, ok := index[insightKey(in.Title)]; ok {
			if models.SeverityRank(in.Severity) > models.SeverityRank(out.Insights[i].Severity) {
				out.Insights[i].Severity = in.Severity
			}
			continue
		}

		added := in
		if !strings.Contains(added.Content, marker) {
			added.Content = strings.TrimSpace(added.Content + " " + marker)
		}
		out.Insights = append(out.Insights, added)
		index[insightKey(added.Title)] = len(out.Insights) - 1
	}
}

func insightKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// settleScore picks the authoritative compliance score: primary's when
// present, then secondary's, then a derivation from insight counts.
func (r *Reconciler) settleScore(out *models.AnalysisResult, secondary *models.AnalysisResult) {
	if out.ComplianceScore > 0 {
		if out.ComplianceLevel == "" {
			out.ComplianceLevel = levelForScore(out.ComplianceScore)
		}
		return
	}

	if secondary != nil && secondary.ComplianceScore > 0 {
		out.ComplianceScore = secondary.ComplianceScore
		out.ComplianceLevel = secondary.ComplianceLevel
		if out.ComplianceLevel == "" {
			out.ComplianceLevel = levelForScore(out.ComplianceScore)
		}
		return
	}

	warnings := out.CountBySeverity(models.SeverityWarning)
	moderates := out.CountBySeverity(models.SeverityModerate)

	switch {
	case warnings >= 3:
		out.ComplianceScore = 25
		out.ComplianceLevel = models.ComplianceRed
	case warnings == 2:
		out.ComplianceScore = 50
		out.ComplianceLevel = models.ComplianceYellow
	case warnings == 1:
		out.ComplianceScore = 65
		out.ComplianceLevel = models.ComplianceYellow
	default:
		score := 100 - 5*moderates
		if score < 70 {
			score = 70
		}
		out.ComplianceScore = score
		out.ComplianceLevel = models.ComplianceGreen
	}
}

func levelForScore(score int) models.ComplianceLevel {
	switch {
	case score >= 80:
		return models.ComplianceGreen
	case score >= 50:
		return models.ComplianceYellow
	default:
		return models.ComplianceRed
	}
}

func addNote(out *models.AnalysisResult, note string) {
	for _, n := range out.Notes {
		if n == note {
			return
		}
	}
	out.Notes = append(out.Notes, note)
}

// cloneResult deep-copies the slices so reconciliation never mutates its
// inputs and the returned result is safely immutable afterwards.
func cloneResult(r *models.AnalysisResult) models.AnalysisResult {
	out := *r
	out.Insights = append([]models.Insight(nil), r.Insights...)
	for i := range out.Insights {
		if out.Insights[i].Rating != nil {
			rating := *out.Insights[i].Rating
			out.Insights[i].Rating = &rating
		}
		out.Insights[i].Indicators = append([]string(nil), out.Insights[i].Indicators...)
	}
	out.Recommendations = append([]string(nil), r.Recommendations...)
	out.ComplianceFindings = append([]models.ComplianceFinding(nil), r.ComplianceFindings...)
	out.Notes = append([]string(nil), r.Notes...)
	return out
}
