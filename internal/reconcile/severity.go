package reconcile

import (
	"strings"

	"github.com/leaseguard/leaseguard-api/internal/models"
)

// severityRule adjusts one insight's tier. pinned is true once the
// protected-title rule has claimed the insight; later rules must leave
// pinned insights alone.
type severityRule func(in *models.Insight, pinned *bool)

// severityRules builds the normalization chain. The fixed order is
// load-bearing: the protected-title pin runs first and exempts the insight
// from every later downgrade.
func severityRules(opts Options) []severityRule {
	critical := lowerSet(opts.CriticalTitles)
	summary := lowerSet(opts.SummaryTitles)

	return []severityRule{
		// 1. Protected-title pin.
		func(in *models.Insight, pinned *bool) {
			if matchesTitle(in.Title, critical) {
				in.Severity = models.SeverityWarning
				*pinned = true
			}
		},
		// 2. Summary/overview titles are never warnings.
		func(in *models.Insight, pinned *bool) {
			if *pinned {
				return
			}
			if matchesTitle(in.Title, summary) {
				in.Severity = models.SeverityInformational
			}
		},
		// 3. High-rating downgrade.
		func(in *models.Insight, pinned *bool) {
			if *pinned {
				return
			}
			if in.Severity == models.SeverityWarning && in.Rating != nil && in.Rating.Value >= 85 {
				in.Severity = models.SeverityModerate
			}
		},
		// 4. Informational-keyword downgrade.
		func(in *models.Insight, pinned *bool) {
			if *pinned {
				return
			}
			if in.Severity != models.SeverityWarning {
				return
			}
			haystack := strings.ToLower(in.Title + " " + in.Content)
			for _, kw := range opts.InformationalKeywords {
				if strings.Contains(haystack, strings.ToLower(kw)) {
					in.Severity = models.SeverityModerate
					return
				}
			}
		},
		// 5. Serious-keyword upgrade.
		func(in *models.Insight, pinned *bool) {
			if in.Severity == models.SeverityWarning {
				return
			}
			content := strings.ToLower(in.Content)
			for _, kw := range opts.SeriousKeywords {
				if strings.Contains(content, strings.ToLower(kw)) {
					in.Severity = models.SeverityWarning
					return
				}
			}
		},
	}
}

// normalizeSeverities applies the rule chain to every insight in place.
func normalizeSeverities(insights []models.Insight, rules []severityRule) {
	for i := range insights {
		pinned := false
		for _, rule := range rules {
			rule(&insights[i], &pinned)
		}
	}
}

func lowerSet(titles []string) map[string]bool {
	set := make(map[string]bool, len(titles))
	for _, t := range titles {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return set
}

func matchesTitle(title string, set map[string]bool) bool {
	return set[strings.ToLower(strings.TrimSpace(title))]
}
