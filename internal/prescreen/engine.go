package prescreen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leaseguard/leaseguard-api/internal/models"
)

// clauseMarker matches the start of a numbered lease clause ("3.", "§ 12",
// "Article 4"). Segmented scanning only activates when enough markers are
// present to make clause attribution meaningful.
var clauseMarker = regexp.MustCompile(`(?mi)^\s*(\d{1,2}[.)]|§\s*\d+|article\s+\d+)`)

const minClauseMarkers = 4

// Finding is a single triggered violation rule. ClauseNumber is 1-based and
// zero when the rule matched against the whole text rather than a clause.
type Finding struct {
	Description    string              `json:"description"`
	Severity       models.SeverityTier `json:"severity"`
	LegalReference string              `json:"legal_reference"`
	Weight         int                 `json:"weight"`
	ClauseNumber   int                 `json:"clause_number,omitempty"`
}

// Result is the output of one scan. WeightedScore is advisory only; the
// authoritative compliance score is owned by reconciliation.
type Result struct {
	Violations         []Finding                  `json:"violations"`
	ComplianceFindings []models.ComplianceFinding `json:"compliance_findings"`
	WeightedScore      int                        `json:"weighted_score"`
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

type compiledCheck struct {
	ChecklistItem
	re *regexp.Regexp
}

// Options controls which of the two independent scan paths run. The clause
// scan and the checklist ship separately switchable because deployments have
// historically run with the scan disabled while still surfacing the checklist.
type Options struct {
	Rules            []Rule
	Checklist        []ChecklistItem
	ScanEnabled      bool
	ChecklistEnabled bool
}

// Engine is a pure, stateless scanner; safe for unrestricted concurrent use.
type Engine struct {
	rules            []compiledRule
	checklist        []compiledCheck
	scanEnabled      bool
	checklistEnabled bool
}

// NewEngine compiles and validates every pattern up front. Nil rule or
// checklist slices fall back to the built-in defaults.
func NewEngine(opts Options) (*Engine, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules
	}
	checklist := opts.Checklist
	if checklist == nil {
		checklist = DefaultChecklist
	}

	e := &Engine{
		scanEnabled:      opts.ScanEnabled,
		checklistEnabled: opts.ChecklistEnabled,
	}

	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid rule pattern %q: %w", r.Pattern, err)
		}
		e.rules = append(e.rules, compiledRule{Rule: r, re: re})
	}
	for _, c := range checklist {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid checklist pattern %q: %w", c.Pattern, err)
		}
		e.checklist = append(e.checklist, compiledCheck{ChecklistItem: c, re: re})
	}

	return e, nil
}

// Scan runs the enabled paths against text and returns the combined result.
func (e *Engine) Scan(text string) Result {
	var res Result

	if e.scanEnabled {
		res.Violations = e.scanViolations(text)
		for _, v := range res.Violations {
			res.WeightedScore += v.Weight
		}
	}

	if e.checklistEnabled {
		for _, c := range e.checklist {
			res.ComplianceFindings = append(res.ComplianceFindings, models.ComplianceFinding{
				Requirement:    c.Requirement,
				Found:          c.re.MatchString(text),
				LegalReference: c.LegalReference,
			})
		}
	}

	return res
}

func (e *Engine) scanViolations(text string) []Finding {
	clauses := segmentClauses(text)

	var findings []Finding
	for _, r := range e.rules {
		if clauses == nil {
			if r.re.MatchString(text) {
				findings = append(findings, newFinding(r, 0))
			}
			continue
		}
		for _, cl := range clauses {
			if r.re.MatchString(cl.text) {
				findings = append(findings, newFinding(r, cl.number))
			}
		}
	}
	return findings
}

func newFinding(r compiledRule, clause int) Finding {
	return Finding{
		Description:    r.Description,
		Severity:       r.Severity,
		LegalReference: r.LegalReference,
		Weight:         r.Weight,
		ClauseNumber:   clause,
	}
}

type clauseSpan struct {
	number int
	text   string
}

// segmentClauses splits text into numbered clause spans, each running from
// one clause marker to the next. Returns nil when the text does not look
// clause-structured, in which case rules match against the whole text.
func segmentClauses(text string) []clauseSpan {
	marks := clauseMarker.FindAllStringIndex(text, -1)
	if len(marks) < minClauseMarkers {
		return nil
	}

	spans := make([]clauseSpan, 0, len(marks))
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		spans = append(spans, clauseSpan{number: i + 1, text: text[m[0]:end]})
	}
	return spans
}

// Annotation renders the scan result as plain text suitable for inclusion
// in the generation job's final instruction message. Empty when nothing
// was flagged.
func (r Result) Annotation() string {
	if len(r.Violations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Automated pre-screening flagged the following clauses:\n")
	for _, v := range r.Violations {
		if v.ClauseNumber > 0 {
			fmt.Fprintf(&b, "- [clause %d] %s (%s, severity: %s)\n",
				v.ClauseNumber, v.Description, v.LegalReference, v.Severity)
		} else {
			fmt.Fprintf(&b, "- %s (%s, severity: %s)\n",
				v.Description, v.LegalReference, v.Severity)
		}
	}
	fmt.Fprintf(&b, "Weighted pre-screen score: %d\n", r.WeightedScore)
	return b.String()
}

// Insights converts triggered violations into insight records so the
// reconciliation pass can merge them with generated findings.
func (r Result) Insights() []models.Insight {
	var insights []models.Insight
	for _, v := range r.Violations {
		content := fmt.Sprintf("%s (legal reference: %s)", v.Description, v.LegalReference)
		if v.ClauseNumber > 0 {
			content = fmt.Sprintf("%s, detected in clause %d (legal reference: %s)",
				v.Description, v.ClauseNumber, v.LegalReference)
		}
		insights = append(insights, models.Insight{
			Title:    v.Description,
			Content:  content,
			Severity: v.Severity,
		})
	}
	return insights
}
