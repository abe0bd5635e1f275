package models

// SeverityTier classifies how serious an insight is.
type SeverityTier string

const (
	SeverityInformational SeverityTier = "informational"
	SeverityModerate      SeverityTier = "moderate"
	SeverityWarning       SeverityTier = "warning"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s SeverityTier) int {
	switch s {
	case SeverityWarning:
		return 3
	case SeverityModerate:
		return 2
	case SeverityInformational:
		return 1
	default:
		return 0
	}
}

// ComplianceLevel is the traffic-light classification of the overall score.
type ComplianceLevel string

const (
	ComplianceGreen  ComplianceLevel = "green"
	ComplianceYellow ComplianceLevel = "yellow"
	ComplianceRed    ComplianceLevel = "red"
)

type Rating struct {
	Value int    `json:"value"`
	Label string `json:"label,omitempty"`
}

// Insight is a single issue or observation about the lease, produced either
// by the generation job or by the pre-screening rule engine.
type Insight struct {
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Severity   SeverityTier `json:"severity"`
	Rating     *Rating      `json:"rating,omitempty"`
	Indicators []string     `json:"indicators,omitempty"`
}

// ComplianceFinding records whether a single checklist requirement was
// satisfied by the lease text. Immutable after creation.
type ComplianceFinding struct {
	Requirement    string `json:"requirement"`
	Found          bool   `json:"found"`
	LegalReference string `json:"legal_reference"`
}

type PropertyDetails struct {
	Address       string `json:"address,omitempty"`
	PropertyType  string `json:"property_type,omitempty"`
	Size          string `json:"size,omitempty"`
	Condition     string `json:"condition,omitempty"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

type FinancialTerms struct {
	MonthlyRent   string `json:"monthly_rent,omitempty"`
	Deposit       string `json:"deposit,omitempty"`
	UtilityCosts  string `json:"utility_costs,omitempty"`
	PaymentTerms  string `json:"payment_terms,omitempty"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

type LeasePeriod struct {
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	Duration      string `json:"duration,omitempty"`
	NoticePeriod  string `json:"notice_period,omitempty"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

type Parties struct {
	Landlord      string `json:"landlord,omitempty"`
	Tenant        string `json:"tenant,omitempty"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

// AnalysisResult is the unit exchanged between the orchestrator,
// reconciliation and the report renderer. Immutable after reconciliation.
type AnalysisResult struct {
	PropertyDetails    PropertyDetails     `json:"property_details"`
	FinancialTerms     FinancialTerms      `json:"financial_terms"`
	LeasePeriod        LeasePeriod         `json:"lease_period"`
	Parties            Parties             `json:"parties"`
	Insights           []Insight           `json:"insights"`
	Recommendations    []string            `json:"recommendations,omitempty"`
	ComplianceFindings []ComplianceFinding `json:"compliance_findings,omitempty"`
	ComplianceScore    int                 `json:"compliance_score"`
	ComplianceLevel    ComplianceLevel     `json:"compliance_level"`
	Notes              []string            `json:"notes,omitempty"`
}

// CountBySeverity returns the number of insights in the given tier.
func (r *AnalysisResult) CountBySeverity(tier SeverityTier) int {
	n := 0
	for _, in := range r.Insights {
		if in.Severity == tier {
			n++
		}
	}
	return n
}
