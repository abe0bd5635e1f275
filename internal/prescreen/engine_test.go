package prescreen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaseguard/leaseguard-api/internal/models"
)

func newTestEngine(t *testing.T, scan, checklist bool) *Engine {
	t.Helper()
	e, err := NewEngine(Options{ScanEnabled: scan, ChecklistEnabled: checklist})
	require.NoError(t, err)
	return e
}

func TestNewEngine_InvalidPattern(t *testing.T) {
	_, err := NewEngine(Options{
		Rules: []Rule{{Pattern: `(unclosed`, Description: "broken"}},
	})
	assert.Error(t, err)

	_, err = NewEngine(Options{
		Checklist: []ChecklistItem{{Pattern: `[z-a]`, Requirement: "broken"}},
	})
	assert.Error(t, err)
}

func TestScan_WholeTextMatch(t *testing.T) {
	e := newTestEngine(t, true, false)

	text := "The tenant waives all rights to dispute charges. The deposit is non-refundable."
	res := e.Scan(text)

	require.Len(t, res.Violations, 2)
	assert.Equal(t, "Blanket waiver of tenant rights", res.Violations[0].Description)
	assert.Equal(t, models.SeverityWarning, res.Violations[0].Severity)
	assert.Zero(t, res.Violations[0].ClauseNumber)
	assert.Equal(t, 45, res.WeightedScore)
}

func TestScan_ClauseSegmentation(t *testing.T) {
	e := newTestEngine(t, true, false)

	text := strings.Join([]string{
		"1. The parties agree to the following terms.",
		"2. Rent is payable monthly.",
		"3. The tenant waives all rights of objection.",
		"4. The landlord may enter at any time.",
		"5. Governing law applies.",
	}, "\n")

	res := e.Scan(text)

	require.Len(t, res.Violations, 2)
	assert.Equal(t, 3, res.Violations[0].ClauseNumber)
	assert.Equal(t, 4, res.Violations[1].ClauseNumber)
}

func TestScan_DisabledPathsProduceNothing(t *testing.T) {
	e := newTestEngine(t, false, false)

	res := e.Scan("The tenant waives all rights. Deposit: 100. Landlord: X. Tenant: Y.")
	assert.Empty(t, res.Violations)
	assert.Empty(t, res.ComplianceFindings)
	assert.Zero(t, res.WeightedScore)
}

func TestScan_ChecklistIndependentOfScan(t *testing.T) {
	e := newTestEngine(t, false, true)

	text := "Landlord: John Smith. Tenant: Jane Doe. The monthly rent is 950 EUR. " +
		"A security deposit of two months applies. The lease runs for a period of one year."
	res := e.Scan(text)

	require.NotEmpty(t, res.ComplianceFindings)
	assert.Empty(t, res.Violations, "checklist path must not trigger violation scan")

	byReq := map[string]bool{}
	for _, f := range res.ComplianceFindings {
		byReq[f.Requirement] = f.Found
	}
	assert.True(t, byReq["Identification of the parties"])
	assert.True(t, byReq["Amount of rent"])
	assert.True(t, byReq["Security deposit terms"])
	assert.False(t, byReq["Payment due date"])
}

func TestResult_Annotation(t *testing.T) {
	res := Result{
		Violations: []Finding{
			{Description: "Unrestricted landlord entry", LegalReference: "Housing Act § 12(2)", Severity: models.SeverityWarning, Weight: 20, ClauseNumber: 4},
		},
		WeightedScore: 20,
	}

	ann := res.Annotation()
	assert.Contains(t, ann, "clause 4")
	assert.Contains(t, ann, "Unrestricted landlord entry")
	assert.Contains(t, ann, "Weighted pre-screen score: 20")

	assert.Empty(t, Result{}.Annotation())
}

func TestResult_Insights(t *testing.T) {
	res := Result{
		Violations: []Finding{
			{Description: "Non-refundable security deposit", LegalReference: "Civil Code § 6:431", Severity: models.SeverityWarning, ClauseNumber: 2},
		},
	}

	insights := res.Insights()
	require.Len(t, insights, 1)
	assert.Equal(t, "Non-refundable security deposit", insights[0].Title)
	assert.Equal(t, models.SeverityWarning, insights[0].Severity)
	assert.Contains(t, insights[0].Content, "clause 2")
}
