package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/leaseguard/leaseguard-api/internal/models"
	"github.com/leaseguard/leaseguard-api/internal/utils"
)

const (
	fontFamily     = "Helvetica"
	bodySize       = 11.0
	bodyLineHeight = 14.0
	headingSize    = 14.0
	titleSize      = 22.0
	placeholder    = "Not specified"

	disclaimer = "This report was generated automatically and does not constitute legal advice."
	generator  = "LeaseGuard automated lease analysis"
)

// Metadata identifies the analyzed document on the rendered report.
type Metadata struct {
	DocumentID  string
	Filename    string
	GeneratedAt time.Time
}

// Geometry fixes the page dimensions in points. SafeBottom is the zone no
// content block may cross; footers live below it.
type Geometry struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	SafeBottom float64
}

// DefaultGeometry is A4 in points with a 50pt margin.
func DefaultGeometry() Geometry {
	return Geometry{PageWidth: 595.28, PageHeight: 841.89, Margin: 50, SafeBottom: 70}
}

// Renderer turns a reconciled analysis result into a paginated PDF.
// A Renderer is reusable; each Render call builds its own page state, so
// concurrent calls on one Renderer are safe as long as they do not share
// the produced document.
type Renderer struct {
	geom   Geometry
	logger *utils.Logger
}

func NewRenderer(geom Geometry, logger *utils.Logger) *Renderer {
	if geom.PageWidth <= 0 || geom.PageHeight <= 0 {
		geom = DefaultGeometry()
	}
	return &Renderer{geom: geom, logger: logger}
}

// Render lays out the full report and returns the PDF bytes.
func (r *Renderer) Render(result *models.AnalysisResult, meta Metadata) ([]byte, error) {
	l := newLayout(r.geom)

	l.coverPage(result, meta)
	l.propertyFinancialSection(result)
	l.leasePartiesSection(result)
	l.assessmentSection(result)
	l.insightSection(result)
	l.recommendationSection(result)

	data, err := l.output()
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	r.logger.Info("Report rendered", "document_id", meta.DocumentID, "pages", l.pageCount(), "bytes", len(data))
	return data, nil
}

// blockExtent records the vertical span of one drawn block, kept so the
// pagination invariant is checkable without parsing PDF output.
type blockExtent struct {
	page   int
	top    float64
	bottom float64
}

// layout owns one report document under construction. Pages are appended
// only and never reordered; the footer pass happens at output time when the
// page total is known. Not safe for concurrent mutation.
type layout struct {
	pdf     *gofpdf.Fpdf
	geom    Geometry
	section string
	blocks  []blockExtent
}

func newLayout(geom Geometry) *layout {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: geom.PageWidth, Ht: geom.PageHeight},
	})
	pdf.SetMargins(geom.Margin, geom.Margin, geom.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")

	l := &layout{pdf: pdf, geom: geom}

	// Stamped on every page once the total page count is known, so the
	// "Page X of N" numbering is always accurate.
	pdf.SetFooterFunc(func() {
		pdf.SetY(geom.PageHeight - geom.SafeBottom + 14)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 10, disclaimer, "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 10, generator, "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdf.SetY(geom.Margin)
	return l
}

func (l *layout) pageCount() int {
	return l.pdf.PageNo()
}

func (l *layout) contentWidth() float64 {
	return l.geom.PageWidth - 2*l.geom.Margin
}

func (l *layout) safeLimit() float64 {
	return l.geom.PageHeight - l.geom.SafeBottom
}

// ensureSpace opens a new page when a block of height h would cross the
// safe bottom margin, re-emitting the running section header.
func (l *layout) ensureSpace(h float64) {
	if l.pdf.GetY()+h <= l.safeLimit() {
		return
	}
	l.pdf.AddPage()
	l.pdf.SetY(l.geom.Margin)
	if l.section != "" {
		l.drawLine(l.section+" (continued)", "I", 10, bodyLineHeight)
		l.pdf.Ln(4)
	}
}

// drawLine draws one text line at the cursor and records its extent.
// Callers are responsible for having reserved the space.
func (l *layout) drawLine(text, style string, size, height float64) {
	l.pdf.SetFont(fontFamily, style, size)
	top := l.pdf.GetY()
	l.pdf.CellFormat(0, height, text, "", 1, "L", false, 0, "")
	l.blocks = append(l.blocks, blockExtent{page: l.pdf.PageNo(), top: top, bottom: top + height})
}

// textBlock wraps text to the content width and draws it line by line,
// breaking to a continuation page wherever needed.
func (l *layout) textBlock(text, style string, size, height float64) {
	l.pdf.SetFont(fontFamily, style, size)
	lines := wrapText(sanitize(text), l.contentWidth(), l.pdf.GetStringWidth)
	for _, line := range lines {
		l.ensureSpace(height)
		if line == "" {
			l.pdf.Ln(height)
			continue
		}
		l.drawLine(line, style, size, height)
	}
}

// startSection emits a section heading and registers it as the running
// header for continuation pages.
func (l *layout) startSection(title string) {
	l.section = title
	l.ensureSpace(headingSize + 20)
	l.pdf.Ln(6)
	l.drawLine(title, "B", headingSize, headingSize+4)
	y := l.pdf.GetY() + 2
	l.pdf.SetDrawColor(60, 60, 60)
	l.pdf.Line(l.geom.Margin, y, l.geom.PageWidth-l.geom.Margin, y)
	l.pdf.Ln(8)
}

// field draws a labeled value, keeping the label and the first value line
// together across page breaks. Empty values render a placeholder.
func (l *layout) field(label, value string) {
	if value == "" {
		value = placeholder
	}
	l.ensureSpace(2 * bodyLineHeight)
	l.drawLine(sanitize(label), "B", bodySize, bodyLineHeight)
	l.textBlock(value, "", bodySize, bodyLineHeight)
	l.pdf.Ln(4)
}

func (l *layout) coverPage(result *models.AnalysisResult, meta Metadata) {
	l.pdf.SetY(l.geom.PageHeight / 4)
	l.drawCentered("Lease Agreement Analysis Report", "B", titleSize, 30)
	l.pdf.Ln(10)
	if meta.Filename != "" {
		l.drawCentered(sanitize(meta.Filename), "", bodySize+1, bodyLineHeight)
	}
	l.drawCentered("Document ID: "+meta.DocumentID, "", 9, 12)
	l.drawCentered("Generated: "+meta.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 9, 12)

	l.pdf.Ln(30)
	level := result.ComplianceLevel
	if level == "" {
		level = models.ComplianceYellow
	}
	red, green, blue := levelColor(level)
	l.pdf.SetTextColor(red, green, blue)
	l.drawCentered(fmt.Sprintf("Compliance score: %d/100 (%s)", result.ComplianceScore, level), "B", 16, 20)
	l.pdf.SetTextColor(0, 0, 0)
}

func (l *layout) drawCentered(text, style string, size, height float64) {
	l.pdf.SetFont(fontFamily, style, size)
	top := l.pdf.GetY()
	l.pdf.CellFormat(0, height, text, "", 1, "C", false, 0, "")
	l.blocks = append(l.blocks, blockExtent{page: l.pdf.PageNo(), top: top, bottom: top + height})
}

func (l *layout) propertyFinancialSection(result *models.AnalysisResult) {
	l.newContentPage()
	l.startSection("Property & Financial Details")

	p := result.PropertyDetails
	l.field("Address", p.Address)
	l.field("Property type", p.PropertyType)
	l.field("Size", p.Size)
	l.field("Condition", p.Condition)

	f := result.FinancialTerms
	l.field("Monthly rent", f.MonthlyRent)
	l.field("Security deposit", f.Deposit)
	l.field("Utility costs", f.UtilityCosts)
	l.field("Payment terms", f.PaymentTerms)
}

func (l *layout) leasePartiesSection(result *models.AnalysisResult) {
	l.startSection("Lease Period & Parties")

	lp := result.LeasePeriod
	l.field("Start date", lp.StartDate)
	l.field("End date", lp.EndDate)
	l.field("Duration", lp.Duration)
	l.field("Notice period", lp.NoticePeriod)

	l.field("Landlord", result.Parties.Landlord)
	l.field("Tenant", result.Parties.Tenant)
}

func (l *layout) assessmentSection(result *models.AnalysisResult) {
	l.newContentPage()
	l.startSection("Risk Assessment")

	warnings := result.CountBySeverity(models.SeverityWarning)
	moderates := result.CountBySeverity(models.SeverityModerate)
	risk := riskScore(warnings, moderates)

	l.field("Warnings found", fmt.Sprintf("%d", warnings))
	l.field("Moderate issues found", fmt.Sprintf("%d", moderates))
	l.field("Weighted risk score", fmt.Sprintf("%d/100 (%s)", risk, riskLabel(risk)))

	l.drawScoreBar(result)

	if len(result.ComplianceFindings) > 0 {
		l.pdf.Ln(8)
		l.drawLine("Compliance checklist", "B", bodySize+1, bodyLineHeight)
		l.pdf.Ln(2)
		for _, f := range result.ComplianceFindings {
			mark := "[ ]"
			if f.Found {
				mark = "[x]"
			}
			l.textBlock(fmt.Sprintf("%s %s (%s)", mark, f.Requirement, f.LegalReference), "", bodySize, bodyLineHeight)
		}
	}
}

// drawScoreBar renders the compliance score as a proportional bar.
func (l *layout) drawScoreBar(result *models.AnalysisResult) {
	const barHeight = 16.0
	l.ensureSpace(barHeight + 2*bodyLineHeight)

	l.drawLine(fmt.Sprintf("Compliance score: %d/100", result.ComplianceScore), "B", bodySize, bodyLineHeight)
	top := l.pdf.GetY() + 2
	width := l.contentWidth()

	l.pdf.SetFillColor(230, 230, 230)
	l.pdf.Rect(l.geom.Margin, top, width, barHeight, "F")

	score := result.ComplianceScore
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	red, green, blue := levelColor(result.ComplianceLevel)
	l.pdf.SetFillColor(red, green, blue)
	l.pdf.Rect(l.geom.Margin, top, width*float64(score)/100, barHeight, "F")

	l.blocks = append(l.blocks, blockExtent{page: l.pdf.PageNo(), top: top, bottom: top + barHeight})
	l.pdf.SetY(top + barHeight + 6)
}

func (l *layout) insightSection(result *models.AnalysisResult) {
	l.newContentPage()
	l.startSection("Detailed Findings")

	insights := append([]models.Insight(nil), result.Insights...)
	sort.SliceStable(insights, func(i, j int) bool {
		return models.SeverityRank(insights[i].Severity) > models.SeverityRank(insights[j].Severity)
	})

	if len(insights) == 0 {
		l.textBlock("No findings were identified in this document.", "", bodySize, bodyLineHeight)
		return
	}

	for _, in := range insights {
		// Keep the heading and the first content line on the same page.
		l.ensureSpace(3 * bodyLineHeight)

		red, green, blue := severityColor(in.Severity)
		l.pdf.SetTextColor(red, green, blue)
		title := in.Title
		if title == "" {
			title = placeholder
		}
		l.drawLine(fmt.Sprintf("%s [%s]", sanitize(title), in.Severity), "B", bodySize+1, bodyLineHeight)
		l.pdf.SetTextColor(0, 0, 0)

		if in.Rating != nil {
			label := in.Rating.Label
			if label == "" {
				label = "rating"
			}
			l.drawLine(fmt.Sprintf("%s: %d/100", sanitize(label), in.Rating.Value), "I", 9, 12)
		}

		l.textBlock(in.Content, "", bodySize, bodyLineHeight)
		for _, ind := range in.Indicators {
			l.textBlock("- "+ind, "", bodySize, bodyLineHeight)
		}
		l.pdf.Ln(6)
	}
}

func (l *layout) recommendationSection(result *models.AnalysisResult) {
	l.startSection("Recommendations")

	if len(result.Recommendations) == 0 {
		l.textBlock("No specific recommendations.", "", bodySize, bodyLineHeight)
		return
	}
	for i, rec := range result.Recommendations {
		l.textBlock(fmt.Sprintf("%d. %s", i+1, rec), "", bodySize, bodyLineHeight)
		l.pdf.Ln(2)
	}
}

// newContentPage starts the next section on a fresh page.
func (l *layout) newContentPage() {
	l.section = ""
	l.pdf.AddPage()
	l.pdf.SetY(l.geom.Margin)
}

func (l *layout) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// riskScore weights warnings over moderate issues, capped at 100.
func riskScore(warnings, moderates int) int {
	score := 25*warnings + 10*moderates
	if score > 100 {
		score = 100
	}
	return score
}

func riskLabel(score int) string {
	switch {
	case score >= 75:
		return "high risk"
	case score >= 40:
		return "elevated risk"
	case score >= 15:
		return "moderate risk"
	default:
		return "low risk"
	}
}

func levelColor(level models.ComplianceLevel) (int, int, int) {
	switch level {
	case models.ComplianceGreen:
		return 46, 125, 50
	case models.ComplianceRed:
		return 183, 28, 28
	default:
		return 230, 145, 20
	}
}

func severityColor(tier models.SeverityTier) (int, int, int) {
	switch tier {
	case models.SeverityWarning:
		return 183, 28, 28
	case models.SeverityModerate:
		return 230, 145, 20
	default:
		return 90, 90, 90
	}
}
