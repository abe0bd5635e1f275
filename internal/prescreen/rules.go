package prescreen

import (
	"github.com/leaseguard/leaseguard-api/internal/models"
)

// Rule pairs a pattern with the violation it indicates. Patterns are
// compiled and validated when the engine is constructed; a pattern that
// fails to compile is a configuration error, not a runtime one.
type Rule struct {
	Pattern        string
	Description    string
	Severity       models.SeverityTier
	LegalReference string
	Weight         int
}

// ChecklistItem is one required element of a lease agreement. It is
// independent of the violation rules and only checks for presence.
type ChecklistItem struct {
	Requirement    string
	Pattern        string
	LegalReference string
}

// DefaultRules flag clause language that courts routinely strike down in
// residential leases. Ordering is preserved in scan output.
var DefaultRules = []Rule{
	{
		Pattern:        `(?i)tenant\s+waives?\s+(all|any)\s+(rights?|claims?)`,
		Description:    "Blanket waiver of tenant rights",
		Severity:       models.SeverityWarning,
		LegalReference: "Civil Code § 6:102",
		Weight:         25,
	},
	{
		Pattern:        `(?i)landlord\s+may\s+(enter|access)\s+.{0,40}(at\s+any\s+time|without\s+notice)`,
		Description:    "Unrestricted landlord entry",
		Severity:       models.SeverityWarning,
		LegalReference: "Housing Act § 12(2)",
		Weight:         20,
	},
	{
		Pattern:        `(?i)(rent|fee)s?\s+may\s+be\s+(changed|increased|adjusted)\s+.{0,40}(sole\s+discretion|unilaterally|without\s+(the\s+)?tenant)`,
		Description:    "Unilateral rent modification",
		Severity:       models.SeverityWarning,
		LegalReference: "Civil Code § 6:191",
		Weight:         25,
	},
	{
		Pattern:        `(?i)immediate(ly)?\s+(eviction|vacate|terminate)\s+.{0,60}without\s+(notice|cause|court)`,
		Description:    "Immediate eviction without process",
		Severity:       models.SeverityWarning,
		LegalReference: "Housing Act § 24",
		Weight:         30,
	},
	{
		Pattern:        `(?i)deposit\s+.{0,60}(non-?refundable|forfeit(ed)?\s+in\s+full)`,
		Description:    "Non-refundable security deposit",
		Severity:       models.SeverityWarning,
		LegalReference: "Civil Code § 6:431",
		Weight:         20,
	},
	{
		Pattern:        `(?i)penalty\s+of\s+.{0,40}(month'?s?\s+rent|\d{2,}\s*%)`,
		Description:    "Excessive contractual penalty",
		Severity:       models.SeverityModerate,
		LegalReference: "Civil Code § 6:186",
		Weight:         15,
	},
	{
		Pattern:        `(?i)tenant\s+(is\s+)?responsible\s+for\s+(all|structural|major)\s+repairs`,
		Description:    "Structural repair burden shifted to tenant",
		Severity:       models.SeverityModerate,
		LegalReference: "Housing Act § 10",
		Weight:         15,
	},
	{
		Pattern:        `(?i)(no|without)\s+(right\s+of\s+)?(sublet|assignment)\s+.{0,40}under\s+any\s+circumstances`,
		Description:    "Absolute prohibition on subletting",
		Severity:       models.SeverityInformational,
		LegalReference: "Civil Code § 6:340",
		Weight:         5,
	},
}

// DefaultChecklist lists the elements a valid residential lease must contain.
var DefaultChecklist = []ChecklistItem{
	{
		Requirement:    "Identification of the parties",
		Pattern:        `(?i)(landlord|lessor)\s*[:,]|(tenant|lessee)\s*[:,]`,
		LegalReference: "Civil Code § 6:331",
	},
	{
		Requirement:    "Description of the leased property",
		Pattern:        `(?i)(property|premises|apartment|dwelling)\s+(located|situated|at)`,
		LegalReference: "Civil Code § 6:331",
	},
	{
		Requirement:    "Amount of rent",
		Pattern:        `(?i)(monthly\s+)?rent\s+.{0,40}(\d[\d,. ]*|amount)`,
		LegalReference: "Civil Code § 6:332",
	},
	{
		Requirement:    "Payment due date",
		Pattern:        `(?i)(due|payable)\s+(on|by|before)\s+the\s+\d{1,2}`,
		LegalReference: "Civil Code § 6:332",
	},
	{
		Requirement:    "Duration of the lease",
		Pattern:        `(?i)(fixed\s+term|indefinite|until|commenc\w+\s+on|period\s+of)`,
		LegalReference: "Civil Code § 6:338",
	},
	{
		Requirement:    "Security deposit terms",
		Pattern:        `(?i)(security\s+)?deposit`,
		LegalReference: "Civil Code § 6:431",
	},
	{
		Requirement:    "Notice period for termination",
		Pattern:        `(?i)notice\s+(period|of\s+termination)|\d+\s+(days?|months?)\s+notice`,
		LegalReference: "Housing Act § 26",
	},
}
