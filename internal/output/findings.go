// # internal/output/findings.go
package output

import (
	"sort"
)

type Category string

const (
	CategoryParseError         Category = "ParseError"
	CategoryConsoleCall        Category = "ConsoleCall"
	CategoryUnusedExport       Category = "UnusedExport"
	CategoryUnusedImport       Category = "UnusedImport"
	CategoryUnusedVariable     Category = "UnusedVariable"
	CategoryUnusedCssClass     Category = "UnusedCssClass"
	CategoryUnusedPackage      Category = "UnusedPackage"
	CategoryUnresolvedImport   Category = "UnresolvedImport"
	CategoryVulnerability      Category = "Vulnerability"
	CategoryKnownVulnerability Category = "KnownVulnerability"
	CategoryAuditUnavailable   Category = "AuditUnavailable"
)

// Severity is a tagged enumeration, not a boolean "used" flag: dead-code
// findings distinguish unused from possibly-unused so dynamic references
// neither hide dead code nor condemn live code.
type Severity string

const (
	SeverityCritical       Severity = "critical"
	SeverityHigh           Severity = "high"
	SeverityMedium         Severity = "medium"
	SeverityInfo           Severity = "info"
	SeverityUnused         Severity = "unused"
	SeverityPossiblyUnused Severity = "possibly-unused"
)

// Finding is one reported issue. Immutable once created.
type Finding struct {
	Category    Category
	Severity    Severity
	File        string
	Line        int
	Description string
}

// Sort orders findings by file, line, category, description. Running the
// engine twice over an unchanged tree yields byte-identical reports.
func Sort(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Description < b.Description
	})
}

var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
}

// ShouldFail reports whether the findings cross the configured exit
// threshold ("critical", "high", "medium" or "never").
func ShouldFail(findings []Finding, failOn string) bool {
	threshold := 0
	switch failOn {
	case "never":
		return false
	case "critical":
		threshold = severityRank[SeverityCritical]
	case "medium":
		threshold = severityRank[SeverityMedium]
	default:
		threshold = severityRank[SeverityHigh]
	}

	for _, f := range findings {
		if severityRank[f.Severity] >= threshold {
			return true
		}
	}
	return false
}

// CountByCategory summarizes findings for the terminal report and history
// snapshots.
func CountByCategory(findings []Finding) map[Category]int {
	counts := make(map[Category]int)
	for _, f := range findings {
		counts[f.Category]++
	}
	return counts
}

// CountBySeverity mirrors CountByCategory for severities.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
