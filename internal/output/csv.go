// # internal/output/csv.go
package output

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVGenerator renders the finding sequence as delimited text. encoding/csv
// handles the quoting that descriptions with commas and embedded quotes
// need; a hand-rolled writer would get that wrong.
type CSVGenerator struct{}

func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

func (c *CSVGenerator) Generate(findings []Finding) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Category", "Severity", "File", "Line", "Description"}); err != nil {
		return "", err
	}

	for _, f := range findings {
		line := ""
		if f.Line > 0 {
			line = strconv.Itoa(f.Line)
		}
		record := []string{string(f.Category), string(f.Severity), f.File, line, f.Description}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}
