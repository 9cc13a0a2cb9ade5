// Package formatting renders command output for the avaportal CLI.
//
// Commands build a Table and hand it to a Formatter chosen by the --output
// flag: a rounded go-pretty table for people, JSON or YAML for scripts.
package formatting

import (
	"io"
	"os"
	"strings"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
	FormatTable OutputFormat = "table" // Rich table output
)

// Formats lists the accepted --output values.
var Formats = []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
}

// Table is tabular command output. Rows hold one value per header.
type Table struct {
	Headers []string
	Rows    [][]string
	// Empty is printed by the table formatter instead of an empty table.
	Empty string
}

// Records returns the rows as header-keyed maps for structured output.
// Keys are the lower-cased headers with spaces replaced by underscores.
func (t Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[recordKey(h)] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}

func recordKey(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

// Formatter writes a Table in one output format.
type Formatter interface {
	Format(t Table) error
}

// NewFormatter returns the formatter for options.Format writing to w.
// Unknown formats fall back to the table formatter. A nil w means stdout.
func NewFormatter(options Options, w io.Writer) Formatter {
	if w == nil {
		w = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options, out: w}
	case FormatYAML:
		return &YAMLFormatter{options: options, out: w}
	default:
		return &TableFormatter{options: options, out: w}
	}
}

// ValidFormat reports whether s is an accepted --output value.
func ValidFormat(s string) bool {
	for _, f := range Formats {
		if f == s {
			return true
		}
	}
	return false
}
