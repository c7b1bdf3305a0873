package cssshuffle

import (
	"fmt"
	"io"
	"strings"

	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

// OutputFormat represents the report format
type OutputFormat string

const (
	// OutputText prints problems, the size table and a summary for humans
	OutputText OutputFormat = "text"
	// OutputJSON exports structured data in JSON format (tooling integration)
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// OutputConfig controls what the text report contains.
type OutputConfig struct {
	Color   bool // Force colored output
	Verbose bool // Print source context under parse errors
	Stats   bool // Print the size table
	Quiet   bool // Print problems only
}

// WriteOutput writes the run result in the specified format
func WriteOutput(w io.Writer, result *Result, format OutputFormat, config OutputConfig) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, result)

	case OutputText, "":
		reporter := shuffle.NewReporter(w, shuffle.ReportConfig{Color: config.Color, Verbose: config.Verbose})
		reporter.PrintProblems(result.Problems)
		if config.Quiet {
			return nil
		}
		if config.Stats {
			reporter.PrintStats(result.Files)
		}
		reporter.PrintSummary(result.Summary())
		return nil
	}

	return fmt.Errorf("unknown output format %q", format)
}
