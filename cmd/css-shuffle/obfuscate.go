package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cssshuffle "github.com/M3DZIK/css-shuffle"
	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

var obfuscateCmd = &cobra.Command{
	Use:     "obfuscate [input]",
	Aliases: []string{"run"},
	Short:   "Rename identifiers in every CSS and HTML file of a directory",
	Long: `Discover every class, id and custom property declared or referenced in the
included stylesheets and <style> blocks, assign each a short alias and rewrite
all references. Without --output the files are rewritten in place.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runObfuscate,
}

func init() {
	addRunFlags(obfuscateCmd)
	addReportFlags(obfuscateCmd)
}

// addRunFlags registers the flags that select and transform input files.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("input", "i", "", "Input directory (default: dist)")
	f.StringP("output", "o", "", "Output directory (default: rewrite input in place)")
	f.StringSlice("include", nil, "Glob patterns of files to process (default: **/*.css, **/*.html)")
	f.StringSlice("exclude", nil, "Gitignore-style patterns of files to skip")
	f.StringSlice("preserve", nil, "Identifiers never renamed: .class, #id, --property (globs allowed)")
	f.Bool("inline-styles", false, "Also rewrite style attributes")
	f.Int("workers", 0, "Parallel file workers (0 = number of CPUs)")
}

// addReportFlags registers the flags that control the run report.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("dry-run", false, "Compute everything, write nothing")
	f.Bool("clean", false, "Empty the output directory before writing (ignored in place)")
	f.String("format", "", "Report format: text|json")
	f.Bool("stats", false, "Print the per-file size table")
	f.String("mapping-file", "", "Write the rename table to this file")
	f.String("mapping-format", "", "Rename table format: json|yaml")
}

func runObfuscate(cmd *cobra.Command, args []string) error {
	config := buildConfig(args)

	result, err := cssshuffle.Obfuscate(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("obfuscation failed: %w", err)
	}

	if path := getStringWithFallback("mapping-file", "mapping.file", ""); path != "" {
		if err := writeMappingFile(path, result.Mapping()); err != nil {
			return err
		}
	}

	return writeReport(cmd.OutOrStdout(), result)
}

// writeReport prints the run report unless --quiet is set.
func writeReport(w io.Writer, result *cssshuffle.Result) error {
	if getBoolWithFallback("quiet", "quiet", false) {
		return nil
	}

	format, err := cssshuffle.ParseOutputFormat(getStringWithFallback("format", "format", "text"))
	if err != nil {
		return err
	}

	return cssshuffle.WriteOutput(w, result, format, cssshuffle.OutputConfig{
		Color:   getBoolWithFallback("color", "color", false),
		Verbose: getBoolWithFallback("verbose", "verbose", false),
		Stats:   getBoolWithFallback("stats", "stats", false),
	})
}

// mappingFormat resolves --mapping-format, falling back to the file extension.
func mappingFormat(path string) (shuffle.MappingFormat, error) {
	name := getStringWithFallback("mapping-format", "mapping.format", "")
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			name = "yaml"
		default:
			name = "json"
		}
	}
	return shuffle.ParseMappingFormat(name)
}

func writeMappingFile(path string, mapping cssshuffle.Mapping) error {
	format, err := mappingFormat(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mapping file: %w", err)
	}
	if err := mapping.Write(f, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing mapping file: %w", err)
	}
	return f.Close()
}
