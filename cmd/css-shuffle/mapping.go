package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cssshuffle "github.com/M3DZIK/css-shuffle"
	"github.com/M3DZIK/css-shuffle/internal/shuffle"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping [input]",
	Short: "Print the rename table without writing any file",
	Long: `Run discovery over the input directory and print the alias assigned to
every class, id and custom property. Nothing is rewritten.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runMapping,
}

func init() {
	addRunFlags(mappingCmd)
	mappingCmd.Flags().String("mapping-file", "", "Write the rename table to this file instead of stdout")
	mappingCmd.Flags().String("mapping-format", "", "Rename table format: json|yaml")
	mappingCmd.Flags().String("namespace", "", "Only print one namespace: class|id|custom-property")
}

func runMapping(cmd *cobra.Command, args []string) error {
	config := buildConfig(args)

	result, err := cssshuffle.Discover(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	mapping := result.Mapping()
	if name := getStringWithFallback("namespace", "mapping.namespace", ""); name != "" {
		ns, err := shuffle.ParseNamespace(name)
		if err != nil {
			return err
		}
		mapping = mapping.Filter(ns)
	}

	// problems go to stderr so stdout stays a valid mapping document
	if len(result.Problems) > 0 && !getBoolWithFallback("quiet", "quiet", false) {
		shuffle.NewReporter(cmd.ErrOrStderr(), shuffle.ReportConfig{
			Color:   getBoolWithFallback("color", "color", false),
			Verbose: getBoolWithFallback("verbose", "verbose", false),
		}).PrintProblems(result.Problems)
	}

	if path := getStringWithFallback("mapping-file", "mapping.file", ""); path != "" {
		return writeMappingFile(path, mapping)
	}

	format, err := mappingFormat("")
	if err != nil {
		return err
	}
	return mapping.Write(cmd.OutOrStdout(), format)
}
