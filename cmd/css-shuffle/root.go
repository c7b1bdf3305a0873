package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "css-shuffle [input]",
	Short: "Shorten CSS class names, ids and custom properties across a static site",
	Long: `css-shuffle renames every class, id and custom property found in the
stylesheets and <style> blocks of a built site to a short alias, and rewrites
every reference in CSS and HTML to match. Names that only appear in markup are
left untouched.`,
	// Default behavior: run obfuscate when no subcommand is given.
	// We must call loadConfig here because PreRunE of obfuscateCmd
	// is not triggered when delegating via rootCmd.RunE.
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return runObfuscate(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags (inherited by all subcommands)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging and source context for problems")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output (exit code only)")
	rootCmd.PersistentFlags().Bool("color", false, "Force color output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error (default: error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text|json")
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Config file path")

	addRunFlags(rootCmd)
	addReportFlags(rootCmd)

	rootCmd.AddCommand(obfuscateCmd)
	rootCmd.AddCommand(mappingCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}
