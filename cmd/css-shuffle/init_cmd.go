package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .css-shuffle.yaml config file",
	Long:  `Create a .css-shuffle.yaml configuration file in the current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(defaultConfigPath); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", defaultConfigPath)
		}

		if err := os.WriteFile(defaultConfigPath, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", defaultConfigPath)
		return nil
	},
}

const defaultConfig = `# css-shuffle configuration
# Docs: https://github.com/M3DZIK/css-shuffle

input: dist
output: ""               # empty rewrites input in place
include:
  - "**/*.css"
  - "**/*.html"
exclude: []              # gitignore-style patterns
preserve: []             # .class, #id or --property, globs allowed
inline-styles: false     # also rewrite style="" attributes
workers: 0               # 0 = number of CPUs
dry-run: false
clean: false             # empty a separate output directory first

# Reporting
verbose: false
format: text             # text | json
stats: false

# Diagnostics on stderr
log:
  level: error           # debug | info | warn | error
  format: text           # text | json

# Rename table export
mapping:
  file: ""
  format: json           # json | yaml
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
