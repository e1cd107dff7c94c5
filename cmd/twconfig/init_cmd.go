package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .twconfig.yaml config file",
	Long:  `Create a .twconfig.yaml configuration file in the current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(defaultConfigFile); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", defaultConfigFile)
		}

		if err := os.WriteFile(defaultConfigFile, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", defaultConfigFile)
		return nil
	},
}

const defaultConfig = `# twconfig configuration
# Docs: https://github.com/yacobolo/twconfig

# Project layout
root: .
# src-dir: src

# Global CSS stack the Tailwind entry is injected into
css: []

# Build settings
build:
  dir: .twconfig
  production: false
  dry-run: false
  strict: false            # exit 1 on warnings too

# Output settings
output:
  format: summary          # summary | modules | config | json
  print-source: false

# Project options
project:
  extensions: [".js", ".jsx", ".mjs", ".ts", ".tsx", ".vue"]
  dir:
    assets: assets

# Layers this project extends, highest priority first
# layers:
#   - name: base
#     root: ../base

# Module options
tailwindcss:
  cssPath: "~/assets/css/tailwind.css"
  exposeConfig: false
  editorSupport: false
  viewer: false
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
