package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yacobolo/twconfig"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the Tailwind config and write generated files",
	Long: `Resolve the config files of the project and its layers, merge them with the
content globs of every layer, finalize the result and write the generated
files (CSS entry, exposed modules, editor config) to the build directory.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	buildCmd.Flags().Bool("strict", false, "Exit 1 on warnings too (CI mode)")
}

// addBuildFlags registers the flags shared by every command that builds.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("build-dir", twconfig.DefaultBuildDir, "Directory for generated files")
	f.Bool("production", false, "Production build (exports the viewer config)")
	f.Bool("dry-run", false, "Build without writing files")
	f.String("format", "", "Output format: summary|modules|config|json")
	f.Bool("print-source", false, "Show the reporting component after each diagnostic")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	result, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	return printResult(cmd, result, "")
}

// setup runs one build from koanf state. mutate may adjust the config.
func setup(cmd *cobra.Command, mutate func(*twconfig.Config)) (*twconfig.Result, error) {
	config, err := buildSetupConfig(newLogger(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&config)
	}

	result, err := twconfig.Setup(cmd.Context(), config)
	if err != nil {
		return nil, fmt.Errorf("build failed: %w", err)
	}
	return result, nil
}

// printResult writes result and applies the exit gate: errors always fail,
// warnings only in strict mode.
func printResult(cmd *cobra.Command, result *twconfig.Result, commandFormat twconfig.OutputFormat) error {
	format, outputConfig := buildOutputConfig(commandFormat)
	if err := twconfig.WriteOutput(cmd.OutOrStdout(), result, format, outputConfig); err != nil {
		return err
	}

	var errors, warnings int
	for _, d := range result.Diagnostics {
		switch d.Severity {
		case twconfig.SeverityError:
			errors++
		case twconfig.SeverityWarning:
			warnings++
		}
	}
	if errors > 0 {
		return fmt.Errorf("build reported %d error(s)", errors)
	}
	if warnings > 0 && getBoolWithFallback("strict", "build.strict", false) {
		return fmt.Errorf("strict mode: build reported %d warning(s)", warnings)
	}
	return nil
}
