package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yacobolo/twconfig"
	"github.com/yacobolo/twconfig/internal/merge"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the resolved config without writing files",
	Long: `Build the config in dry-run mode and print it. Use --query to select
values with a JSONPath expression, or --files to list the content files the
resolved globs match.`,
	Example: `  twconfig inspect
  twconfig inspect --query '$.theme.colors'
  twconfig inspect --files`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.String("format", "", "Output format: summary|modules|config|json")
	f.String("query", "", "JSONPath expression to select from the resolved config")
	f.Bool("files", false, "List the content files matched by the resolved config")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	result, err := setup(cmd, func(config *twconfig.Config) {
		config.DryRun = true
	})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if query := k.String("query"); query != "" {
		values, err := twconfig.Query(result.Resolved, query)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("encode query result: %w", err)
		}
		_, _ = fmt.Fprintln(w, string(out))
		return nil
	}

	if k.Bool("files") {
		content, _ := result.Resolved.Get(merge.ContentKey)
		files, stats, err := twconfig.ScanContent(result.RootDir, content)
		if err != nil {
			return fmt.Errorf("scan content: %w", err)
		}
		for _, f := range files {
			_, _ = fmt.Fprintln(w, f)
		}
		_, _ = fmt.Fprintf(w, "\n(%d files, %d discovered, %d skipped)\n",
			stats.FilesScanned, stats.FilesDiscovered, stats.FilesSkipped)
		return nil
	}

	return printResult(cmd, result, twconfig.OutputResolved)
}
