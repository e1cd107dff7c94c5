package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yacobolo/twconfig"
	"github.com/yacobolo/twconfig/internal/report"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever a config file changes",
	Long: `Build once, then watch the resolved config files of the project and its
layers and rebuild on every change until interrupted.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runWatch,
}

func init() {
	addBuildFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	config, err := buildSetupConfig(newLogger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	format, outputConfig := buildOutputConfig("")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	err = twconfig.Watch(ctx, config, func(result *twconfig.Result, err error) {
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", report.RenderStyle(report.StyleRed, "Build failed:", outputConfig.UseColors), err)
			return
		}
		if err := twconfig.WriteOutput(w, result, format, outputConfig); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "write output: %v\n", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
