// Package main provides the twconfig CLI tool for building Tailwind CSS
// configurations.
package main

import (
	"fmt"
	"os"

	"github.com/yacobolo/twconfig/internal/report"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		useColors := getBoolWithFallback("color", "color", false)
		fmt.Fprintf(os.Stderr, "%s %v\n", report.RenderStyle(report.StyleRed, "Error:", useColors), err)
		os.Exit(1)
	}
}
