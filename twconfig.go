// Package twconfig builds the Tailwind CSS configuration of a layered
// project.
//
// A project consists of a primary layer and any number of layers it extends.
// Each layer may carry a Tailwind config file (JSON, YAML, JavaScript,
// TypeScript or Starlark). twconfig resolves them, merges them together with
// the content globs derived from the project layout, finalizes the result and
// exposes it as a tree of importable ES modules with type declarations.
//
// # Building
//
//	result, err := twconfig.Setup(ctx, twconfig.Config{
//		RootDir: ".",
//		Module:  tree.MapOf("exposeConfig", true),
//	})
//
// # Watching
//
// Watch rebuilds whenever a resolved config file changes:
//
//	err := twconfig.Watch(ctx, config, func(r *twconfig.Result, err error) { ... })
//
// # CLI Tool
//
// twconfig also provides a CLI tool. Install with:
//
//	go install github.com/yacobolo/twconfig/cmd/twconfig@latest
package twconfig

// Public API:
// - Setup(ctx, Config) (*Result, error)
// - Watch(ctx, Config, func(*Result, error)) error
// - ScanContent(rootDir string, content tree.Value) ([]string, ScanStats, error)
// - Query(cfg *tree.Map, selector string) ([]any, error)
// - DetermineOutputFormat(requested string, quiet bool) OutputFormat
// - WriteOutput(w io.Writer, result *Result, format OutputFormat, config OutputConfig) error
