package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yacobolo/twconfig"
	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/paths"
	"github.com/yacobolo/twconfig/internal/tree"
)

const defaultConfigFile = ".twconfig.yaml"

var k = koanf.New(".")

// defaults are the lowest-precedence values of the config file keys.
func defaults() map[string]any {
	return map[string]any{
		"root":                ".",
		"build.dir":           twconfig.DefaultBuildDir,
		"build.production":    false,
		"build.dry-run":       false,
		"build.strict":        false,
		"output.format":       string(twconfig.OutputSummary),
		"output.print-source": false,
	}
}

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigFile
	}

	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// 4. CLI flags (highest precedence, only flags that were explicitly set)
	flags := cmd.Flags()
	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		return f.Name, posflag.FlagVal(flags, f)
	}), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

// loadConfigFromPath loads defaults, a config file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Config file
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 3. Environment variables (TWCONFIG_* prefix)
	if err := k.Load(env.Provider("TWCONFIG_", ".", func(s string) string {
		// TWCONFIG_BUILD_DIR -> build.dir
		// TWCONFIG_ROOT -> root
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "TWCONFIG_")),
			"_", ".",
		)
	}), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// layerConfig is one entry of the `layers` list.
type layerConfig struct {
	Name    string         `koanf:"name"`
	Root    string         `koanf:"root"`
	SrcDir  string         `koanf:"src-dir"`
	Options map[string]any `koanf:"options"`
}

// buildSetupConfig constructs the library's Config struct from koanf state.
func buildSetupConfig(logger logging.Logger) (twconfig.Config, error) {
	config := twconfig.Config{
		RootDir:    getStringWithFallback("root", "root", "."),
		SrcDir:     getStringWithFallback("src-dir", "src-dir", ""),
		BuildDir:   getStringWithFallback("build-dir", "build.dir", twconfig.DefaultBuildDir),
		Production: getBoolWithFallback("production", "build.production", false),
		DryRun:     getBoolWithFallback("dry-run", "build.dry-run", false),
		CSS:        k.Strings("css"),
		Logger:     logger,
	}

	var err error
	if config.Project, err = treeMap("project"); err != nil {
		return config, err
	}
	if config.Module, err = treeMap("tailwindcss"); err != nil {
		return config, err
	}

	var layers []layerConfig
	if err := k.Unmarshal("layers", &layers); err != nil {
		return config, fmt.Errorf("layers: %w", err)
	}
	for i, l := range layers {
		if l.Root == "" {
			return config, fmt.Errorf("layers[%d]: root is required", i)
		}
		layer := paths.Layer{Name: l.Name, RootDir: l.Root, SrcDir: l.SrcDir}
		if l.Options != nil {
			opts, err := tree.FromGo(l.Options)
			if err != nil {
				return config, fmt.Errorf("layers[%d].options: %w", i, err)
			}
			layer.Options, _ = tree.AsMap(opts)
		}
		config.Layers = append(config.Layers, layer)
	}

	return config, nil
}

// buildOutputConfig constructs the output settings from koanf state.
// commandFormat, if set, replaces the configured format unless --format
// is given.
func buildOutputConfig(commandFormat twconfig.OutputFormat) (twconfig.OutputFormat, twconfig.OutputConfig) {
	requested := getStringWithFallback("format", "output.format", "")
	if commandFormat != "" && !k.Exists("format") {
		requested = string(commandFormat)
	}
	quiet := getBoolWithFallback("quiet", "quiet", false)
	format := twconfig.DetermineOutputFormat(requested, quiet)
	return format, twconfig.OutputConfig{
		UseColors:   getBoolWithFallback("color", "color", false),
		PrintSource: getBoolWithFallback("print-source", "output.print-source", false),
	}
}

// newLogger returns the diagnostic logger. Diagnostics are printed by the
// reporter, so only errors are logged unless --verbose is set.
func newLogger(w io.Writer) *logging.ZeroLogger {
	level := "error"
	switch {
	case getBoolWithFallback("quiet", "quiet", false):
		level = "disabled"
	case getBoolWithFallback("verbose", "verbose", false):
		level = "info"
	}
	return logging.New(logging.Config{Level: level, Output: w, Console: true})
}

// treeMap converts the object at key into a tree. A missing key gives nil.
func treeMap(key string) (*tree.Map, error) {
	raw := k.Get(key)
	if raw == nil {
		return nil, nil
	}
	v, err := tree.FromGo(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	m, ok := tree.AsMap(v)
	if !ok {
		return nil, fmt.Errorf("%s: want object, got %s", key, tree.KindOf(v))
	}
	return m, nil
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getIntWithFallback checks the flag key first, then the config file key, then returns the default.
func getIntWithFallback(flagKey, configKey string, defaultVal int) int {
	if k.Exists(flagKey) {
		return k.Int(flagKey)
	}
	if k.Exists(configKey) {
		return k.Int(configKey)
	}
	return defaultVal
}
