package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/twconfig"
	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/tree"
)

// resetKoanf creates a fresh koanf instance for each test.
func resetKoanf() {
	k = koanf.New(".")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), defaultConfigFile)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func testCommand(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd
}

func TestConfigFileLoading(t *testing.T) {
	resetKoanf()

	configPath := writeConfig(t, `
root: web
src-dir: src
css:
  - assets/main.css

build:
  dir: gen
  production: true

output:
  format: json
`)
	require.NoError(t, loadConfigFromPath(configPath))

	assert.Equal(t, "web", k.String("root"))
	assert.Equal(t, "src", k.String("src-dir"))
	assert.Equal(t, []string{"assets/main.css"}, k.Strings("css"))
	assert.Equal(t, "gen", k.String("build.dir"))
	assert.True(t, k.Bool("build.production"))
	assert.False(t, k.Bool("build.dry-run"), "defaults fill missing keys")
	assert.Equal(t, "json", k.String("output.format"))
}

func TestConfigFileNotFound_UsesDefaults(t *testing.T) {
	resetKoanf()

	// A missing config file is not an error
	require.NoError(t, loadConfigFromPath("/nonexistent/.twconfig.yaml"))

	config, err := buildSetupConfig(logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, ".", config.RootDir)
	assert.Empty(t, config.SrcDir)
	assert.Equal(t, twconfig.DefaultBuildDir, config.BuildDir)
	assert.False(t, config.Production)
	assert.Nil(t, config.Project)
	assert.Nil(t, config.Module)
	assert.Empty(t, config.Layers)

	format, output := buildOutputConfig("")
	assert.Equal(t, twconfig.OutputSummary, format)
	assert.False(t, output.PrintSource)
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	resetKoanf()

	configPath := writeConfig(t, `
build:
  dir: from-file
  strict: false
`)

	// Set env vars that should override config file
	t.Setenv("TWCONFIG_BUILD_DIR", "from-env")
	t.Setenv("TWCONFIG_BUILD_STRICT", "true")

	require.NoError(t, loadConfigFromPath(configPath))

	assert.Equal(t, "from-env", k.String("build.dir"))
	assert.True(t, k.Bool("build.strict"))
}

func TestBuildSetupConfig_FromConfigFile(t *testing.T) {
	resetKoanf()

	configPath := writeConfig(t, `
root: /app
project:
  dir:
    assets: static
layers:
  - name: base
    root: ../base
    options:
      srcDir: src
  - root: /shared
tailwindcss:
  exposeConfig:
    level: 3
  viewer: false
`)
	require.NoError(t, loadConfigFromPath(configPath))

	config, err := buildSetupConfig(logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, "/app", config.RootDir)

	assets, ok := config.Project.Path("dir", "assets")
	require.True(t, ok)
	assert.Equal(t, tree.String("static"), assets)

	require.Len(t, config.Layers, 2)
	assert.Equal(t, "base", config.Layers[0].Name)
	assert.Equal(t, "../base", config.Layers[0].RootDir)
	srcDir, _ := config.Layers[0].Options.Get("srcDir")
	assert.Equal(t, tree.String("src"), srcDir)
	assert.Equal(t, "/shared", config.Layers[1].RootDir)
	assert.Nil(t, config.Layers[1].Options)

	level, ok := config.Module.Path("exposeConfig", "level")
	require.True(t, ok)
	assert.Equal(t, tree.Number(3), level)
}

func TestBuildSetupConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "layer without root",
			config:  "layers:\n  - name: base\n",
			wantErr: "layers[0]: root is required",
		},
		{
			name:    "module options not an object",
			config:  "tailwindcss: [1, 2]\n",
			wantErr: "tailwindcss: want object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetKoanf()
			require.NoError(t, loadConfigFromPath(writeConfig(t, tt.config)))

			_, err := buildSetupConfig(logging.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildOutputConfig_CommandFormat(t *testing.T) {
	resetKoanf()
	require.NoError(t, loadConfigFromPath("/nonexistent/.twconfig.yaml"))

	format, _ := buildOutputConfig(twconfig.OutputModules)
	assert.Equal(t, twconfig.OutputModules, format, "command default wins over the configured format")

	require.NoError(t, k.Set("format", "json"))
	format, _ = buildOutputConfig(twconfig.OutputModules)
	assert.Equal(t, twconfig.OutputJSON, format, "--format wins over the command default")

	require.NoError(t, k.Set("quiet", true))
	format, _ = buildOutputConfig(twconfig.OutputModules)
	assert.Equal(t, twconfig.OutputNone, format)
}

func TestExposeOptions(t *testing.T) {
	tests := []struct {
		name   string
		flags  map[string]any
		module *tree.Map
		want   string
	}{
		{
			name: "enabled with defaults",
			want: `{"exposeConfig":{"level":2}}`,
		},
		{
			name:   "keeps configured values",
			module: tree.MapOf("viewer", false, "exposeConfig", map[string]any{"level": 4, "write": true}),
			want:   `{"viewer":false,"exposeConfig":{"level":4,"write":true}}`,
		},
		{
			name:   "flags override",
			flags:  map[string]any{"level": 1, "alias": "#tw"},
			module: tree.MapOf("exposeConfig", true),
			want:   `{"exposeConfig":{"level":1,"alias":"#tw"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetKoanf()
			for key, v := range tt.flags {
				require.NoError(t, k.Set(key, v))
			}
			got := exposeOptions(tt.module)
			assert.Equal(t, tt.want, tree.MustEncode(got))
		})
	}
}

func TestRunBuild(t *testing.T) {
	resetKoanf()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tailwind.config.json"), []byte(`{"prefix":"tw-"}`), 0644))
	configPath := writeConfig(t, "root: "+root+"\ntailwindcss:\n  exposeConfig:\n    write: true\n")
	require.NoError(t, loadConfigFromPath(configPath))

	var out bytes.Buffer
	require.NoError(t, runBuild(testCommand(&out), nil))

	assert.Contains(t, out.String(), "Tailwind config resolved")
	assert.FileExists(t, filepath.Join(root, twconfig.DefaultBuildDir, "tailwind.css"))
	assert.FileExists(t, filepath.Join(root, twconfig.DefaultBuildDir, "tailwind.config", "index.mjs"))
}

func TestRunInspect_Query(t *testing.T) {
	resetKoanf()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tailwind.config.json"), []byte(`{"theme":{"colors":{"primary":"#00f"}}}`), 0644))
	require.NoError(t, loadConfigFromPath(writeConfig(t, "root: "+root+"\n")))
	require.NoError(t, k.Set("query", "$.theme.colors.primary"))

	var out bytes.Buffer
	require.NoError(t, runInspect(testCommand(&out), nil))
	assert.JSONEq(t, `["#00f"]`, out.String())
	assert.NoDirExists(t, filepath.Join(root, twconfig.DefaultBuildDir), "inspect writes nothing")
}

func TestPrintResult_ExitGate(t *testing.T) {
	warning := twconfig.Diagnostic{Severity: twconfig.SeverityWarning, Source: "options", Text: "deprecated"}
	failure := twconfig.Diagnostic{Severity: twconfig.SeverityError, Source: "pipeline", Text: "broken"}

	tests := []struct {
		name    string
		strict  bool
		diags   []twconfig.Diagnostic
		wantErr string
	}{
		{name: "clean"},
		{name: "warning passes", diags: []twconfig.Diagnostic{warning}},
		{name: "warning fails in strict mode", strict: true, diags: []twconfig.Diagnostic{warning}, wantErr: "strict mode: build reported 1 warning(s)"},
		{name: "error always fails", diags: []twconfig.Diagnostic{warning, failure}, wantErr: "build reported 1 error(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetKoanf()
			require.NoError(t, k.Set("strict", tt.strict))

			var out bytes.Buffer
			err := printResult(testCommand(&out), &twconfig.Result{Resolved: tree.NewMap(), Diagnostics: tt.diags}, "")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out bytes.Buffer
	initCmd.SetOut(&out)
	t.Cleanup(func() {
		initCmd.SetOut(nil)
		_ = initCmd.Flags().Set("force", "false")
	})

	// 1. Creates the file
	require.NoError(t, initCmd.RunE(initCmd, nil))
	assert.Equal(t, "Created .twconfig.yaml\n", out.String())

	// 2. The generated file loads cleanly
	resetKoanf()
	require.NoError(t, loadConfigFromPath(defaultConfigFile))
	_, err = buildSetupConfig(logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, ".twconfig", k.String("build.dir"))

	// 3. Refuses to overwrite
	err = initCmd.RunE(initCmd, nil)
	assert.EqualError(t, err, ".twconfig.yaml already exists (use --force to overwrite)")

	// 4. --force overwrites
	require.NoError(t, initCmd.Flags().Set("force", "true"))
	assert.NoError(t, initCmd.RunE(initCmd, nil))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "twconfig dev\n", out.String())
}

func TestFallbackHelpers(t *testing.T) {
	resetKoanf()
	require.NoError(t, k.Set("build.dir", "from-config"))
	require.NoError(t, k.Set("expose.level", 3))
	require.NoError(t, k.Set("build.production", true))

	assert.Equal(t, "from-config", getStringWithFallback("build-dir", "build.dir", "default"))
	assert.Equal(t, "default", getStringWithFallback("missing", "missing.too", "default"))
	assert.Equal(t, 3, getIntWithFallback("level", "expose.level", 2))
	assert.True(t, getBoolWithFallback("production", "build.production", false))

	require.NoError(t, k.Set("build-dir", "from-flag"))
	require.NoError(t, k.Set("production", false))
	assert.Equal(t, "from-flag", getStringWithFallback("build-dir", "build.dir", "default"))
	assert.False(t, getBoolWithFallback("production", "build.production", true))
}
