package twconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/twconfig/internal/inject"
	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/paths"
	"github.com/yacobolo/twconfig/internal/pipeline"
	"github.com/yacobolo/twconfig/internal/tree"
)

func newFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, src := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(src), 0o644))
	}
	return fs
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSetup(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/app/tailwind.config.json":  `{"theme":{"colors":{"primary":"#00f"}},"content":["./extra/**/*.html"]}`,
		"/base/tailwind.config.yaml": "theme:\n  colors:\n    secondary: '#0f0'\n",
	})
	build := t.TempDir()
	rec := &logging.Recorder{}

	result, err := Setup(context.Background(), Config{
		RootDir:  "/app",
		BuildDir: build,
		FS:       fs,
		Logger:   rec,
		Layers:   []paths.Layer{{Name: "base", RootDir: "/base"}},
		Module: tree.MapOf(
			"exposeConfig", map[string]any{"level": 1, "write": true},
			"editorSupport", map[string]any{"generateConfig": true},
		),
		CSS: []string{"/app/assets/css/main.css"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	// 1. Layered config, extension layer first
	assert.Equal(t, []string{"/base/tailwind.config.yaml", "/app/tailwind.config.json"}, result.ConfigPaths)

	colors, ok := result.Resolved.Path("theme", "colors")
	require.True(t, ok)
	colorMap, _ := tree.AsMap(colors)
	assert.Equal(t, []string{"secondary", "primary"}, colorMap.Keys())

	files, ok := result.Resolved.Path("content", "files")
	require.True(t, ok)
	assert.Contains(t, tree.Strings(files), "./extra/**/*.html")
	assert.Contains(t, tree.Strings(files), "/app/components/**/*.{vue,js,jsx,mjs,ts,tsx}")
	assert.Contains(t, tree.Strings(files), "/base/components/**/*.{vue,js,jsx,mjs,ts,tsx}")

	// 2. Exposed modules
	require.NotNil(t, result.Graph)
	_, ok = result.Graph.Lookup("theme")
	assert.True(t, ok)
	assert.True(t, exists(filepath.Join(build, "tailwind.config", "theme.mjs")))
	assert.True(t, exists(filepath.Join(build, "types", "tailwind.config.d.ts")))
	assert.True(t, exists(filepath.Join(build, "tailwind.config.cjs")))

	// 3. Generated CSS entry injected first
	assert.True(t, result.CSSEntry.Default)
	cssFile := filepath.Join(build, inject.DefaultCSSName)
	assert.Equal(t, []string{cssFile, "/app/assets/css/main.css"}, result.CSS)
	css, err := os.ReadFile(cssFile)
	require.NoError(t, err)
	assert.Equal(t, inject.DefaultCSS, string(css))

	// 4. Content matcher
	require.NotNil(t, result.Matcher)
	assert.True(t, result.Matcher.Match("/app/components/Button.vue"))
	assert.False(t, result.Matcher.Match("/app/README.md"))
}

func TestSetup_Diagnostics(t *testing.T) {
	fs := newFS(t, map[string]string{"/app/tailwind.config.json": `{{{`})
	build := t.TempDir()

	result, err := Setup(context.Background(), Config{
		RootDir:  "/app",
		BuildDir: build,
		FS:       fs,
		DryRun:   true,
		Module:   tree.MapOf("exposeConfig", true, "exposeLevel", 3),
	})
	require.NoError(t, err)

	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, Diagnostic{
		Severity: SeverityWarning,
		Source:   "options",
		Text:     "Deprecated `exposeLevel`. Use `exposeConfig.level` instead.",
	}, result.Diagnostics[0])
	assert.Equal(t, SeverityWarning, result.Diagnostics[1].Severity)
	assert.Equal(t, "pipeline", result.Diagnostics[1].Source)
	assert.Equal(t, "tailwind.config.json", result.Diagnostics[1].Path)

	assert.Equal(t, 3, result.Options.Expose.Level)
	assert.Empty(t, result.Files)
	entries, err := os.ReadDir(build)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run writes nothing")
}

func TestSetup_CSSEntry(t *testing.T) {
	fs := newFS(t, map[string]string{"/app/assets/css/tw.css": "@tailwind base;"})

	tests := []struct {
		name     string
		position any
		want     []string
		wantErr  string
	}{
		{
			name:     "last",
			position: "last",
			want:     []string{"a.css", "b.css", "/app/assets/css/tw.css"},
		},
		{
			name:     "after",
			position: map[string]any{"after": "a.css"},
			want:     []string{"a.css", "/app/assets/css/tw.css", "b.css"},
		},
		{
			name:     "invalid literal",
			position: "middle",
			wantErr:  "failed to resolve Tailwind CSS injection position: invalid literal: middle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Setup(context.Background(), Config{
				RootDir:  "/app",
				BuildDir: t.TempDir(),
				FS:       fs,
				Module:   tree.MapOf("cssPath", []any{"~/assets/css/tw", map[string]any{"injectPosition": tt.position}}),
				CSS:      []string{"a.css", "b.css"},
			})
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				var posErr *inject.InvalidPositionError
				assert.ErrorAs(t, err, &posErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.False(t, result.CSSEntry.Default)
			assert.Equal(t, tt.want, result.CSS)
			assert.Empty(t, result.Files, "an existing entry is not regenerated")
		})
	}
}

func TestSetup_ViewerConfigOnlyInProduction(t *testing.T) {
	tests := []struct {
		name       string
		viewer     any
		production bool
		want       bool
	}{
		{name: "development", viewer: true, want: false},
		{name: "production with the viewer enabled", viewer: true, production: true, want: true},
		{name: "production with static export", viewer: map[string]any{"exportViewer": true}, production: true, want: true},
		{name: "production with the viewer disabled", viewer: false, production: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := t.TempDir()
			result, err := Setup(context.Background(), Config{
				RootDir:    "/app",
				BuildDir:   build,
				FS:         newFS(t, nil),
				Module:     tree.MapOf("cssPath", false, "viewer", tt.viewer),
				Production: tt.production,
			})
			require.NoError(t, err)
			assert.Nil(t, result.CSS)
			assert.Equal(t, tt.want, exists(filepath.Join(build, "tailwind.config", "viewer-config.cjs")))
		})
	}
}

func TestSetup_QuietSilencesLoggerButKeepsDiagnostics(t *testing.T) {
	fs := newFS(t, map[string]string{"/app/tailwind.config.json": `{{{`})
	rec := &logging.Recorder{}

	result, err := Setup(context.Background(), Config{
		RootDir: "/app",
		FS:      fs,
		DryRun:  true,
		Logger:  rec,
		Module:  tree.MapOf("quiet", true, "addTwUtil", true),
	})
	require.NoError(t, err)

	assert.Empty(t, rec.Entries(), "nothing reaches the injected logger")
	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, "options", result.Diagnostics[0].Source)
	assert.Equal(t, "pipeline", result.Diagnostics[1].Source)
}

func TestSetup_DisableHMRHotfix(t *testing.T) {
	result, err := Setup(context.Background(), Config{
		RootDir: "/app",
		FS:      newFS(t, nil),
		DryRun:  true,
		Module:  tree.MapOf("disableHmrHotfix", true),
	})
	require.NoError(t, err)
	assert.Nil(t, result.Matcher)
}

func TestSetup_ResolverErrorIsReturnedUnchanged(t *testing.T) {
	errBoom := errors.New("boom")

	result, err := Setup(context.Background(), Config{
		RootDir: "/app",
		FS:      newFS(t, nil),
		DryRun:  true,
		Resolver: pipeline.ResolverFunc(func(context.Context, *tree.Map) (*tree.Map, error) {
			return nil, errBoom
		}),
	})
	assert.Nil(t, result)
	assert.Equal(t, errBoom, err)
}

func TestSetup_InvalidModuleOption(t *testing.T) {
	_, err := Setup(context.Background(), Config{
		RootDir: "/app",
		FS:      newFS(t, nil),
		DryRun:  true,
		Module:  tree.MapOf("cssPath", true),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module options")
}
