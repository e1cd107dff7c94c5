package twconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/yacobolo/twconfig/internal/emit"
	"github.com/yacobolo/twconfig/internal/inject"
	"github.com/yacobolo/twconfig/internal/loader"
	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/merge"
	"github.com/yacobolo/twconfig/internal/options"
	"github.com/yacobolo/twconfig/internal/paths"
	"github.com/yacobolo/twconfig/internal/pipeline"
	"github.com/yacobolo/twconfig/internal/synth"
	"github.com/yacobolo/twconfig/internal/tree"
	"github.com/yacobolo/twconfig/internal/watch"
)

// DefaultBuildDir is the build directory relative to the project root.
const DefaultBuildDir = ".twconfig"

// Config describes one project build.
type Config struct {
	RootDir  string
	SrcDir   string    // defaults to the project's srcDir, then RootDir
	BuildDir string    // defaults to <RootDir>/.twconfig
	Project  *tree.Map // declared project options (extensions, dir, components, imports, alias)
	Layers   []paths.Layer
	Module   *tree.Map // `tailwindcss` module options
	CSS      []string  // global CSS stack the entry is injected into

	Production   bool // enables the viewer config export
	WriteModules bool // write exposed modules even if exposeConfig.write is off
	DryRun       bool // write nothing

	Hooks    pipeline.Hooks
	Resolver pipeline.Resolver
	Logger   logging.Logger
	FS       billy.Basic // defaults to the OS filesystem
}

// Result is the outcome of a successful build.
type Result struct {
	RootDir      string
	ConfigPaths  []string
	ContentGlobs []string
	Merged       *tree.Map
	Resolved     *tree.Map
	Graph        *synth.Graph // nil unless exposeConfig is enabled
	CSS          []string
	CSSEntry     inject.Entry
	CSSFile      string // entry placed in CSS; the generated default when CSSEntry.Default
	Files        []emit.File
	Matcher      *watch.ContentMatcher // nil when the HMR hotfix is disabled
	Options      options.Options
	Diagnostics  []Diagnostic
}

func (cfg Config) withDefaults() (Config, error) {
	if cfg.RootDir == "" {
		cfg.RootDir = "."
	}
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return cfg, fmt.Errorf("resolve root dir: %w", err)
	}
	cfg.RootDir = root
	if cfg.SrcDir != "" && !filepath.IsAbs(cfg.SrcDir) {
		cfg.SrcDir = filepath.Join(root, cfg.SrcDir)
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = filepath.Join(root, DefaultBuildDir)
	} else if !filepath.IsAbs(cfg.BuildDir) {
		cfg.BuildDir = filepath.Join(root, cfg.BuildDir)
	}
	cfg.Layers = append([]paths.Layer(nil), cfg.Layers...)
	for i, l := range cfg.Layers {
		if l.RootDir != "" && !filepath.IsAbs(l.RootDir) {
			cfg.Layers[i].RootDir = filepath.Join(root, l.RootDir)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.FS == nil {
		cfg.FS = osfs.New("/")
	}
	return cfg, nil
}

// Setup resolves, merges and finalizes the Tailwind configuration of a
// project, exposes it as modules, places the CSS entry and writes the
// generated files. Every call is an independent build.
func Setup(ctx context.Context, cfg Config) (*Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	diags := newCollector(cfg.Logger, cfg.RootDir)

	// 1. Decode project and module options
	project, err := paths.DecodeProjectOptions(cfg.Project, cfg.RootDir, cfg.SrcDir)
	if err != nil {
		return nil, fmt.Errorf("project options: %w", err)
	}
	opts, deprecated, err := options.Resolve(ctx, cfg.Module, project.Dir.Assets)
	if err != nil {
		return nil, fmt.Errorf("module options: %w", err)
	}
	if opts.Quiet {
		diags.silence()
	}
	options.Report(diags.For("options"), deprecated)

	// 2. Build the config
	var expose *synth.Options
	if opts.Expose != nil {
		expose = &synth.Options{Alias: opts.Expose.Alias, Level: opts.Expose.Level}
	}
	p := pipeline.New(pipeline.Config{
		Layers:   paths.NewResolver(cfg.FS),
		Loader:   loader.New(cfg.FS, diags.For("loader")),
		Resolver: cfg.Resolver,
		Hooks:    cfg.Hooks,
		Logger:   diags.For("pipeline"),
		RootDir:  cfg.RootDir,
	})
	out, err := p.Execute(ctx, pipeline.Input{
		Primary:    paths.Layer{Name: "app", RootDir: cfg.RootDir, SrcDir: project.SrcDir, Options: cfg.Project},
		Extensions: cfg.Layers,
		ConfigPath: opts.ConfigPath,
		Override:   opts.Config,
		Expose:     expose,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		RootDir:      cfg.RootDir,
		ConfigPaths:  out.Paths.ConfigPaths,
		ContentGlobs: out.Paths.ContentGlobs,
		Merged:       out.Merged,
		Resolved:     out.Resolved,
		Graph:        out.Graph,
		CSS:          cfg.CSS,
		Options:      opts,
	}

	// 3. Place the CSS entry
	if opts.CSS.Path != "" {
		cssPath := project.ResolveAlias(opts.CSS.Path)
		if !filepath.IsAbs(cssPath) {
			cssPath = filepath.Join(project.SrcDir, cssPath)
		}
		result.CSSEntry = inject.ResolveEntry(cfg.FS, cssPath)
		entry := result.CSSEntry.Path
		if result.CSSEntry.Default {
			entry = filepath.Join(cfg.BuildDir, inject.DefaultCSSName)
		}
		result.CSSFile = entry
		result.CSS, err = inject.Inject(cfg.CSS, entry, opts.CSS.InjectPosition)
		if err != nil {
			return nil, err
		}
	}

	// 4. Write generated files
	if !cfg.DryRun {
		result.Files, err = write(cfg, opts, result, diags.For("emit"))
		if err != nil {
			return nil, err
		}
	}

	// 5. Content matcher for hot reload
	if !opts.DisableHMRHotfix {
		content, _ := out.Resolved.Get(merge.ContentKey)
		m, err := watch.NewContentMatcher(cfg.RootDir, content)
		if err != nil {
			diags.For("watch").Warn("content matcher disabled", logging.FieldError, err)
		} else {
			result.Matcher = m
		}
	}

	result.Diagnostics = diags.Diagnostics()
	return result, nil
}

func write(cfg Config, opts options.Options, result *Result, logger logging.Logger) ([]emit.File, error) {
	w := emit.NewWriter(cfg.BuildDir, logger)
	var files []emit.File

	if result.CSSEntry.Default {
		f, err := w.WriteDefaultCSS()
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	if result.Graph != nil && (cfg.WriteModules || opts.Expose.Write) {
		written, err := w.WriteGraph(result.Graph)
		if err != nil {
			return nil, err
		}
		files = append(files, written...)
	}

	if opts.EditorSupport != nil && opts.EditorSupport.GenerateConfig {
		f, err := w.WriteEditorConfig(result.Resolved)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	if cfg.Production && opts.Viewer != nil {
		f, err := w.WriteViewerConfig(result.Merged)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
