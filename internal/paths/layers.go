package paths

import (
	"context"
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/yacobolo/twconfig/internal/merge"
	"github.com/yacobolo/twconfig/internal/tree"
)

// DefaultConfigName is the extension-less config candidate of a layer.
const DefaultConfigName = "tailwind.config"

// Layer is one project definition: the primary project or a layer it extends.
type Layer struct {
	Name    string
	RootDir string
	SrcDir  string    // empty means RootDir
	Options *tree.Map // declared options, including an optional `tailwindcss` block
}

// Resolution is the ordered outcome of resolving every layer.
type Resolution struct {
	ConfigPaths  []string
	ContentGlobs []string
}

// Resolver resolves config paths and content globs across layers.
type Resolver struct {
	FS         billy.Basic
	Extensions []string
}

// NewResolver returns a resolver probing fsys with the default extensions.
func NewResolver(fsys billy.Basic) *Resolver {
	return &Resolver{FS: fsys, Extensions: DefaultConfigExtensions}
}

type layerPaths struct {
	configs []string
	globs   []string
}

// ResolveLayered resolves the primary layer with the module's configPath
// candidates and every extension layer with its own candidates. Layers are
// resolved concurrently and recombined deterministically: extension layers in
// reverse declaration order, then the primary layer. Each layer keeps the
// relative order of its own entries.
func (r *Resolver) ResolveLayered(ctx context.Context, primary Layer, extensions []Layer, configPath []string) (Resolution, error) {
	results := make([]layerPaths, len(extensions)+1)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		opts, err := DecodeProjectOptions(primary.Options, primary.RootDir, primary.srcDir())
		if err != nil {
			return fmt.Errorf("layer %s: %w", primary.label(), err)
		}
		results[0] = layerPaths{
			configs: ResolveConfigCandidates(r.FS, rooted(primary.RootDir, configPath), r.exts()),
			globs:   ContentGlobs(opts.SrcDir, opts),
		}
		return nil
	})

	for i, layer := range extensions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lp, err := r.resolveExtension(ctx, primary, layer)
			if err != nil {
				return fmt.Errorf("layer %s: %w", layer.label(), err)
			}
			results[i+1] = lp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	var res Resolution
	for i := len(extensions); i >= 1; i-- {
		res.ConfigPaths = append(res.ConfigPaths, results[i].configs...)
		res.ContentGlobs = append(res.ContentGlobs, results[i].globs...)
	}
	res.ConfigPaths = append(res.ConfigPaths, results[0].configs...)
	res.ContentGlobs = append(res.ContentGlobs, results[0].globs...)
	return res, nil
}

func (r *Resolver) resolveExtension(ctx context.Context, primary, layer Layer) (layerPaths, error) {
	options, err := merge.Merge(ctx, primary.Options, layer.Options)
	if err != nil {
		return layerPaths{}, err
	}
	// The primary project's srcDir must not leak into the layer.
	options.Delete("srcDir")
	options.Delete("rootDir")

	opts, err := DecodeProjectOptions(options, layer.RootDir, layer.srcDir())
	if err != nil {
		return layerPaths{}, err
	}

	candidates := LayerConfigPath(layer)
	return layerPaths{
		configs: ResolveConfigCandidates(r.FS, rooted(layer.RootDir, candidates), r.exts()),
		globs:   ContentGlobs(opts.SrcDir, opts),
	}, nil
}

// LayerConfigPath returns the config candidates a layer declares under
// `tailwindcss.configPath`, or `<root>/tailwind.config`.
func LayerConfigPath(layer Layer) []string {
	if v, ok := layer.Options.Path("tailwindcss", "configPath"); ok {
		switch t := v.(type) {
		case tree.String:
			if t != "" {
				return []string{string(t)}
			}
		case tree.List:
			if s := tree.Strings(t); len(s) > 0 {
				return s
			}
		}
	}
	return []string{path.Join(layer.RootDir, DefaultConfigName)}
}

func (r *Resolver) exts() []string {
	if r.Extensions == nil {
		return DefaultConfigExtensions
	}
	return r.Extensions
}

func (l Layer) srcDir() string {
	if l.SrcDir != "" {
		return resolve(l.RootDir, l.SrcDir)
	}
	if v, ok := l.Options.Path("srcDir"); ok {
		if s, ok := v.(tree.String); ok && s != "" {
			return resolve(l.RootDir, string(s))
		}
	}
	return l.RootDir
}

func (l Layer) label() string {
	if l.Name != "" {
		return l.Name
	}
	return l.RootDir
}

func rooted(root string, candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		out = append(out, resolve(root, c))
	}
	return out
}
