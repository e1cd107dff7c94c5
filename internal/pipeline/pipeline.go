// Package pipeline turns project layers into one resolved Tailwind
// configuration.
//
// A run moves through fixed states:
//
//	Idle → LayersResolved → FragmentsLoaded → Merged → Resolved → Exposed
//
// and ends in Failed on any fatal error. Fragment load failures are not
// fatal: they are logged and replaced by an empty fragment.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/merge"
	"github.com/yacobolo/twconfig/internal/paths"
	"github.com/yacobolo/twconfig/internal/synth"
	"github.com/yacobolo/twconfig/internal/tree"
)

// State is the position of a run in the pipeline.
type State int

const (
	StateIdle State = iota
	StateLayersResolved
	StateFragmentsLoaded
	StateMerged
	StateResolved
	StateExposed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLayersResolved:
		return "layers-resolved"
	case StateFragmentsLoaded:
		return "fragments-loaded"
	case StateMerged:
		return "merged"
	case StateResolved:
		return "resolved"
	case StateExposed:
		return "exposed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAlreadyRun is returned when Execute is called on a used pipeline.
var ErrAlreadyRun = errors.New("pipeline has already run")

// FragmentLoader decodes one config file.
type FragmentLoader interface {
	Load(ctx context.Context, path string) (*tree.Map, error)
}

// LayerResolver computes config paths and content globs for every layer.
type LayerResolver interface {
	ResolveLayered(ctx context.Context, primary paths.Layer, extensions []paths.Layer, configPath []string) (paths.Resolution, error)
}

// Resolver expands a merged config into its final form, for example by
// filling in theme defaults.
type Resolver interface {
	Resolve(ctx context.Context, merged *tree.Map) (*tree.Map, error)
}

// PassthroughResolver returns a copy of the merged config without functions.
type PassthroughResolver struct{}

// Resolve implements Resolver.
func (PassthroughResolver) Resolve(_ context.Context, merged *tree.Map) (*tree.Map, error) {
	if merged == nil {
		return tree.NewMap(), nil
	}
	m, _ := tree.AsMap(tree.StripFuncs(merged))
	return m, nil
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, merged *tree.Map) (*tree.Map, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, merged *tree.Map) (*tree.Map, error) {
	return f(ctx, merged)
}

// Hooks are optional callbacks run at fixed points. Each hook finishes
// before the pipeline moves on.
type Hooks struct {
	// LoadConfig runs once per fragment in load order. A non-nil result
	// replaces the fragment.
	LoadConfig func(ctx context.Context, fragment *tree.Map, path string, index, total int) (*tree.Map, error)
	// Config runs once on the merged tree and may modify it.
	Config func(ctx context.Context, merged *tree.Map) error
	// ResolvedConfig runs once on the resolved tree and may modify it.
	ResolvedConfig func(ctx context.Context, resolved *tree.Map) error
}

// Config wires a pipeline.
type Config struct {
	Layers   LayerResolver
	Loader   FragmentLoader
	Resolver Resolver // defaults to PassthroughResolver
	Hooks    Hooks
	Logger   logging.Logger
	RootDir  string // warnings report paths relative to it
}

// Pipeline runs one configuration build. It is not reusable: every build,
// including watch-triggered rebuilds, uses a new Pipeline.
type Pipeline struct {
	cfg Config

	mu    sync.Mutex
	state State
}

// New returns an idle pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Resolver == nil {
		cfg.Resolver = PassthroughResolver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Pipeline{cfg: cfg}
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.cfg.Logger.Info("pipeline state", logging.FieldState, s.String())
}

func (p *Pipeline) fail(err error) error {
	p.setState(StateFailed)
	return err
}

// LoadFragment loads one fragment. Failures are logged as warnings and yield
// an empty fragment. A fragment with a legacy `purge` key and no `content`
// gets `content` copied from `purge`.
func (p *Pipeline) LoadFragment(ctx context.Context, path string) *tree.Map {
	frag, err := p.cfg.Loader.Load(ctx, path)
	if err != nil {
		p.cfg.Logger.Warn("failed to load config, using empty fragment",
			logging.FieldPath, p.rel(path),
			logging.FieldError, err,
		)
		return tree.NewMap()
	}
	if frag == nil {
		return tree.NewMap()
	}
	if !frag.Has(merge.ContentKey) {
		if purge, ok := frag.Get("purge"); ok {
			frag.Set(merge.ContentKey, tree.Clone(purge))
		}
	}
	return frag
}

// Run loads configPaths and folds them onto a seed built from the content
// globs and the user override. The fragments are reduced left to right, so
// later paths take precedence over earlier ones and over the override.
func (p *Pipeline) Run(ctx context.Context, configPaths []string, override *tree.Map, contentGlobs []string) (*tree.Map, error) {
	fragments, err := p.loadAll(ctx, configPaths)
	if err != nil {
		return nil, p.fail(err)
	}

	// Per-fragment hook, strictly in load order.
	if hook := p.cfg.Hooks.LoadConfig; hook != nil {
		for i, frag := range fragments {
			replaced, err := hook(ctx, frag, configPaths[i], i, len(fragments))
			if err != nil {
				return nil, p.fail(fmt.Errorf("hook loadConfig (%s): %w", p.rel(configPaths[i]), err))
			}
			if replaced != nil {
				fragments[i] = replaced
			}
		}
	}
	p.setState(StateFragmentsLoaded)

	base := tree.NewMap()
	base.Set(merge.ContentKey, tree.StringList(contentGlobs...))
	seed, err := merge.Merge(ctx, base, override)
	if err != nil {
		return nil, p.fail(fmt.Errorf("merge override: %w", err))
	}

	merged, err := merge.Reduce(ctx, fragments, seed)
	if err != nil {
		return nil, p.fail(fmt.Errorf("merge fragments: %w", err))
	}
	merge.NormalizeContent(merged)

	if hook := p.cfg.Hooks.Config; hook != nil {
		if err := hook(ctx, merged); err != nil {
			return nil, p.fail(fmt.Errorf("hook config: %w", err))
		}
	}
	p.setState(StateMerged)
	return merged, nil
}

// loadAll loads fragments concurrently and returns them in path order.
func (p *Pipeline) loadAll(ctx context.Context, configPaths []string) ([]*tree.Map, error) {
	fragments := make([]*tree.Map, len(configPaths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range configPaths {
		g.Go(func() error {
			fragments[i] = p.LoadFragment(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// Finalize resolves the merged config and runs the resolvedConfig hook. A
// resolver error is returned unchanged.
func (p *Pipeline) Finalize(ctx context.Context, merged *tree.Map) (*tree.Map, error) {
	resolved, err := p.cfg.Resolver.Resolve(ctx, merged)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}
	if hook := p.cfg.Hooks.ResolvedConfig; hook != nil {
		if err := hook(ctx, resolved); err != nil {
			return nil, p.fail(fmt.Errorf("hook resolvedConfig: %w", err))
		}
	}
	p.setState(StateResolved)
	return resolved, nil
}

// Input describes one build.
type Input struct {
	Primary    paths.Layer
	Extensions []paths.Layer
	ConfigPath []string  // candidates of the primary layer
	Override   *tree.Map // user override config
	Expose     *synth.Options
}

// Output is the result of a successful build.
type Output struct {
	Paths    paths.Resolution
	Merged   *tree.Map
	Resolved *tree.Map
	Graph    *synth.Graph // nil unless Input.Expose is set
}

// Execute runs the whole pipeline. On error no partial output is returned.
func (p *Pipeline) Execute(ctx context.Context, in Input) (*Output, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	p.mu.Unlock()

	// 1. Resolve config paths and content globs of every layer
	res, err := p.cfg.Layers.ResolveLayered(ctx, in.Primary, in.Extensions, in.ConfigPath)
	if err != nil {
		return nil, p.fail(fmt.Errorf("resolve layers: %w", err))
	}
	if len(res.ConfigPaths) == 0 {
		p.cfg.Logger.Info("no tailwind config found, using defaults", logging.FieldLayer, p.rel(in.Primary.RootDir))
	}
	p.setState(StateLayersResolved)

	// 2. Load and merge fragments
	merged, err := p.Run(ctx, res.ConfigPaths, in.Override, res.ContentGlobs)
	if err != nil {
		return nil, err
	}

	// 3. Resolve
	resolved, err := p.Finalize(ctx, merged)
	if err != nil {
		return nil, err
	}

	out := &Output{Paths: res, Merged: merged, Resolved: resolved}

	// 4. Expose as modules
	if in.Expose != nil {
		graph, err := synth.Synthesize(resolved, *in.Expose)
		if err != nil {
			return nil, p.fail(fmt.Errorf("expose config: %w", err))
		}
		out.Graph = graph
		p.setState(StateExposed)
	}
	return out, nil
}

func (p *Pipeline) rel(path string) string {
	if p.cfg.RootDir == "" {
		return path
	}
	if r, err := filepath.Rel(p.cfg.RootDir, path); err == nil {
		return r
	}
	return path
}
