// Package synth turns a resolved configuration tree into a graph of small
// ES modules plus one TypeScript declaration file, so application code can
// import `#tailwind-config/theme/colors` instead of the whole config.
//
// Nodes above the expose level whose keys are all identifier-safe become
// aggregator modules that import their children. Everything else becomes a
// leaf module holding literal values.
package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yacobolo/twconfig/internal/tree"
)

const (
	// DefaultAlias is the import alias the module graph is exposed under.
	DefaultAlias = "#tailwind-config"
	// DefaultLevel is the default depth of generated modules.
	DefaultLevel = 2

	// Dir is the directory, relative to the build dir, holding the modules.
	Dir = "tailwind.config"
	// RootFilename is the root module.
	RootFilename = Dir + "/index.mjs"
	// DeclarationsFilename is the combined declaration file.
	DeclarationsFilename = "types/tailwind.config.d.ts"

	buildImportPrefix = "#build/" + Dir + "/"
)

var (
	// ErrInvalidLevel is returned for an expose level below 1.
	ErrInvalidLevel = errors.New("expose level must be at least 1")
	// ErrInvalidKey is returned for a top-level key that cannot name a
	// module file.
	ErrInvalidKey = errors.New("top-level key cannot be used as a module name")
)

// Kind tells how a module was materialized.
type Kind int

const (
	KindLeaf Kind = iota
	KindAggregator
	KindRoot
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindAggregator:
		return "aggregator"
	case KindRoot:
		return "root"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Module is one generated source file.
type Module struct {
	Subpath     string // slash-joined key path; empty for the root
	Filename    string // relative to the build dir
	Kind        Kind
	Contents    string
	Declaration string
	Exports     []string // named exports besides default
}

// Graph is the full set of generated modules.
type Graph struct {
	Alias   string
	Modules []Module // post-order; the root module is last

	index map[string]int
}

// Lookup returns the module generated for subpath.
func (g *Graph) Lookup(subpath string) (Module, bool) {
	i, ok := g.index[subpath]
	if !ok {
		return Module{}, false
	}
	return g.Modules[i], true
}

// Root returns the root module.
func (g *Graph) Root() Module {
	return g.Modules[len(g.Modules)-1]
}

// Declarations joins every module's declaration into the contents of
// DeclarationsFilename.
func (g *Graph) Declarations() string {
	parts := make([]string, len(g.Modules))
	for i, m := range g.Modules {
		parts[i] = m.Declaration
	}
	return strings.Join(parts, "\n")
}

func (g *Graph) add(m Module) error {
	if _, dup := g.index[m.Subpath]; dup {
		return fmt.Errorf("duplicate module for subpath %q", m.Subpath)
	}
	g.index[m.Subpath] = len(g.Modules)
	g.Modules = append(g.Modules, m)
	return nil
}

// Options configures Synthesize. Zero values select the defaults.
type Options struct {
	Alias  string
	Level  int
	IsSafe func(key string) bool
}

// IsIdentifierSafe reports whether key consists only of ASCII letters and
// digits and can therefore be bound as `_key`.
func IsIdentifierSafe(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// isPathSegment reports whether key stays a single file name below Dir.
// Nested keys only become modules when identifier-safe, so top-level keys
// are the only ones checked.
func isPathSegment(key string) bool {
	return key != "" && key != "." && key != ".." && !strings.ContainsAny(key, `/\`)
}

type frame struct {
	path     []string
	value    tree.Value
	level    int
	expanded bool
}

func (f frame) subpath() string { return strings.Join(f.path, "/") }

// Synthesize builds the module graph of resolved.
func Synthesize(resolved *tree.Map, opts Options) (*Graph, error) {
	if opts.Alias == "" {
		opts.Alias = DefaultAlias
	}
	if opts.Level == 0 {
		opts.Level = DefaultLevel
	}
	if opts.Level < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLevel, opts.Level)
	}
	if opts.IsSafe == nil {
		opts.IsSafe = IsIdentifierSafe
	}

	for _, key := range resolved.Keys() {
		if !isPathSegment(key) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	s := &synthesizer{opts: opts, graph: &Graph{Alias: opts.Alias, index: make(map[string]int)}}

	stack := childFrames(nil, resolved, 1)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.expanded {
			if err := s.aggregator(f); err != nil {
				return nil, err
			}
			continue
		}
		if s.isLeaf(f) {
			if err := s.leaf(f); err != nil {
				return nil, err
			}
			continue
		}
		f.expanded = true
		m, _ := tree.AsMap(f.value)
		stack = append(stack, f)
		stack = append(stack, childFrames(f.path, m, f.level+1)...)
	}

	if err := s.root(resolved); err != nil {
		return nil, err
	}
	return s.graph, nil
}

// childFrames returns frames for m's entries, reversed so that popping them
// visits keys in order.
func childFrames(parent []string, m *tree.Map, level int) []frame {
	keys := m.Keys()
	out := make([]frame, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		v, _ := m.Get(keys[i])
		p := make([]string, len(parent)+1)
		copy(p, parent)
		p[len(parent)] = keys[i]
		out = append(out, frame{path: p, value: v, level: level})
	}
	return out
}

type synthesizer struct {
	opts  Options
	graph *Graph
}

func (s *synthesizer) isLeaf(f frame) bool {
	if f.level >= s.opts.Level {
		return true
	}
	m, ok := tree.AsMap(f.value)
	if !ok {
		return true
	}
	for _, k := range m.Keys() {
		if !s.opts.IsSafe(k) {
			return true
		}
	}
	return false
}

func (s *synthesizer) module(f frame) string { return s.opts.Alias + "/" + f.subpath() }

func (s *synthesizer) leaf(f frame) error {
	subpath := f.subpath()
	m, ok := tree.AsMap(f.value)
	if !ok {
		pretty, err := tree.EncodeIndent(f.value, "  ")
		if err != nil {
			return fmt.Errorf("module %s: %w", subpath, err)
		}
		compact, _ := tree.Encode(f.value)
		return s.graph.add(Module{
			Subpath:     subpath,
			Filename:    Dir + "/" + subpath + ".mjs",
			Kind:        KindLeaf,
			Contents:    "export default " + pretty,
			Declaration: fmt.Sprintf("declare module %s { const defaultExport: %s; export default defaultExport; }", tree.Quote(s.module(f)), compact),
		})
	}

	var (
		lines   []string
		entries []string
		types   []string
		consts  []string
		exports []string
	)
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		lit, err := tree.Encode(v)
		if err != nil {
			return fmt.Errorf("module %s: key %s: %w", subpath, k, err)
		}
		if s.opts.IsSafe(k) {
			name := "_" + k
			lines = append(lines, fmt.Sprintf("const %s = %s", name, lit))
			entries = append(entries, fmt.Sprintf("%s: %s", tree.Quote(k), name))
			types = append(types, fmt.Sprintf("%s: typeof %s", tree.Quote(k), name))
			consts = append(consts, fmt.Sprintf(" export const %s: %s;", name, lit))
			exports = append(exports, name)
			continue
		}
		entries = append(entries, fmt.Sprintf("%s: %s", tree.Quote(k), lit))
		types = append(types, fmt.Sprintf("%s: %s", tree.Quote(k), lit))
	}

	lines = append(lines,
		"const config = "+objectLiteral(entries),
		exportLine(exports),
	)
	return s.graph.add(Module{
		Subpath:  subpath,
		Filename: Dir + "/" + subpath + ".mjs",
		Kind:     KindLeaf,
		Contents: strings.Join(lines, "\n"),
		Declaration: fmt.Sprintf("declare module %s {%s const defaultExport: %s; export default defaultExport; }",
			tree.Quote(s.module(f)), strings.Join(consts, ""), objectLiteral(types)),
		Exports: exports,
	})
}

func (s *synthesizer) aggregator(f frame) error {
	subpath := f.subpath()
	last := f.path[len(f.path)-1]
	m, _ := tree.AsMap(f.value)

	var (
		lines   []string
		entries []string
		types   []string
		consts  []string
		exports []string
	)
	for _, k := range m.Keys() {
		name := "_" + k
		lines = append(lines, fmt.Sprintf("import %s from %s", name, tree.Quote("./"+last+"/"+k+".mjs")))
		entries = append(entries, fmt.Sprintf("%s: %s", tree.Quote(k), name))
		types = append(types, fmt.Sprintf("%s: typeof %s", tree.Quote(k), name))
		consts = append(consts, fmt.Sprintf(" export const %s: typeof import(%s)[\"default\"];", name, tree.Quote(s.module(f)+"/"+k)))
		exports = append(exports, name)
	}
	lines = append(lines,
		"const config = "+objectLiteral(entries),
		exportLine(exports),
	)
	return s.graph.add(Module{
		Subpath:  subpath,
		Filename: Dir + "/" + subpath + ".mjs",
		Kind:     KindAggregator,
		Contents: strings.Join(lines, "\n"),
		Declaration: fmt.Sprintf("declare module %s {%s const defaultExport: %s; export default defaultExport; }",
			tree.Quote(s.module(f)), strings.Join(consts, ""), objectLiteral(types)),
		Exports: exports,
	})
}

// root imports every top-level module. Keys that are not valid bindings are
// imported under a positional local and only reachable through the default
// export.
func (s *synthesizer) root(resolved *tree.Map) error {
	var (
		lines   []string
		entries []string
		types   []string
		consts  []string
		exports []string
	)
	for i, k := range resolved.Keys() {
		target := tree.Quote(s.opts.Alias + "/" + k)
		name := k
		if !s.isBindable(k) {
			name = fmt.Sprintf("_%d", i)
		}
		lines = append(lines, fmt.Sprintf("import %s from %s", name, tree.Quote(buildImportPrefix+k+".mjs")))
		entries = append(entries, fmt.Sprintf("%s: %s", tree.Quote(k), name))
		if name == k {
			exports = append(exports, k)
			consts = append(consts, fmt.Sprintf(" export const %s: typeof import(%s)[\"default\"];", k, target))
			types = append(types, fmt.Sprintf("%s: typeof %s", tree.Quote(k), k))
			continue
		}
		types = append(types, fmt.Sprintf("%s: typeof import(%s)[\"default\"]", tree.Quote(k), target))
	}
	lines = append(lines,
		"const config = "+objectLiteral(entries),
		exportLine(exports),
	)
	return s.graph.add(Module{
		Subpath:  "",
		Filename: RootFilename,
		Kind:     KindRoot,
		Contents: strings.Join(lines, "\n"),
		Declaration: fmt.Sprintf("declare module %s {%s const defaultExport: %s; export default defaultExport; }",
			tree.Quote(s.opts.Alias), strings.Join(consts, ""), objectLiteral(types)),
		Exports: exports,
	})
}

// isBindable reports whether a top-level key can be bound under its own name.
func (s *synthesizer) isBindable(key string) bool {
	if !s.opts.IsSafe(key) || !IsIdentifierSafe(key) {
		return false
	}
	if key[0] >= '0' && key[0] <= '9' {
		return false
	}
	return !reserved[key]
}

func objectLiteral(entries []string) string {
	if len(entries) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(entries, ", ") + ", }"
}

func exportLine(names []string) string {
	if len(names) == 0 {
		return "export { config as default }"
	}
	return "export { config as default, " + strings.Join(names, ", ") + " }"
}

var reserved = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true, "new": true,
	"null": true, "package": true, "private": true, "protected": true,
	"public": true, "return": true, "static": true, "super": true,
	"switch": true, "this": true, "throw": true, "true": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true, "config": true, "undefined": true, "arguments": true, "eval": true,
}
