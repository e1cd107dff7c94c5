// Package options resolves the `tailwindcss` module options block.
//
// Several options accept either a boolean or an object: `true` enables the
// feature with its defaults, an object enables it and overrides some of
// them, `false` disables it.
package options

import (
	"context"
	"fmt"
	"path"

	"github.com/go-viper/mapstructure/v2"

	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/merge"
	"github.com/yacobolo/twconfig/internal/synth"
	"github.com/yacobolo/twconfig/internal/tree"
)

// Viewer configures the config viewer.
type Viewer struct {
	Endpoint     string `mapstructure:"endpoint"`
	ExportViewer bool   `mapstructure:"exportViewer"`
}

// Expose configures the generated module graph.
type Expose struct {
	Alias string `mapstructure:"alias"`
	Level int    `mapstructure:"level"`
	Write bool   `mapstructure:"write"`
}

// EditorSupport configures editor integrations.
type EditorSupport struct {
	AutocompleteUtil bool `mapstructure:"autocompleteUtil"`
	GenerateConfig   bool `mapstructure:"generateConfig"`
}

// CSS is the resolved `cssPath` option.
type CSS struct {
	Path           string     // empty when disabled
	InjectPosition tree.Value // nil means first
}

// Options are the resolved module options. Disabled features are nil.
type Options struct {
	ConfigPath       []string
	CSS              CSS
	Config           *tree.Map // user override config
	Viewer           *Viewer
	Expose           *Expose
	EditorSupport    *EditorSupport
	DisableHMRHotfix bool
	Quiet            bool
}

// Deprecation is a deprecated option found in the input.
type Deprecation struct {
	Option      string
	Alternative string
}

func (d Deprecation) String() string {
	return fmt.Sprintf("Deprecated `%s`. %s", d.Option, d.Alternative)
}

// DefaultTailwindConfig is the override config used when none is given.
func DefaultTailwindConfig() *tree.Map {
	return tree.MapOf(
		"content", []any{},
		"theme", map[string]any{"extend": map[string]any{}},
		"plugins", []any{},
	)
}

// DefaultCSSPath is the CSS entry path for an assets directory.
func DefaultCSSPath(assetsDir string) string {
	return path.Join(assetsDir, "css/tailwind.css")
}

// Defaults returns the option tree user options are merged onto.
func Defaults(assetsDir string) *tree.Map {
	m := tree.MapOf(
		"configPath", "tailwind.config",
		"cssPath", DefaultCSSPath(assetsDir),
		"viewer", true,
		"exposeConfig", false,
		"disableHmrHotfix", false,
		"quiet", false,
		"editorSupport", false,
	)
	m.Set("config", DefaultTailwindConfig())
	return m
}

var (
	viewerDefaults = tree.MapOf("endpoint", "/_tailwind", "exportViewer", false)
	exposeDefaults = tree.MapOf("alias", synth.DefaultAlias, "level", synth.DefaultLevel, "write", false)
	editorDefaults = tree.MapOf("autocompleteUtil", true, "generateConfig", false)
)

// Resolve merges raw onto the defaults and decodes the result. Deprecated
// options found in raw are returned for the caller to report.
func Resolve(ctx context.Context, raw *tree.Map, assetsDir string) (Options, []Deprecation, error) {
	full, err := merge.Merge(ctx, Defaults(assetsDir), raw)
	if err != nil {
		return Options{}, nil, err
	}

	var opts Options
	opts.ConfigPath = stringOrList(get(full, "configPath"))
	opts.DisableHMRHotfix = truthy(get(full, "disableHmrHotfix"))
	opts.Quiet = truthy(get(full, "quiet"))
	if cfg, ok := tree.AsMap(get(full, "config")); ok {
		opts.Config = cfg
	} else {
		opts.Config = DefaultTailwindConfig()
	}

	opts.CSS, err = resolveCSS(get(full, "cssPath"), get(raw, "injectPosition"))
	if err != nil {
		return Options{}, nil, err
	}

	if v, ok := boolObj(get(full, "viewer"), viewerDefaults); ok {
		opts.Viewer = &Viewer{}
		if err := decode(v, opts.Viewer); err != nil {
			return Options{}, nil, fmt.Errorf("viewer: %w", err)
		}
	}

	exposeRaw := get(full, "exposeConfig")
	if v, ok := boolObj(exposeRaw, exposeDefaults); ok {
		// Legacy exposeLevel applies unless the object sets a level.
		if lvl, isNum := get(raw, "exposeLevel").(tree.Number); isNum {
			if obj, isObj := tree.AsMap(exposeRaw); !isObj || !obj.Has("level") {
				v.Set("level", lvl)
			}
		}
		opts.Expose = &Expose{}
		if err := decode(v, opts.Expose); err != nil {
			return Options{}, nil, fmt.Errorf("exposeConfig: %w", err)
		}
	}

	if v, ok := boolObj(get(full, "editorSupport"), editorDefaults); ok {
		// Object forms of the sub-options only carry extra import settings.
		for _, k := range []string{"autocompleteUtil", "generateConfig"} {
			if sub, isObj := tree.AsMap(get(v, k)); isObj && sub != nil {
				v.Set(k, tree.Bool(true))
			}
		}
		opts.EditorSupport = &EditorSupport{}
		if err := decode(v, opts.EditorSupport); err != nil {
			return Options{}, nil, fmt.Errorf("editorSupport: %w", err)
		}
	}

	return opts, deprecations(raw, assetsDir), nil
}

// Report logs every deprecation as a warning.
func Report(logger logging.Logger, deps []Deprecation) {
	for _, d := range deps {
		logger.Warn(d.String(), logging.FieldOption, d.Option)
	}
}

func deprecations(raw *tree.Map, assetsDir string) []Deprecation {
	var out []Deprecation
	if raw.Has("addTwUtil") {
		out = append(out, Deprecation{"addTwUtil", "Use `editorSupport.autocompleteUtil` instead."})
	}
	if raw.Has("exposeLevel") {
		out = append(out, Deprecation{"exposeLevel", "Use `exposeConfig.level` instead."})
	}
	if pos, ok := raw.Get("injectPosition"); ok {
		css := `"~/` + DefaultCSSPath(assetsDir) + `"`
		if v, set := raw.Get("cssPath"); set {
			css = tree.MustEncode(tree.StripFuncs(v))
		}
		out = append(out, Deprecation{"injectPosition", fmt.Sprintf(
			"Use `cssPath: [%s, { injectPosition: %s }]` instead.", css, tree.MustEncode(tree.StripFuncs(pos)))})
	}
	return out
}

func resolveCSS(v, legacyPosition tree.Value) (CSS, error) {
	var css CSS
	pathValue := v
	if list, ok := tree.AsList(v); ok {
		if len(list) == 0 {
			return CSS{}, fmt.Errorf("cssPath: empty list")
		}
		pathValue = list[0]
		if len(list) > 1 {
			if cfg, ok := tree.AsMap(list[1]); ok {
				css.InjectPosition = get(cfg, "injectPosition")
			}
		}
	}
	switch p := pathValue.(type) {
	case tree.String:
		css.Path = string(p)
	case tree.Bool:
		if p {
			return CSS{}, fmt.Errorf("cssPath: true is not a path")
		}
	case nil, tree.Null:
	default:
		return CSS{}, fmt.Errorf("cssPath: unsupported value of kind %s", tree.KindOf(pathValue))
	}
	if css.InjectPosition == nil || tree.KindOf(css.InjectPosition) == tree.KindNull {
		css.InjectPosition = legacyPosition
	}
	return css, nil
}

// boolObj resolves a boolean-or-object option. The returned map is a fresh
// copy of the defaults with any object value merged on top.
func boolObj(v tree.Value, defaults *tree.Map) (*tree.Map, bool) {
	switch t := v.(type) {
	case tree.Bool:
		if !t {
			return nil, false
		}
		return defaults.Clone(), true
	case *tree.Map:
		if t == nil {
			return nil, false
		}
		out := defaults.Clone()
		t.Range(func(k string, item tree.Value) bool {
			if tree.KindOf(item) != tree.KindNull {
				out.Set(k, tree.Clone(item))
			}
			return true
		})
		return out, true
	default:
		return nil, false
	}
}

func decode(v *tree.Map, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(tree.ToGo(v))
}

func get(m tree.Value, key string) tree.Value {
	mm, ok := tree.AsMap(m)
	if !ok {
		return nil
	}
	v, _ := mm.Get(key)
	return v
}

func truthy(v tree.Value) bool {
	b, ok := v.(tree.Bool)
	return ok && bool(b)
}

func stringOrList(v tree.Value) []string {
	switch t := v.(type) {
	case tree.String:
		if t == "" {
			return nil
		}
		return []string{string(t)}
	case tree.List:
		return tree.Strings(t)
	default:
		return nil
	}
}
