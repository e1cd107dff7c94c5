package paths

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/yacobolo/twconfig/internal/merge"
	"github.com/yacobolo/twconfig/internal/tree"
)

// Dirs holds the project-configured directory names.
type Dirs struct {
	Layouts string `mapstructure:"layouts"`
	Pages   string `mapstructure:"pages"`
	Plugins string `mapstructure:"plugins"`
	Assets  string `mapstructure:"assets"`
}

// Imports holds auto-import settings.
type Imports struct {
	Dirs []string `mapstructure:"dirs"`
}

// ProjectOptions is the subset of a layer's declared options that decides
// which files are scanned for class usage.
type ProjectOptions struct {
	RootDir    string            `mapstructure:"rootDir"`
	SrcDir     string            `mapstructure:"srcDir"`
	Extensions []string          `mapstructure:"extensions"`
	Dir        Dirs              `mapstructure:"dir"`
	Pages      *bool             `mapstructure:"pages"`
	Components any               `mapstructure:"components"`
	Imports    Imports           `mapstructure:"imports"`
	Alias      map[string]string `mapstructure:"alias"`
}

// DefaultOptions returns the option tree every declared tree is merged onto.
func DefaultOptions() *tree.Map {
	return tree.MapOf(
		"extensions", []string{".js", ".jsx", ".mjs", ".ts", ".tsx", ".vue"},
		"dir", map[string]any{
			"layouts": "layouts",
			"pages":   "pages",
			"plugins": "plugins",
			"assets":  "assets",
		},
	)
}

// DecodeProjectOptions decodes declared options on top of the defaults.
// rootDir and srcDir fill the standard aliases when the tree does not
// declare them.
func DecodeProjectOptions(declared *tree.Map, rootDir, srcDir string) (ProjectOptions, error) {
	full, err := merge.Merge(context.Background(), DefaultOptions(), declared)
	if err != nil {
		return ProjectOptions{}, err
	}

	var opts ProjectOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return ProjectOptions{}, err
	}
	if err := dec.Decode(tree.ToGo(full)); err != nil {
		return ProjectOptions{}, fmt.Errorf("decode project options: %w", err)
	}

	if rootDir != "" {
		opts.RootDir = rootDir
	}
	switch {
	case srcDir != "":
		opts.SrcDir = srcDir
	case opts.SrcDir != "":
		opts.SrcDir = resolve(opts.RootDir, opts.SrcDir)
	default:
		opts.SrcDir = opts.RootDir
	}
	if opts.Alias == nil {
		opts.Alias = make(map[string]string)
	}
	for _, a := range []string{"~", "@"} {
		if _, ok := opts.Alias[a]; !ok {
			opts.Alias[a] = opts.SrcDir
		}
	}
	for _, a := range []string{"~~", "@@"} {
		if _, ok := opts.Alias[a]; !ok {
			opts.Alias[a] = opts.RootDir
		}
	}
	return opts, nil
}

// PagesEnabled reports whether the pages directory is scanned. An unset
// option counts as enabled.
func (o ProjectOptions) PagesEnabled() bool {
	return o.Pages == nil || *o.Pages
}

// ComponentDirs lists the configured component directories. `true` means the
// single default directory, a list may hold strings or {path} objects and an
// object carries its list under `dirs`.
func (o ProjectOptions) ComponentDirs() []string {
	var entries []any
	switch c := o.Components.(type) {
	case nil:
		return nil
	case bool:
		if !c {
			return nil
		}
		return []string{"components"}
	case []any:
		entries = c
	case []string:
		return append([]string(nil), c...)
	case map[string]any:
		dirs, _ := c["dirs"].([]any)
		entries = dirs
	default:
		return nil
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		switch d := e.(type) {
		case string:
			out = append(out, d)
		case map[string]any:
			if p, ok := d["path"].(string); ok && p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// ResolveAlias expands a leading alias such as `~/components`. Longer
// aliases win over their prefixes.
func (o ProjectOptions) ResolveAlias(p string) string {
	keys := make([]string, 0, len(o.Alias))
	for k := range o.Alias {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if p == k {
			return o.Alias[k]
		}
		if strings.HasPrefix(p, k+"/") {
			return path.Join(o.Alias[k], strings.TrimPrefix(p, k+"/"))
		}
	}
	return p
}
