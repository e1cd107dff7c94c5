// Package loader decodes configuration fragments into trees.
//
// Supported formats are chosen by file extension: YAML and JSON are decoded
// directly, JavaScript and TypeScript configs have their default-exported
// object literal extracted, and Starlark files are executed and their
// `config` global converted.
package loader

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/tree"
)

// LoadError describes a fragment that could not be decoded.
type LoadError struct {
	File    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads fragments from a filesystem.
type Loader struct {
	FS     billy.Basic
	Logger logging.Logger
}

// New returns a loader reading from fsys.
func New(fsys billy.Basic, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loader{FS: fsys, Logger: logger}
}

type decodeFunc func(ctx context.Context, file string, src []byte, skip func(key, reason string)) (*tree.Map, error)

var decoders = map[string]decodeFunc{
	".json": decodeJSON,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".js":   decodeScript,
	".mjs":  decodeScript,
	".cjs":  decodeScript,
	".ts":   decodeTS,
	".mts":  decodeTS,
	".cts":  decodeTS,
	".star": decodeStarlark,
}

// Supported reports whether file has a known extension.
func Supported(file string) bool {
	_, ok := decoders[strings.ToLower(path.Ext(file))]
	return ok
}

// Load decodes the fragment at file. Values that cannot be represented, such
// as JavaScript functions or plugin calls, are dropped with a warning.
func (l *Loader) Load(ctx context.Context, file string) (*tree.Map, error) {
	ext := strings.ToLower(path.Ext(file))
	decode, ok := decoders[ext]
	if !ok {
		return nil, &LoadError{File: file, Message: fmt.Sprintf("unsupported extension %q", ext)}
	}

	src, err := util.ReadFile(l.FS, file)
	if err != nil {
		return nil, &LoadError{File: file, Message: "read failed", Err: err}
	}

	skip := func(key, reason string) {
		l.Logger.Warn("dropped unsupported config value",
			logging.FieldPath, file,
			"key", key,
			"reason", reason,
		)
	}

	m, err := decode(ctx, file, src, skip)
	if err != nil {
		return nil, &LoadError{File: file, Message: "decode failed", Err: err}
	}
	if m == nil {
		m = tree.NewMap()
	}
	return m, nil
}

func decodeJSON(_ context.Context, _ string, src []byte, _ func(string, string)) (*tree.Map, error) {
	v, err := tree.ParseJSON(src)
	if err != nil {
		return nil, err
	}
	return rootMap(v)
}

func decodeYAML(_ context.Context, _ string, src []byte, _ func(string, string)) (*tree.Map, error) {
	v, err := tree.ParseYAML(src)
	if err != nil {
		return nil, err
	}
	return rootMap(v)
}

func rootMap(v tree.Value) (*tree.Map, error) {
	switch tree.KindOf(v) {
	case tree.KindNull:
		return tree.NewMap(), nil
	case tree.KindMap:
		m, _ := tree.AsMap(v)
		return m, nil
	default:
		return nil, fmt.Errorf("top-level value is %s, want object", tree.KindOf(v))
	}
}
