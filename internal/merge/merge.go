// Package merge deep-merges configuration trees with Tailwind-specific rules.
//
// Merge(base, override) walks the override side key by key. Before the
// generic rule (maps recurse, anything else replaces) two domain rules apply:
// a `content` reconciliation that concatenates scan globs whatever shape each
// side uses, and a reducer rule that lets an override function transform an
// inherited list instead of replacing it.
package merge

import (
	"context"
	"fmt"

	"github.com/yacobolo/twconfig/internal/tree"
)

// ContentKey is the key holding content-scan globs.
const ContentKey = "content"

// FilesKey is the glob list inside an object-shaped content value.
const FilesKey = "files"

// Merge returns a new tree where override takes precedence over base.
// Neither input is modified. Null override values leave the base value in
// place.
func Merge(ctx context.Context, base, override *tree.Map) (*tree.Map, error) {
	return mergeMaps(ctx, base, override, "")
}

func mergeMaps(ctx context.Context, base, override *tree.Map, namespace string) (*tree.Map, error) {
	out := base.Clone()
	for _, key := range override.Keys() {
		value, _ := override.Get(key)
		if tree.KindOf(value) == tree.KindNull {
			continue
		}
		current, exists := out.Get(key)
		merged, err := mergeValue(ctx, key, current, exists, value, join(namespace, key))
		if err != nil {
			return nil, err
		}
		out.Set(key, merged)
	}
	return out, nil
}

func mergeValue(ctx context.Context, key string, base tree.Value, exists bool, override tree.Value, namespace string) (tree.Value, error) {
	if !exists {
		return tree.Clone(override), nil
	}

	if key == ContentKey {
		if merged, ok := reconcileContent(base, override); ok {
			return merged, nil
		}
	}

	baseKind, overrideKind := tree.KindOf(base), tree.KindOf(override)

	// A reducer on object-shaped content transforms its file list.
	if key == ContentKey && baseKind == tree.KindMap && overrideKind == tree.KindFunc {
		if files, obj, ok := contentShape(base); ok && obj.Has(FilesKey) {
			out, err := override.(*tree.Func).Call(ctx, files)
			if err != nil {
				return nil, fmt.Errorf("reduce %s: %w", namespace, err)
			}
			result := obj.Clone()
			result.Set(FilesKey, out)
			return result, nil
		}
	}

	if baseKind == tree.KindList && overrideKind == tree.KindFunc {
		out, err := override.(*tree.Func).Call(ctx, base.(tree.List))
		if err != nil {
			return nil, fmt.Errorf("reduce %s: %w", namespace, err)
		}
		return out, nil
	}

	if baseKind == tree.KindMap && overrideKind == tree.KindMap {
		return mergeMaps(ctx, base.(*tree.Map), override.(*tree.Map), namespace)
	}

	return tree.Clone(override), nil
}

// reconcileContent concatenates content globs from both sides, base first.
// Layer globs therefore come first and each later fragment appends to
// them, while lists under any other key are replaced.
// It applies when either side is a glob list or an object owning `files`;
// two plain objects (a theme's `content` scale, for instance) fall through
// to the generic rule.
func reconcileContent(base, override tree.Value) (tree.Value, bool) {
	baseFiles, baseObj, baseOK := contentShape(base)
	overrideFiles, overrideObj, overrideOK := contentShape(override)
	if !baseOK || !overrideOK {
		return nil, false
	}
	if baseObj != nil && overrideObj != nil && !baseObj.Has(FilesKey) && !overrideObj.Has(FilesKey) {
		return nil, false
	}

	files := make(tree.List, 0, len(baseFiles)+len(overrideFiles))
	files = append(files, tree.Clone(baseFiles).(tree.List)...)
	files = append(files, tree.Clone(overrideFiles).(tree.List)...)

	// files keeps the position an object side gave it; otherwise it goes last.
	out := tree.NewMap()
	for _, obj := range []*tree.Map{baseObj, overrideObj} {
		obj.Range(func(k string, v tree.Value) bool {
			switch {
			case k == FilesKey:
				out.Set(FilesKey, tree.Null{})
			case tree.KindOf(v) != tree.KindNull:
				out.Set(k, tree.Clone(v))
			}
			return true
		})
	}
	out.Set(FilesKey, files)
	return out, true
}

// contentShape reports the glob list and the object (if any) of a content
// value. ok is false for shapes the reconciliation does not understand.
func contentShape(v tree.Value) (files tree.List, obj *tree.Map, ok bool) {
	switch t := v.(type) {
	case tree.List:
		return t, nil, true
	case *tree.Map:
		if t == nil {
			return nil, nil, false
		}
		raw, has := t.Get(FilesKey)
		if !has {
			return tree.List{}, t, true
		}
		l, isList := tree.AsList(raw)
		if !isList {
			return nil, nil, false
		}
		return l, t, true
	}
	return nil, nil, false
}

// Reduce folds fragments onto seed from left to right: every fragment is the
// override of the accumulator built so far, so later fragments win.
func Reduce(ctx context.Context, fragments []*tree.Map, seed *tree.Map) (*tree.Map, error) {
	acc := seed
	if acc == nil {
		acc = tree.NewMap()
	}
	for i, fragment := range fragments {
		next, err := Merge(ctx, acc, fragment)
		if err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		acc = next
	}
	return acc, nil
}

// NormalizeContent rewrites the root content value into {files: [...]}.
// The map is modified in place.
func NormalizeContent(cfg *tree.Map) {
	if cfg == nil {
		return
	}
	raw, ok := cfg.Get(ContentKey)
	switch t := raw.(type) {
	case tree.List:
		cfg.Set(ContentKey, tree.MapOf(FilesKey, t))
		return
	case tree.String:
		cfg.Set(ContentKey, tree.MapOf(FilesKey, tree.List{t}))
		return
	case *tree.Map:
		if t != nil {
			if files, has := t.Get(FilesKey); !has || tree.KindOf(files) != tree.KindList {
				t.Set(FilesKey, tree.List{})
			}
			return
		}
	}
	if !ok || tree.KindOf(raw) == tree.KindNull {
		cfg.Set(ContentKey, tree.MapOf(FilesKey, tree.List{}))
	}
}

func join(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + "." + key
}
