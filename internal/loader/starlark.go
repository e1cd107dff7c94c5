package loader

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.starlark.net/starlark"

	"github.com/yacobolo/twconfig/internal/tree"
)

// StarlarkGlobal is the global a Starlark fragment binds its config to.
const StarlarkGlobal = "config"

// decodeStarlark executes a .star fragment and converts its `config` dict.
// Starlark functions inside the dict become tree functions, so a fragment can
// reduce an inherited list:
//
//	def extend_content(files):
//	    return files + ["./extra/**/*.html"]
//
//	config = {"content": extend_content}
func decodeStarlark(ctx context.Context, file string, src []byte, skip func(string, string)) (*tree.Map, error) {
	thread := newThread("load:" + file)
	stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
	defer stop()

	globals, err := starlark.ExecFile(thread, file, src, nil) //nolint:staticcheck // SA1019: ExecFileOptions adds nothing here
	if err != nil {
		return nil, fmt.Errorf("starlark: %w", err)
	}

	cfg, ok := globals[StarlarkGlobal]
	if !ok {
		return nil, fmt.Errorf("starlark: global %q is not defined", StarlarkGlobal)
	}
	dict, ok := cfg.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("starlark: global %q is %s, want dict", StarlarkGlobal, cfg.Type())
	}

	v, err := fromStarlark(dict, "", skip)
	if err != nil {
		return nil, err
	}
	m, _ := tree.AsMap(v)
	return m, nil
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name:  name,
		Print: func(_ *starlark.Thread, _ string) {},
	}
}

func fromStarlark(v starlark.Value, key string, skip func(string, string)) (tree.Value, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return tree.Null{}, nil
	case starlark.Bool:
		return tree.Bool(val), nil
	case starlark.Int:
		f, ok := starlark.AsFloat(val)
		if !ok {
			return nil, fmt.Errorf("%s: integer out of range", key)
		}
		return tree.Number(f), nil
	case starlark.Float:
		return tree.Number(val), nil
	case starlark.String:
		return tree.String(val), nil
	case *starlark.List:
		out := make(tree.List, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			item, err := fromStarlark(val.Index(i), joinKey(key, fmt.Sprint(i)), skip)
			if err != nil {
				return nil, err
			}
			if item != nil {
				out = append(out, item)
			}
		}
		return out, nil
	case starlark.Tuple:
		return fromStarlark(starlark.NewList(val), key, skip)
	case *starlark.Dict:
		out := tree.NewMap()
		for _, item := range val.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("%s: dict key must be string, got %s", key, item[0].Type())
			}
			child, err := fromStarlark(item[1], joinKey(key, string(k)), skip)
			if err != nil {
				return nil, err
			}
			if child != nil {
				out.Set(string(k), child)
			}
		}
		return out, nil
	case starlark.Callable:
		return starlarkFunc(val), nil
	default:
		skip(key, "unsupported starlark type "+v.Type())
		return nil, nil
	}
}

// starlarkFunc adapts a Starlark callable to a tree function. Every call runs
// on its own thread.
func starlarkFunc(fn starlark.Callable) *tree.Func {
	return &tree.Func{
		Name: fn.Name(),
		Fn: func(ctx context.Context, in tree.List) (tree.Value, error) {
			arg, err := toStarlark(in)
			if err != nil {
				return nil, err
			}
			thread := newThread("call:" + fn.Name())
			stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
			defer stop()

			out, err := starlark.Call(thread, fn, starlark.Tuple{arg}, nil)
			if err != nil {
				return nil, err
			}
			return fromStarlark(out, fn.Name(), func(string, string) {})
		},
	}
}

var errFuncArgument = errors.New("functions cannot be passed to starlark")

func toStarlark(v tree.Value) (starlark.Value, error) {
	switch t := v.(type) {
	case nil, tree.Null:
		return starlark.None, nil
	case tree.Bool:
		return starlark.Bool(t), nil
	case tree.Number:
		f := float64(t)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return starlark.MakeInt64(int64(f)), nil
		}
		return starlark.Float(f), nil
	case tree.String:
		return starlark.String(t), nil
	case tree.List:
		items := make([]starlark.Value, len(t))
		for i, item := range t {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, err
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case *tree.Map:
		dict := starlark.NewDict(t.Len())
		var err error
		t.Range(func(k string, item tree.Value) bool {
			var sv starlark.Value
			if sv, err = toStarlark(item); err != nil {
				return false
			}
			err = dict.SetKey(starlark.String(k), sv)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return dict, nil
	default:
		return nil, errFuncArgument
	}
}
