package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/twconfig/internal/tree"
)

func parse(t *testing.T, src string) *tree.Map {
	t.Helper()
	v, err := tree.ParseJSON([]byte(src))
	require.NoError(t, err)
	m, ok := tree.AsMap(v)
	require.True(t, ok, "fixture is not an object: %s", src)
	return m
}

func assertTree(t *testing.T, want string, got *tree.Map) {
	t.Helper()
	gotJSON, err := tree.Encode(got)
	require.NoError(t, err)
	wantJSON, err := tree.Encode(parse(t, want))
	require.NoError(t, err)
	if diff := cmp.Diff(wantJSON, gotJSON); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_GenericRules(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		override string
		want     string
	}{
		{
			name:     "disjoint keys keep base order then append",
			base:     `{"a":1,"b":2}`,
			override: `{"c":3}`,
			want:     `{"a":1,"b":2,"c":3}`,
		},
		{
			name:     "scalar override wins",
			base:     `{"a":1}`,
			override: `{"a":2}`,
			want:     `{"a":2}`,
		},
		{
			name:     "nested maps recurse",
			base:     `{"theme":{"colors":{"red":"#f00","blue":"#00f"}}}`,
			override: `{"theme":{"colors":{"red":"#e00"},"spacing":{"1":"4px"}}}`,
			want:     `{"theme":{"colors":{"red":"#e00","blue":"#00f"},"spacing":{"1":"4px"}}}`,
		},
		{
			name:     "lists are replaced",
			base:     `{"plugins":["a","b"]}`,
			override: `{"plugins":["c"]}`,
			want:     `{"plugins":["c"]}`,
		},
		{
			name:     "map replaced by scalar",
			base:     `{"dark":{"mode":"class"}}`,
			override: `{"dark":"media"}`,
			want:     `{"dark":"media"}`,
		},
		{
			name:     "null override keeps base",
			base:     `{"prefix":"tw-"}`,
			override: `{"prefix":null}`,
			want:     `{"prefix":"tw-"}`,
		},
		{
			name:     "theme content scale is not treated as globs",
			base:     `{"theme":{"content":{"none":"none"}}}`,
			override: `{"theme":{"content":{"empty":"''"}}}`,
			want:     `{"theme":{"content":{"none":"none","empty":"''"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(context.Background(), parse(t, tt.base), parse(t, tt.override))
			require.NoError(t, err)
			assertTree(t, tt.want, got)
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := parse(t, `{"theme":{"colors":{"red":"#f00"}},"content":["a"]}`)
	override := parse(t, `{"theme":{"colors":{"red":"#e00"}},"content":{"files":["b"]}}`)
	baseBefore, overrideBefore := tree.MustEncode(base), tree.MustEncode(override)

	_, err := Merge(context.Background(), base, override)
	require.NoError(t, err)

	assert.Equal(t, baseBefore, tree.MustEncode(base))
	assert.Equal(t, overrideBefore, tree.MustEncode(override))
}

func TestMerge_ContentReconciliation(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		override string
		want     string
	}{
		{
			name:     "list base, object override",
			base:     `{"content":["a/**"]}`,
			override: `{"content":{"files":["b/**"]}}`,
			want:     `{"content":{"files":["a/**","b/**"]}}`,
		},
		{
			name:     "object base, list override",
			base:     `{"content":{"files":["b/**"]}}`,
			override: `{"content":["a/**"]}`,
			want:     `{"content":{"files":["b/**","a/**"]}}`,
		},
		{
			name:     "both lists concatenate",
			base:     `{"content":["a"]}`,
			override: `{"content":["b"]}`,
			want:     `{"content":{"files":["a","b"]}}`,
		},
		{
			name:     "both objects concatenate and merge extras",
			base:     `{"content":{"relative":false,"files":["a"]}}`,
			override: `{"content":{"files":["b"],"relative":true}}`,
			want:     `{"content":{"relative":true,"files":["a","b"]}}`,
		},
		{
			name:     "object extras survive next to a list",
			base:     `{"content":["a"]}`,
			override: `{"content":{"files":["b"],"extract":{"md":"x"}}}`,
			want:     `{"content":{"files":["a","b"],"extract":{"md":"x"}}}`,
		},
		{
			name:     "object without files gains one",
			base:     `{"content":{"relative":true}}`,
			override: `{"content":["a"]}`,
			want:     `{"content":{"relative":true,"files":["a"]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(context.Background(), parse(t, tt.base), parse(t, tt.override))
			require.NoError(t, err)
			assertTree(t, tt.want, got)
		})
	}
}

func TestMerge_FunctionReducer(t *testing.T) {
	var seen tree.List
	f := &tree.Func{Name: "addY", Fn: func(_ context.Context, in tree.List) (tree.Value, error) {
		seen = in
		return append(in, tree.String("y")), nil
	}}
	base := tree.MapOf("plugins", []string{"x"})
	override := tree.NewMap()
	override.Set("plugins", f)

	got, err := Merge(context.Background(), base, override)
	require.NoError(t, err)

	assert.Equal(t, tree.StringList("x"), seen)
	plugins, _ := got.Get("plugins")
	assert.Equal(t, tree.StringList("x", "y"), plugins)
}

func TestMerge_FunctionReducerOnContentFiles(t *testing.T) {
	base := parse(t, `{"content":{"relative":true,"files":["a/**"]}}`)
	override := tree.NewMap()
	override.Set("content", &tree.Func{Name: "extend", Fn: func(_ context.Context, in tree.List) (tree.Value, error) {
		return append(in, tree.String("b/**")), nil
	}})

	got, err := Merge(context.Background(), base, override)
	require.NoError(t, err)
	assertTree(t, `{"content":{"relative":true,"files":["a/**","b/**"]}}`, got)
}

func TestMerge_FunctionReducerError(t *testing.T) {
	boom := errors.New("boom")
	override := tree.NewMap()
	override.Set("plugins", &tree.Func{Name: "fail", Fn: func(context.Context, tree.List) (tree.Value, error) {
		return nil, boom
	}})

	_, err := Merge(context.Background(), tree.MapOf("plugins", []string{"x"}), override)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "plugins")
}

func TestMerge_FunctionWithoutListReplaces(t *testing.T) {
	f := &tree.Func{Name: "f", Fn: func(_ context.Context, in tree.List) (tree.Value, error) { return in, nil }}
	override := tree.NewMap()
	override.Set("plugins", f)

	got, err := Merge(context.Background(), tree.MapOf("plugins", "not-a-list"), override)
	require.NoError(t, err)
	v, _ := got.Get("plugins")
	assert.Same(t, f, v)
}

func TestReduce_FoldDirection(t *testing.T) {
	fragments := []*tree.Map{
		parse(t, `{"prefix":"one-","content":["f1"],"theme":{"a":1}}`),
		parse(t, `{"prefix":"two-","content":["f2"],"theme":{"b":2}}`),
		parse(t, `{"prefix":"three-","content":["f3"],"theme":{"a":3}}`),
	}
	seed := parse(t, `{"content":["seed"]}`)

	got, err := Reduce(context.Background(), fragments, seed)
	require.NoError(t, err)

	// Left fold: the last fragment wins scalars and globs accumulate from the
	// seed outward. A right fold would end with prefix "one-".
	assertTree(t, `{"content":{"files":["seed","f1","f2","f3"]},"prefix":"three-","theme":{"a":3,"b":2}}`, got)
}

func TestReduce_EmptySeed(t *testing.T) {
	got, err := Reduce(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestNormalizeContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "list", in: `{"content":["a"]}`, want: `{"content":{"files":["a"]}}`},
		{name: "missing", in: `{"theme":{}}`, want: `{"theme":{},"content":{"files":[]}}`},
		{name: "object without files", in: `{"content":{"relative":true}}`, want: `{"content":{"relative":true,"files":[]}}`},
		{name: "canonical untouched", in: `{"content":{"files":["x"]}}`, want: `{"content":{"files":["x"]}}`},
		{name: "single string", in: `{"content":"a/**"}`, want: `{"content":{"files":["a/**"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parse(t, tt.in)
			NormalizeContent(m)
			assertTree(t, tt.want, m)
		})
	}
}
