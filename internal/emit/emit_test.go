package emit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/twconfig/internal/synth"
	"github.com/yacobolo/twconfig/internal/tree"
)

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteGraph(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	g, err := synth.Synthesize(tree.MapOf("theme", map[string]any{"colors": map[string]any{"red": "#f00"}}), synth.Options{})
	require.NoError(t, err)

	files, err := w.WriteGraph(g)
	require.NoError(t, err)
	require.Len(t, files, len(g.Modules)+1)
	for _, f := range files {
		assert.True(t, f.Changed, f.Path)
	}

	colors, _ := g.Lookup("theme/colors")
	assert.Equal(t, colors.Contents, read(t, filepath.Join(dir, "tailwind.config", "theme", "colors.mjs")))
	assert.Equal(t, g.Root().Contents, read(t, filepath.Join(dir, "tailwind.config", "index.mjs")))
	assert.Equal(t, g.Declarations(), read(t, filepath.Join(dir, "types", "tailwind.config.d.ts")))

	info, err := os.Stat(filepath.Join(dir, "tailwind.config", "index.mjs"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	again, err := w.WriteGraph(g)
	require.NoError(t, err)
	for _, f := range again {
		assert.False(t, f.Changed, "unchanged content is not rewritten: %s", f.Path)
	}
}

func TestWriteEditorConfig(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	f, err := w.WriteEditorConfig(tree.MapOf("prefix", "tw-"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, EditorConfigFilename), f.Path)
	assert.Equal(t, "module.exports = {\n  \"prefix\": \"tw-\"\n}", read(t, f.Path))
}

func TestWriteViewerConfig_DropsFunctions(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	merged := tree.MapOf("prefix", "tw-")
	merged.Set("plugins", &tree.Func{Name: "f"})

	f, err := w.WriteViewerConfig(merged)
	require.NoError(t, err)
	assert.Equal(t, `module.exports = {"prefix":"tw-"}`, read(t, f.Path))
}

func TestWriteDefaultCSS(t *testing.T) {
	dir := t.TempDir()
	f, err := NewWriter(dir, nil).WriteDefaultCSS()
	require.NoError(t, err)
	assert.Contains(t, read(t, f.Path), "@tailwind utilities;")
}

func TestWrite_ReplacesChangedContent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	_, err := w.Write("a/b.txt", []byte("one"))
	require.NoError(t, err)
	f, err := w.Write("a/b.txt", []byte("two"))
	require.NoError(t, err)
	assert.True(t, f.Changed)
	assert.Equal(t, "two", read(t, f.Path))
}

func TestWrite_RejectsPathsOutsideBuildDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "build")
	w := NewWriter(dir, nil)

	for _, name := range []string{"../escape.mjs", "tailwind.config/../../escape.mjs", ".", ""} {
		t.Run(name, func(t *testing.T) {
			_, err := w.Write(name, []byte("x"))
			require.ErrorIs(t, err, ErrOutsideBuildDir)
		})
	}
	assert.NoFileExists(t, filepath.Join(parent, "escape.mjs"))

	f, err := w.Write("tailwind.config/../inside.mjs", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inside.mjs"), f.Path)
}
