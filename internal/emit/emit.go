// Package emit writes generated files into the build directory.
package emit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/yacobolo/twconfig/internal/inject"
	"github.com/yacobolo/twconfig/internal/logging"
	"github.com/yacobolo/twconfig/internal/synth"
	"github.com/yacobolo/twconfig/internal/tree"
)

const (
	// EditorConfigFilename is the resolved config for editor tooling.
	EditorConfigFilename = "tailwind.config.cjs"
	// ViewerConfigFilename is the merged config for the viewer export.
	ViewerConfigFilename = synth.Dir + "/viewer-config.cjs"
)

// ErrOutsideBuildDir is returned for a name that resolves outside BuildDir.
var ErrOutsideBuildDir = errors.New("path escapes the build directory")

// Writer writes files below BuildDir. Files whose content did not change
// are left untouched so file watchers stay quiet.
type Writer struct {
	BuildDir string
	Logger   logging.Logger
}

// NewWriter returns a writer for buildDir.
func NewWriter(buildDir string, logger logging.Logger) *Writer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Writer{BuildDir: buildDir, Logger: logger}
}

// File is one written (or unchanged) file.
type File struct {
	Path    string
	Changed bool
}

// WriteGraph writes every module of g and the declaration file.
func (w *Writer) WriteGraph(g *synth.Graph) ([]File, error) {
	files := make([]File, 0, len(g.Modules)+1)
	for _, m := range g.Modules {
		f, err := w.Write(m.Filename, []byte(m.Contents))
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	f, err := w.Write(synth.DeclarationsFilename, []byte(g.Declarations()))
	if err != nil {
		return files, err
	}
	return append(files, f), nil
}

// WriteEditorConfig writes the resolved config as a CommonJS module that
// editor extensions can load.
func (w *Writer) WriteEditorConfig(resolved *tree.Map) (File, error) {
	body, err := tree.EncodeIndent(resolved, "  ")
	if err != nil {
		return File{}, fmt.Errorf("encode editor config: %w", err)
	}
	return w.Write(EditorConfigFilename, []byte("module.exports = "+body))
}

// WriteViewerConfig writes the merged config for the viewer export.
// Functions are dropped.
func (w *Writer) WriteViewerConfig(merged *tree.Map) (File, error) {
	body, err := tree.Encode(tree.StripFuncs(merged))
	if err != nil {
		return File{}, fmt.Errorf("encode viewer config: %w", err)
	}
	return w.Write(ViewerConfigFilename, []byte("module.exports = "+body))
}

// WriteDefaultCSS writes the fallback CSS entry.
func (w *Writer) WriteDefaultCSS() (File, error) {
	return w.Write(inject.DefaultCSSName, []byte(inject.DefaultCSS))
}

// Write atomically replaces name, relative to BuildDir, with data.
func (w *Writer) Write(name string, data []byte) (File, error) {
	path := filepath.Join(w.BuildDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(w.BuildDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return File{}, fmt.Errorf("write %s: %w", name, ErrOutsideBuildDir)
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return File{Path: path}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return File{}, fmt.Errorf("create directory for %s: %w", name, err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return File{}, fmt.Errorf("create pending file %s: %w", name, err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			w.Logger.Warn("cleanup pending file", logging.FieldPath, name, logging.FieldError, err)
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return File{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return File{}, fmt.Errorf("replace %s: %w", name, err)
	}
	return File{Path: path, Changed: true}, nil
}
