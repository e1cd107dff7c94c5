package watch

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yacobolo/twconfig/internal/merge"
	"github.com/yacobolo/twconfig/internal/tree"
)

// ContentMatcher decides whether a changed file is covered by the content
// globs of a config, i.e. whether editing it can change the generated CSS.
type ContentMatcher struct {
	include []string
	exclude []string
}

// NewContentMatcher builds a matcher from a config's `content` value, which
// may be a glob list or an object with `files`. Relative globs are resolved
// against rootDir; globs prefixed with `!` exclude files. Non-string entries
// are ignored.
func NewContentMatcher(rootDir string, content tree.Value) (*ContentMatcher, error) {
	var globs []string
	switch t := content.(type) {
	case tree.List:
		globs = tree.Strings(t)
	case *tree.Map:
		files, _ := t.Get(merge.FilesKey)
		globs = tree.Strings(files)
	}

	root := filepath.ToSlash(rootDir)
	m := &ContentMatcher{}
	for _, g := range globs {
		negated := strings.HasPrefix(g, "!")
		g = strings.TrimPrefix(g, "!")
		if !path.IsAbs(g) && root != "" {
			g = path.Join(root, g)
		}
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid content glob %q", g)
		}
		if negated {
			m.exclude = append(m.exclude, g)
		} else {
			m.include = append(m.include, g)
		}
	}
	return m, nil
}

// Globs returns the absolute include globs.
func (m *ContentMatcher) Globs() []string {
	return append([]string(nil), m.include...)
}

// Match reports whether file matches an include glob and no exclude glob.
func (m *ContentMatcher) Match(file string) bool {
	file = filepath.ToSlash(file)
	for _, g := range m.exclude {
		if ok, _ := doublestar.Match(g, file); ok {
			return false
		}
	}
	for _, g := range m.include {
		if ok, _ := doublestar.Match(g, file); ok {
			return true
		}
	}
	return false
}
