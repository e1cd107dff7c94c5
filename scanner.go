package twconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/yacobolo/twconfig/internal/tree"
	"github.com/yacobolo/twconfig/internal/watch"
)

// ScanStats tracks content scanning statistics
type ScanStats struct {
	FilesDiscovered int // Total files found by glob patterns
	FilesScanned    int // Files kept after filtering
	FilesSkipped    int // Files skipped as dependencies, excluded or gitignored
}

// isDependency reports whether path, relative to rootDir, lies inside an
// installed dependency or a build directory.
func isDependency(rootDir, path string) bool {
	if rel, err := filepath.Rel(rootDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		path = rel
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		switch part {
		case "node_modules", DefaultBuildDir, ".nuxt", ".output":
			return true
		}
	}
	return false
}

// loadGitIgnore loads rootDir/.gitignore. A missing file is fine.
func loadGitIgnore(rootDir string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(rootDir, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// ScanContent expands the content globs of a resolved config into the files
// Tailwind would scan. Relative globs are resolved against rootDir; `!`
// globs exclude files.
//
// Two-layer filtering:
// 1. Pattern check (fast): skip node_modules and build directories
// 2. Gitignore check: skip files ignored by rootDir/.gitignore
func ScanContent(rootDir string, content tree.Value) ([]string, ScanStats, error) {
	var stats ScanStats

	matcher, err := watch.NewContentMatcher(rootDir, content)
	if err != nil {
		return nil, stats, err
	}
	gi := loadGitIgnore(rootDir)

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range matcher.Globs() {
		matches, err := doublestar.FilepathGlob(filepath.FromSlash(pattern))
		if err != nil {
			return nil, stats, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			stats.FilesDiscovered++

			if shouldSkipFile(rootDir, match, matcher, gi) {
				stats.FilesSkipped++
				continue
			}
			files = append(files, match)
			stats.FilesScanned++
		}
	}

	sort.Strings(files)
	return files, stats, nil
}

func shouldSkipFile(rootDir, path string, matcher *watch.ContentMatcher, gi *ignore.GitIgnore) bool {
	// Layer 1: dependencies, build output and excluded globs
	if isDependency(rootDir, path) || !matcher.Match(path) {
		return true
	}

	// Layer 2: .gitignore, only for files inside the project
	if gi != nil {
		rel, err := filepath.Rel(rootDir, path)
		if err == nil && !strings.HasPrefix(rel, "..") && gi.MatchesPath(rel) {
			return true
		}
	}
	return false
}
