// Package paths locates Tailwind configuration files and computes the
// content-scan globs of every project layer.
package paths

import (
	"github.com/go-git/go-billy/v5"
)

// DefaultConfigExtensions are probed, in order, after the bare candidate path.
var DefaultConfigExtensions = []string{".js", ".cjs", ".mjs", ".ts", ".json", ".yaml", ".yml", ".star"}

// ResolveConfigCandidates returns, for every candidate, the first existing
// file among the candidate itself and the candidate with each extension
// appended. Candidates with no match are dropped, so the result may be empty;
// a missing configuration is never an error here.
func ResolveConfigCandidates(fsys billy.Basic, candidates []string, exts []string) []string {
	found := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if p, ok := FindFile(fsys, c, exts); ok {
			found = append(found, p)
		}
	}
	return found
}

// FindFile probes p and then p+ext for each extension.
func FindFile(fsys billy.Basic, p string, exts []string) (string, bool) {
	if isFile(fsys, p) {
		return p, true
	}
	for _, ext := range exts {
		if isFile(fsys, p+ext) {
			return p + ext, true
		}
	}
	return "", false
}

func isFile(fsys billy.Basic, p string) bool {
	info, err := fsys.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
