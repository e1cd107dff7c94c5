package paths

import (
	"path"
	"slices"
	"strings"
)

// scriptExtensions is the script-style extension group.
var scriptExtensions = []string{"js", "ts", "mjs"}

// ContentGlobs builds the content-scan globs for one layer rooted at srcDir.
// It is pure: nothing touches the filesystem.
func ContentGlobs(srcDir string, opts ProjectOptions) []string {
	r := func(p string) string {
		if srcDir != "" && strings.HasPrefix(p, srcDir) {
			return p
		}
		return resolve(srcDir, p)
	}
	sfc := ExtensionGroup(sfcExtensions(opts.Extensions))
	script := ExtensionGroup(scriptExtensions)

	globs := []string{r("components/**/*" + sfc)}

	for _, d := range opts.ComponentDirs() {
		globs = append(globs, opts.ResolveAlias(d)+"/**/*"+sfc)
	}

	if opts.Dir.Layouts != "" {
		globs = append(globs, r(opts.Dir.Layouts+"/**/*"+sfc))
	}
	if opts.PagesEnabled() {
		globs = append(globs, r(opts.Dir.Pages+"/**/*"+sfc))
	}
	if opts.Dir.Plugins != "" {
		globs = append(globs, r(opts.Dir.Plugins+"/**/*"+script))
	}

	for _, d := range importDirs(srcDir, opts, r) {
		globs = append(globs, d+"/**/*"+script)
	}

	return append(globs,
		r("{A,a}pp"+sfc),
		r("{E,e}rror"+sfc),
		r("app.config"+script),
	)
}

// importDirs returns the auto-import directories, always including the
// composables and utils directories of srcDir.
func importDirs(srcDir string, opts ProjectOptions, r func(string) string) []string {
	dirs := make([]string, 0, len(opts.Imports.Dirs)+2)
	for _, d := range opts.Imports.Dirs {
		dirs = append(dirs, r(d))
	}
	for _, name := range []string{"composables", "utils"} {
		d := resolve(srcDir, name)
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// ExtensionGroup formats an extension list as a glob suffix: `.{a,b}` for
// several, `.a` for one and `.vue` for none.
func ExtensionGroup(exts []string) string {
	switch len(exts) {
	case 0:
		return ".vue"
	case 1:
		return "." + exts[0]
	default:
		return ".{" + strings.Join(exts, ",") + "}"
	}
}

// sfcExtensions returns `.vue` plus the configured extensions, de-duplicated
// in first-seen order, with leading dots stripped.
func sfcExtensions(configured []string) []string {
	seen := make(map[string]bool, len(configured)+1)
	out := make([]string, 0, len(configured)+1)
	for _, e := range append([]string{".vue"}, configured...) {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, strings.TrimLeft(e, "."))
	}
	return out
}

func resolve(base, p string) string {
	if path.IsAbs(p) || base == "" {
		return path.Clean(p)
	}
	return path.Join(base, p)
}
