// Package inject places the Tailwind CSS entry in a project's global CSS
// stack.
package inject

import (
	"fmt"
	"math"
	"path"
	"slices"

	"github.com/go-git/go-billy/v5"

	"github.com/yacobolo/twconfig/internal/tree"
)

// CSSExtensions are probed, in order, when the configured CSS path has none.
var CSSExtensions = []string{".css", ".sass", ".scss", ".less", ".styl"}

// DefaultCSSName is the generated entry used when the project has none.
const DefaultCSSName = "tailwind.css"

// DefaultCSS is the content of the generated entry.
const DefaultCSS = "@tailwind base;\n@tailwind components;\n@tailwind utilities;\n"

// InvalidPositionError reports an injection position that cannot be applied.
type InvalidPositionError struct {
	Position string // JSON rendering of the configured value
	Reason   string
}

func (e *InvalidPositionError) Error() string {
	return e.Reason
}

// Entry is the resolved CSS entry.
type Entry struct {
	Path    string // empty when disabled
	Default bool   // the configured file is missing; DefaultCSS should be generated
}

// ResolveEntry locates the configured CSS file. An empty cssPath means the
// entry is disabled. A path that does not exist selects the default entry.
func ResolveEntry(fsys billy.Basic, cssPath string) Entry {
	if cssPath == "" {
		return Entry{}
	}
	if info, err := fsys.Stat(cssPath); err == nil && info.Mode().IsRegular() {
		return Entry{Path: cssPath}
	}
	if path.Ext(cssPath) == "" {
		for _, ext := range CSSExtensions {
			if info, err := fsys.Stat(cssPath + ext); err == nil && info.Mode().IsRegular() {
				return Entry{Path: cssPath + ext}
			}
		}
	}
	return Entry{Default: true}
}

// ResolvePosition returns the index at which the entry is inserted into
// stack. pos may be null or empty (first), "first", "last", a number, or an object
// with an `after` file that must already be in the stack.
func ResolvePosition(stack []string, pos tree.Value) (int, error) {
	switch p := pos.(type) {
	case nil, tree.Null:
		return 0, nil
	case tree.Number:
		f := math.Min(float64(p), float64(len(stack)+1))
		if math.IsNaN(f) {
			return 0, nil
		}
		// Truncate toward zero; negative values count from the end.
		i := int(math.Trunc(f))
		if i < 0 {
			i = max(len(stack)+i, 0)
		}
		return min(i, len(stack)), nil
	case tree.String:
		switch p {
		case "", "first":
			return 0, nil
		case "last":
			return len(stack), nil
		default:
			return 0, &InvalidPositionError{Position: tree.Quote(string(p)), Reason: "invalid literal: " + string(p)}
		}
	case *tree.Map:
		if after, ok := p.Get("after"); ok && tree.KindOf(after) != tree.KindNull {
			target, _ := after.(tree.String)
			i := slices.Index(stack, string(target))
			if i == -1 {
				return 0, &InvalidPositionError{
					Position: encode(p),
					Reason:   "`after` position specifies a file which does not exist on the CSS stack: " + string(target),
				}
			}
			return i + 1, nil
		}
	}
	return 0, &InvalidPositionError{Position: encode(pos), Reason: "invalid position: " + encode(pos)}
}

// Inject inserts entry into stack at pos. Nothing changes when entry is
// empty or already present.
func Inject(stack []string, entry string, pos tree.Value) ([]string, error) {
	if entry == "" || slices.Contains(stack, entry) {
		return stack, nil
	}
	i, err := ResolvePosition(stack, pos)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Tailwind CSS injection position: %w", err)
	}
	return slices.Insert(slices.Clone(stack), i, entry), nil
}

func encode(v tree.Value) string {
	s, err := tree.Encode(tree.StripFuncs(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}
