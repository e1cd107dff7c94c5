package twconfig

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"github.com/yacobolo/twconfig/internal/tree"
)

// Query evaluates a JSONPath expression such as `$.theme.colors.*` against
// cfg. Functions are dropped before matching.
func Query(cfg *tree.Map, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	if cfg == nil {
		cfg = tree.NewMap()
	}
	return x.Get(tree.ToGo(tree.StripFuncs(cfg))), nil
}
