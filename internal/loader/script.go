package loader

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/yacobolo/twconfig/internal/tree"
)

var errNoDefaultExport = errors.New("no default-exported object literal")

var commonJSExport = regexp.MustCompile(`(?m)^\s*module\.exports\s*=`)

// decodeScript extracts the default-exported object literal of an ES module.
// CommonJS `module.exports =` assignments are treated as default exports.
func decodeScript(_ context.Context, _ string, src []byte, skip func(string, string)) (*tree.Map, error) {
	src = commonJSExport.ReplaceAll(src, []byte("export default "))

	ast, err := js.Parse(parse.NewInputBytes(src), js.Options{})
	if err != nil {
		return nil, err
	}

	expr := defaultExport(ast)
	if expr == nil {
		return nil, errNoDefaultExport
	}
	obj, ok := unwrapObject(expr, declarations(ast))
	if !ok {
		return nil, errNoDefaultExport
	}

	x := &extractor{skip: skip}
	return x.object(obj, ""), nil
}

// decodeTS strips TypeScript syntax with esbuild before extraction.
func decodeTS(ctx context.Context, file string, src []byte, skip func(string, string)) (*tree.Map, error) {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:     api.LoaderTS,
		Format:     api.FormatESModule,
		Sourcefile: file,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return nil, fmt.Errorf("transform: %s", strings.Join(msgs, "; "))
	}
	return decodeScript(ctx, file, result.Code, skip)
}

// defaultExport finds the default-exported expression. Besides
// `export default <expr>` it follows `export { name as default }`, the form
// esbuild emits for transformed modules.
func defaultExport(ast *js.AST) js.IExpr {
	for _, stmt := range ast.List {
		exp, ok := stmt.(*js.ExportStmt)
		if !ok || exp.Module != nil {
			continue
		}
		if exp.Default && exp.Decl != nil {
			return exp.Decl
		}
		for _, alias := range exp.List {
			if string(alias.Binding) == "default" && alias.Name != nil {
				return &js.Var{Data: alias.Name}
			}
		}
	}
	return nil
}

// declarations indexes top-level `const name = <expr>` bindings so that
// `export default config` can be followed to its literal.
func declarations(ast *js.AST) map[string]js.IExpr {
	out := make(map[string]js.IExpr)
	for _, stmt := range ast.List {
		decl, ok := stmt.(*js.VarDecl)
		if !ok {
			continue
		}
		for _, b := range decl.List {
			if v, ok := b.Binding.(*js.Var); ok && b.Default != nil {
				out[string(v.Data)] = b.Default
			}
		}
	}
	return out
}

// unwrapObject follows identifiers, parentheses and single-argument helper
// calls such as defineConfig({...}) down to an object literal.
func unwrapObject(expr js.IExpr, decls map[string]js.IExpr) (*js.ObjectExpr, bool) {
	for depth := 0; depth < 16; depth++ {
		switch e := expr.(type) {
		case *js.ObjectExpr:
			return e, true
		case *js.GroupExpr:
			expr = e.X
		case *js.CallExpr:
			if len(e.Args.List) != 1 {
				return nil, false
			}
			expr = e.Args.List[0].Value
		case *js.Var:
			next, ok := decls[string(e.Data)]
			if !ok {
				return nil, false
			}
			expr = next
		default:
			return nil, false
		}
	}
	return nil, false
}

type extractor struct {
	skip func(key, reason string)
}

func (x *extractor) object(obj *js.ObjectExpr, prefix string) *tree.Map {
	out := tree.NewMap()
	for i, prop := range obj.List {
		if prop.Spread || prop.Name == nil {
			x.skip(joinKey(prefix, strconv.Itoa(i)), "spread or shorthand property")
			continue
		}
		key, ok := propertyKey(prop.Name)
		if !ok {
			x.skip(joinKey(prefix, strconv.Itoa(i)), "computed property name")
			continue
		}
		full := joinKey(prefix, key)
		if v, ok := x.value(prop.Value, full); ok {
			out.Set(key, v)
		}
	}
	return out
}

func (x *extractor) value(expr js.IExpr, key string) (tree.Value, bool) {
	switch e := expr.(type) {
	case *js.ObjectExpr:
		return x.object(e, key), true
	case *js.ArrayExpr:
		list := make(tree.List, 0, len(e.List))
		for i, el := range e.List {
			if el.Spread {
				x.skip(joinKey(key, strconv.Itoa(i)), "spread element")
				continue
			}
			if el.Value == nil {
				list = append(list, tree.Null{})
				continue
			}
			if v, ok := x.value(el.Value, joinKey(key, strconv.Itoa(i))); ok {
				list = append(list, v)
			}
		}
		return list, true
	case *js.GroupExpr:
		return x.value(e.X, key)
	case *js.UnaryExpr:
		if e.Op == js.NegToken || e.Op == js.PosToken {
			if v, ok := x.value(e.X, key); ok {
				if n, ok := v.(tree.Number); ok {
					if e.Op == js.NegToken {
						n = -n
					}
					return n, true
				}
			}
		}
	case *js.LiteralExpr:
		if v, ok := literal(e); ok {
			return v, true
		}
	case *js.TemplateExpr:
		if e.Tag == nil && len(e.List) == 0 && len(e.Tail) >= 2 {
			return tree.String(e.Tail[1 : len(e.Tail)-1]), true
		}
	case *js.Var:
		if string(e.Data) == "undefined" {
			return tree.Null{}, true
		}
	}
	x.skip(key, describe(expr))
	return nil, false
}

func literal(e *js.LiteralExpr) (tree.Value, bool) {
	switch e.TokenType {
	case js.StringToken:
		s, err := unquote(string(e.Data))
		if err != nil {
			return nil, false
		}
		return tree.String(s), true
	case js.TrueToken:
		return tree.Bool(true), true
	case js.FalseToken:
		return tree.Bool(false), true
	case js.NullToken:
		return tree.Null{}, true
	}
	if n, ok := number(string(e.Data)); ok {
		return tree.Number(n), true
	}
	return nil, false
}

func propertyKey(name *js.PropertyName) (string, bool) {
	if name.Computed != nil {
		return "", false
	}
	lit := name.Literal
	switch lit.TokenType {
	case js.StringToken:
		s, err := unquote(string(lit.Data))
		return s, err == nil
	default:
		if n, ok := number(string(lit.Data)); ok {
			return strconv.FormatFloat(n, 'f', -1, 64), true
		}
		return string(lit.Data), len(lit.Data) > 0
	}
}

func number(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "_", "")
	if s == "" || !(s[0] >= '0' && s[0] <= '9' || s[0] == '.') {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' && strings.ContainsAny(s[1:2], "xXoObB") {
		i, err := strconv.ParseInt(s, 0, 64)
		return float64(i), err == nil
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// unquote decodes a single- or double-quoted JavaScript string literal.
func unquote(s string) (string, error) {
	if len(s) < 2 || (s[0] != '"' && s[0] != '\'') || s[len(s)-1] != s[0] {
		return "", fmt.Errorf("invalid string literal %s", s)
	}
	quote := s[0]
	body := s[1 : len(s)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var b strings.Builder
	for len(body) > 0 {
		// Line continuations vanish.
		if strings.HasPrefix(body, "\\\n") {
			body = body[2:]
			continue
		}
		r, _, tail, err := strconv.UnquoteChar(body, quote)
		if err != nil {
			return "", err
		}
		b.WriteRune(r)
		body = tail
	}
	return b.String(), nil
}

func describe(expr js.IExpr) string {
	switch expr.(type) {
	case *js.ArrowFunc, *js.FuncDecl, *js.MethodDecl:
		return "function value"
	case *js.CallExpr, *js.NewExpr:
		return "call expression"
	case *js.Var, *js.DotExpr, *js.IndexExpr:
		return "reference to another binding"
	default:
		return fmt.Sprintf("unsupported expression %T", expr)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
