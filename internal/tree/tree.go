// Package tree models configuration trees as a closed set of JSON-like kinds.
//
// Every configuration source (YAML, JSON, JavaScript literals, Starlark) is
// decoded into these types so that merging and template synthesis can switch
// on a single tag instead of probing dynamic Go types.
package tree

import (
	"context"
	"fmt"
)

// Kind tags a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindFunc:
		return "func"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one node of a configuration tree.
type Value interface {
	Kind() Kind
}

// Null is the JSON null.
type Null struct{}

// Bool is a boolean leaf.
type Bool bool

// Number is a numeric leaf. All numbers are float64, as in JavaScript.
type Number float64

// String is a string leaf.
type String string

// List is an ordered sequence of values.
type List []Value

// Func is a transient callable leaf. It only exists while fragments are being
// merged and is never serialized.
type Func struct {
	Name string
	Fn   func(ctx context.Context, in List) (Value, error)
}

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }
func (*Map) Kind() Kind   { return KindMap }
func (*Func) Kind() Kind  { return KindFunc }

// Call invokes the function with a copy of in.
func (f *Func) Call(ctx context.Context, in List) (Value, error) {
	if f == nil || f.Fn == nil {
		return nil, fmt.Errorf("call of nil function")
	}
	out, err := f.Fn(ctx, Clone(in).(List))
	if err != nil {
		name := f.Name
		if name == "" {
			name = "<anonymous>"
		}
		return nil, fmt.Errorf("function %s: %w", name, err)
	}
	if out == nil {
		return Null{}, nil
	}
	return out, nil
}

// KindOf returns the kind of v. A nil Value is Null.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	if m, ok := v.(*Map); ok && m == nil {
		return KindNull
	}
	return v.Kind()
}

// AsMap returns v as a map when it is one.
func AsMap(v Value) (*Map, bool) {
	m, ok := v.(*Map)
	return m, ok && m != nil
}

// AsList returns v as a list when it is one.
func AsList(v Value) (List, bool) {
	l, ok := v.(List)
	return l, ok
}

// Clone deep-copies v. Functions are shared.
func Clone(v Value) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case *Map:
		return t.Clone()
	case List:
		out := make(List, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Equal reports deep equality. Map key order is significant; functions compare
// by identity.
func Equal(a, b Value) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindMap:
		ma, mb := a.(*Map), b.(*Map)
		if ma.Len() != mb.Len() {
			return false
		}
		for i, k := range ma.keys {
			if mb.keys[i] != k || !Equal(ma.entries[k], mb.entries[k]) {
				return false
			}
		}
		return true
	case KindList:
		la, lb := a.(List), b.(List)
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// StripFuncs returns a copy of v with every function leaf removed. Functions
// inside lists are dropped from the list.
func StripFuncs(v Value) Value {
	switch t := v.(type) {
	case *Map:
		out := NewMap()
		if t == nil {
			return out
		}
		for _, k := range t.keys {
			child := t.entries[k]
			if KindOf(child) == KindFunc {
				continue
			}
			out.Set(k, StripFuncs(child))
		}
		return out
	case List:
		out := make(List, 0, len(t))
		for _, item := range t {
			if KindOf(item) == KindFunc {
				continue
			}
			out = append(out, StripFuncs(item))
		}
		return out
	case nil:
		return Null{}
	default:
		return v
	}
}

// Strings collects the string items of a list, skipping other kinds.
func Strings(v Value) []string {
	l, ok := AsList(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		if s, ok := item.(String); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// StringList builds a list of strings.
func StringList(items ...string) List {
	out := make(List, len(items))
	for i, s := range items {
		out[i] = String(s)
	}
	return out
}
