package tree

// Map is an insertion-ordered string-keyed mapping.
//
// Key order mirrors JavaScript object key order and decides the order of
// generated modules and emitted literals. The zero value is not usable; use
// NewMap. A nil *Map behaves as an empty map for reads.
type Map struct {
	keys    []string
	entries map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Value)}
}

// MapOf builds a map from alternating key/value arguments.
func MapOf(kv ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m.Set(key, MustFromGo(kv[i+1]))
	}
	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if v == nil {
		v = Null{}
	}
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

// Delete removes key.
func (m *Map) Delete(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each entry in order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}

// Clone deep-copies the map.
func (m *Map) Clone() *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	out.keys = make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		out.Set(k, Clone(m.entries[k]))
	}
	return out
}

// Path walks nested maps by key.
func (m *Map) Path(keys ...string) (Value, bool) {
	var cur Value = m
	for _, k := range keys {
		cm, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = cm.Get(k)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
