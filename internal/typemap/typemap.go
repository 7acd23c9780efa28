// Package typemap resolves schema type names to target-language type names.
//
// A Mapping is an immutable value: constructors copy their input and With
// returns a new Mapping, so one table can be shared by concurrent emitters
// without locking.
package typemap

import "sort"

// Mapping maps primitive schema types to target types
type Mapping struct {
	types map[string]string
}

// New creates a Mapping from a copy of types
func New(types map[string]string) Mapping {
	m := Mapping{types: make(map[string]string, len(types))}
	for k, v := range types {
		m.types[k] = v
	}
	return m
}

// CPP returns the C++ mapping
func CPP() Mapping {
	return New(map[string]string{
		"int32":  "int32_t",
		"int64":  "int64_t",
		"uint32": "uint32_t",
		"uint64": "uint64_t",
		"bool":   "bool",
		"string": "std::string",
	})
}

// Go returns the Go mapping
func Go() Mapping {
	return New(map[string]string{
		"int32":  "int32",
		"int64":  "int64",
		"uint32": "uint32",
		"uint64": "uint64",
		"bool":   "bool",
		"string": "string",
	})
}

// With returns a copy of m with overrides applied on top
func (m Mapping) With(overrides map[string]string) Mapping {
	out := New(m.types)
	for k, v := range overrides {
		out.types[k] = v
	}
	return out
}

// Resolve returns the target type for sourceType.
// Unknown names pass through unchanged with ok set to false.
func (m Mapping) Resolve(sourceType string) (target string, ok bool) {
	if t, found := m.types[sourceType]; found {
		return t, true
	}
	return sourceType, false
}

// IsPrimitive reports whether sourceType has an entry
func (m Mapping) IsPrimitive(sourceType string) bool {
	_, ok := m.types[sourceType]
	return ok
}

// Primitives returns the sorted primitive schema type names
func (m Mapping) Primitives() []string {
	names := make([]string, 0, len(m.types))
	for k := range m.types {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
