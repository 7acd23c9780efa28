package typemap

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tordrt/entitygen/internal/schema"
)

// ErrUnresolvedType is matched by every *UnresolvedType
var ErrUnresolvedType = errors.New("unresolved type")

// Registry holds the type names generated in the current run.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register records generated type names such as ItemObject
func (r *Registry) Register(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.names[name] = struct{}{}
	}
}

// Known reports whether name was registered
func (r *Registry) Known(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Names returns the registered names sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnresolvedType is a field type that is neither primitive nor a known entity
type UnresolvedType struct {
	Entity string
	Field  string
	Type   string
	Line   int
}

func (u *UnresolvedType) Error() string {
	return fmt.Sprintf("%s.%s: type %q is not a primitive or a generated entity (line %d)",
		u.Entity, u.Field, u.Type, u.Line)
}

// Is reports whether target is ErrUnresolvedType
func (u *UnresolvedType) Is(target error) bool {
	return target == ErrUnresolvedType
}

// Unresolved lists the fields of e whose type is not in m and not in reg.
// A nil registry treats every non-primitive type as unresolved.
func Unresolved(e *schema.Entity, m Mapping, reg *Registry) []*UnresolvedType {
	var out []*UnresolvedType
	for _, f := range e.Fields {
		if m.IsPrimitive(f.SourceType) || reg.Known(f.SourceType) {
			continue
		}
		out = append(out, &UnresolvedType{
			Entity: e.Name,
			Field:  f.Name,
			Type:   f.SourceType,
			Line:   f.Line,
		})
	}
	return out
}
