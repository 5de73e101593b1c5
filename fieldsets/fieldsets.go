// Package fieldsets implements JSON:API sparse fieldsets: the per-type
// field selections parsed from fields[TYPE] query parameters, and their
// application to resource objects before serialization.
package fieldsets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/jsonapi/document"
)

// FieldSets maps resource type names to sparse field selections. It is
// an immutable value: Push and Forget return modified copies. A type
// without an entry is unrestricted. Iteration follows insertion order;
// pushing a type that already has an entry replaces the selection in
// place, so the last push wins.
type FieldSets struct {
	types  []string
	fields map[string][]string
}

// New creates an empty FieldSets.
func New() FieldSets {
	return FieldSets{}
}

// Cast coerces a loosely typed value into a FieldSets. Accepted inputs
// are nil, another FieldSets, map[string][]string, and map[string]string
// with comma-separated field lists. Anything else is an invalid value.
// Map inputs are pushed in sorted type order for determinism.
func Cast(value interface{}) (FieldSets, error) {
	switch v := value.(type) {
	case nil:
		return New(), nil
	case FieldSets:
		return v, nil
	case map[string][]string:
		fs := New()
		for _, typ := range sortedKeys(v) {
			fs = fs.Push(typ, v[typ]...)
		}
		return fs, nil
	case map[string]string:
		fs := New()
		for _, typ := range sortedStringKeys(v) {
			fs = fs.Push(typ, splitFields(v[typ])...)
		}
		return fs, nil
	default:
		return FieldSets{}, fmt.Errorf("fieldsets: cannot cast %T to field sets", value)
	}
}

// Push upserts the field selection for a resource type. An existing
// entry keeps its position but its selection is replaced.
func (f FieldSets) Push(resourceType string, fields ...string) FieldSets {
	out := f.clone()
	if _, ok := out.fields[resourceType]; !ok {
		out.types = append(out.types, resourceType)
	}
	out.fields[resourceType] = append([]string(nil), fields...)
	return out
}

// Forget removes the entries for the given resource types.
func (f FieldSets) Forget(resourceTypes ...string) FieldSets {
	drop := make(map[string]bool, len(resourceTypes))
	for _, typ := range resourceTypes {
		drop[typ] = true
	}

	out := FieldSets{fields: make(map[string][]string, len(f.fields))}
	for _, typ := range f.types {
		if drop[typ] {
			continue
		}
		out.types = append(out.types, typ)
		out.fields[typ] = append([]string(nil), f.fields[typ]...)
	}
	return out
}

// Get returns the field selection for a resource type. The second
// return value is false when the type is unrestricted.
func (f FieldSets) Get(resourceType string) ([]string, bool) {
	fields, ok := f.fields[resourceType]
	if !ok {
		return nil, false
	}
	return append(make([]string, 0, len(fields)), fields...), true
}

// Has reports whether a selection exists for the resource type.
func (f FieldSets) Has(resourceType string) bool {
	_, ok := f.fields[resourceType]
	return ok
}

// Types returns the resource types in insertion order.
func (f FieldSets) Types() []string {
	return append([]string(nil), f.types...)
}

// IsEmpty reports whether no selections are present.
func (f FieldSets) IsEmpty() bool { return len(f.types) == 0 }

// Len returns the number of selections.
func (f FieldSets) Len() int { return len(f.types) }

// Apply projects a resource down to its type's selection. Types without
// a selection pass through unchanged; fields that do not exist on the
// resource are silently ignored, and type and id are always retained.
func (f FieldSets) Apply(res document.Resource) document.Resource {
	fields, ok := f.fields[res.Type()]
	if !ok {
		return res
	}
	return res.Only(fields...)
}

// ApplyAll projects every resource in a collection.
func (f FieldSets) ApplyAll(resources []document.Resource) []document.Resource {
	if f.IsEmpty() {
		return resources
	}
	out := make([]document.Resource, len(resources))
	for i, res := range resources {
		out[i] = f.Apply(res)
	}
	return out
}

func (f FieldSets) clone() FieldSets {
	out := FieldSets{
		types:  append([]string(nil), f.types...),
		fields: make(map[string][]string, len(f.fields)),
	}
	for typ, fields := range f.fields {
		out.fields[typ] = append([]string(nil), fields...)
	}
	return out
}

func splitFields(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
