package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// fieldKind classifies a field name within a resource object. The
// classification is rebuilt during normalization so that field routing
// (Put, Replace, Pointer) never needs reflection.
type fieldKind int

const (
	fieldUnknown fieldKind = iota
	fieldType
	fieldID
	fieldAttribute
	fieldRelationship
)

// Resource is an immutable JSON:API resource object. Every mutator
// returns a new, re-normalized instance; the receiver is never changed.
// Normalization keeps attribute and relationship names sorted and
// maintains a combined field index covering type, id, attributes, and
// relationship data values.
type Resource struct {
	resourceType  string
	id            string
	attributes    map[string]interface{}
	relationships map[string]Relationship
	meta          map[string]interface{}
	links         map[string]interface{}

	// derived by normalize
	attrNames []string
	relNames  []string
	index     map[string]interface{}
	kinds     map[string]fieldKind
}

// New creates a resource object of the given type. The type is
// mandatory; an empty type is a malformed document.
func New(resourceType string) (Resource, error) {
	if resourceType == "" {
		return Resource{}, fmt.Errorf("document: resource type must not be empty")
	}
	r := Resource{resourceType: resourceType}
	r.normalize()
	return r, nil
}

// normalize recomputes the derived state: sorted attribute and
// relationship name slices plus the combined field index. Attribute and
// relationship name sets must already be disjoint; normalize asserts
// that invariant.
func (r *Resource) normalize() {
	r.attrNames = make([]string, 0, len(r.attributes))
	for name := range r.attributes {
		r.attrNames = append(r.attrNames, name)
	}
	sort.Strings(r.attrNames)

	r.relNames = make([]string, 0, len(r.relationships))
	for name := range r.relationships {
		r.relNames = append(r.relNames, name)
	}
	sort.Strings(r.relNames)

	r.index = make(map[string]interface{}, len(r.attributes)+len(r.relationships)+2)
	r.kinds = make(map[string]fieldKind, len(r.attributes)+len(r.relationships)+2)

	r.index["type"] = r.resourceType
	r.kinds["type"] = fieldType
	r.index["id"] = r.id
	r.kinds["id"] = fieldID

	for name, value := range r.attributes {
		if name == "type" || name == "id" {
			panic(fmt.Sprintf("document: attribute name %q is reserved", name))
		}
		r.index[name] = value
		r.kinds[name] = fieldAttribute
	}
	for name, rel := range r.relationships {
		if name == "type" || name == "id" {
			panic(fmt.Sprintf("document: relationship name %q is reserved", name))
		}
		if r.kinds[name] == fieldAttribute {
			panic(fmt.Sprintf("document: field %q is both an attribute and a relationship", name))
		}
		r.index[name] = rel.Data
		r.kinds[name] = fieldRelationship
	}
}

// clone produces a deep copy of the resource's owned maps so that
// mutators never alias state between instances.
func (r Resource) clone() Resource {
	out := Resource{
		resourceType: r.resourceType,
		id:           r.id,
		meta:         copyMap(r.meta),
		links:        copyMap(r.links),
	}
	if r.attributes != nil {
		out.attributes = make(map[string]interface{}, len(r.attributes))
		for k, v := range r.attributes {
			out.attributes[k] = v
		}
	}
	if r.relationships != nil {
		out.relationships = make(map[string]Relationship, len(r.relationships))
		for k, v := range r.relationships {
			out.relationships[k] = v.withData(v.Data)
		}
	}
	return out
}

// Type returns the resource type.
func (r Resource) Type() string { return r.resourceType }

// ID returns the resource id, which may be empty for client-generated
// create payloads.
func (r Resource) ID() string { return r.id }

// HasID reports whether the resource carries an id.
func (r Resource) HasID() bool { return r.id != "" }

// Attributes returns a copy of the attributes map.
func (r Resource) Attributes() map[string]interface{} {
	out := make(map[string]interface{}, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

// Relationships returns a copy of the relationships map.
func (r Resource) Relationships() map[string]Relationship {
	out := make(map[string]Relationship, len(r.relationships))
	for k, v := range r.relationships {
		out[k] = v
	}
	return out
}

// Meta returns a copy of the meta map.
func (r Resource) Meta() map[string]interface{} { return copyMap(r.meta) }

// Links returns a copy of the links map.
func (r Resource) Links() map[string]interface{} { return copyMap(r.links) }

// AttributeNames returns the attribute names in sorted order.
func (r Resource) AttributeNames() []string {
	return append([]string(nil), r.attrNames...)
}

// RelationshipNames returns the relationship names in sorted order.
func (r Resource) RelationshipNames() []string {
	return append([]string(nil), r.relNames...)
}

// Fields returns every indexed field name (type, id, attributes,
// relationships) in sorted order.
func (r Resource) Fields() []string {
	out := make([]string, 0, len(r.index))
	for name := range r.index {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// WithType returns a copy carrying a new resource type.
func (r Resource) WithType(resourceType string) (Resource, error) {
	if resourceType == "" {
		return Resource{}, fmt.Errorf("document: resource type must not be empty")
	}
	out := r.clone()
	out.resourceType = resourceType
	out.normalize()
	return out, nil
}

// WithID returns a copy carrying a new id.
func (r Resource) WithID(id string) Resource {
	out := r.clone()
	out.id = id
	out.normalize()
	return out
}

// WithAttributes returns a copy whose attributes are replaced wholesale.
func (r Resource) WithAttributes(attributes map[string]interface{}) Resource {
	out := r.clone()
	out.attributes = make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		out.attributes[k] = v
	}
	out.normalize()
	return out
}

// WithRelationships returns a copy whose relationships are replaced
// wholesale.
func (r Resource) WithRelationships(relationships map[string]Relationship) Resource {
	out := r.clone()
	out.relationships = make(map[string]Relationship, len(relationships))
	for k, v := range relationships {
		out.relationships[k] = v
	}
	out.normalize()
	return out
}

// WithMeta returns a copy carrying new meta.
func (r Resource) WithMeta(meta map[string]interface{}) Resource {
	out := r.clone()
	out.meta = copyMap(meta)
	out.normalize()
	return out
}

// WithLinks returns a copy carrying new links.
func (r Resource) WithLinks(links map[string]interface{}) Resource {
	out := r.clone()
	out.links = copyMap(links)
	out.normalize()
	return out
}

// Forget returns a copy with the named fields removed from the
// attributes and relationships. Unknown fields are ignored.
func (r Resource) Forget(fields ...string) Resource {
	out := r.clone()
	for _, field := range fields {
		delete(out.attributes, field)
		delete(out.relationships, field)
	}
	out.normalize()
	return out
}

// Only returns a copy reduced to the named attribute and relationship
// fields. Type, id, meta, and links are always retained.
func (r Resource) Only(fields ...string) Resource {
	keep := make(map[string]bool, len(fields))
	for _, field := range fields {
		keep[field] = true
	}

	out := r.clone()
	for name := range out.attributes {
		if !keep[name] {
			delete(out.attributes, name)
		}
	}
	for name := range out.relationships {
		if !keep[name] {
			delete(out.relationships, name)
		}
	}
	out.normalize()
	return out
}

// Replace sets the value of an existing attribute, or the data of an
// existing relationship. Replacing a field that is neither is a
// precondition violation and panics; callers are expected to check Has
// first when the field's existence is not already guaranteed.
func (r Resource) Replace(field string, value interface{}) Resource {
	switch r.kinds[field] {
	case fieldAttribute:
		return r.PutAttr(field, value)
	case fieldRelationship:
		return r.PutRelation(field, value)
	default:
		panic(fmt.Sprintf("document: field %q does not exist on resource %q", field, r.resourceType))
	}
}

// Merge overlays other onto the resource. Attribute keys are
// overwritten wholesale by other's values; relationship entries are
// shallow-merged per key with other winning on conflicts.
func (r Resource) Merge(other Resource) Resource {
	out := r.clone()

	if out.attributes == nil && len(other.attributes) > 0 {
		out.attributes = make(map[string]interface{}, len(other.attributes))
	}
	for name, value := range other.attributes {
		out.attributes[name] = value
	}

	if out.relationships == nil && len(other.relationships) > 0 {
		out.relationships = make(map[string]Relationship, len(other.relationships))
	}
	for name, rel := range other.relationships {
		if existing, ok := out.relationships[name]; ok {
			out.relationships[name] = existing.merge(rel)
		} else {
			out.relationships[name] = rel.withData(rel.Data)
		}
	}

	out.normalize()
	return out
}

// Put sets a single field, classifying it by existing relationship
// membership: a known relationship name routes to PutRelation, anything
// else is stored as an attribute.
func (r Resource) Put(field string, value interface{}) Resource {
	if r.kinds[field] == fieldRelationship {
		return r.PutRelation(field, value)
	}
	return r.PutAttr(field, value)
}

// PutAttr sets a single attribute. A same-named relationship entry is
// removed so the attribute and relationship name sets stay disjoint.
func (r Resource) PutAttr(field string, value interface{}) Resource {
	out := r.clone()
	if out.attributes == nil {
		out.attributes = make(map[string]interface{}, 1)
	}
	out.attributes[field] = value
	delete(out.relationships, field)
	out.normalize()
	return out
}

// PutRelation sets a single relationship's data, preserving any
// existing meta and links on the entry. A same-named attribute is
// removed so the name sets stay disjoint.
func (r Resource) PutRelation(field string, data interface{}) Resource {
	out := r.clone()
	if out.relationships == nil {
		out.relationships = make(map[string]Relationship, 1)
	}
	out.relationships[field] = out.relationships[field].withData(data)
	delete(out.attributes, field)
	out.normalize()
	return out
}

// Get looks up a field value through the combined index. Relationship
// fields yield their data member.
func (r Resource) Get(field string) (interface{}, bool) {
	value, ok := r.index[field]
	return value, ok
}

// Has reports whether a field exists in the combined index.
func (r Resource) Has(field string) bool {
	_, ok := r.index[field]
	return ok
}

// IsAttribute reports whether the field is an attribute.
func (r Resource) IsAttribute(field string) bool {
	return r.kinds[field] == fieldAttribute
}

// IsRelationship reports whether the field is a relationship.
func (r Resource) IsRelationship(field string) bool {
	return r.kinds[field] == fieldRelationship
}

// Pointer maps a dotted validation key to a JSON pointer within the
// document, rooted at prefix. Examples with prefix "/data":
//
//	type          -> /data/type
//	id            -> /data/id
//	title         -> /data/attributes/title        (attribute)
//	author        -> /data/relationships/author    (relationship)
//	author.id     -> /data/relationships/author/data/id
//
// A key that matches no field resolves to the prefix itself (or "/"
// when the prefix is empty), addressing the document root.
func (r Resource) Pointer(key, prefix string) string {
	segments := strings.Split(key, ".")
	head := segments[0]

	switch r.kinds[head] {
	case fieldType:
		return prefix + "/type"
	case fieldID:
		return prefix + "/id"
	case fieldAttribute:
		return prefix + "/attributes/" + strings.Join(segments, "/")
	case fieldRelationship:
		pointer := prefix + "/relationships/" + head
		if len(segments) > 1 {
			pointer += "/data/" + strings.Join(segments[1:], "/")
		}
		return pointer
	default:
		if prefix == "" {
			return "/"
		}
		return prefix
	}
}

// resourceJSON is the wire shape of a resource object.
type resourceJSON struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    map[string]interface{}  `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         map[string]interface{}  `json:"links,omitempty"`
	Meta          map[string]interface{}  `json:"meta,omitempty"`
}

// MarshalJSON serializes the resource object. Map keys serialize in
// sorted order, so output is deterministic for equal resources.
func (r Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(resourceJSON{
		Type:          r.resourceType,
		ID:            r.id,
		Attributes:    r.attributes,
		Relationships: r.relationships,
		Links:         r.links,
		Meta:          r.meta,
	})
}

// UnmarshalJSON parses a resource object, rejecting a missing or empty
// type member, and normalizes the result.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw resourceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == "" {
		return fmt.Errorf("document: resource object is missing its type member")
	}
	for name := range raw.Attributes {
		if name == "type" || name == "id" {
			return fmt.Errorf("document: attribute name %q is reserved", name)
		}
	}
	for name := range raw.Relationships {
		if name == "type" || name == "id" {
			return fmt.Errorf("document: relationship name %q is reserved", name)
		}
		if _, ok := raw.Attributes[name]; ok {
			return fmt.Errorf("document: field %q is both an attribute and a relationship", name)
		}
	}
	*r = Resource{
		resourceType:  raw.Type,
		id:            raw.ID,
		attributes:    raw.Attributes,
		relationships: raw.Relationships,
		meta:          raw.Meta,
		links:         raw.Links,
	}
	r.normalize()
	return nil
}
