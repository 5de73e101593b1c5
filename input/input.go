// Package input defines the immutable value objects that capture a
// parsed, validated request shape: the resource type and id being
// addressed, the query parameters, and (for writes) the target
// reference and document payload.
package input

import (
	"fmt"

	"github.com/conduit-lang/jsonapi/document"
	"github.com/conduit-lang/jsonapi/fieldsets"
)

// Params holds the standard JSON:API query parameters of a request.
type Params struct {
	Filter  map[string]string
	Sort    []string
	Page    map[string]string
	Include []string
	Fields  fieldsets.FieldSets
}

// clone deep-copies the parameter maps and slices so constructed inputs
// never alias caller state.
func (p Params) clone() Params {
	out := Params{Fields: p.Fields}
	if p.Filter != nil {
		out.Filter = make(map[string]string, len(p.Filter))
		for k, v := range p.Filter {
			out.Filter[k] = v
		}
	}
	if p.Page != nil {
		out.Page = make(map[string]string, len(p.Page))
		for k, v := range p.Page {
			out.Page[k] = v
		}
	}
	out.Sort = append([]string(nil), p.Sort...)
	out.Include = append([]string(nil), p.Include...)
	return out
}

// Parameters flattens the params into the raw key/value map handed to
// validators, and returned by Validated() when validation is skipped.
func (p Params) Parameters() map[string]interface{} {
	out := make(map[string]interface{})
	if len(p.Filter) > 0 {
		filter := make(map[string]interface{}, len(p.Filter))
		for k, v := range p.Filter {
			filter[k] = v
		}
		out["filter"] = filter
	}
	if len(p.Sort) > 0 {
		out["sort"] = append([]string(nil), p.Sort...)
	}
	if len(p.Page) > 0 {
		page := make(map[string]interface{}, len(p.Page))
		for k, v := range p.Page {
			page[k] = v
		}
		out["page"] = page
	}
	if len(p.Include) > 0 {
		out["include"] = append([]string(nil), p.Include...)
	}
	if !p.Fields.IsEmpty() {
		fields := make(map[string]interface{}, p.Fields.Len())
		for _, typ := range p.Fields.Types() {
			selection, _ := p.Fields.Get(typ)
			fields[typ] = selection
		}
		out["fields"] = fields
	}
	return out
}

// One addresses a single resource: fetch-one and fetch-related reads.
type One struct {
	resourceType string
	id           string
	params       Params
}

// NewOne constructs a fetch-one input. Type and id are mandatory.
func NewOne(resourceType, id string, params Params) (One, error) {
	if resourceType == "" {
		return One{}, fmt.Errorf("input: resource type must not be empty")
	}
	if id == "" {
		return One{}, fmt.Errorf("input: resource id must not be empty")
	}
	return One{resourceType: resourceType, id: id, params: params.clone()}, nil
}

// Type returns the resource type.
func (q One) Type() string { return q.resourceType }

// ID returns the resource id.
func (q One) ID() string { return q.id }

// Params returns the query parameters.
func (q One) Params() Params { return q.params.clone() }

// Parameters returns the raw query parameters.
func (q One) Parameters() map[string]interface{} { return q.params.Parameters() }

// Many addresses a resource collection: fetch-many reads.
type Many struct {
	resourceType string
	params       Params
}

// NewMany constructs a fetch-many input. The type is mandatory.
func NewMany(resourceType string, params Params) (Many, error) {
	if resourceType == "" {
		return Many{}, fmt.Errorf("input: resource type must not be empty")
	}
	return Many{resourceType: resourceType, params: params.clone()}, nil
}

// Type returns the resource type.
func (q Many) Type() string { return q.resourceType }

// Params returns the query parameters.
func (q Many) Params() Params { return q.params.clone() }

// Parameters returns the raw query parameters.
func (q Many) Parameters() map[string]interface{} { return q.params.Parameters() }

// Relationship addresses a named relationship of a single resource.
type Relationship struct {
	resourceType string
	id           string
	field        string
	params       Params
}

// NewRelationship constructs a fetch-relationship input. A relationship
// input always carries a non-empty field name.
func NewRelationship(resourceType, id, field string, params Params) (Relationship, error) {
	if resourceType == "" {
		return Relationship{}, fmt.Errorf("input: resource type must not be empty")
	}
	if id == "" {
		return Relationship{}, fmt.Errorf("input: resource id must not be empty")
	}
	if field == "" {
		return Relationship{}, fmt.Errorf("input: relationship field must not be empty")
	}
	return Relationship{resourceType: resourceType, id: id, field: field, params: params.clone()}, nil
}

// Type returns the resource type.
func (q Relationship) Type() string { return q.resourceType }

// ID returns the resource id.
func (q Relationship) ID() string { return q.id }

// Field returns the relationship field name.
func (q Relationship) Field() string { return q.field }

// Params returns the query parameters.
func (q Relationship) Params() Params { return q.params.clone() }

// Parameters returns the raw query parameters.
func (q Relationship) Parameters() map[string]interface{} { return q.params.Parameters() }

// Create carries the document payload of a create request.
type Create struct {
	resource document.Resource
}

// NewCreate constructs a create input from the request document's
// primary resource.
func NewCreate(resource document.Resource) (Create, error) {
	if resource.Type() == "" {
		return Create{}, fmt.Errorf("input: create payload must carry a resource type")
	}
	return Create{resource: resource}, nil
}

// Type returns the resource type of the payload.
func (c Create) Type() string { return c.resource.Type() }

// Resource returns the document payload.
func (c Create) Resource() document.Resource { return c.resource }

// Parameters returns the payload's fields keyed by name: every
// attribute value plus every relationship's data member.
func (c Create) Parameters() map[string]interface{} { return resourceParameters(c.resource) }

// Update carries the target reference and document payload of an
// update request.
type Update struct {
	ref      document.Identifier
	resource document.Resource
}

// NewUpdate constructs an update input. The target reference must carry
// a type and id.
func NewUpdate(ref document.Identifier, resource document.Resource) (Update, error) {
	if ref.Type == "" {
		return Update{}, fmt.Errorf("input: update target type must not be empty")
	}
	if ref.ID == "" {
		return Update{}, fmt.Errorf("input: update target id must not be empty")
	}
	return Update{ref: ref, resource: resource}, nil
}

// Type returns the target resource type.
func (u Update) Type() string { return u.ref.Type }

// ID returns the target resource id.
func (u Update) ID() string { return u.ref.ID }

// Ref returns the target reference.
func (u Update) Ref() document.Identifier { return u.ref }

// Resource returns the document payload.
func (u Update) Resource() document.Resource { return u.resource }

// Parameters returns the payload's fields keyed by name.
func (u Update) Parameters() map[string]interface{} { return resourceParameters(u.resource) }

// Delete carries the target reference of a delete request.
type Delete struct {
	ref document.Identifier
}

// NewDelete constructs a delete input. The target reference must carry
// a type and id.
func NewDelete(ref document.Identifier) (Delete, error) {
	if ref.Type == "" {
		return Delete{}, fmt.Errorf("input: delete target type must not be empty")
	}
	if ref.ID == "" {
		return Delete{}, fmt.Errorf("input: delete target id must not be empty")
	}
	return Delete{ref: ref}, nil
}

// Type returns the target resource type.
func (d Delete) Type() string { return d.ref.Type }

// ID returns the target resource id.
func (d Delete) ID() string { return d.ref.ID }

// Ref returns the target reference.
func (d Delete) Ref() document.Identifier { return d.ref }

// Parameters returns an empty map; a delete carries no document payload.
func (d Delete) Parameters() map[string]interface{} { return map[string]interface{}{} }

// UpdateRelationship carries the target reference, relationship field,
// and identifier data of a relationship write (replace, attach, or
// detach).
type UpdateRelationship struct {
	ref   document.Identifier
	field string
	data  interface{}
}

// NewUpdateRelationship constructs a relationship-write input. The
// field name is mandatory; data holds a *document.Identifier, a
// []document.Identifier, or nil to clear a to-one relationship.
func NewUpdateRelationship(ref document.Identifier, field string, data interface{}) (UpdateRelationship, error) {
	if ref.Type == "" {
		return UpdateRelationship{}, fmt.Errorf("input: relationship target type must not be empty")
	}
	if ref.ID == "" {
		return UpdateRelationship{}, fmt.Errorf("input: relationship target id must not be empty")
	}
	if field == "" {
		return UpdateRelationship{}, fmt.Errorf("input: relationship field must not be empty")
	}
	return UpdateRelationship{ref: ref, field: field, data: data}, nil
}

// Type returns the target resource type.
func (u UpdateRelationship) Type() string { return u.ref.Type }

// ID returns the target resource id.
func (u UpdateRelationship) ID() string { return u.ref.ID }

// Ref returns the target reference.
func (u UpdateRelationship) Ref() document.Identifier { return u.ref }

// Field returns the relationship field name.
func (u UpdateRelationship) Field() string { return u.field }

// Data returns the relationship data payload.
func (u UpdateRelationship) Data() interface{} { return u.data }

// Parameters returns the relationship data keyed by field name.
func (u UpdateRelationship) Parameters() map[string]interface{} {
	return map[string]interface{}{u.field: u.data}
}

// resourceParameters flattens a document payload into the field map
// handed to validators: attribute values plus relationship data.
func resourceParameters(res document.Resource) map[string]interface{} {
	out := res.Attributes()
	for name, rel := range res.Relationships() {
		out[name] = rel.Data
	}
	return out
}
