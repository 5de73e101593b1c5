// Package operations models the request shapes of the JSON:API atomic
// operations extension: ordered batches of add/update/remove
// instructions, each targeting a resource or one of its relationships
// by reference or by href. Only the data shapes live here; the batch
// endpoint's HTTP wiring is the host application's concern.
package operations

import (
	"encoding/json"
	"fmt"

	"github.com/conduit-lang/jsonapi/document"
)

// Op is an atomic operation code.
type Op int

const (
	// OpAdd creates a resource or adds members to a to-many relationship.
	OpAdd Op = iota
	// OpUpdate replaces a resource or a relationship's data.
	OpUpdate
	// OpRemove deletes a resource or removes to-many relationship members.
	OpRemove
)

// String returns the wire representation of the op code.
func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// ParseOp parses a wire op code.
func ParseOp(value string) (Op, error) {
	switch value {
	case "add":
		return OpAdd, nil
	case "update":
		return OpUpdate, nil
	case "remove":
		return OpRemove, nil
	default:
		return 0, fmt.Errorf("operations: unrecognized op code %q", value)
	}
}

// Ref is an atomic operation's target reference. Relationship is set
// when the operation targets a named relationship rather than the
// resource itself; Lid refers to a local id assigned earlier in the
// same batch.
type Ref struct {
	Type         string `json:"type"`
	ID           string `json:"id,omitempty"`
	Lid          string `json:"lid,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// Operation is one instruction of an atomic batch. Exactly one of the
// target forms is present: an explicit Ref, an Href requiring later
// resolution, or (for creates) a bare data payload carrying the type.
type Operation struct {
	op   Op
	ref  *Ref
	href string
	data interface{}
	meta map[string]interface{}
}

// NewCreate builds an add operation carrying a new resource.
func NewCreate(res document.Resource, meta map[string]interface{}) Operation {
	return Operation{op: OpAdd, data: res, meta: meta}
}

// NewUpdate builds an update operation targeting a resource by
// reference.
func NewUpdate(ref Ref, res document.Resource, meta map[string]interface{}) (Operation, error) {
	if err := validateResourceRef(ref); err != nil {
		return Operation{}, err
	}
	return Operation{op: OpUpdate, ref: &ref, data: res, meta: meta}, nil
}

// NewUpdateByHref builds an update operation targeting a resource by
// href; the href must be resolved to a reference before execution.
func NewUpdateByHref(href string, res document.Resource, meta map[string]interface{}) (Operation, error) {
	if href == "" {
		return Operation{}, fmt.Errorf("operations: href must not be empty")
	}
	return Operation{op: OpUpdate, href: href, data: res, meta: meta}, nil
}

// NewUpdateToOne builds an update operation replacing a to-one
// relationship. Data is the new identifier, or nil to clear it.
func NewUpdateToOne(ref Ref, data *document.Identifier, meta map[string]interface{}) (Operation, error) {
	if err := validateRelationshipRef(ref); err != nil {
		return Operation{}, err
	}
	op := Operation{op: OpUpdate, ref: &ref, meta: meta}
	if data != nil {
		op.data = data
	}
	return op, nil
}

// NewUpdateToMany builds an add, update, or remove operation against a
// to-many relationship's members.
func NewUpdateToMany(code Op, ref Ref, data []document.Identifier, meta map[string]interface{}) (Operation, error) {
	if err := validateRelationshipRef(ref); err != nil {
		return Operation{}, err
	}
	return Operation{op: code, ref: &ref, data: data, meta: meta}, nil
}

// NewDelete builds a remove operation targeting a resource by
// reference.
func NewDelete(ref Ref, meta map[string]interface{}) (Operation, error) {
	if err := validateResourceRef(ref); err != nil {
		return Operation{}, err
	}
	return Operation{op: OpRemove, ref: &ref, meta: meta}, nil
}

// NewDeleteByHref builds a remove operation targeting a resource by
// href.
func NewDeleteByHref(href string, meta map[string]interface{}) (Operation, error) {
	if href == "" {
		return Operation{}, fmt.Errorf("operations: href must not be empty")
	}
	return Operation{op: OpRemove, href: href, meta: meta}, nil
}

// Op returns the operation code.
func (o Operation) Op() Op { return o.op }

// Ref returns the explicit target reference, if the operation has one.
func (o Operation) Ref() (Ref, bool) {
	if o.ref == nil {
		return Ref{}, false
	}
	return *o.ref, true
}

// Href returns the target href. It is present only when the target was
// specified by href rather than by explicit reference.
func (o Operation) Href() (string, bool) {
	return o.href, o.href != ""
}

// Data returns the operation's data payload: a document.Resource for
// resource writes, identifier values for relationship writes, or nil.
func (o Operation) Data() interface{} { return o.data }

// Meta returns the operation's free-form meta.
func (o Operation) Meta() map[string]interface{} { return o.meta }

// Field returns the targeted relationship field name. It is non-empty
// exactly when the operation targets a relationship.
func (o Operation) Field() (string, bool) {
	if o.ref == nil || o.ref.Relationship == "" {
		return "", false
	}
	return o.ref.Relationship, true
}

// IsCreate reports whether the operation adds a new resource.
func (o Operation) IsCreate() bool {
	if o.op != OpAdd {
		return false
	}
	_, relationship := o.Field()
	return !relationship
}

// IsUpdate reports whether the operation replaces a resource.
func (o Operation) IsUpdate() bool {
	if o.op != OpUpdate {
		return false
	}
	_, relationship := o.Field()
	return !relationship
}

// IsDelete reports whether the operation removes a resource.
func (o Operation) IsDelete() bool {
	if o.op != OpRemove {
		return false
	}
	_, relationship := o.Field()
	return !relationship
}

// IsUpdateToOne reports whether the operation replaces a to-one
// relationship.
func (o Operation) IsUpdateToOne() bool {
	if o.op != OpUpdate {
		return false
	}
	if _, relationship := o.Field(); !relationship {
		return false
	}
	_, many := o.data.([]document.Identifier)
	return !many
}

// IsUpdateToMany reports whether the operation modifies a to-many
// relationship's members.
func (o Operation) IsUpdateToMany() bool {
	if _, relationship := o.Field(); !relationship {
		return false
	}
	_, many := o.data.([]document.Identifier)
	return many
}

// operationJSON is the wire shape of one atomic operation.
type operationJSON struct {
	Op   string                 `json:"op"`
	Ref  *Ref                   `json:"ref,omitempty"`
	Href string                 `json:"href,omitempty"`
	Data json.RawMessage        `json:"data,omitempty"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// UnmarshalJSON parses one atomic operation. The data member is decoded
// contextually: identifier values when the target is a relationship, a
// full resource object otherwise.
func (o *Operation) UnmarshalJSON(raw []byte) error {
	var wire operationJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}

	code, err := ParseOp(wire.Op)
	if err != nil {
		return err
	}

	if wire.Ref != nil && wire.Href != "" {
		return fmt.Errorf("operations: op %q must not carry both ref and href", wire.Op)
	}
	if wire.Ref != nil {
		if wire.Ref.Relationship != "" {
			if err := validateRelationshipRef(*wire.Ref); err != nil {
				return err
			}
		} else if err := validateResourceRef(*wire.Ref); err != nil {
			return err
		}
	}
	if code == OpRemove && wire.Ref == nil && wire.Href == "" {
		return fmt.Errorf("operations: remove op requires a ref or href target")
	}

	parsed := Operation{op: code, ref: wire.Ref, href: wire.Href, meta: wire.Meta}
	if len(wire.Data) > 0 && string(wire.Data) != "null" {
		if wire.Ref != nil && wire.Ref.Relationship != "" {
			parsed.data, err = decodeIdentifiers(wire.Data)
		} else {
			parsed.data, err = decodeResource(wire.Data)
		}
		if err != nil {
			return err
		}
	}

	if code == OpAdd && parsed.ref == nil && parsed.href == "" && parsed.data == nil {
		return fmt.Errorf("operations: add op requires a data payload")
	}
	// To-many membership changes always name the members; only an update
	// may carry null data, clearing a to-one relationship.
	if code != OpUpdate && wire.Ref != nil && wire.Ref.Relationship != "" && parsed.data == nil {
		return fmt.Errorf("operations: %s op on a relationship requires a data member", wire.Op)
	}

	*o = parsed
	return nil
}

func decodeResource(raw json.RawMessage) (interface{}, error) {
	var res document.Resource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func decodeIdentifiers(raw json.RawMessage) (interface{}, error) {
	if raw[0] == '[' {
		var many []document.Identifier
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one document.Identifier
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return &one, nil
}

func validateResourceRef(ref Ref) error {
	if ref.Type == "" {
		return fmt.Errorf("operations: ref type must not be empty")
	}
	if ref.ID == "" && ref.Lid == "" {
		return fmt.Errorf("operations: ref requires an id or lid")
	}
	return nil
}

func validateRelationshipRef(ref Ref) error {
	if err := validateResourceRef(ref); err != nil {
		return err
	}
	if ref.Relationship == "" {
		return fmt.Errorf("operations: relationship ref requires a field name")
	}
	return nil
}
