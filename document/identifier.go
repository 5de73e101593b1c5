package document

import (
	"encoding/json"
	"fmt"
)

// Identifier is a JSON:API resource identifier object: the minimal
// {type, id} reference used in relationship data and operation targets.
type Identifier struct {
	Type string                 `json:"type"`
	ID   string                 `json:"id,omitempty"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// NewIdentifier creates a resource identifier. The type is mandatory;
// an empty type is a malformed reference and is rejected at construction.
func NewIdentifier(resourceType, id string) (Identifier, error) {
	if resourceType == "" {
		return Identifier{}, fmt.Errorf("document: identifier type must not be empty")
	}
	return Identifier{Type: resourceType, ID: id}, nil
}

// UnmarshalJSON parses an identifier object, rejecting a missing or
// empty type member.
func (i *Identifier) UnmarshalJSON(data []byte) error {
	type alias Identifier
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == "" {
		return fmt.Errorf("document: identifier is missing its type member")
	}
	*i = Identifier(raw)
	return nil
}

// Relationship is one entry of a resource object's relationships map.
// Data holds either a *Identifier (to-one), a []Identifier (to-many),
// or nil for an empty to-one relationship.
type Relationship struct {
	Data  interface{}
	Meta  map[string]interface{}
	Links map[string]interface{}
}

// relationshipJSON is the wire shape of a relationship object.
type relationshipJSON struct {
	Data  json.RawMessage        `json:"data,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
	Links map[string]interface{} `json:"links,omitempty"`
}

// MarshalJSON serializes the relationship object. An empty to-one
// relationship serializes as "data": null unless the entry is a
// links/meta-only relationship, in which case data is omitted.
func (r Relationship) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 3)
	if r.Data != nil || (r.Meta == nil && r.Links == nil) {
		out["data"] = r.Data
	}
	if r.Meta != nil {
		out["meta"] = r.Meta
	}
	if r.Links != nil {
		out["links"] = r.Links
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses a relationship object, decoding the data member
// into identifiers.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var raw relationshipJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Meta = raw.Meta
	r.Links = raw.Links
	r.Data = nil

	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return nil
	}

	switch raw.Data[0] {
	case '[':
		var many []Identifier
		if err := json.Unmarshal(raw.Data, &many); err != nil {
			return err
		}
		r.Data = many
	case '{':
		var one Identifier
		if err := json.Unmarshal(raw.Data, &one); err != nil {
			return err
		}
		r.Data = &one
	default:
		return fmt.Errorf("document: relationship data must be null, an object, or an array")
	}

	return nil
}

// withData returns a copy of the relationship carrying new data while
// preserving meta and links.
func (r Relationship) withData(data interface{}) Relationship {
	return Relationship{
		Data:  data,
		Meta:  copyMap(r.Meta),
		Links: copyMap(r.Links),
	}
}

// merge overlays other onto the relationship. Present members of other
// win; absent members keep the receiver's value.
func (r Relationship) merge(other Relationship) Relationship {
	out := Relationship{
		Data:  r.Data,
		Meta:  copyMap(r.Meta),
		Links: copyMap(r.Links),
	}
	if other.Data != nil {
		out.Data = other.Data
	}
	if other.Meta != nil {
		out.Meta = copyMap(other.Meta)
	}
	if other.Links != nil {
		out.Links = copyMap(other.Links)
	}
	return out
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
