package bus

import (
	"net/http"

	"github.com/conduit-lang/jsonapi/document"
	"github.com/conduit-lang/jsonapi/input"
)

// Authorizer exposes the per-capability checks run by authorization
// middleware. Each check is dual-channel: a structured policy denial
// comes back as a non-empty error list, while a framework-level
// authorization failure comes back as a plain error that the pipeline
// propagates untouched.
type Authorizer interface {
	Index(r *http.Request) (document.ErrorList, error)
	Show(r *http.Request, model interface{}) (document.ErrorList, error)
	ShowRelationship(r *http.Request, model interface{}, field string) (document.ErrorList, error)
	Store(r *http.Request) (document.ErrorList, error)
	Update(r *http.Request, model interface{}) (document.ErrorList, error)
	Destroy(r *http.Request, model interface{}) (document.ErrorList, error)
	UpdateRelationship(r *http.Request, model interface{}, field string) (document.ErrorList, error)
	AttachRelationship(r *http.Request, model interface{}, field string) (document.ErrorList, error)
	DetachRelationship(r *http.Request, model interface{}, field string) (document.ErrorList, error)
}

// AuthorizerFactory resolves the authorizer for a resource type.
type AuthorizerFactory interface {
	Make(resourceType string) (Authorizer, error)
}

// Validator is one executed validation run.
type Validator interface {
	// Fails reports whether the input was rejected.
	Fails() bool
	// Validated returns the sanitized data of a passing run.
	Validated() map[string]interface{}
	// Errors returns the failing run's messages keyed by field.
	Errors() map[string][]string
}

// Validators yields the request-scoped validator for each operation
// against one resource type.
type Validators interface {
	QueryOne(in input.One) Validator
	QueryMany(in input.Many) Validator
	QueryRelationship(in input.Relationship) Validator
	Create(in input.Create) Validator
	Update(in input.Update) Validator
	Delete(in input.Delete) Validator
	UpdateRelationship(in input.UpdateRelationship) Validator
}

// ValidatorResolver is the validator container: it resolves the
// Validators implementation registered for a resource type.
type ValidatorResolver interface {
	ValidatorsFor(resourceType string) (Validators, bool)
}

// ErrorFactory converts a failed validator's messages into the JSON:API
// error-list shape.
type ErrorFactory interface {
	Make(v Validator) document.ErrorList
}

// ModelFinder resolves the subject model addressed by a type and id.
// The second return value is false when no such model exists.
type ModelFinder interface {
	Find(resourceType, id string) (interface{}, bool)
}

// Hooks is the capability interface of an optional caller-supplied hook
// target, invoked at the pipeline's extension points. Implementations
// that only care about some extension points embed NoopHooks.
type Hooks interface {
	// Reading runs before a read's terminal handler; in receives the
	// query input.
	Reading(r *http.Request, in interface{})
	// DidRead runs after a read's terminal handler succeeds.
	DidRead(r *http.Request, payload interface{})
	// Writing runs before a write's terminal handler; model is the
	// resolved subject, or nil for creates.
	Writing(r *http.Request, model interface{})
	// DidWrite runs after a write's terminal handler succeeds.
	DidWrite(r *http.Request, payload interface{})
}

// NoopHooks is the explicit no-op hook target attached when a caller
// supplies none.
type NoopHooks struct{}

// Reading implements Hooks.
func (NoopHooks) Reading(*http.Request, interface{}) {}

// DidRead implements Hooks.
func (NoopHooks) DidRead(*http.Request, interface{}) {}

// Writing implements Hooks.
func (NoopHooks) Writing(*http.Request, interface{}) {}

// DidWrite implements Hooks.
func (NoopHooks) DidWrite(*http.Request, interface{}) {}
