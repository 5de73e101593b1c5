package bus

import (
	"fmt"
	"net/http"

	"github.com/conduit-lang/jsonapi/input"
)

// Input is the immutable payload carried by a query or command.
// Parameters returns the raw request parameters, which stand in for
// validated data when validation is skipped.
type Input interface {
	Parameters() map[string]interface{}
}

// state is the request-scoped envelope shared by queries and commands.
// Messages copy it wholesale on every mutation, so no two pipeline
// stages ever share mutable state.
type state struct {
	request           *http.Request
	hooks             Hooks
	model             interface{}
	hasModel          bool
	validated         map[string]interface{}
	isValidated       bool
	skipValidation    bool
	skipAuthorization bool
}

// Query is a read dispatched through the pipeline: an immutable input
// plus the request context, hook target, resolved model, and validation
// state. Every with-style method returns a copy; the receiver is never
// mutated.
type Query[I Input] struct {
	input I
	st    state
}

// NewQuery wraps an input for dispatch.
func NewQuery[I Input](in I) Query[I] {
	return Query[I]{input: in}
}

// FetchOne creates the query for a single resource read.
func FetchOne(in input.One) Query[input.One] { return NewQuery(in) }

// FetchMany creates the query for a collection read.
func FetchMany(in input.Many) Query[input.Many] { return NewQuery(in) }

// FetchRelationship creates the query for a relationship read.
func FetchRelationship(in input.Relationship) Query[input.Relationship] { return NewQuery(in) }

// Input returns the immutable input payload.
func (q Query[I]) Input() I { return q.input }

// Request returns the originating transport request, if any. The core
// treats it as opaque: it is only handed through to authorizers,
// validators, and hooks.
func (q Query[I]) Request() *http.Request { return q.st.request }

// WithRequest returns a copy carrying the transport request.
func (q Query[I]) WithRequest(r *http.Request) Query[I] {
	q.st.request = r
	return q
}

// Hooks returns the hook target, or NoopHooks when none was attached.
func (q Query[I]) Hooks() Hooks {
	if q.st.hooks == nil {
		return NoopHooks{}
	}
	return q.st.hooks
}

// WithHooks returns a copy carrying the hook target. Attaching nil is a
// no-op.
func (q Query[I]) WithHooks(hooks Hooks) Query[I] {
	if hooks == nil {
		return q
	}
	q.st.hooks = hooks
	return q
}

// Model returns the resolved subject model, if one has been attached.
func (q Query[I]) Model() (interface{}, bool) {
	return q.st.model, q.st.hasModel
}

// WithModel returns a copy carrying the resolved subject model.
func (q Query[I]) WithModel(model interface{}) Query[I] {
	q.st.model = model
	q.st.hasModel = true
	return q
}

// ModelOrFail returns the resolved model, panicking when none has been
// attached: reaching a model-dependent stage without a model is a
// pipeline-ordering bug, not a user error.
func (q Query[I]) ModelOrFail() interface{} {
	if !q.st.hasModel {
		panic(fmt.Sprintf("bus: no model has been resolved for %T", q.input))
	}
	return q.st.model
}

// SkipValidation returns a copy flagged to bypass validation. The flag
// is idempotent.
func (q Query[I]) SkipValidation() Query[I] {
	q.st.skipValidation = true
	return q
}

// MustValidate reports whether validation middleware should run.
func (q Query[I]) MustValidate() bool { return !q.st.skipValidation }

// SkipAuthorization returns a copy flagged to bypass authorization. The
// flag is idempotent.
func (q Query[I]) SkipAuthorization() Query[I] {
	q.st.skipAuthorization = true
	return q
}

// MustAuthorize reports whether authorization middleware should run.
func (q Query[I]) MustAuthorize() bool { return !q.st.skipAuthorization }

// WithValidated returns a copy marked validated and caching the
// sanitized data. Subsequent validation middleware treats the query as
// already validated.
func (q Query[I]) WithValidated(data map[string]interface{}) Query[I] {
	q.st.validated = data
	q.st.isValidated = true
	return q
}

// IsValidated reports whether WithValidated has been called.
func (q Query[I]) IsValidated() bool { return q.st.isValidated }

// Validated returns the cached sanitized data when present, and the raw
// input parameters otherwise. This is the path by which a
// skip-validation query still yields usable parameters to the handler.
func (q Query[I]) Validated() map[string]interface{} {
	if q.st.isValidated {
		return q.st.validated
	}
	return q.input.Parameters()
}

// Command is a write dispatched through the pipeline. It carries the
// same request-scoped envelope as Query and the same copy-on-write
// discipline; it is a distinct type because writes traverse a different
// middleware ordering (authorize before validate before execute).
type Command[I Input] struct {
	input I
	st    state
}

// NewCommand wraps an input for dispatch.
func NewCommand[I Input](in I) Command[I] {
	return Command[I]{input: in}
}

// Create creates the command for a resource create.
func Create(in input.Create) Command[input.Create] { return NewCommand(in) }

// Update creates the command for a resource update.
func Update(in input.Update) Command[input.Update] { return NewCommand(in) }

// Delete creates the command for a resource delete.
func Delete(in input.Delete) Command[input.Delete] { return NewCommand(in) }

// UpdateRelationship creates the command replacing a relationship.
func UpdateRelationship(in input.UpdateRelationship) Command[input.UpdateRelationship] {
	return NewCommand(in)
}

// AttachRelationship creates the command adding to-many members.
func AttachRelationship(in input.UpdateRelationship) Command[input.UpdateRelationship] {
	return NewCommand(in)
}

// DetachRelationship creates the command removing to-many members.
func DetachRelationship(in input.UpdateRelationship) Command[input.UpdateRelationship] {
	return NewCommand(in)
}

// Input returns the immutable input payload.
func (c Command[I]) Input() I { return c.input }

// Request returns the originating transport request, if any.
func (c Command[I]) Request() *http.Request { return c.st.request }

// WithRequest returns a copy carrying the transport request.
func (c Command[I]) WithRequest(r *http.Request) Command[I] {
	c.st.request = r
	return c
}

// Hooks returns the hook target, or NoopHooks when none was attached.
func (c Command[I]) Hooks() Hooks {
	if c.st.hooks == nil {
		return NoopHooks{}
	}
	return c.st.hooks
}

// WithHooks returns a copy carrying the hook target. Attaching nil is a
// no-op.
func (c Command[I]) WithHooks(hooks Hooks) Command[I] {
	if hooks == nil {
		return c
	}
	c.st.hooks = hooks
	return c
}

// Model returns the resolved subject model, if one has been attached.
func (c Command[I]) Model() (interface{}, bool) {
	return c.st.model, c.st.hasModel
}

// WithModel returns a copy carrying the resolved subject model.
func (c Command[I]) WithModel(model interface{}) Command[I] {
	c.st.model = model
	c.st.hasModel = true
	return c
}

// ModelOrFail returns the resolved model, panicking when none has been
// attached.
func (c Command[I]) ModelOrFail() interface{} {
	if !c.st.hasModel {
		panic(fmt.Sprintf("bus: no model has been resolved for %T", c.input))
	}
	return c.st.model
}

// SkipValidation returns a copy flagged to bypass validation.
func (c Command[I]) SkipValidation() Command[I] {
	c.st.skipValidation = true
	return c
}

// MustValidate reports whether validation middleware should run.
func (c Command[I]) MustValidate() bool { return !c.st.skipValidation }

// SkipAuthorization returns a copy flagged to bypass authorization.
func (c Command[I]) SkipAuthorization() Command[I] {
	c.st.skipAuthorization = true
	return c
}

// MustAuthorize reports whether authorization middleware should run.
func (c Command[I]) MustAuthorize() bool { return !c.st.skipAuthorization }

// WithValidated returns a copy marked validated and caching the
// sanitized data.
func (c Command[I]) WithValidated(data map[string]interface{}) Command[I] {
	c.st.validated = data
	c.st.isValidated = true
	return c
}

// IsValidated reports whether WithValidated has been called.
func (c Command[I]) IsValidated() bool { return c.st.isValidated }

// Validated returns the cached sanitized data when present, and the raw
// input parameters otherwise.
func (c Command[I]) Validated() map[string]interface{} {
	if c.st.isValidated {
		return c.st.validated
	}
	return c.input.Parameters()
}
