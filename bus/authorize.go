package bus

import (
	"net/http"

	"github.com/conduit-lang/jsonapi/document"
	"github.com/conduit-lang/jsonapi/input"
)

// check is one resolved capability check against an authorizer.
type check func(a Authorizer, r *http.Request) (document.ErrorList, error)

// authorizable is the view of a message the authorization step needs.
type authorizable interface {
	MustAuthorize() bool
	Request() *http.Request
}

// runAuthorization executes one capability check, mapping a structured
// denial to a failed result and propagating any plain error untouched.
func runAuthorization[M authorizable](m M, next Handler[M], factory AuthorizerFactory, resourceType string, run check) (Result, error) {
	if !m.MustAuthorize() {
		return next(m)
	}

	authorizer, err := factory.Make(resourceType)
	if err != nil {
		return Result{}, err
	}

	denied, err := run(authorizer, m.Request())
	if err != nil {
		return Result{}, err
	}
	if denied.HasErrors() {
		return Fail(denied), nil
	}

	return next(m)
}

// AuthorizeShow authorizes a single-resource read against the resolved
// model.
func AuthorizeShow(factory AuthorizerFactory) Middleware[Query[input.One]] {
	return func(q Query[input.One], next Handler[Query[input.One]]) (Result, error) {
		return runAuthorization(q, next, factory, q.Input().Type(), func(a Authorizer, r *http.Request) (document.ErrorList, error) {
			return a.Show(r, q.ModelOrFail())
		})
	}
}

// AuthorizeIndex authorizes a collection read.
func AuthorizeIndex(factory AuthorizerFactory) Middleware[Query[input.Many]] {
	return func(q Query[input.Many], next Handler[Query[input.Many]]) (Result, error) {
		return runAuthorization(q, next, factory, q.Input().Type(), func(a Authorizer, r *http.Request) (document.ErrorList, error) {
			return a.Index(r)
		})
	}
}

// AuthorizeShowRelationship authorizes a relationship read against the
// resolved model.
func AuthorizeShowRelationship(factory AuthorizerFactory) Middleware[Query[input.Relationship]] {
	return func(q Query[input.Relationship], next Handler[Query[input.Relationship]]) (Result, error) {
		return runAuthorization(q, next, factory, q.Input().Type(), func(a Authorizer, r *http.Request) (document.ErrorList, error) {
			return a.ShowRelationship(r, q.ModelOrFail(), q.Input().Field())
		})
	}
}

// AuthorizeStore authorizes a resource create. Creates have no subject
// model.
func AuthorizeStore(factory AuthorizerFactory) Middleware[Command[input.Create]] {
	return func(c Command[input.Create], next Handler[Command[input.Create]]) (Result, error) {
		return runAuthorization(c, next, factory, c.Input().Type(), func(a Authorizer, r *http.Request) (document.ErrorList, error) {
			return a.Store(r)
		})
	}
}

// AuthorizeUpdate authorizes a resource update against the resolved
// model.
func AuthorizeUpdate(factory AuthorizerFactory) Middleware[Command[input.Update]] {
	return func(c Command[input.Update], next Handler[Command[input.Update]]) (Result, error) {
		return runAuthorization(c, next, factory, c.Input().Type(), func(a Authorizer, r *http.Request) (document.ErrorList, error) {
			return a.Update(r, c.ModelOrFail())
		})
	}
}

// AuthorizeDestroy authorizes a resource delete against the resolved
// model.
func AuthorizeDestroy(factory AuthorizerFactory) Middleware[Command[input.Delete]] {
	return func(c Command[input.Delete], next Handler[Command[input.Delete]]) (Result, error) {
		return runAuthorization(c, next, factory, c.Input().Type(), func(a Authorizer, r *http.Request) (document.ErrorList, error) {
			return a.Destroy(r, c.ModelOrFail())
		})
	}
}

// AuthorizeUpdateRelationship authorizes replacing a relationship
// against the resolved model.
func AuthorizeUpdateRelationship(factory AuthorizerFactory) Middleware[Command[input.UpdateRelationship]] {
	return relationshipAuthorization(factory, Authorizer.UpdateRelationship)
}

// AuthorizeAttachRelationship authorizes adding to-many members against
// the resolved model.
func AuthorizeAttachRelationship(factory AuthorizerFactory) Middleware[Command[input.UpdateRelationship]] {
	return relationshipAuthorization(factory, Authorizer.AttachRelationship)
}

// AuthorizeDetachRelationship authorizes removing to-many members
// against the resolved model.
func AuthorizeDetachRelationship(factory AuthorizerFactory) Middleware[Command[input.UpdateRelationship]] {
	return relationshipAuthorization(factory, Authorizer.DetachRelationship)
}

func relationshipAuthorization(
	factory AuthorizerFactory,
	capability func(Authorizer, *http.Request, interface{}, string) (document.ErrorList, error),
) Middleware[Command[input.UpdateRelationship]] {
	return func(c Command[input.UpdateRelationship], next Handler[Command[input.UpdateRelationship]]) (Result, error) {
		return runAuthorization(c, next, factory, c.Input().Type(), func(a Authorizer, r *http.Request) (document.ErrorList, error) {
			return capability(a, r, c.ModelOrFail(), c.Input().Field())
		})
	}
}
