package bus

import (
	"github.com/conduit-lang/jsonapi/document"
	"github.com/conduit-lang/jsonapi/input"
)

// modeled is the view of a message the model-resolution step needs.
type modeled[M any] interface {
	Model() (interface{}, bool)
	WithModel(interface{}) M
}

// resolveModel attaches the subject model when no earlier stage has
// resolved one. A missing model fails with a not-found error.
func resolveModel[M modeled[M]](m M, next Handler[M], finder ModelFinder, resourceType, id string) (Result, error) {
	if _, ok := m.Model(); ok {
		return next(m)
	}

	model, ok := finder.Find(resourceType, id)
	if !ok {
		return FailWith(document.NotFound(resourceType, id)), nil
	}
	return next(m.WithModel(model))
}

// ResolveModelForQueryOne resolves the model addressed by a
// single-resource read.
func ResolveModelForQueryOne(finder ModelFinder) Middleware[Query[input.One]] {
	return func(q Query[input.One], next Handler[Query[input.One]]) (Result, error) {
		return resolveModel(q, next, finder, q.Input().Type(), q.Input().ID())
	}
}

// ResolveModelForQueryRelationship resolves the model addressed by a
// relationship read.
func ResolveModelForQueryRelationship(finder ModelFinder) Middleware[Query[input.Relationship]] {
	return func(q Query[input.Relationship], next Handler[Query[input.Relationship]]) (Result, error) {
		return resolveModel(q, next, finder, q.Input().Type(), q.Input().ID())
	}
}

// ResolveModelForUpdate resolves the model targeted by an update.
func ResolveModelForUpdate(finder ModelFinder) Middleware[Command[input.Update]] {
	return func(c Command[input.Update], next Handler[Command[input.Update]]) (Result, error) {
		return resolveModel(c, next, finder, c.Input().Type(), c.Input().ID())
	}
}

// ResolveModelForDelete resolves the model targeted by a delete.
func ResolveModelForDelete(finder ModelFinder) Middleware[Command[input.Delete]] {
	return func(c Command[input.Delete], next Handler[Command[input.Delete]]) (Result, error) {
		return resolveModel(c, next, finder, c.Input().Type(), c.Input().ID())
	}
}

// ResolveModelForRelationship resolves the model targeted by a
// relationship write.
func ResolveModelForRelationship(finder ModelFinder) Middleware[Command[input.UpdateRelationship]] {
	return func(c Command[input.UpdateRelationship], next Handler[Command[input.UpdateRelationship]]) (Result, error) {
		return resolveModel(c, next, finder, c.Input().Type(), c.Input().ID())
	}
}
