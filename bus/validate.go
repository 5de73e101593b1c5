package bus

import (
	"fmt"

	"github.com/conduit-lang/jsonapi/input"
)

// validatable is the view of a message the validation step needs. The
// self-referential parameter keeps WithValidated returning the concrete
// message type so the step forwards a properly typed copy.
type validatable[M any] interface {
	MustValidate() bool
	IsValidated() bool
	WithValidated(map[string]interface{}) M
}

// runValidation executes one validation run. The step is skipped
// outright when the message bypasses validation or was already
// validated — in the latter case the exact same message instance
// reaches next. On failure the validator's messages are converted
// through the injected error factory and the chain short-circuits; on
// success next receives a copy carrying the sanitized data.
func runValidation[M validatable[M]](m M, next Handler[M], makeValidator func() (Validator, error), errors ErrorFactory) (Result, error) {
	if !m.MustValidate() || m.IsValidated() {
		return next(m)
	}

	v, err := makeValidator()
	if err != nil {
		return Result{}, err
	}
	if v.Fails() {
		return Fail(errors.Make(v)), nil
	}

	return next(m.WithValidated(v.Validated()))
}

// resolveValidators looks up the container entry for a resource type.
// A missing entry is a wiring error, not a request failure.
func resolveValidators(resolver ValidatorResolver, resourceType string) (Validators, error) {
	vs, ok := resolver.ValidatorsFor(resourceType)
	if !ok {
		return nil, fmt.Errorf("bus: no validators registered for resource type %q", resourceType)
	}
	return vs, nil
}

// ValidateQueryOne validates a single-resource read.
func ValidateQueryOne(resolver ValidatorResolver, errors ErrorFactory) Middleware[Query[input.One]] {
	return func(q Query[input.One], next Handler[Query[input.One]]) (Result, error) {
		return runValidation(q, next, func() (Validator, error) {
			vs, err := resolveValidators(resolver, q.Input().Type())
			if err != nil {
				return nil, err
			}
			return vs.QueryOne(q.Input()), nil
		}, errors)
	}
}

// ValidateQueryMany validates a collection read.
func ValidateQueryMany(resolver ValidatorResolver, errors ErrorFactory) Middleware[Query[input.Many]] {
	return func(q Query[input.Many], next Handler[Query[input.Many]]) (Result, error) {
		return runValidation(q, next, func() (Validator, error) {
			vs, err := resolveValidators(resolver, q.Input().Type())
			if err != nil {
				return nil, err
			}
			return vs.QueryMany(q.Input()), nil
		}, errors)
	}
}

// ValidateQueryRelationship validates a relationship read.
func ValidateQueryRelationship(resolver ValidatorResolver, errors ErrorFactory) Middleware[Query[input.Relationship]] {
	return func(q Query[input.Relationship], next Handler[Query[input.Relationship]]) (Result, error) {
		return runValidation(q, next, func() (Validator, error) {
			vs, err := resolveValidators(resolver, q.Input().Type())
			if err != nil {
				return nil, err
			}
			return vs.QueryRelationship(q.Input()), nil
		}, errors)
	}
}

// ValidateCreate validates a resource create.
func ValidateCreate(resolver ValidatorResolver, errors ErrorFactory) Middleware[Command[input.Create]] {
	return func(c Command[input.Create], next Handler[Command[input.Create]]) (Result, error) {
		return runValidation(c, next, func() (Validator, error) {
			vs, err := resolveValidators(resolver, c.Input().Type())
			if err != nil {
				return nil, err
			}
			return vs.Create(c.Input()), nil
		}, errors)
	}
}

// ValidateUpdate validates a resource update.
func ValidateUpdate(resolver ValidatorResolver, errors ErrorFactory) Middleware[Command[input.Update]] {
	return func(c Command[input.Update], next Handler[Command[input.Update]]) (Result, error) {
		return runValidation(c, next, func() (Validator, error) {
			vs, err := resolveValidators(resolver, c.Input().Type())
			if err != nil {
				return nil, err
			}
			return vs.Update(c.Input()), nil
		}, errors)
	}
}

// ValidateDelete validates a resource delete.
func ValidateDelete(resolver ValidatorResolver, errors ErrorFactory) Middleware[Command[input.Delete]] {
	return func(c Command[input.Delete], next Handler[Command[input.Delete]]) (Result, error) {
		return runValidation(c, next, func() (Validator, error) {
			vs, err := resolveValidators(resolver, c.Input().Type())
			if err != nil {
				return nil, err
			}
			return vs.Delete(c.Input()), nil
		}, errors)
	}
}

// ValidateUpdateRelationship validates a relationship write.
func ValidateUpdateRelationship(resolver ValidatorResolver, errors ErrorFactory) Middleware[Command[input.UpdateRelationship]] {
	return func(c Command[input.UpdateRelationship], next Handler[Command[input.UpdateRelationship]]) (Result, error) {
		return runValidation(c, next, func() (Validator, error) {
			vs, err := resolveValidators(resolver, c.Input().Type())
			if err != nil {
				return nil, err
			}
			return vs.UpdateRelationship(c.Input()), nil
		}, errors)
	}
}
