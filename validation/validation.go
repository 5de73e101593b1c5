// Package validation provides a ready-made implementation of the bus
// validator contracts backed by go-playground/validator: per-type rule
// sets evaluated against the flattened request parameters, plus the
// error factories converting failed runs into JSON:API error objects.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conduit-lang/jsonapi/bus"
	"github.com/conduit-lang/jsonapi/document"
	"github.com/conduit-lang/jsonapi/input"
)

// Rules maps field names to go-playground validation tags, e.g.
// {"title": "required,min=3"}. Fields without a rule are stripped from
// the validated data, so the rule set doubles as the sanitization
// whitelist.
type Rules map[string]string

// Config holds one resource type's rule sets, one per operation.
type Config struct {
	QueryOne           Rules
	QueryMany          Rules
	QueryRelationship  Rules
	Create             Rules
	Update             Rules
	Delete             Rules
	UpdateRelationship Rules
}

// Container resolves per-type validators. It implements
// bus.ValidatorResolver.
type Container struct {
	validate *validator.Validate
	configs  map[string]Config
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		validate: validator.New(),
		configs:  make(map[string]Config),
	}
}

// Define registers the rule sets for a resource type, replacing any
// previous definition.
func (c *Container) Define(resourceType string, cfg Config) {
	c.configs[resourceType] = cfg
}

// ValidatorsFor implements bus.ValidatorResolver.
func (c *Container) ValidatorsFor(resourceType string) (bus.Validators, bool) {
	cfg, ok := c.configs[resourceType]
	if !ok {
		return nil, false
	}
	return typeValidators{validate: c.validate, cfg: cfg}, true
}

// typeValidators yields one resource type's request-scoped validators.
type typeValidators struct {
	validate *validator.Validate
	cfg      Config
}

func (t typeValidators) QueryOne(in input.One) bus.Validator {
	return run(t.validate, in.Parameters(), t.cfg.QueryOne)
}

func (t typeValidators) QueryMany(in input.Many) bus.Validator {
	return run(t.validate, in.Parameters(), t.cfg.QueryMany)
}

func (t typeValidators) QueryRelationship(in input.Relationship) bus.Validator {
	return run(t.validate, in.Parameters(), t.cfg.QueryRelationship)
}

func (t typeValidators) Create(in input.Create) bus.Validator {
	return run(t.validate, in.Parameters(), t.cfg.Create)
}

func (t typeValidators) Update(in input.Update) bus.Validator {
	return run(t.validate, in.Parameters(), t.cfg.Update)
}

func (t typeValidators) Delete(in input.Delete) bus.Validator {
	return run(t.validate, in.Parameters(), t.cfg.Delete)
}

func (t typeValidators) UpdateRelationship(in input.UpdateRelationship) bus.Validator {
	return run(t.validate, in.Parameters(), t.cfg.UpdateRelationship)
}

// mapValidator is one executed validation run. It implements
// bus.Validator.
type mapValidator struct {
	errors    map[string][]string
	validated map[string]interface{}
}

// run evaluates the rule set against the flattened parameters. The
// validated data keeps exactly the fields a rule exists for.
func run(validate *validator.Validate, data map[string]interface{}, rules Rules) mapValidator {
	out := mapValidator{
		errors:    make(map[string][]string),
		validated: make(map[string]interface{}, len(rules)),
	}
	if len(rules) == 0 {
		return out
	}

	ruleMap := make(map[string]interface{}, len(rules))
	for field, tag := range rules {
		ruleMap[field] = tag
	}

	for field, err := range validate.ValidateMap(data, ruleMap) {
		failure, ok := err.(error)
		if !ok {
			continue
		}
		out.errors[field] = append(out.errors[field], messagesFor(field, failure)...)
	}

	if len(out.errors) == 0 {
		for field := range rules {
			if value, ok := data[field]; ok {
				out.validated[field] = value
			}
		}
	}
	return out
}

// messagesFor renders a field's failures as plain messages.
func messagesFor(field string, err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s failed the %s=%s rule", field, fe.Tag(), fe.Param()))
		} else {
			out = append(out, fmt.Sprintf("%s failed the %s rule", field, fe.Tag()))
		}
	}
	return out
}

// Fails implements bus.Validator.
func (v mapValidator) Fails() bool { return len(v.errors) > 0 }

// Validated implements bus.Validator.
func (v mapValidator) Validated() map[string]interface{} { return v.validated }

// Errors implements bus.Validator.
func (v mapValidator) Errors() map[string][]string { return v.errors }

// PointerErrors converts validator failures into pointer-addressed
// error objects, deriving each JSON pointer from the resource being
// written. It implements bus.ErrorFactory for command pipelines.
type PointerErrors struct {
	Resource document.Resource
}

// Make implements bus.ErrorFactory.
func (f PointerErrors) Make(v bus.Validator) document.ErrorList {
	return document.ErrorsFromValidation(f.Resource, v.Errors())
}

// ParameterErrors converts validator failures into parameter-addressed
// error objects. It implements bus.ErrorFactory for query pipelines,
// where the failing key names a query parameter rather than a document
// member.
type ParameterErrors struct{}

// Make implements bus.ErrorFactory.
func (ParameterErrors) Make(v bus.Validator) document.ErrorList {
	fields := v.Errors()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var list document.ErrorList
	for _, key := range keys {
		parameter := strings.Split(key, ".")[0]
		for _, message := range fields[key] {
			list = append(list, document.InvalidQueryParameter(parameter, message))
		}
	}
	return list
}
