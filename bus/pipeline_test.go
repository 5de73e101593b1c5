package bus

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/jsonapi/document"
	"github.com/conduit-lang/jsonapi/input"
)

// test fixtures

func ref(t *testing.T, resourceType, id string) document.Identifier {
	t.Helper()
	r, err := document.NewIdentifier(resourceType, id)
	require.NoError(t, err)
	return r
}

func resource(t *testing.T, resourceType string, attrs map[string]interface{}) document.Resource {
	t.Helper()
	res, err := document.New(resourceType)
	require.NoError(t, err)
	return res.WithAttributes(attrs)
}

// recordingHooks counts extension-point invocations.
type recordingHooks struct {
	reading, didRead, writing, didWrite int
}

func (h *recordingHooks) Reading(*http.Request, interface{})  { h.reading++ }
func (h *recordingHooks) DidRead(*http.Request, interface{})  { h.didRead++ }
func (h *recordingHooks) Writing(*http.Request, interface{})  { h.writing++ }
func (h *recordingHooks) DidWrite(*http.Request, interface{}) { h.didWrite++ }

// stubAuthorizer answers every capability check with fixed values.
type stubAuthorizer struct {
	denied document.ErrorList
	err    error
}

func (a stubAuthorizer) answer() (document.ErrorList, error) { return a.denied, a.err }

func (a stubAuthorizer) Index(*http.Request) (document.ErrorList, error) { return a.answer() }
func (a stubAuthorizer) Show(*http.Request, interface{}) (document.ErrorList, error) {
	return a.answer()
}
func (a stubAuthorizer) ShowRelationship(*http.Request, interface{}, string) (document.ErrorList, error) {
	return a.answer()
}
func (a stubAuthorizer) Store(*http.Request) (document.ErrorList, error) { return a.answer() }
func (a stubAuthorizer) Update(*http.Request, interface{}) (document.ErrorList, error) {
	return a.answer()
}
func (a stubAuthorizer) Destroy(*http.Request, interface{}) (document.ErrorList, error) {
	return a.answer()
}
func (a stubAuthorizer) UpdateRelationship(*http.Request, interface{}, string) (document.ErrorList, error) {
	return a.answer()
}
func (a stubAuthorizer) AttachRelationship(*http.Request, interface{}, string) (document.ErrorList, error) {
	return a.answer()
}
func (a stubAuthorizer) DetachRelationship(*http.Request, interface{}, string) (document.ErrorList, error) {
	return a.answer()
}

// stubAuthorizerFactory hands out one authorizer and counts calls.
type stubAuthorizerFactory struct {
	authorizer Authorizer
	calls      int
}

func (f *stubAuthorizerFactory) Make(string) (Authorizer, error) {
	f.calls++
	return f.authorizer, nil
}

// stubValidator is one pre-decided validation run.
type stubValidator struct {
	fails     bool
	validated map[string]interface{}
	errors    map[string][]string
}

func (v stubValidator) Fails() bool                       { return v.fails }
func (v stubValidator) Validated() map[string]interface{} { return v.validated }
func (v stubValidator) Errors() map[string][]string       { return v.errors }

// stubValidators yields the same run for every operation and counts
// container calls.
type stubValidators struct {
	run   stubValidator
	calls *int
}

func (s stubValidators) make() Validator { *s.calls++; return s.run }

func (s stubValidators) QueryOne(input.One) Validator                      { return s.make() }
func (s stubValidators) QueryMany(input.Many) Validator                    { return s.make() }
func (s stubValidators) QueryRelationship(input.Relationship) Validator    { return s.make() }
func (s stubValidators) Create(input.Create) Validator                     { return s.make() }
func (s stubValidators) Update(input.Update) Validator                     { return s.make() }
func (s stubValidators) Delete(input.Delete) Validator                     { return s.make() }
func (s stubValidators) UpdateRelationship(input.UpdateRelationship) Validator {
	return s.make()
}

type stubResolver struct {
	validators Validators
	calls      int
}

func (r *stubResolver) ValidatorsFor(string) (Validators, bool) {
	r.calls++
	if r.validators == nil {
		return nil, false
	}
	return r.validators, true
}

// listErrors converts validator messages without pointer derivation.
type listErrors struct{}

func (listErrors) Make(v Validator) document.ErrorList {
	var list document.ErrorList
	for field, messages := range v.Errors() {
		for _, m := range messages {
			list = append(list, document.Error{
				Status: "422",
				Detail: m,
				Source: &document.ErrorSource{Pointer: "/data/attributes/" + field},
			})
		}
	}
	return list
}

func newResolver(run stubValidator) (*stubResolver, *int) {
	calls := new(int)
	return &stubResolver{validators: stubValidators{run: run, calls: calls}}, calls
}

// chain mechanics

func TestChain_OrderAndShortCircuit(t *testing.T) {
	var order []string

	step := func(name string) Middleware[Query[input.One]] {
		return func(q Query[input.One], next Handler[Query[input.One]]) (Result, error) {
			order = append(order, name)
			return next(q)
		}
	}

	denial := Fail(document.ErrorList{{Title: "Forbidden", Status: "403"}})
	authFail := func(q Query[input.One], next Handler[Query[input.One]]) (Result, error) {
		order = append(order, "authFail")
		return denial, nil
	}

	handlerCalled := false
	handler := func(q Query[input.One]) (Result, error) {
		handlerCalled = true
		return Ok("never"), nil
	}

	chain := NewChain(step("first"), authFail, step("validate"))
	result, err := chain.Dispatch(queryOne(t), handler)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "authFail"}, order, "stages after the short-circuit never run")
	assert.False(t, handlerCalled)
	assert.Equal(t, denial, result, "the failing result is returned identically, not re-wrapped")
}

func TestChain_ErrorPropagatesUntouched(t *testing.T) {
	boom := errors.New("framework authorization exception")

	chain := NewChain(func(q Query[input.One], next Handler[Query[input.One]]) (Result, error) {
		return Result{}, boom
	})

	_, err := chain.Dispatch(queryOne(t), func(Query[input.One]) (Result, error) {
		t.Fatal("handler must not run")
		return Result{}, nil
	})
	assert.Same(t, boom, err, "the error must propagate untouched, not wrapped")
}

func TestChain_Append(t *testing.T) {
	var order []string
	step := func(name string) Middleware[Query[input.One]] {
		return func(q Query[input.One], next Handler[Query[input.One]]) (Result, error) {
			order = append(order, name)
			return next(q)
		}
	}

	base := NewChain(step("a"))
	extended := base.Append(step("b"))

	_, err := base.Dispatch(queryOne(t), func(Query[input.One]) (Result, error) { return Ok(nil), nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, order, "append must not mutate the base chain")

	order = nil
	_, err = extended.Dispatch(queryOne(t), func(Query[input.One]) (Result, error) { return Ok(nil), nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

// authorization middleware

func TestAuthorize_Denial(t *testing.T) {
	denied := document.ErrorList{document.Forbidden("no access")}
	factory := &stubAuthorizerFactory{authorizer: stubAuthorizer{denied: denied}}

	chain := NewChain(AuthorizeIndex(factory))
	in, err := input.NewMany("posts", input.Params{})
	require.NoError(t, err)

	result, err := chain.Dispatch(FetchMany(in), func(Query[input.Many]) (Result, error) {
		t.Fatal("handler must not run on denial")
		return Result{}, nil
	})

	require.NoError(t, err)
	assert.True(t, result.DidFail())
	assert.Equal(t, denied, result.Errors())
}

func TestAuthorize_ErrorPropagates(t *testing.T) {
	boom := errors.New("authorization exception")
	factory := &stubAuthorizerFactory{authorizer: stubAuthorizer{err: boom}}

	chain := NewChain(AuthorizeShow(factory))
	_, err := chain.Dispatch(queryOne(t).WithModel("m"), func(Query[input.One]) (Result, error) {
		t.Fatal("handler must not run")
		return Result{}, nil
	})

	assert.ErrorIs(t, err, boom)
}

func TestAuthorize_SkippedEntirely(t *testing.T) {
	factory := &stubAuthorizerFactory{authorizer: stubAuthorizer{denied: document.ErrorList{document.Forbidden("")}}}

	chain := NewChain(AuthorizeShow(factory))
	result, err := chain.Dispatch(queryOne(t).SkipAuthorization(), func(Query[input.One]) (Result, error) {
		return Ok("payload"), nil
	})

	require.NoError(t, err)
	assert.False(t, result.DidFail())
	assert.Zero(t, factory.calls, "the authorizer factory must receive zero calls")
}

func TestAuthorize_UpdateUsesResolvedModel(t *testing.T) {
	factory := &stubAuthorizerFactory{authorizer: stubAuthorizer{}}

	in, err := input.NewUpdate(ref(t, "posts", "1"), resource(t, "posts", nil))
	require.NoError(t, err)

	// Without a resolved model, authorization is a pipeline-ordering bug.
	assert.Panics(t, func() {
		_, _ = NewChain(AuthorizeUpdate(factory)).
			Dispatch(Update(in), func(Command[input.Update]) (Result, error) { return Ok(nil), nil })
	})

	result, err := NewChain(AuthorizeUpdate(factory)).
		Dispatch(Update(in).WithModel("m"), func(Command[input.Update]) (Result, error) { return Ok(nil), nil })
	require.NoError(t, err)
	assert.False(t, result.DidFail())
}

// validation middleware

func TestValidate_SkipValidation(t *testing.T) {
	resolver, validatorCalls := newResolver(stubValidator{fails: true})

	chain := NewChain(ValidateQueryOne(resolver, listErrors{}))
	var seen map[string]interface{}
	result, err := chain.Dispatch(queryOne(t).SkipValidation(), func(q Query[input.One]) (Result, error) {
		seen = q.Validated()
		return Ok(nil), nil
	})

	require.NoError(t, err)
	assert.False(t, result.DidFail())
	assert.Zero(t, resolver.calls, "the validator container must receive zero calls")
	assert.Zero(t, *validatorCalls)
	assert.Equal(t, map[string]interface{}{"status": "published"}, seen["filter"],
		"skip-validation queries still yield the raw input parameters")
}

func TestValidate_AlreadyValidated(t *testing.T) {
	resolver, validatorCalls := newResolver(stubValidator{fails: true})

	data := map[string]interface{}{"baz": "bat"}
	original := queryOne(t).WithValidated(data)

	chain := NewChain(ValidateQueryOne(resolver, listErrors{}))
	var received Query[input.One]
	_, err := chain.Dispatch(original, func(q Query[input.One]) (Result, error) {
		received = q
		return Ok(nil), nil
	})

	require.NoError(t, err)
	assert.Zero(t, *validatorCalls)
	assert.Equal(t, original, received, "the exact same message reaches next, not a copy")
	assert.Equal(t, data, received.Validated())
}

func TestValidate_Failure(t *testing.T) {
	resolver, _ := newResolver(stubValidator{
		fails:  true,
		errors: map[string][]string{"title": {"title is required"}},
	})

	res := resource(t, "posts", map[string]interface{}{"title": ""})
	in, err := input.NewCreate(res)
	require.NoError(t, err)

	chain := NewChain(ValidateCreate(resolver, listErrors{}))
	result, err := chain.Dispatch(Create(in), func(Command[input.Create]) (Result, error) {
		t.Fatal("handler must not run on validation failure")
		return Result{}, nil
	})

	require.NoError(t, err)
	require.True(t, result.DidFail())
	require.Len(t, result.Errors(), 1)
	assert.Equal(t, "/data/attributes/title", result.Errors()[0].Source.Pointer)
}

func TestValidate_SuccessForwardsSanitizedData(t *testing.T) {
	resolver, _ := newResolver(stubValidator{
		validated: map[string]interface{}{"baz": "bat"},
	})

	chain := NewChain(ValidateQueryOne(resolver, listErrors{}))
	var seen map[string]interface{}
	result, err := chain.Dispatch(queryOne(t), func(q Query[input.One]) (Result, error) {
		seen = q.Validated()
		return Ok(nil), nil
	})

	require.NoError(t, err)
	assert.False(t, result.DidFail())
	assert.Equal(t, map[string]interface{}{"baz": "bat"}, seen)
}

func TestValidate_MissingContainerEntry(t *testing.T) {
	resolver := &stubResolver{}

	chain := NewChain(ValidateQueryOne(resolver, listErrors{}))
	_, err := chain.Dispatch(queryOne(t), func(Query[input.One]) (Result, error) {
		return Ok(nil), nil
	})

	assert.Error(t, err, "a missing container entry is a wiring error, not a request failure")
}

// hooks middleware

func TestReadHooks(t *testing.T) {
	hooks := &recordingHooks{}

	chain := NewChain(ReadHooks[input.One]())
	_, err := chain.Dispatch(queryOne(t).WithHooks(hooks), func(Query[input.One]) (Result, error) {
		return Ok("payload"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, hooks.reading)
	assert.Equal(t, 1, hooks.didRead)
}

func TestReadHooks_SkipsDidReadOnFailure(t *testing.T) {
	hooks := &recordingHooks{}

	chain := NewChain(ReadHooks[input.One]())
	_, err := chain.Dispatch(queryOne(t).WithHooks(hooks), func(Query[input.One]) (Result, error) {
		return FailWith(document.NotFound("posts", "1")), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, hooks.reading)
	assert.Zero(t, hooks.didRead)
}

func TestWriteHooks(t *testing.T) {
	hooks := &recordingHooks{}

	in, err := input.NewDelete(ref(t, "posts", "1"))
	require.NoError(t, err)

	chain := NewChain(WriteHooks[input.Delete]())
	_, err = chain.Dispatch(Delete(in).WithHooks(hooks).WithModel("m"),
		func(Command[input.Delete]) (Result, error) { return Ok(nil), nil })

	require.NoError(t, err)
	assert.Equal(t, 1, hooks.writing)
	assert.Equal(t, 1, hooks.didWrite)
}

// model resolution middleware

type mapFinder map[string]interface{}

func (f mapFinder) Find(resourceType, id string) (interface{}, bool) {
	model, ok := f[resourceType+"/"+id]
	return model, ok
}

func TestResolveModel(t *testing.T) {
	finder := mapFinder{"posts/1": "the-post"}

	chain := NewChain(ResolveModelForQueryOne(finder))
	result, err := chain.Dispatch(queryOne(t), func(q Query[input.One]) (Result, error) {
		return Ok(q.ModelOrFail()), nil
	})

	require.NoError(t, err)
	assert.Equal(t, "the-post", result.Payload())
}

func TestResolveModel_NotFound(t *testing.T) {
	chain := NewChain(ResolveModelForQueryOne(mapFinder{}))
	result, err := chain.Dispatch(queryOne(t), func(Query[input.One]) (Result, error) {
		t.Fatal("handler must not run")
		return Result{}, nil
	})

	require.NoError(t, err)
	require.True(t, result.DidFail())
	assert.Equal(t, "404", result.Errors()[0].Status)
}

func TestResolveModel_KeepsExistingModel(t *testing.T) {
	chain := NewChain(ResolveModelForQueryOne(mapFinder{"posts/1": "from-finder"}))
	result, err := chain.Dispatch(queryOne(t).WithModel("pre-resolved"),
		func(q Query[input.One]) (Result, error) { return Ok(q.ModelOrFail()), nil })

	require.NoError(t, err)
	assert.Equal(t, "pre-resolved", result.Payload())
}

// end to end

func TestEndToEnd_FetchOne(t *testing.T) {
	// fetch-one for posts/123 with raw params {foo: bar}; the validator
	// sanitizes them to {baz: bat} and the handler must see the
	// sanitized data, not the original.
	in, err := input.NewOne("posts", "123", input.Params{
		Filter: map[string]string{"foo": "bar"},
	})
	require.NoError(t, err)

	resolver, validatorCalls := newResolver(stubValidator{
		validated: map[string]interface{}{"baz": "bat"},
	})
	factory := &stubAuthorizerFactory{authorizer: stubAuthorizer{}}
	finder := mapFinder{"posts/123": "post-123"}

	chain := NewChain[Query[input.One]]().
		Use(ResolveModelForQueryOne(finder)).
		Use(AuthorizeShow(factory)).
		Use(ValidateQueryOne(resolver, listErrors{})).
		Use(ReadHooks[input.One]())

	hooks := &recordingHooks{}
	result, err := chain.Dispatch(FetchOne(in).WithHooks(hooks), func(q Query[input.One]) (Result, error) {
		assert.Equal(t, map[string]interface{}{"baz": "bat"}, q.Validated())
		return Ok(q.ModelOrFail()), nil
	})

	require.NoError(t, err)
	require.False(t, result.DidFail())
	assert.Equal(t, "post-123", result.Payload())
	assert.Equal(t, 1, factory.calls)
	assert.Equal(t, 1, *validatorCalls)
	assert.Equal(t, 1, hooks.reading)
	assert.Equal(t, 1, hooks.didRead)
}
