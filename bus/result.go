package bus

import "github.com/conduit-lang/jsonapi/document"

// Result is the tagged outcome of a pipeline stage: either a success
// carrying a payload or a failure carrying a JSON:API error list.
// Exactly one side is populated, and a constructed Result is immutable.
type Result struct {
	payload interface{}
	errors  document.ErrorList
	failed  bool
}

// Ok creates a successful result.
func Ok(payload interface{}) Result {
	return Result{payload: payload}
}

// Fail creates a failed result. A nil or empty error list still fails;
// the list is simply empty.
func Fail(errors document.ErrorList) Result {
	return Result{errors: errors, failed: true}
}

// FailWith creates a failed result from individual error objects.
func FailWith(errors ...document.Error) Result {
	return Fail(document.ErrorList(errors))
}

// DidFail reports whether the result is a failure. It is the sole
// inspection point consumers need.
func (r Result) DidFail() bool { return r.failed }

// Payload returns the success payload. It is nil on failed results.
func (r Result) Payload() interface{} {
	if r.failed {
		return nil
	}
	return r.payload
}

// Errors returns the failure's error list. It is nil on successful
// results.
func (r Result) Errors() document.ErrorList {
	if !r.failed {
		return nil
	}
	return r.errors
}
