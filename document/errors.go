package document

import (
	"fmt"
	"sort"
	"strings"
)

// Error is one JSON:API error object.
type Error struct {
	Status string                 `json:"status,omitempty"`
	Code   string                 `json:"code,omitempty"`
	Title  string                 `json:"title,omitempty"`
	Detail string                 `json:"detail,omitempty"`
	Source *ErrorSource           `json:"source,omitempty"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

// ErrorSource locates the origin of an error within the request: a JSON
// pointer into the document, or the name of a query parameter.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// ErrorList is an ordered collection of JSON:API error objects. It
// implements the error interface so failures can travel either as a
// document payload or as a Go error.
type ErrorList []Error

// Error implements the error interface.
func (l ErrorList) Error() string {
	if len(l) == 0 {
		return "json:api request failed"
	}

	messages := make([]string, 0, len(l))
	for _, e := range l {
		msg := e.Detail
		if msg == "" {
			msg = e.Title
		}
		if e.Source != nil && e.Source.Pointer != "" {
			msg = fmt.Sprintf("%s: %s", e.Source.Pointer, msg)
		} else if e.Source != nil && e.Source.Parameter != "" {
			msg = fmt.Sprintf("%s: %s", e.Source.Parameter, msg)
		}
		messages = append(messages, msg)
	}

	if len(messages) == 1 {
		return fmt.Sprintf("json:api request failed: %s", messages[0])
	}
	return fmt.Sprintf("json:api request failed:\n  - %s", strings.Join(messages, "\n  - "))
}

// HasErrors reports whether the list is non-empty.
func (l ErrorList) HasErrors() bool { return len(l) > 0 }

// InvalidQueryParameter builds the standard error object for a rejected
// query parameter.
func InvalidQueryParameter(parameter, detail string) Error {
	return Error{
		Status: "400",
		Title:  "Invalid Query Parameter",
		Detail: detail,
		Source: &ErrorSource{Parameter: parameter},
	}
}

// NotFound builds the standard error object for a missing resource.
func NotFound(resourceType, id string) Error {
	return Error{
		Status: "404",
		Title:  "Not Found",
		Detail: fmt.Sprintf("no %s resource exists with id %q", resourceType, id),
	}
}

// Forbidden builds the standard error object for a denied request.
func Forbidden(detail string) Error {
	if detail == "" {
		detail = "this action is unauthorized"
	}
	return Error{
		Status: "403",
		Title:  "Forbidden",
		Detail: detail,
	}
}

// ErrorsFromValidation converts field-keyed validation messages into
// pointer-addressed error objects, deriving each pointer from the
// resource's field classification. Fields are emitted in sorted order
// so the resulting list is deterministic.
func ErrorsFromValidation(res Resource, fields map[string][]string) ErrorList {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var list ErrorList
	for _, key := range keys {
		for _, message := range fields[key] {
			list = append(list, Error{
				Status: "422",
				Title:  "Unprocessable Entity",
				Detail: message,
				Source: &ErrorSource{Pointer: res.Pointer(key, "/data")},
			})
		}
	}
	return list
}
