// Package request parses inbound HTTP requests into the library's
// input shapes: JSON:API query parameters into input.Params, and
// request bodies into document resources.
package request

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/conduit-lang/jsonapi/fieldsets"
	"github.com/conduit-lang/jsonapi/input"
)

// fieldsPattern matches query parameters like fields[typename]
var fieldsPattern = regexp.MustCompile(`^fields\[([^\]]+)\]$`)

// filterPattern matches query parameters like filter[key]
var filterPattern = regexp.MustCompile(`^filter\[([^\]]+)\]$`)

// pagePattern matches query parameters like page[key]
var pagePattern = regexp.MustCompile(`^page\[([^\]]+)\]$`)

// ParseInclude parses the include query parameter into a slice of relationship names.
// Example: ?include=author,comments returns ["author", "comments"]
// Returns an empty slice if the include parameter is not present.
func ParseInclude(r *http.Request) []string {
	return splitList(r.URL.Query().Get("include"))
}

// ParseSort parses the sort query parameter into a slice of sort fields.
// Example: ?sort=-created_at,title returns ["-created_at", "title"]
// The "-" prefix indicates descending sort order.
func ParseSort(r *http.Request) []string {
	return splitList(r.URL.Query().Get("sort"))
}

// ParseFields parses the fields query parameters into sparse fieldsets.
// Example: ?fields[users]=name,email&fields[posts]=title
// Types are pushed in sorted order so the result is deterministic.
func ParseFields(r *http.Request) fieldsets.FieldSets {
	byType := make(map[string][]string)
	for key, values := range r.URL.Query() {
		matches := fieldsPattern.FindStringSubmatch(key)
		if len(matches) != 2 {
			continue
		}

		typeName := matches[1]
		if len(values) == 0 || values[0] == "" {
			byType[typeName] = []string{}
			continue
		}
		byType[typeName] = splitList(values[0])
	}

	fs, _ := fieldsets.Cast(byType)
	return fs
}

// ParseFilter parses the filter query parameters into a map of filter keys to values.
// Example: ?filter[status]=published&filter[author_id]=123
// Returns: {"status": "published", "author_id": "123"}
func ParseFilter(r *http.Request) map[string]string {
	return bracketParams(r, filterPattern)
}

// ParsePage parses the page query parameters into a map of page keys to values.
// Example: ?page[limit]=10&page[offset]=20
// Returns: {"limit": "10", "offset": "20"}
func ParsePage(r *http.Request) map[string]string {
	return bracketParams(r, pagePattern)
}

// ParseParams assembles the full JSON:API parameter set of a request.
func ParseParams(r *http.Request) input.Params {
	return input.Params{
		Filter:  ParseFilter(r),
		Sort:    ParseSort(r),
		Page:    ParsePage(r),
		Include: ParseInclude(r),
		Fields:  ParseFields(r),
	}
}

// ParseQueryOne builds the input for a single-resource read.
func ParseQueryOne(r *http.Request, resourceType, id string) (input.One, error) {
	return input.NewOne(resourceType, id, ParseParams(r))
}

// ParseQueryMany builds the input for a collection read.
func ParseQueryMany(r *http.Request, resourceType string) (input.Many, error) {
	return input.NewMany(resourceType, ParseParams(r))
}

// ParseQueryRelationship builds the input for a relationship read.
func ParseQueryRelationship(r *http.Request, resourceType, id, field string) (input.Relationship, error) {
	return input.NewRelationship(resourceType, id, field, ParseParams(r))
}

// bracketParams collects bracketed query parameters matching the given
// pattern, e.g. filter[status] or page[limit].
func bracketParams(r *http.Request, pattern *regexp.Regexp) map[string]string {
	result := make(map[string]string)
	for key, values := range r.URL.Query() {
		matches := pattern.FindStringSubmatch(key)
		if len(matches) != 2 {
			continue
		}
		if len(values) > 0 {
			result[matches[1]] = values[0]
		}
	}
	return result
}

// splitList splits a comma-separated parameter, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
