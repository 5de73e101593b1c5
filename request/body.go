package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/conduit-lang/jsonapi/document"
)

// Parser handles parsing of JSON:API request bodies.
type Parser struct {
	maxBodySize int64 // Maximum size for request bodies (in bytes)
}

// NewParser creates a new request parser with default settings.
func NewParser() *Parser {
	return &Parser{
		maxBodySize: 10 << 20, // 10MB default
	}
}

// NewParserWithMaxSize creates a parser with a custom max body size.
func NewParserWithMaxSize(maxBytes int64) *Parser {
	return &Parser{
		maxBodySize: maxBytes,
	}
}

// envelope is the top-level JSON:API document shape. It names every
// member a document may legally carry; decoding is strict, so a body
// with an unknown top-level member is rejected.
type envelope struct {
	Data     json.RawMessage        `json:"data"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
	Links    map[string]interface{} `json:"links,omitempty"`
	Included json.RawMessage        `json:"included,omitempty"`
	JSONAPI  map[string]interface{} `json:"jsonapi,omitempty"`
}

// ParseResource parses the request body's primary data into a resource
// object. A missing body, missing data member, or missing resource type
// is a malformed document and fails fast.
func (p *Parser) ParseResource(r *http.Request) (document.Resource, error) {
	env, err := p.parseEnvelope(r)
	if err != nil {
		return document.Resource{}, err
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return document.Resource{}, fmt.Errorf("request: document is missing its data member")
	}
	if env.Data[0] != '{' {
		return document.Resource{}, fmt.Errorf("request: primary data must be a single resource object")
	}

	var res document.Resource
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return document.Resource{}, fmt.Errorf("request: invalid resource object: %w", err)
	}
	return res, nil
}

// ParseRelationshipData parses the request body's primary data into
// relationship data: nil, a single identifier, or an identifier list.
func (p *Parser) ParseRelationshipData(r *http.Request) (interface{}, error) {
	env, err := p.parseEnvelope(r)
	if err != nil {
		return nil, err
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}

	switch env.Data[0] {
	case '[':
		var many []document.Identifier
		if err := json.Unmarshal(env.Data, &many); err != nil {
			return nil, fmt.Errorf("request: invalid identifier list: %w", err)
		}
		return many, nil
	case '{':
		var one document.Identifier
		if err := json.Unmarshal(env.Data, &one); err != nil {
			return nil, fmt.Errorf("request: invalid identifier: %w", err)
		}
		return &one, nil
	default:
		return nil, fmt.Errorf("request: relationship data must be null, an object, or an array")
	}
}

// parseEnvelope decodes the size-limited request body into the
// top-level document shape.
func (p *Parser) parseEnvelope(r *http.Request) (envelope, error) {
	body := http.MaxBytesReader(nil, r.Body, p.maxBodySize)
	defer body.Close()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	var env envelope
	if err := decoder.Decode(&env); err != nil {
		if err == io.EOF {
			return envelope{}, fmt.Errorf("request: body is empty")
		}
		return envelope{}, fmt.Errorf("request: invalid JSON: %w", err)
	}

	// Check if there's additional data after the JSON object
	if decoder.More() {
		return envelope{}, fmt.Errorf("request: body contains multiple JSON documents")
	}

	return env, nil
}
