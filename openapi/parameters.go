package openapi

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ParameterEntry is a single named parameter captured by an ApiCall: the
// value it was given, how it serializes to the wire, and the schema the
// TypeOracle produced for it.
//
// See: https://spec.openapis.org/oas/v3.1.0#parameter-object
type ParameterEntry struct {
	Name     string
	Location ParameterLocation
	Style    ParameterStyle
	Explode  bool
	Required bool
	Value    any // string, []string, or map[string]string
	Schema   *Schema
}

// parameterBag is the shared implementation behind the four parameter
// containers: insertion-order-preserving, name keyed, last-write-wins.
type parameterBag struct {
	loc     ParameterLocation
	order   []string
	entries map[string]*ParameterEntry
}

func newParameterBag(loc ParameterLocation) *parameterBag {
	return &parameterBag{loc: loc, entries: map[string]*ParameterEntry{}}
}

// Set inserts or replaces the entry for name. Re-inserting the same name
// replaces the prior entry rather than appending (§4.3).
func (b *parameterBag) Set(name string, value any, style ParameterStyle, explode bool, required bool, schema *Schema) error {
	if !styleAllowed(style, b.loc) {
		return &ParameterError{Name: name, Reason: "style not allowed for this location"}
	}
	if b.loc == InHeader {
		if err := validateHeaderName(name); err != nil {
			return err
		}
		if s, ok := value.(string); ok {
			if err := validateHeaderValue(s); err != nil {
				return err
			}
		}
	}
	if _, exists := b.entries[name]; !exists {
		b.order = append(b.order, name)
	}
	b.entries[name] = &ParameterEntry{
		Name: name, Location: b.loc, Style: style, Explode: explode,
		Required: required, Value: value, Schema: schema,
	}
	return nil
}

// Entries returns the bag's entries. Query parameters preserve insertion
// order; Header parameters are returned sorted by their canonical-case
// name (each entry keeps the name it was set with), per §4.3.
func (b *parameterBag) Entries() []*ParameterEntry {
	names := make([]string, len(b.order))
	copy(names, b.order)
	if b.loc == InHeader {
		sort.Slice(names, func(i, j int) bool {
			return http.CanonicalHeaderKey(names[i]) < http.CanonicalHeaderKey(names[j])
		})
	}
	out := make([]*ParameterEntry, len(names))
	for i, n := range names {
		out[i] = b.entries[n]
	}
	return out
}

func (b *parameterBag) Len() int { return len(b.order) }

// validateHeaderName enforces RFC 7230 token characters for header names.
func validateHeaderName(name string) error {
	if name == "" {
		return &ParameterError{Name: name, Reason: "header name must not be empty"}
	}
	for _, r := range name {
		if !isTokenChar(r) {
			return &ParameterError{Name: name, Reason: "header name contains illegal character"}
		}
	}
	return nil
}

func isTokenChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("!#$%&'*+-.^_`|~", r):
		return true
	default:
		return false
	}
}

// validateHeaderValue enforces RFC 7230 field-value characters: visible
// ASCII plus HTAB/SP, never CR or LF.
func validateHeaderValue(value string) error {
	for _, r := range value {
		if r == '\r' || r == '\n' {
			return &ParameterError{Reason: "header value must not contain CR or LF"}
		}
		if r == '\t' || r == ' ' {
			continue
		}
		if r < 0x21 || r > 0x7e {
			return &ParameterError{Reason: "header value contains illegal character"}
		}
	}
	return nil
}

// PathParameters accumulates path-template substitutions.
type PathParameters struct{ bag *parameterBag }

func newPathParameters() *PathParameters { return &PathParameters{bag: newParameterBag(InPath)} }

func (p *PathParameters) Set(name string, value any, style ParameterStyle, explode bool, schema *Schema) error {
	return p.bag.Set(name, value, style, explode, true, schema)
}
func (p *PathParameters) Entries() []*ParameterEntry { return p.bag.Entries() }

// QueryParameters accumulates query-string parameters, preserving
// insertion order.
type QueryParameters struct{ bag *parameterBag }

func newQueryParameters() *QueryParameters { return &QueryParameters{bag: newParameterBag(InQuery)} }

func (q *QueryParameters) Set(name string, value any, style ParameterStyle, explode bool, required bool, schema *Schema) error {
	return q.bag.Set(name, value, style, explode, required, schema)
}
func (q *QueryParameters) Entries() []*ParameterEntry { return q.bag.Entries() }

// Encode renders the query string (without a leading "?") by joining
// each entry's wire serialization with "&".
func (q *QueryParameters) Encode() (string, error) {
	var parts []string
	for _, e := range q.bag.Entries() {
		wire, err := serializeValue(e.Name, e.Value, e.Style, e.Explode, InQuery)
		if err != nil {
			return "", err
		}
		if wire != "" {
			parts = append(parts, wire)
		}
	}
	return strings.Join(parts, "&"), nil
}

// HeaderParameters accumulates request headers, emitted sorted by
// canonical-case name.
type HeaderParameters struct{ bag *parameterBag }

func newHeaderParameters() *HeaderParameters { return &HeaderParameters{bag: newParameterBag(InHeader)} }

func (h *HeaderParameters) Set(name string, value any, style ParameterStyle, explode bool, required bool, schema *Schema) error {
	return h.bag.Set(name, value, style, explode, required, schema)
}
func (h *HeaderParameters) Entries() []*ParameterEntry { return h.bag.Entries() }

// CookieParameters accumulates cookie values, emitted as a single
// semicolon-joined Cookie header.
//
// See: https://www.rfc-editor.org/rfc/rfc6265
type CookieParameters struct{ bag *parameterBag }

func newCookieParameters() *CookieParameters { return &CookieParameters{bag: newParameterBag(InCookie)} }

func (c *CookieParameters) Set(name string, value any, required bool, schema *Schema) error {
	return c.bag.Set(name, value, StyleForm, false, required, schema)
}
func (c *CookieParameters) Entries() []*ParameterEntry { return c.bag.Entries() }

// Encode renders the "Cookie:" header value.
func (c *CookieParameters) Encode() string {
	var parts []string
	for _, e := range c.bag.Entries() {
		v, _ := e.Value.(string)
		parts = append(parts, e.Name+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "; ")
}
