package openapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
)

// ApiCall is a fluent accumulator for one HTTP exchange: method,
// template, the four parameter containers, body, an optional auth
// override, expected status codes, and documentation metadata (tags,
// description, operationId). Composition order is immaterial; only the
// final state at Execute time matters (§4.7).
type ApiCall struct {
	client *ApiClient

	method   string
	template *Template

	path   *PathParameters
	query  *QueryParameters
	header *HeaderParameters
	cookie *CookieParameters

	body *BodyEncoding
	auth AuthProvider

	expected *ExpectedStatusCodes

	tags              []string
	description       string
	operationID       string
	withoutCollection bool

	err error // sticky: first builder error short-circuits Execute
}

func newApiCall(client *ApiClient, method, path string) *ApiCall {
	c := &ApiCall{
		client:   client,
		method:   method,
		path:     newPathParameters(),
		query:    newQueryParameters(),
		header:   newHeaderParameters(),
		cookie:   newCookieParameters(),
		expected: DefaultExpectedStatusCodes(),
	}
	tpl, err := NewTemplate(path)
	if err != nil {
		c.err = err
		return c
	}
	c.template = tpl
	return c
}

// WithPath sets a path-template parameter. style defaults to Simple;
// explode defaults to false, matching OpenAPI 3.1 path defaults.
func (c *ApiCall) WithPath(name string, value any, opts ...ParameterOption) *ApiCall {
	o := resolveOptions(InPath, opts)
	_, schema, _ := c.describeValue(value)
	if err := c.path.Set(name, value, o.style, o.explode, schema); err != nil {
		c.setErr(err)
	}
	return c
}

// WithQuery sets a query parameter. style defaults to Form, explode
// defaults to true (OpenAPI 3.1 Form default).
func (c *ApiCall) WithQuery(name string, value any, opts ...ParameterOption) *ApiCall {
	o := resolveOptions(InQuery, opts)
	_, schema, _ := c.describeValue(value)
	if err := c.query.Set(name, value, o.style, o.explode, o.required, schema); err != nil {
		c.setErr(err)
	}
	return c
}

// WithHeader sets a request header. style defaults to Simple.
func (c *ApiCall) WithHeader(name string, value any, opts ...ParameterOption) *ApiCall {
	o := resolveOptions(InHeader, opts)
	_, schema, _ := c.describeValue(value)
	if err := c.header.Set(name, value, o.style, o.explode, o.required, schema); err != nil {
		c.setErr(err)
	}
	return c
}

// WithCookie sets a cookie value.
func (c *ApiCall) WithCookie(name string, value any, opts ...ParameterOption) *ApiCall {
	o := resolveOptions(InCookie, opts)
	_, schema, _ := c.describeValue(value)
	if err := c.cookie.Set(name, value, o.required, schema); err != nil {
		c.setErr(err)
	}
	return c
}

func (c *ApiCall) describeValue(value any) (string, *Schema, []string) {
	if c.client.oracle == nil {
		return "", nil, nil
	}
	return c.client.oracle.Describe(value)
}

// JSON sets the request body to v, encoded as application/json.
func (c *ApiCall) JSON(v any) *ApiCall {
	b, err := JSONBody(c.client.oracle, v)
	c.setBody(b, err)
	return c
}

// Form sets the request body to v, encoded as
// application/x-www-form-urlencoded.
func (c *ApiCall) Form(v any) *ApiCall {
	b, err := FormBody(c.client.oracle, v)
	c.setBody(b, err)
	return c
}

// XML sets the request body to v, encoded as application/xml.
func (c *ApiCall) XML(v any) *ApiCall {
	b, err := XMLBody(c.client.oracle, v)
	c.setBody(b, err)
	return c
}

// NDJSON sets the request body to items, newline-delimited JSON encoded.
func (c *ApiCall) NDJSON(items []any) *ApiCall {
	b, err := NDJSONBody(c.client.oracle, items)
	c.setBody(b, err)
	return c
}

// Multipart sets the request body to an RFC 7578 multipart/form-data
// encoding of parts.
func (c *ApiCall) Multipart(parts []MultipartPart) *ApiCall {
	b, err := MultipartBody(parts)
	c.setBody(b, err)
	return c
}

// Bytes sets the request body to raw bytes under the given MIME type.
func (c *ApiCall) Bytes(data []byte, mime string) *ApiCall {
	c.body = BytesBody(data, mime)
	return c
}

// Text sets the request body to a plain-text string.
func (c *ApiCall) Text(s string) *ApiCall {
	c.body = TextBody(s)
	return c
}

func (c *ApiCall) setBody(b *BodyEncoding, err error) {
	if err != nil {
		c.setErr(err)
		return
	}
	c.body = b
}

// WithExpectedStatusCodes overrides the default 200..=499 predicate.
func (c *ApiCall) WithExpectedStatusCodes(expected *ExpectedStatusCodes) *ApiCall {
	c.expected = expected
	return c
}

// WithTag adds a tag recorded on the accumulated operation.
func (c *ApiCall) WithTag(tag string) *ApiCall {
	c.tags = append(c.tags, tag)
	return c
}

// WithDescription sets the operation description.
func (c *ApiCall) WithDescription(description string) *ApiCall {
	c.description = description
	return c
}

// WithOperationID sets the preferred operationId; collisions with an
// existing operation are disambiguated by OperationRegistry (§4.9).
func (c *ApiCall) WithOperationID(id string) *ApiCall {
	c.operationID = id
	return c
}

// WithAuth overrides the client's default AuthProvider for this call
// only.
func (c *ApiCall) WithAuth(auth AuthProvider) *ApiCall {
	c.auth = auth
	return c
}

// WithoutCollection marks this call as a scratch call: it still executes
// against the transport and its CallResult can still be collected for
// assertions, but it contributes zero observations to the final document
// (§3 invariant, §8 Universal Invariant 6).
func (c *ApiCall) WithoutCollection() *ApiCall {
	c.withoutCollection = true
	return c
}

func (c *ApiCall) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Execute resolves the template, serializes parameters and body, issues
// the request against the transport, and validates the observed status
// against ExpectedStatusCodes. On success, it returns a CallResult ready
// for exactly one ResultCollector call; no Observation has been emitted
// yet (§4.7).
func (c *ApiCall) Execute(ctx context.Context) (*CallResult, error) {
	if c.err != nil {
		return nil, c.err
	}

	rawFlags := map[string]bool{}
	pathValues := map[string]string{}
	for _, e := range c.path.Entries() {
		wire, err := serializeValue(e.Name, e.Value, e.Style, e.Explode, InPath)
		if err != nil {
			return nil, err
		}
		pathValues[e.Name] = wire
		if e.Style == StyleMatrix && e.Explode {
			rawFlags[e.Name] = true
		}
	}

	pathStr, err := c.template.Expand(pathValues, rawFlags)
	if err != nil {
		return nil, err
	}

	query, err := c.query.Encode()
	if err != nil {
		return nil, err
	}

	fullURL := strings.TrimRight(c.client.baseURL, "/") + pathStr
	if query != "" {
		fullURL += "?" + query
	}

	var bodyReader io.Reader
	if c.body != nil {
		bodyReader = bytes.NewReader(c.body.Bytes)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, fullURL, bodyReader)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	for _, e := range c.header.Entries() {
		wire, err := serializeValue(e.Name, e.Value, e.Style, e.Explode, InHeader)
		if err != nil {
			return nil, err
		}
		req.Header.Set(e.Name, wire)
	}
	if c.cookie.bag.Len() > 0 {
		req.Header.Set("Cookie", c.cookie.Encode())
	}
	if c.body != nil {
		req.Header.Set("Content-Type", c.body.ContentType)
	}

	auth := c.auth
	if auth == nil {
		auth = c.client.defaultAuth
	}
	if auth != nil {
		if err := auth.Apply(req); err != nil {
			return nil, err
		}
	}

	resp, err := c.client.transport.RoundTrip(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if !c.expected.Matches(resp.StatusCode) {
		preview := string(data)
		if len(preview) > 256 {
			preview = preview[:256]
		}
		return nil, &UnexpectedStatusCodeError{Expected: c.expected, Actual: resp.StatusCode, BodyPreview: preview}
	}

	return &CallResult{
		Status:      resp.StatusCode,
		Headers:     map[string][]string(resp.Header),
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		call:        c,
	}, nil
}

// ParameterOption configures style/explode/required for a single
// WithPath/WithQuery/WithHeader/WithCookie call.
type ParameterOption func(*paramOptions)

type paramOptions struct {
	style    ParameterStyle
	explode  bool
	required bool
}

// WithStyle overrides the default serialization style.
func WithStyle(style ParameterStyle) ParameterOption {
	return func(o *paramOptions) { o.style = style }
}

// WithExplode overrides the default explode flag.
func WithExplode(explode bool) ParameterOption {
	return func(o *paramOptions) { o.explode = explode }
}

// Required marks a query/header/cookie parameter as required (path
// parameters are always required).
func Required() ParameterOption {
	return func(o *paramOptions) { o.required = true }
}

func resolveOptions(loc ParameterLocation, opts []ParameterOption) paramOptions {
	o := paramOptions{style: DefaultStyle(loc), explode: DefaultStyle(loc) == StyleForm}
	if loc == InPath {
		o.required = true
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
