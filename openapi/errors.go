package openapi

import "fmt"

// ConfigError reports a malformed client or call configuration: a bad
// base URL, invalid info metadata, or a malformed server URL.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// TemplateError reports a problem parsing or substituting a URL template.
type TemplateError struct {
	Kind string // "unbalanced", "missing_param", "extra_param"
	Name string
}

func (e *TemplateError) Error() string {
	switch e.Kind {
	case "missing_param":
		return fmt.Sprintf("template: missing value for param %q", e.Name)
	case "extra_param":
		return fmt.Sprintf("template: extra param %q not present in template", e.Name)
	default:
		return "template: unbalanced placeholder"
	}
}

// ParameterError reports an illegal parameter: a style not allowed at a
// given location, an illegal header value, or an unsupported shape.
type ParameterError struct {
	Name   string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Name, e.Reason)
}

// BodyError reports a request body encoding failure.
type BodyError struct {
	Reason string
}

func (e *BodyError) Error() string {
	return "body: " + e.Reason
}

// TransportError wraps a network-level failure from the underlying
// HTTP transport (DNS, TLS, timeout, connection reset).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusCodeError reports that the observed status code fell
// outside the call's ExpectedStatusCodes.
type UnexpectedStatusCodeError struct {
	Expected    *ExpectedStatusCodes
	Actual      int
	BodyPreview string
}

func (e *UnexpectedStatusCodeError) Error() string {
	return fmt.Sprintf("unexpected status code %d (expected %s): %s", e.Actual, e.Expected, e.BodyPreview)
}

// CollectorError reports a failure consuming a CallResult: an empty
// body where one was required, a body where none was expected, invalid
// text encoding, a double collect, or a JSON deserialize failure.
type CollectorError struct {
	Kind    string // "empty_body", "unexpected_body", "encoding", "double_collect", "deserialize"
	Path    string // JSON path, set only for "deserialize"
	Wrapped error
}

func (e *CollectorError) Error() string {
	switch e.Kind {
	case "empty_body":
		return "collector: empty response body"
	case "unexpected_body":
		return "collector: unexpected non-empty response body"
	case "encoding":
		return "collector: invalid text encoding"
	case "double_collect":
		return "collector: call result already collected"
	case "deserialize":
		if e.Path != "" {
			return fmt.Sprintf("collector: deserialize failed at %s: %v", e.Path, e.Wrapped)
		}
		return fmt.Sprintf("collector: deserialize failed: %v", e.Wrapped)
	default:
		return "collector: error"
	}
}

func (e *CollectorError) Unwrap() error {
	return e.Wrapped
}

// SchemaConflictError reports that a canonical schema name was registered
// twice with two structurally different schemas.
type SchemaConflictError struct {
	Name     string
	Existing *Schema
	Incoming *Schema
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("schema conflict for %q: existing and incoming schemas differ", e.Name)
}

// AssemblyError reports a failure while assembling the final Document:
// an unresolved $ref, a duplicate operationId after disambiguation, or a
// merge contradiction between observations.
type AssemblyError struct {
	Reason   string
	Conflict *SchemaConflictError
}

func (e *AssemblyError) Error() string {
	if e.Conflict != nil {
		return "assembly: " + e.Conflict.Error()
	}
	return "assembly: " + e.Reason
}

func (e *AssemblyError) Unwrap() error {
	return e.Conflict
}
