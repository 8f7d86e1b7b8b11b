package openapi

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
)

// BodyEncoding is a fully-encoded request body: the bytes that go on the
// wire, the content type they were encoded with, the schema the
// TypeOracle produced for the encoded value (nil for raw/text bodies),
// and an example value recorded for documentation (§4.4).
type BodyEncoding struct {
	ContentType string
	Bytes       []byte
	Schema      *Schema
	SchemaName  string
	Example     any
}

// MultipartPart is a single part of a multipart/form-data body.
//
// See: https://www.rfc-editor.org/rfc/rfc7578
type MultipartPart struct {
	Name        string
	Filename    string
	ContentType string
	Value       any // string and []byte are written as-is, other values are JSON-encoded; unless Filename is set, in which case Bytes is used raw
	Bytes       []byte
}

// JSONBody encodes v as application/json, recording its schema via
// oracle.
func JSONBody(oracle TypeOracle, v any) (*BodyEncoding, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &BodyError{Reason: err.Error()}
	}
	name, schema, _ := oracle.Describe(v)
	return &BodyEncoding{ContentType: "application/json", Bytes: data, Schema: schema, SchemaName: name, Example: v}, nil
}

// FormBody encodes v (a map[string]string or anything JSON-marshalable
// into a flat object) as application/x-www-form-urlencoded.
func FormBody(oracle TypeOracle, v any) (*BodyEncoding, error) {
	flat, err := flattenToStrings(v)
	if err != nil {
		return nil, &BodyError{Reason: err.Error()}
	}
	form := url.Values{}
	for k, val := range flat {
		form.Set(k, val)
	}
	name, schema, _ := oracle.Describe(v)
	return &BodyEncoding{
		ContentType: "application/x-www-form-urlencoded",
		Bytes:       []byte(form.Encode()),
		Schema:      schema,
		SchemaName:  name,
		Example:     v,
	}, nil
}

// XMLBody encodes v as application/xml using the standard library's
// encoding/xml (no example in the pack imports a third-party XML
// encoder; see DESIGN.md).
func XMLBody(oracle TypeOracle, v any) (*BodyEncoding, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, &BodyError{Reason: err.Error()}
	}
	name, schema, _ := oracle.Describe(v)
	return &BodyEncoding{ContentType: "application/xml", Bytes: data, Schema: schema, SchemaName: name, Example: v}, nil
}

// NDJSONBody encodes each item in items as a JSON line, separated by
// "\n", with content-type application/x-ndjson.
func NDJSONBody(oracle TypeOracle, items []any) (*BodyEncoding, error) {
	var buf bytes.Buffer
	var name string
	var schema *Schema
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, &BodyError{Reason: err.Error()}
		}
		buf.Write(data)
		buf.WriteByte('\n')
		if i == 0 {
			name, schema, _ = oracle.Describe(item)
		}
	}
	var example any
	if len(items) > 0 {
		example = items[0]
	}
	return &BodyEncoding{
		ContentType: "application/x-ndjson",
		Bytes:       buf.Bytes(),
		Schema:      schema,
		SchemaName:  name,
		Example:     example,
	}, nil
}

// MultipartBody encodes parts as RFC 7578 multipart/form-data with a
// generated boundary.
func MultipartBody(parts []MultipartPart) (*BodyEncoding, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		if p.Filename != "" {
			fw, err := w.CreateFormFile(p.Name, p.Filename)
			if err != nil {
				return nil, &BodyError{Reason: err.Error()}
			}
			if _, err := fw.Write(p.Bytes); err != nil {
				return nil, &BodyError{Reason: err.Error()}
			}
			continue
		}

		var raw []byte
		switch val := p.Value.(type) {
		case string:
			raw = []byte(val)
		case []byte:
			raw = val
		default:
			data, err := json.Marshal(val)
			if err != nil {
				return nil, &BodyError{Reason: err.Error()}
			}
			raw = data
		}
		fw, err := w.CreateFormField(p.Name)
		if err != nil {
			return nil, &BodyError{Reason: err.Error()}
		}
		if _, err := fw.Write(raw); err != nil {
			return nil, &BodyError{Reason: err.Error()}
		}
	}

	if err := w.Close(); err != nil {
		return nil, &BodyError{Reason: err.Error()}
	}

	return &BodyEncoding{
		ContentType: w.FormDataContentType(),
		Bytes:       buf.Bytes(),
	}, nil
}

// BytesBody wraps raw bytes under the given MIME type.
func BytesBody(data []byte, mime string) *BodyEncoding {
	return &BodyEncoding{ContentType: mime, Bytes: data}
}

// TextBody wraps a plain-text string as text/plain.
func TextBody(s string) *BodyEncoding {
	return &BodyEncoding{ContentType: "text/plain", Bytes: []byte(s), Example: s}
}

// flattenToStrings converts v (expected to be a flat struct or map) into
// a string-keyed, string-valued map suitable for form encoding, via a
// JSON round-trip so struct/json tags are honored.
func flattenToStrings(v any) (map[string]string, error) {
	if m, ok := v.(map[string]string); ok {
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("form body must encode to a flat JSON object: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		switch t := val.(type) {
		case string:
			out[k] = t
		default:
			b, _ := json.Marshal(t)
			out[k] = strings.Trim(string(b), `"`)
		}
	}
	return out, nil
}
