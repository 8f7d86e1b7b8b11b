package openapi

import (
	"encoding/json"
	"unicode/utf8"
)

// AsJSON deserializes the result body as T, recording the response
// schema as a $ref to T's canonical name (§4.5 Json<T>). The body must
// be present; the response content type is not checked.
func AsJSON[T any](result *CallResult) (T, error) {
	var zero T
	if err := result.markCollected(); err != nil {
		return zero, err
	}

	if len(result.Body) == 0 {
		return zero, &CollectorError{Kind: "empty_body"}
	}

	var value T
	if err := json.Unmarshal(result.Body, &value); err != nil {
		return zero, &CollectorError{Kind: "deserialize", Wrapped: err}
	}

	name, schema, _ := result.call.client.oracle.Describe(value)
	result.emit(result.buildObservation(ResponseObservation{
		Status: result.Status, ContentType: result.ContentType,
		Schema: schema, SchemaName: name, Example: value,
	}))

	return value, nil
}

// AsOptionalJSON behaves as AsJSON, except status 204 or an empty body
// yields (nil, nil) with the response schema's nullable annotation set
// rather than failing (§4.5 OptionalJson<T>).
func AsOptionalJSON[T any](result *CallResult) (*T, error) {
	if err := result.markCollected(); err != nil {
		return nil, err
	}

	if result.Status == 204 || len(result.Body) == 0 {
		result.emit(result.buildObservation(ResponseObservation{
			Status: result.Status, ContentType: result.ContentType,
			Schema: nullableSchemaOf[T](result.call.client.oracle),
		}))
		return nil, nil
	}

	var value T
	if err := json.Unmarshal(result.Body, &value); err != nil {
		return nil, &CollectorError{Kind: "deserialize", Wrapped: err}
	}

	name, schema, _ := result.call.client.oracle.Describe(value)
	result.emit(result.buildObservation(ResponseObservation{
		Status: result.Status, ContentType: result.ContentType,
		Schema: schema, SchemaName: name, Example: value,
	}))

	return &value, nil
}

func nullableSchemaOf[T any](oracle TypeOracle) *Schema {
	var zero T
	_, schema, _ := oracle.Describe(zero)
	if schema == nil {
		return &Schema{Type: TypeArray("null")}
	}
	applyNullable(schema)
	return schema
}

// AsText decodes the result body as UTF-8 text, recording schema
// {type: string} (§4.5 Text).
func AsText(result *CallResult) (string, error) {
	if err := result.markCollected(); err != nil {
		return "", err
	}
	if !utf8.Valid(result.Body) {
		return "", &CollectorError{Kind: "encoding"}
	}
	text := string(result.Body)
	result.emit(result.buildObservation(ResponseObservation{
		Status: result.Status, ContentType: result.ContentType,
		Schema: &Schema{Type: TypeString("string")}, Example: text,
	}))
	return text, nil
}

// AsBytes returns the raw response body, recording schema
// {type: string, format: binary} (§4.5 Bytes).
func AsBytes(result *CallResult) ([]byte, error) {
	if err := result.markCollected(); err != nil {
		return nil, err
	}
	result.emit(result.buildObservation(ResponseObservation{
		Status: result.Status, ContentType: result.ContentType,
		Schema: &Schema{Type: TypeString("string"), Format: "binary"},
	}))
	return result.Body, nil
}

// AsEmpty asserts the response body is empty and records no schema
// (§4.5 Empty).
func AsEmpty(result *CallResult) error {
	if err := result.markCollected(); err != nil {
		return err
	}
	if len(result.Body) != 0 {
		return &CollectorError{Kind: "unexpected_body"}
	}
	result.emit(result.buildObservation(ResponseObservation{Status: result.Status}))
	return nil
}

// AsRaw returns the intact CallResult and records an unspecified
// response schema; an escape hatch for tests that need full control over
// status/headers/bytes (§4.5 Raw).
func AsRaw(result *CallResult) (*CallResult, error) {
	if err := result.markCollected(); err != nil {
		return nil, err
	}
	result.emit(result.buildObservation(ResponseObservation{
		Status: result.Status, ContentType: result.ContentType,
	}))
	return result, nil
}
