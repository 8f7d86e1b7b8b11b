// Package openapi turns a suite of integration tests into an OpenAPI
// 3.1 specification, as a side effect of actually running them.
//
// Tests drive an ApiClient against a running server; every call's
// resolved URL template, parameters, request body, and response is
// recorded as an Observation and folded into a SchemaRegistry and an
// OperationRegistry by a single-writer background handler. Calling
// ApiClient.CollectedOpenAPI assembles both registries into a
// *Document that can be marshaled as JSON or YAML.
//
// # Basic usage
//
//	client := openapi.NewApiClient(baseURL)
//
//	result, err := client.Get("/users/{id}").
//		WithPath("id", 42).
//		Execute(ctx)
//	user, err := openapi.AsJSON[User](result)
//
//	doc, err := client.CollectedOpenAPI()
//	data, err := yaml.Marshal(doc)
//
// # Parameters
//
// WithPath, WithQuery, and WithHeader each accept a style option
// (WithStyle, WithExplode) governing how the value serializes onto the
// wire, following the OpenAPI 3.1 style matrix. WithCookie ignores style
// and explode options: cookies always use form style, not exploded.
//
//	client.Get("/search").
//		WithQuery("tags", []string{"a", "b"}, openapi.WithExplode(true))
//
// # Bodies and collectors
//
// JSON, Form, XML, NDJSON, Multipart, Bytes, and Text set the request
// body. AsJSON, AsOptionalJSON, AsText, AsBytes, AsEmpty, and AsRaw
// consume a CallResult exactly once, returning a typed value and
// recording the observed response schema.
//
// # Concurrency
//
// Multiple goroutines may issue ApiCalls against the same ApiClient
// concurrently; every Observation passes through one buffered channel
// drained by a single handler goroutine, so neither registry needs its
// own locking (see the module's DESIGN.md for the full rationale).
package openapi
