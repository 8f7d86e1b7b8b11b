package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawspec-go/clawspec/openapi"
	"github.com/clawspec-go/clawspec/testserver"
)

// These tests double as the module's end-to-end integration coverage:
// a real server (this package's toy user directory), a real
// *openapi.ApiClient driving it over a real loopback listener, and a
// final assembled *openapi.Document checked against the scenarios in
// spec.md §8.
func startExample(t *testing.T) string {
	t.Helper()

	srv := NewServer()
	inst, err := testserver.Launch(srv)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Shutdown() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, inst.Wait(ctx, srv, testserver.DefaultBackoffConfig()))

	return inst.BaseURL
}

func TestExampleServer_PathStyleScenario(t *testing.T) {
	// S1: GET /users/{id} with path param id=1 resolves to /users/1 and
	// records a required, in:path parameter.
	baseURL := startExample(t)
	client := openapi.NewApiClient(baseURL)

	ctx := context.Background()
	result, err := client.Get("/users/{id}").
		WithPath("id", 1).
		WithTag("users").
		WithOperationID("getUser").
		Execute(ctx)
	require.NoError(t, err)

	user, err := openapi.AsJSON[User](result)
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "Ada Lovelace", user.Name)
	require.Contains(t, result.Headers, "X-Server-Hostname")
	assert.Equal(t, []string{"example"}, result.Headers["X-Server-Hostname"])

	doc, err := client.CollectedOpenAPI()
	require.NoError(t, err)

	item := doc.Paths["/users/{id}"]
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	require.Len(t, item.Get.Parameters, 1)
	assert.Equal(t, "id", item.Get.Parameters[0].Name)
	assert.Equal(t, "path", item.Get.Parameters[0].In)
	assert.True(t, item.Get.Parameters[0].Required)
}

func TestExampleServer_QueryFormExplode(t *testing.T) {
	// S2: GET /search-shaped query with an exploded array serializes as
	// repeated name=value pairs; here exercised against /users?tag=...
	baseURL := startExample(t)
	client := openapi.NewApiClient(baseURL)

	ctx := context.Background()
	result, err := client.Get("/users").
		WithQuery("tag", []string{"admin", "staff"}, openapi.WithExplode(true)).
		Execute(ctx)
	require.NoError(t, err)

	_, err = openapi.AsJSON[[]User](result)
	require.NoError(t, err)
}

func TestExampleServer_MergeAcrossCalls(t *testing.T) {
	// S4: two calls to POST /users with different bodies/responses merge
	// into one operation whose request body schema unifies and whose
	// responses accumulate both status codes observed.
	baseURL := startExample(t)
	client := openapi.NewApiClient(baseURL)
	ctx := context.Background()

	result1, err := client.Post("/users").
		JSON(User{Name: "Grace Hopper"}).
		WithOperationID("createUser").
		Execute(ctx)
	require.NoError(t, err)
	_, err = openapi.AsJSON[User](result1)
	require.NoError(t, err)

	result2, err := client.Post("/users").
		JSON(User{Name: ""}).
		WithExpectedStatusCodes(openapi.NewExpectedStatusCodes().WithRange(200, 499)).
		WithOperationID("createUser").
		Execute(ctx)
	require.NoError(t, err)
	_, err = openapi.AsJSON[ErrorResponse](result2)
	require.NoError(t, err)

	doc, err := client.CollectedOpenAPI()
	require.NoError(t, err)

	item := doc.Paths["/users"]
	require.NotNil(t, item)
	require.NotNil(t, item.Post)
	assert.Contains(t, item.Post.Responses, "201")
	assert.Contains(t, item.Post.Responses, "400")
}

func TestExampleServer_UnexpectedStatusFailsCall(t *testing.T) {
	// S5: an expectation narrower than the observed status fails the
	// call and records no observation.
	baseURL := startExample(t)
	client := openapi.NewApiClient(baseURL)
	ctx := context.Background()

	_, err := client.Get("/users/{id}").
		WithPath("id", 999).
		WithExpectedStatusCodes(openapi.NewExpectedStatusCodes().WithCode(200)).
		Execute(ctx)

	var statusErr *openapi.UnexpectedStatusCodeError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Actual)

	doc, err := client.CollectedOpenAPI()
	require.NoError(t, err)
	assert.Nil(t, doc.Paths["/users/{id}"])
}

func TestExampleServer_WithoutCollectionContributesNothing(t *testing.T) {
	baseURL := startExample(t)
	client := openapi.NewApiClient(baseURL)
	ctx := context.Background()

	result, err := client.Get("/healthz").WithoutCollection().Execute(ctx)
	require.NoError(t, err)
	require.NoError(t, openapi.AsEmpty(result))

	doc, err := client.CollectedOpenAPI()
	require.NoError(t, err)
	assert.Nil(t, doc.Paths["/healthz"])
}
