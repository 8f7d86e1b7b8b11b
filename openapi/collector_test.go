package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectorTestWidget struct {
	ID int `json:"id"`
}

func newCollectorTestClient(t *testing.T, status int, contentType string, body string) (*ApiClient, *CallResult) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := NewApiClient(srv.URL)
	result, err := client.Get("/widgets").
		WithExpectedStatusCodes(NewExpectedStatusCodes().WithRange(100, 599)).
		Execute(context.Background())
	require.NoError(t, err)
	return client, result
}

func TestAsJSON_Success(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "application/json", `{"id":7}`)
	w, err := AsJSON[collectorTestWidget](result)
	require.NoError(t, err)
	assert.Equal(t, 7, w.ID)
}

func TestAsJSON_EmptyBodyFails(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "application/json", "")
	_, err := AsJSON[collectorTestWidget](result)
	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "empty_body", collErr.Kind)
}

func TestAsJSON_DeserializeFailure(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "application/json", `not json`)
	_, err := AsJSON[collectorTestWidget](result)
	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "deserialize", collErr.Kind)
}

func TestAsOptionalJSON_NoContentReturnsNil(t *testing.T) {
	_, result := newCollectorTestClient(t, 204, "", "")
	w, err := AsOptionalJSON[collectorTestWidget](result)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestAsOptionalJSON_PresentReturnsValue(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "application/json", `{"id":3}`)
	w, err := AsOptionalJSON[collectorTestWidget](result)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 3, w.ID)
}

func TestAsText_Success(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "text/plain", "hello")
	text, err := AsText(result)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestAsText_InvalidUTF8Fails(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "text/plain", "\xff\xfe")
	_, err := AsText(result)
	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "encoding", collErr.Kind)
}

func TestAsBytes_ReturnsRawBody(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "application/octet-stream", "binarydata")
	data, err := AsBytes(result)
	require.NoError(t, err)
	assert.Equal(t, []byte("binarydata"), data)
}

func TestAsEmpty_NonEmptyBodyFails(t *testing.T) {
	_, result := newCollectorTestClient(t, 204, "", "oops")
	err := AsEmpty(result)
	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
}

func TestAsRaw_ReturnsIntactResult(t *testing.T) {
	_, result := newCollectorTestClient(t, 200, "application/json", `{"id":1}`)
	raw, err := AsRaw(result)
	require.NoError(t, err)
	assert.Equal(t, 200, raw.Status)
	assert.Equal(t, `{"id":1}`, string(raw.Body))
}

func TestCollector_EmitsObservationWithResponseSchema(t *testing.T) {
	client, result := newCollectorTestClient(t, 200, "application/json", `{"id":9}`)
	_, err := AsJSON[collectorTestWidget](result)
	require.NoError(t, err)

	doc, err := client.CollectedOpenAPI()
	require.NoError(t, err)

	item := doc.Paths["/widgets"]
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	resp := item.Get.Responses["200"]
	require.NotNil(t, resp)
	require.Contains(t, resp.Content, "application/json")
}
