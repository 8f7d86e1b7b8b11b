package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAuth(t *testing.T) {
	auth := BasicAuth("basic", "alice", "secret")
	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, auth.Apply(req))

	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, "http", auth.Scheme().Type)
	assert.Equal(t, "basic", auth.Scheme().Scheme)
}

func TestBearerAuth(t *testing.T) {
	auth := BearerAuth("bearer", "token123")
	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, auth.Apply(req))
	assert.Equal(t, "Bearer token123", req.Header.Get("Authorization"))
}

func TestAPIKeyAuth(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		auth := APIKeyAuth("apikey", "X-Api-Key", "k1", InHeader)
		req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
		require.NoError(t, auth.Apply(req))
		assert.Equal(t, "k1", req.Header.Get("X-Api-Key"))
	})

	t.Run("query", func(t *testing.T) {
		auth := APIKeyAuth("apikey", "api_key", "k1", InQuery)
		req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
		require.NoError(t, auth.Apply(req))
		assert.Equal(t, "k1", req.URL.Query().Get("api_key"))
	})

	t.Run("invalid location rejected", func(t *testing.T) {
		auth := APIKeyAuth("apikey", "x", "k1", ParameterLocation(99))
		req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
		err := auth.Apply(req)
		var cErr *ConfigError
		require.ErrorAs(t, err, &cErr)
	})
}

func TestOAuth2ClientCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600})
	}))
	defer srv.Close()

	auth := OAuth2ClientCredentials("oauth2", srv.URL, "id", "secret", []string{"read"})
	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, auth.Apply(req))
	assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))

	scheme := auth.Scheme()
	assert.Equal(t, "oauth2", scheme.Type)
	require.NotNil(t, scheme.Flows.ClientCredentials)
	assert.Equal(t, srv.URL, scheme.Flows.ClientCredentials.TokenURL)
}

func TestOAuth2ClientCredentialsMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	auth := OAuth2ClientCredentials("oauth2", srv.URL, "id", "secret", nil)
	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	err := auth.Apply(req)
	var cErr *ConfigError
	require.ErrorAs(t, err, &cErr)
}
