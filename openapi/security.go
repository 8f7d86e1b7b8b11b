package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/clawspec-go/clawspec/httpsig"
)

// AuthProvider attaches credentials to an outgoing request and names the
// security scheme it corresponds to in the emitted document. Exactly one
// canonical scheme name is bound per provider (resolving the spec's open
// question on OAuth2 token-to-scheme binding; see DESIGN.md).
type AuthProvider interface {
	SchemeName() string
	Scheme() *SecurityScheme
	Apply(req *http.Request) error
}

// --- HTTP Basic ---

type basicAuth struct {
	name, username, password string
}

// BasicAuth returns an AuthProvider for HTTP Basic authentication,
// registered under schemeName in components.securitySchemes.
func BasicAuth(schemeName, username, password string) AuthProvider {
	return &basicAuth{name: schemeName, username: username, password: password}
}

func (a *basicAuth) SchemeName() string { return a.name }
func (a *basicAuth) Scheme() *SecurityScheme {
	return &SecurityScheme{Type: "http", Scheme: "basic"}
}
func (a *basicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(a.username, a.password)
	return nil
}

// --- HTTP Bearer ---

type bearerAuth struct {
	name, token string
}

// BearerAuth returns an AuthProvider for an HTTP Bearer token.
func BearerAuth(schemeName, token string) AuthProvider {
	return &bearerAuth{name: schemeName, token: token}
}

func (a *bearerAuth) SchemeName() string { return a.name }
func (a *bearerAuth) Scheme() *SecurityScheme {
	return &SecurityScheme{Type: "http", Scheme: "bearer"}
}
func (a *bearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+a.token)
	return nil
}

// --- API Key ---

// APIKeyAuth returns an AuthProvider for an API key carried in a header,
// query parameter, or cookie (loc must be InHeader, InQuery, or InCookie).
func APIKeyAuth(schemeName, paramName, key string, loc ParameterLocation) AuthProvider {
	return &apiKeyAuth{name: schemeName, paramName: paramName, key: key, loc: loc}
}

type apiKeyAuth struct {
	name, paramName, key string
	loc                  ParameterLocation
}

func (a *apiKeyAuth) SchemeName() string { return a.name }
func (a *apiKeyAuth) Scheme() *SecurityScheme {
	return &SecurityScheme{Type: "apiKey", Name: a.paramName, In: a.loc.String()}
}
func (a *apiKeyAuth) Apply(req *http.Request) error {
	switch a.loc {
	case InHeader:
		req.Header.Set(a.paramName, a.key)
	case InQuery:
		q := req.URL.Query()
		q.Set(a.paramName, a.key)
		req.URL.RawQuery = q.Encode()
	case InCookie:
		req.AddCookie(&http.Cookie{Name: a.paramName, Value: a.key})
	default:
		return &ConfigError{Reason: "API key location must be header, query, or cookie"}
	}
	return nil
}

// --- OAuth2 Client Credentials ---

// OAuth2ClientCredentials returns an AuthProvider that acquires and
// caches a bearer token from tokenURL using the client credentials grant
// (§6), refreshing it shortly before expiry. The live token is never
// recorded into observations or examples.
func OAuth2ClientCredentials(schemeName, tokenURL, clientID, clientSecret string, scopes []string) AuthProvider {
	return &oauth2ClientCreds{
		name: schemeName, tokenURL: tokenURL,
		clientID: clientID, clientSecret: clientSecret, scopes: scopes,
		httpClient: http.DefaultClient,
	}
}

type oauth2ClientCreds struct {
	name, tokenURL, clientID, clientSecret string
	scopes                                 []string
	httpClient                             *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (a *oauth2ClientCreds) SchemeName() string { return a.name }
func (a *oauth2ClientCreds) Scheme() *SecurityScheme {
	return &SecurityScheme{
		Type: "oauth2",
		Flows: &OAuthFlows{
			ClientCredentials: &OAuthFlow{
				TokenURL: a.tokenURL,
				Scopes:   scopesMap(a.scopes),
			},
		},
	}
}

func (a *oauth2ClientCreds) Apply(req *http.Request) error {
	token, err := a.currentToken(req.Context())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (a *oauth2ClientCreds) currentToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.expiresAt) {
		return a.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)
	if len(a.scopes) > 0 {
		form.Set("scope", strings.Join(a.scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("oauth2 token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", &ConfigError{Reason: "oauth2 token endpoint returned no access_token"}
	}

	a.token = payload.AccessToken
	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	a.expiresAt = time.Now().Add(ttl - 10*time.Second)

	return a.token, nil
}

func scopesMap(scopes []string) map[string]string {
	m := make(map[string]string, len(scopes))
	for _, s := range scopes {
		m[s] = s
	}
	return m
}

// --- HTTP Message Signatures (RFC 9421), an enrichment beyond the
// distilled spec's four named schemes (see SPEC_FULL.md §2). ---

// SignatureAuth returns an AuthProvider that signs each request per
// RFC 9421 using signer, delegating to this module's httpsig package.
func SignatureAuth(schemeName string, signer httpsig.Signer) AuthProvider {
	return &signatureAuth{name: schemeName, signer: signer}
}

type signatureAuth struct {
	name   string
	signer httpsig.Signer
}

func (a *signatureAuth) SchemeName() string { return a.name }
func (a *signatureAuth) Scheme() *SecurityScheme {
	return &SecurityScheme{Type: "http", Scheme: "signature", Description: "RFC 9421 HTTP Message Signatures"}
}
func (a *signatureAuth) Apply(req *http.Request) error {
	return httpsig.SignRequest(req, httpsig.SignConfig{Signer: a.signer})
}
