package openapi

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"
)

// ApiClient is the root handle of a test run: it owns the base URL,
// default auth, the TypeOracle, the observation channel and its drain
// handler, and assembles the accumulated registries into a final
// Document on demand (§2 ApiClient).
type ApiClient struct {
	baseURL     string
	transport   http.RoundTripper
	oracle      TypeOracle
	defaultAuth AuthProvider
	logger      Logger

	info     Info
	servers  []Server
	security []AuthProvider

	redactions []RedactionRule

	handler *registryHandler
}

// ApiClientOption configures an ApiClient at construction time.
type ApiClientOption func(*ApiClient)

// WithDefaultAuth sets the AuthProvider applied to every call that
// doesn't override it with ApiCall.WithAuth.
func WithDefaultAuth(auth AuthProvider) ApiClientOption {
	return func(c *ApiClient) { c.defaultAuth = auth; c.security = append(c.security, auth) }
}

// WithSecurityScheme registers an additional AuthProvider in the emitted
// components.securitySchemes without making it the default for every
// call (useful for documenting alternate auth a subset of calls use via
// WithAuth).
func WithSecurityScheme(auth AuthProvider) ApiClientOption {
	return func(c *ApiClient) { c.security = append(c.security, auth) }
}

// WithTypeOracle overrides the default ReflectOracle.
func WithTypeOracle(oracle TypeOracle) ApiClientOption {
	return func(c *ApiClient) { c.oracle = oracle }
}

// WithTransport overrides the default transport (http.DefaultTransport).
func WithTransport(rt http.RoundTripper) ApiClientOption {
	return func(c *ApiClient) { c.transport = rt }
}

// WithHTTP2 configures the client's transport for HTTP/2, including
// cleartext (h2c) upgrade for plain-HTTP test servers that speak it
// (§2 DOMAIN STACK).
func WithHTTP2() ApiClientOption {
	return func(c *ApiClient) {
		c.transport = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}
	}
}

// WithCookieJar attaches a net/http/cookiejar.Jar (backed by
// golang.org/x/net/publicsuffix for domain-matching) so Cookie
// parameters set on one call are available to subsequent calls on the
// same client, the way a browser would behave.
func WithCookieJar() ApiClientOption {
	return func(c *ApiClient) {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return
		}
		if hc, ok := c.transport.(*http.Client); ok {
			hc.Jar = jar
		} else {
			c.transport = &http.Client{Transport: c.transport, Jar: jar}
		}
	}
}

// WithLogger overrides the default stdlib-backed Logger used for
// non-fatal merge diagnostics.
func WithLogger(logger Logger) ApiClientOption {
	return func(c *ApiClient) { c.logger = logger }
}

// WithInfo sets the document's info object.
func WithInfo(info Info) ApiClientOption {
	return func(c *ApiClient) { c.info = info }
}

// WithServer adds a server entry to the document.
func WithServer(server Server) ApiClientOption {
	return func(c *ApiClient) { c.servers = append(c.servers, server) }
}

// WithRedaction registers a JSONPath-subset redaction rule applied to
// every recorded example at assembly time. Schemas and live request
// bodies are never touched, only the example values surfaced in the
// final document (§4.8).
func WithRedaction(rule RedactionRule) ApiClientOption {
	return func(c *ApiClient) { c.redactions = append(c.redactions, rule) }
}

// NewApiClient creates an ApiClient targeting baseURL and starts its
// observation handler goroutine.
func NewApiClient(baseURL string, opts ...ApiClientOption) *ApiClient {
	c := &ApiClient{
		baseURL:   baseURL,
		transport: http.DefaultTransport,
		oracle:    NewReflectOracle(),
		logger:    stdLogger{},
		info:      Info{Title: "API", Version: "0.0.0"},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.handler = newRegistryHandler(c.logger)
	c.handler.start()
	return c
}

// Get starts a GET ApiCall against path.
func (c *ApiClient) Get(path string) *ApiCall { return newApiCall(c, http.MethodGet, path) }

// Post starts a POST ApiCall against path.
func (c *ApiClient) Post(path string) *ApiCall { return newApiCall(c, http.MethodPost, path) }

// Put starts a PUT ApiCall against path.
func (c *ApiClient) Put(path string) *ApiCall { return newApiCall(c, http.MethodPut, path) }

// Patch starts a PATCH ApiCall against path.
func (c *ApiClient) Patch(path string) *ApiCall { return newApiCall(c, http.MethodPatch, path) }

// Delete starts a DELETE ApiCall against path.
func (c *ApiClient) Delete(path string) *ApiCall { return newApiCall(c, http.MethodDelete, path) }

// send forwards obs to the registry handler. The channel is buffered
// (256 observations), so a send waits only while the buffer is full. It
// is safe to call after CollectedOpenAPI has begun shutdown (the send is
// simply dropped).
func (c *ApiClient) send(obs Observation) {
	c.handler.send(obs)
}

// CollectedOpenAPI signals the handler to stop (closing its stop channel;
// later sends are dropped), waits for the drain
// handler to finish processing every queued observation, then assembles
// and returns the final Document (§5 Graceful shutdown).
func (c *ApiClient) CollectedOpenAPI() (*Document, error) {
	c.handler.stopAndWait()
	return assemble(c)
}
