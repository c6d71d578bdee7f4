package graphclient

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Defaults for session options.
const (
	defaultTimeout         = 30 * time.Second
	defaultTokenLifespan   = time.Hour
	defaultSessionEndpoint = "session"
	defaultGraphQLEndpoint = "graphql"
)

// options is the immutable session configuration captured at construction.
type options struct {
	insecure        bool
	proxyURL        *url.URL
	sessionEndpoint string
	graphqlEndpoint string
	manageToken     bool
	manageTokenSet  bool
	keepToken       bool
	keepTokenSet    bool
	timeout         time.Duration
	tokenLifespan   time.Duration
	httpClient      *http.Client
	logger          *slog.Logger
}

// Option configures a Client at construction time.
type Option func(*options)

// defaultOptions returns the baseline configuration. manageToken and
// keepToken default to true in authenticated mode and false in anonymous
// mode; New and NewAnonymous fill those in when the caller did not set them.
func defaultOptions() options {
	return options{
		sessionEndpoint: defaultSessionEndpoint,
		graphqlEndpoint: defaultGraphQLEndpoint,
		timeout:         defaultTimeout,
		tokenLifespan:   defaultTokenLifespan,
	}
}

// WithInsecure disables TLS certificate verification on the transport.
func WithInsecure() Option {
	return func(o *options) {
		o.insecure = true
	}
}

// WithProxy routes all requests through the given proxy URL.
func WithProxy(proxy *url.URL) Option {
	return func(o *options) {
		o.proxyURL = proxy
	}
}

// WithSessionEndpoint overrides the session endpoint segment (default
// "session") used for revocation.
func WithSessionEndpoint(endpoint string) Option {
	return func(o *options) {
		o.sessionEndpoint = endpoint
	}
}

// WithGraphQLEndpoint overrides the query endpoint segment (default
// "graphql").
func WithGraphQLEndpoint(endpoint string) Option {
	return func(o *options) {
		o.graphqlEndpoint = endpoint
	}
}

// WithManageToken controls expiry management. When false, a cached token is
// reused regardless of age — the caller owns the trust decision.
func WithManageToken(manage bool) Option {
	return func(o *options) {
		o.manageToken = manage
		o.manageTokenSet = true
	}
}

// WithKeepToken controls on-disk persistence. When false, minted tokens stay
// in memory only and Close revokes them.
func WithKeepToken(keep bool) Option {
	return func(o *options) {
		o.keepToken = keep
		o.keepTokenSet = true
	}
}

// WithTimeout sets the per-request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTokenLifespan sets how old a cached token may be before it is replaced
// (default 1 hour). Ignored when token management is off.
func WithTokenLifespan(d time.Duration) Option {
	return func(o *options) {
		o.tokenLifespan = d
	}
}

// WithHTTPClient injects a pre-built HTTP client, overriding the
// insecure/proxy/timeout transport options.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// buildHTTPClient assembles the transport from the captured options unless
// the caller injected one.
func (o *options) buildHTTPClient() *http.Client {
	if o.httpClient != nil {
		return o.httpClient
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	if o.proxyURL != nil {
		transport.Proxy = http.ProxyURL(o.proxyURL)
	}

	if o.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit caller opt-in
	}

	return &http.Client{
		Timeout:   o.timeout,
		Transport: transport,
	}
}
