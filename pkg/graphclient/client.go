package graphclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/graphkit/graphclient-go/internal/keyfile"
	"github.com/graphkit/graphclient-go/internal/tokenfile"
)

// Client issues GraphQL queries with bearer-token session management.
// One Client per session; the mutable token state is not safe to share
// across goroutines without external synchronization.
type Client struct {
	baseURL    string
	keyPath    string
	tokenPath  string
	token      string
	anonymous  bool
	opts       options
	auth       *authority
	httpClient *http.Client
	logger     *slog.Logger
}

// queryRequest is the GraphQL HTTP request body. Variables are omitted when
// empty — an empty variables object is not the same as none to a GraphQL
// server.
type queryRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// New builds an authenticated client from a JSON key file. It derives the
// base URL from the key file's token issuance URL, resolves a bearer token
// (cached, or freshly minted when absent or aged out), and zeroes the
// credential material before returning. Construction either returns a fully
// usable client or an error — never a partial one.
//
// Unless overridden, token lifecycle management and on-disk persistence are
// both enabled.
func New(ctx context.Context, keyPath string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Authenticated mode defaults.
	if !o.manageTokenSet {
		o.manageToken = true
	}

	if !o.keepTokenSet {
		o.keepToken = true
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	creds, err := keyfile.Load(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFile, err)
	}

	// Credential material is scoped to construction only.
	defer creds.Zero()

	c := &Client{
		baseURL:   creds.BaseURL(),
		keyPath:   keyPath,
		tokenPath: tokenfile.Path(keyPath),
		opts:      o,
		logger:    o.logger,
	}
	c.httpClient = o.buildHTTPClient()
	c.auth = &authority{httpClient: c.httpClient, logger: c.logger}

	c.logger.Info("session configured",
		slog.String("base_url", c.baseURL),
		slog.Bool("manage_token", o.manageToken),
		slog.Bool("keep_token", o.keepToken),
	)

	if err := c.resolveToken(ctx, creds); err != nil {
		return nil, err
	}

	return c, nil
}

// NewAnonymous builds a client for a public GraphQL endpoint. No key file is
// read, no Authorization header is ever sent, and RenewToken/Close return
// ErrAnonymous.
func NewAnonymous(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: empty base URL", ErrKeyFile)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		anonymous: true,
		opts:      o,
		logger:    o.logger,
	}
	c.httpClient = o.buildHTTPClient()
	c.auth = &authority{httpClient: c.httpClient, logger: c.logger}

	c.logger.Info("anonymous session configured", slog.String("base_url", c.baseURL))

	return c, nil
}

// resolveToken implements the token resolution policy:
//  1. Lifecycle management and persistence both off: always mint fresh, the
//     cache is never consulted.
//  2. Cache present: reuse it, unless management is on and the file is older
//     than the token lifespan — then best-effort revoke, delete, mint fresh.
//     With management off the cached value is accepted regardless of age.
//  3. No cache: mint fresh. Persist only when persistence is on.
func (c *Client) resolveToken(ctx context.Context, creds *keyfile.Credentials) error {
	if !c.opts.manageToken && !c.opts.keepToken {
		return c.mintToken(ctx, creds)
	}

	exists, err := tokenfile.Exists(c.tokenPath)
	if err != nil {
		return err
	}

	if !exists {
		return c.mintToken(ctx, creds)
	}

	cached, err := tokenfile.Read(c.tokenPath)
	if err != nil {
		return err
	}

	if c.opts.manageToken {
		age, err := tokenfile.Age(c.tokenPath)
		if err != nil {
			return err
		}

		if age > c.opts.tokenLifespan {
			c.logger.Info("cached token aged out, replacing",
				slog.String("path", c.tokenPath),
				slog.Duration("age", age),
			)

			// Revoke with the stale token's header; the server may have
			// already invalidated it, so failure only logs.
			c.token = cached
			c.revokeBestEffort(ctx)
			c.token = ""

			if err := tokenfile.Delete(c.tokenPath); err != nil {
				return err
			}

			return c.mintToken(ctx, creds)
		}
	} else {
		c.logger.Info("token lifecycle management off, keeping cached token")
	}

	c.logger.Info("using cached token", slog.String("path", c.tokenPath))
	c.token = cached

	return nil
}

// mintToken asks the authority for a fresh token and persists it when
// persistence is on.
func (c *Client) mintToken(ctx context.Context, creds *keyfile.Credentials) error {
	token, err := c.auth.mint(ctx, creds, c.headers())
	if err != nil {
		return err
	}

	c.token = token

	if c.opts.keepToken {
		if err := tokenfile.Save(c.tokenPath, token); err != nil {
			return err
		}

		c.logger.Info("token persisted", slog.String("path", c.tokenPath))
	}

	return nil
}

// revokeBestEffort attempts a session revoke and logs any failure. Used on
// the expiry and renew paths, where a usable session can still be obtained by
// minting fresh regardless of whether the old one closed cleanly.
func (c *Client) revokeBestEffort(ctx context.Context) {
	if err := c.auth.revoke(ctx, c.baseURL, c.opts.sessionEndpoint, c.headers()); err != nil {
		c.logger.Warn("best-effort session revoke failed", slog.String("error", err.Error()))
	}
}

// headers builds the outbound header set from the current token value. Always
// recomputed, never cached, so it cannot drift from the token state.
func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")

	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}

	return h
}

// Query executes a raw GraphQL query and returns the decoded response body.
// Variables are included only when non-empty. A 2xx response is returned
// verbatim even when it encodes GraphQL-level errors — those are data for the
// caller, not transport failures. One attempt, no retry.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(queryRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("graphclient: encoding query: %w", err)
	}

	url := c.baseURL + "/" + c.opts.graphqlEndpoint

	status, respBody, err := c.auth.do(ctx, http.MethodPost, url, bytes.NewReader(body), c.headers())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: status, Body: string(respBody), Err: ErrRequest}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("graphclient: decoding response: %w", err)
	}

	return raw, nil
}

// QueryInto executes a query and decodes the response body into dest.
func (c *Client) QueryInto(ctx context.Context, query string, variables map[string]any, dest any) error {
	raw, err := c.Query(ctx, query, variables)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("graphclient: decoding response: %w", err)
	}

	return nil
}

// RenewToken forces a fresh token regardless of cache freshness: re-read the
// key file, revoke the current session (best-effort, failures logged), mint,
// and re-persist when persistence is on. This is the only caller-invocable
// path that bypasses the cache-freshness check.
func (c *Client) RenewToken(ctx context.Context) error {
	if c.anonymous {
		return ErrAnonymous
	}

	c.logger.Info("token renewal requested")

	creds, err := keyfile.Load(c.keyPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyFile, err)
	}

	defer creds.Zero()

	c.baseURL = creds.BaseURL()

	// Pick up the cached value when no token is in memory so the revoke
	// carries the live bearer header. Best-effort: the revoke that follows
	// tolerates a missing or unreadable cache.
	if c.token == "" {
		if exists, statErr := tokenfile.Exists(c.tokenPath); statErr == nil && exists {
			if cached, readErr := tokenfile.Read(c.tokenPath); readErr == nil {
				c.token = cached
			}
		}
	}

	c.revokeBestEffort(ctx)
	c.token = ""

	if err := tokenfile.Delete(c.tokenPath); err != nil {
		return err
	}

	return c.mintToken(ctx, creds)
}

// Close ends an ephemeral-token session: revoke the session server-side,
// clear the in-memory token, and delete the cache file if present. Only
// sessions with lifecycle management on and persistence off are closable; a
// persisted token is meant to outlive the process, so Close on any other
// configuration is a logged no-op. Revoke failures propagate — an explicit
// close deserves a loud answer.
func (c *Client) Close(ctx context.Context) error {
	if c.anonymous {
		return ErrAnonymous
	}

	if !c.opts.manageToken || c.opts.keepToken {
		c.logger.Info("close requested on a persisted-token session, nothing to do")

		return nil
	}

	if err := c.auth.revoke(ctx, c.baseURL, c.opts.sessionEndpoint, c.headers()); err != nil {
		return err
	}

	c.token = ""
	c.logger.Info("session closed")

	return tokenfile.Delete(c.tokenPath)
}
