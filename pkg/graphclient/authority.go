package graphclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/graphkit/graphclient-go/internal/keyfile"
)

// authority talks to the token issuance and session deletion endpoints.
// It holds no token state; the Client passes current headers per call.
type authority struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// mintRequest is the JSON body posted to the token issuance URL.
type mintRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Name         string `json:"name"`
}

// mintResponse is the part of the issuance response the client consumes.
type mintResponse struct {
	AccessToken string `json:"access_token"`
}

// mint posts the client credentials to the issuance URL and returns the new
// bearer token. Non-2xx status or a response without access_token is an
// authentication error.
func (a *authority) mint(ctx context.Context, creds *keyfile.Credentials, headers http.Header) (string, error) {
	body, err := json.Marshal(mintRequest{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Name:         creds.Name,
	})
	if err != nil {
		return "", fmt.Errorf("graphclient: encoding mint request: %w", err)
	}

	a.logger.Info("requesting new token", slog.String("url", creds.AccessTokenURI))

	status, respBody, err := a.do(ctx, http.MethodPost, creds.AccessTokenURI, bytes.NewReader(body), headers)
	if err != nil {
		return "", fmt.Errorf("graphclient: token request: %w", err)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return "", &APIError{StatusCode: status, Body: string(respBody), Err: ErrAuth}
	}

	var minted mintResponse
	if err := json.Unmarshal(respBody, &minted); err != nil {
		return "", fmt.Errorf("graphclient: decoding token response: %w", err)
	}

	if minted.AccessToken == "" {
		return "", fmt.Errorf("graphclient: token response missing access_token: %w", ErrAuth)
	}

	return minted.AccessToken, nil
}

// revoke deletes the current session on the server. The caller decides
// whether a failure is fatal (explicit close) or logged (expiry and renew
// paths, where a stale token may already be invalid server-side).
func (a *authority) revoke(ctx context.Context, baseURL, sessionEndpoint string, headers http.Header) error {
	url := baseURL + "/" + sessionEndpoint

	a.logger.Info("revoking session", slog.String("url", url))

	status, respBody, err := a.do(ctx, http.MethodDelete, url, nil, headers)
	if err != nil {
		return fmt.Errorf("graphclient: revoke request: %w", err)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &APIError{StatusCode: status, Body: string(respBody), Err: ErrAuth}
	}

	return nil
}

// do executes a single HTTP request and returns the status and full body.
// One attempt, no retry. Every network call funnels through here so request
// logging stays uniform.
func (a *authority) do(ctx context.Context, method, url string, body io.Reader, headers http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	a.logger.Debug("request",
		slog.String("method", method),
		slog.String("url", url),
	)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("request failed",
			slog.String("method", method),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)

		return 0, nil, err
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}

	a.logger.Debug("response",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
	)

	return resp.StatusCode, respBody, nil
}
