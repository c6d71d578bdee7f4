// Package graphclient is a GraphQL client with bearer-token session
// management. In authenticated mode a JSON key file supplies client
// credentials and a token issuance URL; the minted token is cached on disk
// next to the key file and reused until it ages out. In anonymous mode the
// caller supplies a base URL and no authentication is performed.
package graphclient

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification.
// Use errors.Is(err, graphclient.ErrAuth) to check.
var (
	// ErrKeyFile marks configuration failures: unreadable or malformed key
	// file, or one missing a required field.
	ErrKeyFile = errors.New("graphclient: invalid key file")

	// ErrAuth marks token mint or session revoke failures.
	ErrAuth = errors.New("graphclient: authentication failed")

	// ErrRequest marks GraphQL query transport or status failures.
	ErrRequest = errors.New("graphclient: request failed")

	// ErrAnonymous is returned by token lifecycle operations on a session
	// constructed without credentials.
	ErrAnonymous = errors.New("graphclient: anonymous session has no token lifecycle")
)

// APIError wraps a sentinel error with the HTTP status code and response body
// returned by the endpoint, for debugging.
type APIError struct {
	StatusCode int
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graphclient: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
