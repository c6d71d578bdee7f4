// Package keyfile reads JSON credential key files. A key file carries the
// client credentials and the token issuance URL for one GraphQL deployment.
// This is a leaf package: it never makes network calls and holds credential
// material only as long as the caller lets it.
package keyfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Credentials is the parsed content of a key file. All four fields are
// required. Callers must Zero the value once a session token is resolved so
// secrets do not linger on long-lived objects.
type Credentials struct {
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	Name           string `json:"name"`
	AccessTokenURI string `json:"access_token_uri"`
}

// Load reads and parses a key file. Any missing or empty required field is an
// error — a partially usable credential set is worse than none.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: reading %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("keyfile: decoding %s: %w", path, err)
	}

	if err := creds.validate(); err != nil {
		return nil, fmt.Errorf("keyfile: %s: %w", path, err)
	}

	return &creds, nil
}

func (c *Credentials) validate() error {
	missing := make([]string, 0, 4)

	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}

	if c.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}

	if c.Name == "" {
		missing = append(missing, "name")
	}

	if c.AccessTokenURI == "" {
		missing = append(missing, "access_token_uri")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}

	return nil
}

// BaseURL derives the API base URL by stripping the final path segment of the
// token issuance URL. "https://api.example.com/oauth/token" becomes
// "https://api.example.com/oauth".
func (c *Credentials) BaseURL() string {
	uri := c.AccessTokenURI
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[:idx]
	}

	return uri
}

// Zero overwrites every field. Called once the token is minted so the secret
// material's memory residency window stays as short as possible.
func (c *Credentials) Zero() {
	c.ClientID = ""
	c.ClientSecret = ""
	c.Name = ""
	c.AccessTokenURI = ""
}
