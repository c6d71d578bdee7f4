package graphclient

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()

	assert.Equal(t, "session", o.sessionEndpoint)
	assert.Equal(t, "graphql", o.graphqlEndpoint)
	assert.Equal(t, 30*time.Second, o.timeout)
	assert.Equal(t, time.Hour, o.tokenLifespan)
	assert.False(t, o.insecure)
}

func TestBuildHTTPClient_Timeout(t *testing.T) {
	o := defaultOptions()
	WithTimeout(5 * time.Second)(&o)

	c := o.buildHTTPClient()
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestBuildHTTPClient_Insecure(t *testing.T) {
	o := defaultOptions()
	WithInsecure()(&o)

	c := o.buildHTTPClient()

	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestBuildHTTPClient_VerifiesByDefault(t *testing.T) {
	o := defaultOptions()

	c := o.buildHTTPClient()

	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, transport.TLSClientConfig)
}

func TestBuildHTTPClient_Proxy(t *testing.T) {
	proxy, err := url.Parse("http://proxy.internal:3128")
	require.NoError(t, err)

	o := defaultOptions()
	WithProxy(proxy)(&o)

	c := o.buildHTTPClient()

	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.Proxy)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/graphql", nil)
	require.NoError(t, err)

	got, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, proxy, got)
}

func TestBuildHTTPClient_InjectedClientWins(t *testing.T) {
	injected := &http.Client{Timeout: time.Second}

	o := defaultOptions()
	WithHTTPClient(injected)(&o)
	WithTimeout(time.Minute)(&o)

	assert.Same(t, injected, o.buildHTTPClient())
}

func TestWithEndpointOverrides(t *testing.T) {
	o := defaultOptions()
	WithSessionEndpoint("sessions/v2")(&o)
	WithGraphQLEndpoint("api/graphql")(&o)

	assert.Equal(t, "sessions/v2", o.sessionEndpoint)
	assert.Equal(t, "api/graphql", o.graphqlEndpoint)
}

func TestWithManageAndKeepToken_MarkSet(t *testing.T) {
	o := defaultOptions()
	assert.False(t, o.manageTokenSet)
	assert.False(t, o.keepTokenSet)

	WithManageToken(false)(&o)
	WithKeepToken(false)(&o)

	assert.True(t, o.manageTokenSet)
	assert.True(t, o.keepTokenSet)
	assert.False(t, o.manageToken)
	assert.False(t, o.keepToken)
}
