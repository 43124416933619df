package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client. It embeds
// *resty.Client to expose all of its methods directly, while allowing
// extension with engine-specific behavior.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a new HTTPClient with a default-configured underlying
// resty.Client. Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}
