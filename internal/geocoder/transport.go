package geocoder

import "net/http"

// clientTransport sends requests through an HTTPClient and stamps the
// User-Agent header on each of them.
type clientTransport struct {
	client    HTTPClient
	userAgent string
}

// NewTransport adapts client to an http.RoundTripper for libraries that need
// an *http.Client. An empty userAgent selects DefaultUserAgent.
func NewTransport(client HTTPClient, userAgent string) http.RoundTripper {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &clientTransport{client: client, userAgent: userAgent}
}

func (t *clientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.client.Do(req)
}
