package geocoding_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(t *testing.T, doFunc func(req *http.Request) (*http.Response, error)) *geocoder.Client {
	t.Helper()

	client, err := geocoder.New(geocoder.Options{
		HTTPClient: &mockHTTPClient{doFunc: doFunc},
		Logger:     slog.Default(),
	})
	require.NoError(t, err)

	return client
}

// unexpectedCall fails the test if the HTTP client is used at all.
func unexpectedCall(t *testing.T) func(req *http.Request) (*http.Response, error) {
	t.Helper()
	return func(req *http.Request) (*http.Response, error) {
		t.Errorf("unexpected request to %s", req.URL)
		return jsonResponse(http.StatusInternalServerError, `{}`), nil
	}
}
