package geocoding

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/models"
)

const (
	// TomTomDomain is the default host of the TomTom search API.
	TomTomDomain = "api.tomtom.com"

	tomtomName        = "tomtom"
	tomtomGeocodePath = "/search/2/geocode/{query}.json"
	tomtomReversePath = "/search/2/reverseGeocode/{position}.json"
)

// TomTomProvider implements geocoding using the TomTom search API.
// TomTom has no batch endpoint, batch queries are sent one item at a time.
type TomTomProvider struct {
	apiKey string     // API key with search access
	search *searchAPI // Shared TomTom search logic
}

// NewTomTomProvider creates a TomTom provider on top of the shared geocoder client.
// An empty domain selects TomTomDomain.
func NewTomTomProvider(apiKey, domain string, client *geocoder.Client, log *slog.Logger) *TomTomProvider {
	if domain == "" {
		domain = TomTomDomain
	}

	provider := &TomTomProvider{apiKey: apiKey}
	provider.search = &searchAPI{
		provider:   tomtomName,
		client:     client,
		params:     provider,
		geocodeURL: client.Endpoint(domain, tomtomGeocodePath),
		reverseURL: client.Endpoint(domain, tomtomReversePath),
		log:        log,
	}

	return provider
}

// Name returns the provider name.
func (tp *TomTomProvider) Name() string {
	return tomtomName
}

// Geocode resolves addresses into locations.
func (tp *TomTomProvider) Geocode(ctx context.Context, query Query[string], opts GeocodeOptions) ([]Result, error) {
	return fanOut(ctx, query, 0, func(ctx context.Context, address string) ([]Result, error) {
		return tp.search.geocode(ctx, address, opts)
	})
}

// Reverse resolves points into addresses.
func (tp *TomTomProvider) Reverse(
	ctx context.Context,
	query Query[models.Point],
	opts ReverseOptions,
) ([]Result, error) {
	return fanOut(ctx, query, 0, func(ctx context.Context, point models.Point) ([]Result, error) {
		return tp.search.reverse(ctx, point, opts)
	})
}

func (tp *TomTomProvider) geocodeParams(_ string) url.Values {
	return url.Values{"key": {tp.apiKey}}
}

func (tp *TomTomProvider) reverseParams(_ string) url.Values {
	return url.Values{"key": {tp.apiKey}}
}
