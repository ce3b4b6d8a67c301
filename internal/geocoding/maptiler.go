package geocoding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/models"
	"golang.org/x/text/language"
)

const (
	// MapTilerDomain is the default host of the MapTiler geocoding API.
	MapTilerDomain = "api.maptiler.com"
	// MapTilerMaxBatchSize is how many batch items are handled per chunk.
	MapTilerMaxBatchSize = 3

	maptilerName = "maptiler"
	maptilerPath = "/geocoding/{query}.json"
	centerLength = 2
)

// MapTilerProvider implements geocoding using the MapTiler geocoding API.
// MapTiler has no batch endpoint: batch queries issue one request per item.
type MapTilerProvider struct {
	apiKey   string           // API key with geocoding access
	client   *geocoder.Client // Shared geocoder client
	endpoint string           // URL template with a {query} placeholder
	log      *slog.Logger     // Logger for logging operations
}

type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"` // [lon, lat]
}

// NewMapTilerProvider creates a MapTiler provider on top of the shared geocoder client.
// An empty domain selects MapTilerDomain.
func NewMapTilerProvider(apiKey, domain string, client *geocoder.Client, log *slog.Logger) *MapTilerProvider {
	if domain == "" {
		domain = MapTilerDomain
	}

	return &MapTilerProvider{
		apiKey:   apiKey,
		client:   client,
		endpoint: client.Endpoint(domain, maptilerPath),
		log:      log,
	}
}

// Name returns the provider name.
func (mp *MapTilerProvider) Name() string {
	return maptilerName
}

// Geocode resolves addresses into locations.
func (mp *MapTilerProvider) Geocode(ctx context.Context, query Query[string], opts GeocodeOptions) ([]Result, error) {
	return fanOut(ctx, query, MapTilerMaxBatchSize, func(ctx context.Context, address string) ([]Result, error) {
		return mp.geocode(ctx, address, opts)
	})
}

// Reverse resolves points into addresses.
func (mp *MapTilerProvider) Reverse(
	ctx context.Context,
	query Query[models.Point],
	opts ReverseOptions,
) ([]Result, error) {
	return fanOut(ctx, query, MapTilerMaxBatchSize, func(ctx context.Context, point models.Point) ([]Result, error) {
		return mp.reverse(ctx, point, opts)
	})
}

func (mp *MapTilerProvider) geocode(ctx context.Context, address string, opts GeocodeOptions) ([]Result, error) {
	params := url.Values{"key": {mp.apiKey}}

	if opts.BBox != nil {
		params.Set("bbox", geocoder.FormatBoundingBox(*opts.BBox))
	}

	languages, err := canonicalLanguages(opts.Language)
	if err != nil {
		return nil, err
	}
	if languages != "" {
		params.Set("language", languages)
	}

	if opts.Proximity != nil {
		proximity, errPoint := normalizeQueryPoint(*opts.Proximity)
		if errPoint != nil {
			return nil, errPoint
		}
		params.Set("proximity", geocoder.FormatPoint(proximity, geocoder.LngLat))
	}

	mp.log.DebugContext(ctx, "Geocoding address", "provider", maptilerName, "address", address)

	return mp.call(ctx, "geocode", url.PathEscape(address), params, opts.ExactlyOne, opts.Timeout)
}

func (mp *MapTilerProvider) reverse(ctx context.Context, point models.Point, opts ReverseOptions) ([]Result, error) {
	point, err := normalizeQueryPoint(point)
	if err != nil {
		return nil, err
	}

	params := url.Values{"key": {mp.apiKey}}
	languages, err := canonicalLanguages(opts.Language)
	if err != nil {
		return nil, err
	}
	if languages != "" {
		params.Set("language", languages)
	}

	position := geocoder.FormatPoint(point, geocoder.LngLat)
	mp.log.DebugContext(ctx, "Reverse geocoding point", "provider", maptilerName, "position", position)

	return mp.call(ctx, "reverse", url.PathEscape(position), params, opts.ExactlyOne, opts.Timeout)
}

func (mp *MapTilerProvider) call(
	ctx context.Context,
	operation, escapedQuery string,
	params url.Values,
	exactlyOne bool,
	timeout time.Duration,
) ([]Result, error) {
	return geocoder.Call(ctx, mp.client, geocoder.Request{
		Provider:  maptilerName,
		Operation: operation,
		URL:       strings.ReplaceAll(mp.endpoint, "{query}", escapedQuery) + "?" + params.Encode(),
		Timeout:   timeout,
	}, func(body json.RawMessage) ([]Result, error) {
		return parseFeatureCollections(body, exactlyOne)
	})
}

// parseFeatureCollections accepts one feature collection or an array of them
// and returns one Result per collection.
func parseFeatureCollections(body json.RawMessage, exactlyOne bool) ([]Result, error) {
	body = bytes.TrimSpace(body)

	var collections []featureCollection
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &collections); err != nil {
			return nil, parseError("failed to decode feature collections", err)
		}
	} else {
		var collection featureCollection
		if err := json.Unmarshal(body, &collection); err != nil {
			return nil, parseError("failed to decode feature collection", err)
		}
		collections = append(collections, collection)
	}

	results := make([]Result, 0, len(collections))
	for _, collection := range collections {
		result, err := parseFeatureCollection(collection, exactlyOne)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func parseFeatureCollection(collection featureCollection, exactlyOne bool) (Result, error) {
	locations := make([]models.Location, 0, len(collection.Features))
	for _, raw := range collection.Features {
		location, err := parseFeature(raw)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
		if exactlyOne {
			break
		}
	}

	return newResult(locations, exactlyOne), nil
}

func parseFeature(raw json.RawMessage) (models.Location, error) {
	var feat feature
	if err := json.Unmarshal(raw, &feat); err != nil {
		return models.Location{}, parseError("failed to decode feature", err)
	}
	if len(feat.Center) < centerLength {
		return models.Location{}, parseError(fmt.Sprintf("feature %q has invalid center", feat.PlaceName), nil)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Location{}, parseError("failed to decode feature", err)
	}

	return models.Location{
		Address: feat.PlaceName,
		Point:   models.NewPoint(feat.Center[1], feat.Center[0]),
		Raw:     payload,
	}, nil
}

// canonicalLanguages validates BCP 47 tags and joins them with commas.
func canonicalLanguages(languages []string) (string, error) {
	tags := make([]string, 0, len(languages))
	for _, lang := range languages {
		tag, err := language.Parse(lang)
		if err != nil {
			return "", geocoder.NewError(geocoder.ErrQuery, fmt.Sprintf("invalid language %q", lang), err)
		}
		tags = append(tags, tag.String())
	}

	return strings.Join(tags, ","), nil
}
