package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/models"
	"googlemaps.github.io/maps"
)

const googleName = "google"

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client   GoogleAPIClient   // client is the Google Maps API client
	log      *slog.Logger      // log is the logger for logging operations
	observer geocoder.Observer // observer receives request outcomes, may be nil
}

// GoogleAPIClient is the subset of *maps.Client used by GoogleProvider.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider initializes a new GoogleProvider with the given Google Maps client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Name returns the provider name.
func (gp *GoogleProvider) Name() string {
	return googleName
}

// Geocode takes a context and an address query as input, and returns the matching
// locations using the Google Maps Geocoding API. Batch queries are sent one address at a time.
func (gp *GoogleProvider) Geocode(ctx context.Context, query Query[string], opts GeocodeOptions) ([]Result, error) {
	return fanOut(ctx, query, 0, func(ctx context.Context, address string) ([]Result, error) {
		gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

		req := &maps.GeocodingRequest{Address: address, Language: firstLanguage(opts.Language)}
		if opts.BBox != nil {
			req.Bounds = googleBounds(*opts.BBox)
		}

		return gp.do(ctx, "geocode", opts.Timeout, opts.ExactlyOne, func(ctx context.Context) ([]maps.GeocodingResult, error) {
			return gp.client.Geocode(ctx, req)
		})
	})
}

// Reverse returns the addresses found at the given points.
func (gp *GoogleProvider) Reverse(
	ctx context.Context,
	query Query[models.Point],
	opts ReverseOptions,
) ([]Result, error) {
	return fanOut(ctx, query, 0, func(ctx context.Context, point models.Point) ([]Result, error) {
		point, err := normalizeQueryPoint(point)
		if err != nil {
			return nil, err
		}

		gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", point.Latitude, "lon", point.Longitude)

		req := &maps.GeocodingRequest{
			LatLng:   &maps.LatLng{Lat: point.Latitude, Lng: point.Longitude},
			Language: firstLanguage(opts.Language),
		}

		return gp.do(ctx, "reverse", opts.Timeout, opts.ExactlyOne, func(ctx context.Context) ([]maps.GeocodingResult, error) {
			return gp.client.ReverseGeocode(ctx, req)
		})
	})
}

func (gp *GoogleProvider) do(
	ctx context.Context,
	operation string,
	timeout time.Duration,
	exactlyOne bool,
	call func(ctx context.Context) ([]maps.GeocodingResult, error),
) ([]Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	startTime := time.Now()
	response, err := call(ctx)
	if err != nil {
		err = googleError(operation, err)
	}
	if gp.observer != nil {
		gp.observer.ObserveRequest(googleName, operation, time.Since(startTime), err)
	}
	if err != nil {
		return nil, err
	}

	locations := make([]models.Location, 0, len(response))
	for _, result := range response {
		locations = append(locations, models.Location{
			Address: result.FormattedAddress,
			Point:   models.NewPoint(result.Geometry.Location.Lat, result.Geometry.Location.Lng),
			Raw:     googlePayload(result),
		})
	}

	return []Result{newResult(locations, exactlyOne)}, nil
}

// googleError classifies failures like the shared geocoder client: transport
// and context errors by ClassifyTransportError, API statuses as ErrService.
func googleError(operation string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return geocoder.ClassifyTransportError(err)
	}
	return geocoder.NewError(geocoder.ErrService, "failed to "+operation+" with google maps", err)
}

func googleBounds(box models.BoundingBox) *maps.LatLngBounds {
	return &maps.LatLngBounds{
		NorthEast: maps.LatLng{
			Lat: math.Max(box.First.Latitude, box.Second.Latitude),
			Lng: math.Max(box.First.Longitude, box.Second.Longitude),
		},
		SouthWest: maps.LatLng{
			Lat: math.Min(box.First.Latitude, box.Second.Latitude),
			Lng: math.Min(box.First.Longitude, box.Second.Longitude),
		},
	}
}

func googlePayload(result maps.GeocodingResult) map[string]any {
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil
	}

	var payload map[string]any
	if err = json.Unmarshal(encoded, &payload); err != nil {
		return nil
	}

	return payload
}
