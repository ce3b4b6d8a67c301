package geocoding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/models"
)

// Response keys holding the result list of forward and reverse searches.
const (
	resultsKey   = "results"
	addressesKey = "addresses"
)

// searchParams builds the vendor specific query parameters of a TomTom-style
// search API. The TomTom and Azure Maps providers implement it.
type searchParams interface {
	geocodeParams(query string) url.Values
	reverseParams(position string) url.Values
}

// searchAPI is the single-query forward/reverse logic of the TomTom search
// API. URL templates may contain {query} or {position} placeholders which
// are replaced with the path-escaped query.
type searchAPI struct {
	provider   string
	client     *geocoder.Client
	params     searchParams
	geocodeURL string
	reverseURL string
	log        *slog.Logger
}

type searchResult struct {
	Address struct {
		FreeformAddress string `json:"freeformAddress"`
	} `json:"address"`
	Position json.RawMessage `json:"position"`
}

type searchPosition struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (s *searchAPI) geocode(ctx context.Context, address string, opts GeocodeOptions) ([]Result, error) {
	params := s.params.geocodeParams(address)
	params.Set("typeahead", strconv.FormatBool(opts.Typeahead))
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.ExactlyOne {
		params.Set("limit", "1")
	}
	if language := firstLanguage(opts.Language); language != "" {
		params.Set("language", language)
	}

	endpoint := strings.ReplaceAll(s.geocodeURL, "{query}", url.PathEscape(address))
	s.log.DebugContext(ctx, "Geocoding address", "provider", s.provider, "address", address)

	result, err := geocoder.Call(ctx, s.client, geocoder.Request{
		Provider:  s.provider,
		Operation: "geocode",
		URL:       endpoint + "?" + params.Encode(),
		Timeout:   opts.Timeout,
	}, func(body json.RawMessage) (Result, error) {
		return parseSearchResponse(body, resultsKey, opts.ExactlyOne)
	})
	if err != nil {
		return nil, err
	}

	return []Result{result}, nil
}

func (s *searchAPI) reverse(ctx context.Context, point models.Point, opts ReverseOptions) ([]Result, error) {
	point, err := normalizeQueryPoint(point)
	if err != nil {
		return nil, err
	}

	position := geocoder.FormatPoint(point, geocoder.LatLng)
	params := s.params.reverseParams(position)
	if language := firstLanguage(opts.Language); language != "" {
		params.Set("language", language)
	}

	endpoint := strings.ReplaceAll(s.reverseURL, "{position}", url.PathEscape(position))
	s.log.DebugContext(ctx, "Reverse geocoding point", "provider", s.provider, "position", position)

	result, err := geocoder.Call(ctx, s.client, geocoder.Request{
		Provider:  s.provider,
		Operation: "reverse",
		URL:       endpoint + "?" + params.Encode(),
		Timeout:   opts.Timeout,
	}, func(body json.RawMessage) (Result, error) {
		return parseSearchResponse(body, addressesKey, opts.ExactlyOne)
	})
	if err != nil {
		return nil, err
	}

	return []Result{result}, nil
}

// parseSearchResponse reads the result list stored under key.
func parseSearchResponse(body json.RawMessage, key string, exactlyOne bool) (Result, error) {
	var response map[string]json.RawMessage
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, parseError("failed to decode search response", err)
	}

	return parseSearchResults(response[key], exactlyOne)
}

// parseSearchResults maps a JSON array of search results to a Result.
// A missing or empty array yields an empty Result.
func parseSearchResults(raw json.RawMessage, exactlyOne bool) (Result, error) {
	if len(raw) == 0 {
		return Result{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, parseError("failed to decode search results", err)
	}

	locations := make([]models.Location, 0, len(items))
	for _, item := range items {
		location, err := parseSearchResult(item)
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

func parseSearchResult(raw json.RawMessage) (models.Location, error) {
	var result searchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.Location{}, parseError("failed to decode search result", err)
	}

	point, err := parsePosition(result.Position)
	if err != nil {
		return models.Location{}, err
	}

	var payload map[string]any
	if err = json.Unmarshal(raw, &payload); err != nil {
		return models.Location{}, parseError("failed to decode search result", err)
	}

	return models.Location{
		Address: result.Address.FreeformAddress,
		Point:   point,
		Raw:     payload,
	}, nil
}

// parsePosition accepts either {"lat": .., "lon": ..} or "lat,lon". Both
// shapes are normalised: the latitude must be within ±90 and the longitude is
// wrapped into [-180, 180].
func parsePosition(raw json.RawMessage) (models.Point, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.Point{}, parseError("search result has no position", nil)
	}

	if raw[0] == '"' {
		var position string
		if err := json.Unmarshal(raw, &position); err != nil {
			return models.Point{}, parseError("failed to decode position", err)
		}
		point, err := geocoder.ParsePoint(position)
		if err != nil {
			return models.Point{}, parseError("failed to parse position", err)
		}
		return point, nil
	}

	var position searchPosition
	if err := json.Unmarshal(raw, &position); err != nil {
		return models.Point{}, parseError("failed to decode position", err)
	}
	if position.Lat == nil || position.Lon == nil {
		return models.Point{}, parseError(fmt.Sprintf("incomplete position %s", raw), nil)
	}

	point, err := geocoder.NormalizePoint(models.NewPoint(*position.Lat, *position.Lon))
	if err != nil {
		return models.Point{}, parseError("invalid position", err)
	}

	return point, nil
}

func parseError(message string, err error) error {
	return geocoder.NewError(geocoder.ErrParse, message, err)
}
