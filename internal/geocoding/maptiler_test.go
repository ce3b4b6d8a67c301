package geocoding_test

import (
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/geocoding"
	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parisResponse = `{
	"type": "FeatureCollection",
	"features": [
		{"id": "place.1", "place_name": "Paris, France", "center": [2.3483915, 48.8534951]},
		{"id": "place.2", "place_name": "Paris, Texas, United States", "center": [-95.555513, 33.6617962]}
	],
	"query": ["paris"]
}`

func TestMapTilerProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("forward request with bias parameters", func(t *testing.T) {
		client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "api.maptiler.com", req.URL.Host)
			assert.Equal(t, "/geocoding/Paris%2C%20France.json", req.URL.EscapedPath())

			query := req.URL.Query()
			assert.Equal(t, "test-key", query.Get("key"))
			assert.Equal(t, "2.2,48.8,2.5,48.9", query.Get("bbox"))
			assert.Equal(t, "de,en-GB", query.Get("language"))
			assert.Equal(t, "2.35,48.85", query.Get("proximity"))

			return jsonResponse(http.StatusOK, parisResponse), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Geocode(ctx, geocoding.Single("Paris, France"), geocoding.GeocodeOptions{
			ExactlyOne: true,
			Language:   []string{"DE", "en-gb"},
			Proximity:  &models.Point{Latitude: 48.85, Longitude: 2.35},
			BBox: &models.BoundingBox{
				First:  models.NewPoint(48.9, 2.5),
				Second: models.NewPoint(48.8, 2.2),
			},
		})

		require.NoError(t, err)
		want := []geocoding.Result{
			{{Address: "Paris, France", Point: models.NewPoint(48.8534951, 2.3483915)}},
		}
		if diff := cmp.Diff(want, results, ignoreRaw()); diff != "" {
			t.Errorf("unexpected results (-want +got):\n%s", diff)
		}
		assert.Equal(t, "place.1", results[0][0].Raw["id"])
	})

	t.Run("all features without exactly one", func(t *testing.T) {
		client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
			assert.False(t, req.URL.Query().Has("bbox"))
			assert.False(t, req.URL.Query().Has("language"))
			assert.False(t, req.URL.Query().Has("proximity"))
			return jsonResponse(http.StatusOK, parisResponse), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Geocode(ctx, geocoding.Single("paris"), geocoding.GeocodeOptions{})

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Len(t, results[0], 2)
		assert.Equal(t, "Paris, Texas, United States", results[0][1].Address)
	})

	t.Run("empty features", func(t *testing.T) {
		client := newTestClient(t, func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"type": "FeatureCollection", "features": []}`), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Geocode(ctx, geocoding.Single("xyzzy"), geocoding.GeocodeOptions{ExactlyOne: true})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Empty(t, results[0])
	})

	t.Run("array of feature collections", func(t *testing.T) {
		client := newTestClient(t, func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `[
				{"features": [{"place_name": "Bern", "center": [7.4474, 46.948]}]},
				{"features": []}
			]`), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Geocode(ctx, geocoding.Single("Bern;Nowhere"), geocoding.GeocodeOptions{})

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Bern", results[0][0].Address)
		assert.Empty(t, results[1])
	})

	t.Run("batch fans out in order", func(t *testing.T) {
		var paths []string
		client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
			paths = append(paths, req.URL.Path)
			name := strings.TrimSuffix(strings.TrimPrefix(req.URL.Path, "/geocoding/"), ".json")
			if name == "missing" {
				return jsonResponse(http.StatusOK, `{"features": []}`), nil
			}
			return jsonResponse(http.StatusOK,
				`{"features": [{"place_name": "`+name+`", "center": [1, 2]}]}`), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Geocode(ctx,
			geocoding.Batch("alpha", "missing", "gamma", "delta"),
			geocoding.GeocodeOptions{ExactlyOne: true},
		)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"/geocoding/alpha.json",
			"/geocoding/missing.json",
			"/geocoding/gamma.json",
			"/geocoding/delta.json",
		}, paths)
		require.Len(t, results, 4)
		assert.Equal(t, "alpha", results[0][0].Address)
		assert.Empty(t, results[1])
		assert.Equal(t, "gamma", results[2][0].Address)
		assert.Equal(t, "delta", results[3][0].Address)
	})

	t.Run("batch stops on first error", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, func(_ *http.Request) (*http.Response, error) {
			calls++
			return jsonResponse(http.StatusInternalServerError, `{"message": "boom"}`), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Geocode(ctx, geocoding.Batch("a", "b", "c"), geocoding.GeocodeOptions{})

		require.Nil(t, results)
		require.ErrorIs(t, err, geocoder.ErrService)
		assert.Equal(t, 1, calls)
	})

	t.Run("invalid language", func(t *testing.T) {
		provider := geocoding.NewMapTilerProvider("test-key", "", newTestClient(t, unexpectedCall(t)), logger)

		_, err := provider.Geocode(ctx, geocoding.Single("paris"), geocoding.GeocodeOptions{
			Language: []string{"not a language tag"},
		})

		require.ErrorIs(t, err, geocoder.ErrQuery)
	})

	t.Run("feature without center", func(t *testing.T) {
		client := newTestClient(t, func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"features": [{"place_name": "Broken", "center": [1]}]}`), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		_, err := provider.Geocode(ctx, geocoding.Single("broken"), geocoding.GeocodeOptions{})

		require.ErrorIs(t, err, geocoder.ErrParse)
	})
}

func TestMapTilerProvider_Reverse(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("coordinates are sent as lon,lat", func(t *testing.T) {
		client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/geocoding/-74.006%2C40.7128.json", req.URL.EscapedPath())
			assert.Equal(t, "en", req.URL.Query().Get("language"))
			return jsonResponse(http.StatusOK, `{"features": [
				{"place_name": "New York City Hall, New York, United States", "center": [-74.006, 40.7128]}
			]}`), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Reverse(ctx,
			geocoding.Single(models.NewPoint(40.7128, -74.0060)),
			geocoding.ReverseOptions{ExactlyOne: true, Language: []string{"en"}},
		)

		require.NoError(t, err)
		location, ok := results[0].First()
		require.True(t, ok)
		assert.InDelta(t, 40.7128, location.Point.Latitude, 1e-9)
		assert.InDelta(t, -74.0060, location.Point.Longitude, 1e-9)
	})

	t.Run("longitude is wrapped", func(t *testing.T) {
		client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/geocoding/-170%2C10.json", req.URL.EscapedPath())
			return jsonResponse(http.StatusOK, `{"features": []}`), nil
		})
		provider := geocoding.NewMapTilerProvider("test-key", "", client, logger)

		results, err := provider.Reverse(ctx, geocoding.Single(models.NewPoint(10, 190)), geocoding.ReverseOptions{})

		require.NoError(t, err)
		assert.Empty(t, results[0])
	})
}
