package geocoder_test

import (
	"math"
	"testing"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoint(t *testing.T) {
	t.Run("valid pair with spaces", func(t *testing.T) {
		point, err := geocoder.ParsePoint("40.7128, -74.0060")

		require.NoError(t, err)
		assert.Equal(t, models.NewPoint(40.7128, -74.006), point)
	})

	t.Run("longitude is wrapped", func(t *testing.T) {
		point, err := geocoder.ParsePoint("10,190")

		require.NoError(t, err)
		assert.InDelta(t, -170.0, point.Longitude, 1e-9)
	})

	invalid := []string{"", "40.7", "1,2,3", "abc,1", "1,abc", "91,0", "-90.5,0", "NaN,0"}
	for _, input := range invalid {
		t.Run("invalid "+input, func(t *testing.T) {
			_, err := geocoder.ParsePoint(input)

			require.ErrorIs(t, err, geocoder.ErrInvalidPoint)
		})
	}
}

func TestNormalizePoint(t *testing.T) {
	_, err := geocoder.NormalizePoint(models.NewPoint(0, math.Inf(1)))
	require.ErrorIs(t, err, geocoder.ErrInvalidPoint)

	point, err := geocoder.NormalizePoint(models.NewPoint(-45, -181))
	require.NoError(t, err)
	assert.InDelta(t, 179.0, point.Longitude, 1e-9)

	point, err = geocoder.NormalizePoint(models.NewPoint(0, 180))
	require.NoError(t, err)
	assert.InDelta(t, 180.0, point.Longitude, 0)
}

func TestFormatPoint(t *testing.T) {
	point := models.NewPoint(40.7128, -74.006)

	assert.Equal(t, "40.7128,-74.006", geocoder.FormatPoint(point, geocoder.LatLng))
	assert.Equal(t, "-74.006,40.7128", geocoder.FormatPoint(point, geocoder.LngLat))
	assert.Equal(t, "47,-122", geocoder.FormatPoint(models.NewPoint(47, -122), geocoder.LatLng))
}

func TestFormatBoundingBox(t *testing.T) {
	box := models.BoundingBox{
		First:  models.NewPoint(22, 180),
		Second: models.NewPoint(-22, -180),
	}

	assert.Equal(t, "-180,-22,180,22", geocoder.FormatBoundingBox(box))
}
