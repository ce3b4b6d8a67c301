package geocoding

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/models"
)

// Provider is an interface that defines forward and reverse geocoding.
// Both methods return one Result per query item, in query order.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, query Query[string], opts GeocodeOptions) ([]Result, error)
	Reverse(ctx context.Context, query Query[models.Point], opts ReverseOptions) ([]Result, error)
}

// ErrEmptyQuery is returned when a query carries no items.
var ErrEmptyQuery = errors.New("geocoding query has no items")

// Query is either a single item or an ordered batch of items.
type Query[T any] struct {
	items []T
	batch bool
}

// Single builds a query for one item.
func Single[T any](item T) Query[T] {
	return Query[T]{items: []T{item}}
}

// Batch builds a query for an ordered list of items.
func Batch[T any](items ...T) Query[T] {
	return Query[T]{items: items, batch: true}
}

// IsBatch reports whether the query was built with Batch.
func (q Query[T]) IsBatch() bool { return q.batch }

// Items returns the query items in order.
func (q Query[T]) Items() []T { return q.items }

// Len returns the number of query items.
func (q Query[T]) Len() int { return len(q.items) }

func (q Query[T]) single() (T, error) {
	if len(q.items) == 0 {
		var zero T
		return zero, ErrEmptyQuery
	}
	return q.items[0], nil
}

// Result holds the locations found for one query item. An empty Result means
// nothing was found.
type Result []models.Location

// First returns the best match, if any.
func (r Result) First() (models.Location, bool) {
	if len(r) == 0 {
		return models.Location{}, false
	}
	return r[0], true
}

// GeocodeOptions tunes a forward geocoding call. Vendors ignore the fields
// they do not support.
type GeocodeOptions struct {
	ExactlyOne bool                // Keep at most one location per query item
	Timeout    time.Duration       // Per-call timeout, overrides the client default
	Limit      int                 // Maximum number of results (TomTom, Azure single queries)
	Typeahead  bool                // Treat the query as partial input (TomTom, Azure single queries)
	Language   []string            // Preferred languages; single-language vendors use the first
	Proximity  *models.Point       // Bias results towards this point (MapTiler)
	BBox       *models.BoundingBox // Bias results to this viewport (MapTiler, Google)
}

// ReverseOptions tunes a reverse geocoding call.
type ReverseOptions struct {
	ExactlyOne bool          // Keep at most one location per query item
	Timeout    time.Duration // Per-call timeout, overrides the client default
	Language   []string      // Preferred languages; single-language vendors use the first
}

func newResult(locations []models.Location, exactlyOne bool) Result {
	if len(locations) == 0 {
		return Result{}
	}
	if exactlyOne {
		return Result(locations[:1])
	}
	return Result(locations)
}

func firstLanguage(languages []string) string {
	if len(languages) == 0 {
		return ""
	}
	return languages[0]
}

func normalizeQueryPoint(point models.Point) (models.Point, error) {
	normalized, err := geocoder.NormalizePoint(point)
	if err != nil {
		return models.Point{}, geocoder.NewError(geocoder.ErrQuery, "invalid query point", err)
	}
	return normalized, nil
}

// fanOut issues one request per query item for vendors without a batch
// endpoint. Items are processed sequentially, maxBatch at a time, and the
// per-item results are concatenated in query order.
func fanOut[T any](
	ctx context.Context,
	query Query[T],
	maxBatch int,
	single func(ctx context.Context, item T) ([]Result, error),
) ([]Result, error) {
	if !query.IsBatch() {
		item, err := query.single()
		if err != nil {
			return nil, err
		}
		return single(ctx, item)
	}

	return geocoder.ApplyBatchwise(ctx, query.Items(), maxBatch,
		func(ctx context.Context, chunk []T) ([]Result, error) {
			results := make([]Result, 0, len(chunk))
			for _, item := range chunk {
				itemResults, err := single(ctx, item)
				if err != nil {
					return nil, err
				}
				results = append(results, itemResults...)
			}
			return results, nil
		})
}
