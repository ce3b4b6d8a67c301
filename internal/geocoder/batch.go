package geocoder

import "context"

// ApplyBatchwise splits items into chunks of at most maxSize, calls fn for
// each chunk in order and concatenates the results. Chunks are processed
// sequentially. A non-positive maxSize sends all items in one chunk.
func ApplyBatchwise[T, R any](
	ctx context.Context,
	items []T,
	maxSize int,
	fn func(ctx context.Context, chunk []T) ([]R, error),
) ([]R, error) {
	if maxSize <= 0 {
		maxSize = len(items)
	}

	results := make([]R, 0, len(items))
	for start := 0; start < len(items); start += maxSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+maxSize, len(items))
		chunkResults, err := fn(ctx, items[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, chunkResults...)
	}

	return results, nil
}
