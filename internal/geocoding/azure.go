package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"github.com/UnknownOlympus/meridian/internal/models"
)

const (
	// AzureDomain is the default host of the Azure Maps search API.
	AzureDomain = "atlas.microsoft.com"
	// AzureMaxBatchSize is the largest batch accepted by the synchronous batch endpoints.
	AzureMaxBatchSize = 1000

	azureName             = "azure"
	azureAPIVersion       = "1.0"
	azureGeocodePath      = "/search/address/json"
	azureReversePath      = "/search/address/reverse/json"
	azureBatchGeocodePath = "/search/address/batch/sync/json"
	azureBatchReversePath = "/search/address/reverse/batch/sync/json"
)

// AzureProvider implements geocoding using the Azure Maps search API.
// Single queries go through the TomTom search logic with Azure parameters,
// batch queries through the synchronous batch endpoints.
type AzureProvider struct {
	subscriptionKey string           // Azure Maps subscription key
	client          *geocoder.Client // Shared geocoder client
	search          *searchAPI       // Single query logic
	batchURL        string           // Forward batch endpoint
	reverseBatchURL string           // Reverse batch endpoint
	log             *slog.Logger     // Logger for logging operations
}

type azureBatchRequest struct {
	BatchItems []azureBatchItem `json:"batchItems"`
}

type azureBatchItem struct {
	Query string `json:"query"`
}

type azureBatchResponse struct {
	Error      json.RawMessage `json:"error"`
	BatchItems []struct {
		Response map[string]json.RawMessage `json:"response"`
	} `json:"batchItems"`
}

// batchCall describes one synchronous batch submission.
type batchCall struct {
	endpoint   string
	operation  string
	resultsKey string
	items      []azureBatchItem
	exactlyOne bool
	timeout    time.Duration
	language   string
}

// NewAzureProvider creates an Azure Maps provider on top of the shared geocoder client.
// An empty domain selects AzureDomain.
func NewAzureProvider(subscriptionKey, domain string, client *geocoder.Client, log *slog.Logger) *AzureProvider {
	if domain == "" {
		domain = AzureDomain
	}

	provider := &AzureProvider{
		subscriptionKey: subscriptionKey,
		client:          client,
		batchURL:        client.Endpoint(domain, azureBatchGeocodePath),
		reverseBatchURL: client.Endpoint(domain, azureBatchReversePath),
		log:             log,
	}
	provider.search = &searchAPI{
		provider:   azureName,
		client:     client,
		params:     provider,
		geocodeURL: client.Endpoint(domain, azureGeocodePath),
		reverseURL: client.Endpoint(domain, azureReversePath),
		log:        log,
	}

	return provider
}

// Name returns the provider name.
func (ap *AzureProvider) Name() string {
	return azureName
}

// Geocode resolves addresses into locations. Batch queries are submitted to
// the batch endpoint, up to AzureMaxBatchSize addresses per request; Limit and
// Typeahead only apply to single queries.
func (ap *AzureProvider) Geocode(ctx context.Context, query Query[string], opts GeocodeOptions) ([]Result, error) {
	if !query.IsBatch() {
		address, err := query.single()
		if err != nil {
			return nil, err
		}
		return ap.search.geocode(ctx, address, opts)
	}

	return geocoder.ApplyBatchwise(ctx, query.Items(), AzureMaxBatchSize,
		func(ctx context.Context, addresses []string) ([]Result, error) {
			return ap.batchGeocode(ctx, addresses, opts)
		})
}

// Reverse resolves points into addresses, batching like Geocode.
func (ap *AzureProvider) Reverse(
	ctx context.Context,
	query Query[models.Point],
	opts ReverseOptions,
) ([]Result, error) {
	if !query.IsBatch() {
		point, err := query.single()
		if err != nil {
			return nil, err
		}
		return ap.search.reverse(ctx, point, opts)
	}

	return geocoder.ApplyBatchwise(ctx, query.Items(), AzureMaxBatchSize,
		func(ctx context.Context, points []models.Point) ([]Result, error) {
			return ap.batchReverse(ctx, points, opts)
		})
}

func (ap *AzureProvider) batchGeocode(ctx context.Context, addresses []string, opts GeocodeOptions) ([]Result, error) {
	items := make([]azureBatchItem, 0, len(addresses))
	for _, address := range addresses {
		items = append(items, azureBatchItem{Query: batchItemQuery(url.QueryEscape(address), opts.ExactlyOne)})
	}

	return ap.submitBatch(ctx, batchCall{
		endpoint:   ap.batchURL,
		operation:  "batch_geocode",
		resultsKey: resultsKey,
		items:      items,
		exactlyOne: opts.ExactlyOne,
		timeout:    opts.Timeout,
		language:   firstLanguage(opts.Language),
	})
}

func (ap *AzureProvider) batchReverse(
	ctx context.Context,
	points []models.Point,
	opts ReverseOptions,
) ([]Result, error) {
	items := make([]azureBatchItem, 0, len(points))
	for _, point := range points {
		normalized, err := normalizeQueryPoint(point)
		if err != nil {
			return nil, err
		}
		position := geocoder.FormatPoint(normalized, geocoder.LatLng)
		items = append(items, azureBatchItem{Query: batchItemQuery(position, opts.ExactlyOne)})
	}

	return ap.submitBatch(ctx, batchCall{
		endpoint:   ap.reverseBatchURL,
		operation:  "batch_reverse",
		resultsKey: addressesKey,
		items:      items,
		exactlyOne: opts.ExactlyOne,
		timeout:    opts.Timeout,
		language:   firstLanguage(opts.Language),
	})
}

func (ap *AzureProvider) submitBatch(ctx context.Context, call batchCall) ([]Result, error) {
	params := ap.batchParams()
	if call.language != "" {
		params.Set("language", call.language)
	}

	ap.log.DebugContext(ctx, "Submitting Azure Maps batch", "operation", call.operation, "items", len(call.items))

	results, err := geocoder.Call(ctx, ap.client, geocoder.Request{
		Provider:  azureName,
		Operation: call.operation,
		Method:    http.MethodPost,
		URL:       call.endpoint + "?" + params.Encode(),
		Headers:   map[string]string{"Content-Type": "application/json"},
		Body:      azureBatchRequest{BatchItems: call.items},
		Timeout:   call.timeout,
	}, func(body json.RawMessage) ([]Result, error) {
		return parseAzureBatchResponse(body, call.resultsKey, call.exactlyOne)
	})
	if err != nil {
		return nil, err
	}

	if len(results) != len(call.items) {
		return nil, parseError(
			fmt.Sprintf("batch response has %d items, expected %d", len(results), len(call.items)), nil)
	}

	return results, nil
}

// parseAzureBatchResponse maps every batch item to a Result, in request order.
// A top-level "error" member fails the whole batch even on HTTP 200.
func parseAzureBatchResponse(body json.RawMessage, key string, exactlyOne bool) ([]Result, error) {
	var response azureBatchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, parseError("failed to decode batch response", err)
	}

	if len(response.Error) > 0 {
		return nil, geocoder.NewError(geocoder.ErrService, string(response.Error), nil)
	}

	results := make([]Result, 0, len(response.BatchItems))
	for _, item := range response.BatchItems {
		result, err := parseSearchResults(item.Response[key], exactlyOne)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func batchItemQuery(query string, exactlyOne bool) string {
	if exactlyOne {
		return "?limit=1&query=" + query
	}
	return "?query=" + query
}

func (ap *AzureProvider) batchParams() url.Values {
	return url.Values{
		"api-version":      {azureAPIVersion},
		"subscription-key": {ap.subscriptionKey},
	}
}

func (ap *AzureProvider) geocodeParams(query string) url.Values {
	params := ap.batchParams()
	params.Set("query", query)
	return params
}

func (ap *AzureProvider) reverseParams(position string) url.Values {
	params := ap.batchParams()
	params.Set("query", position)
	return params
}
