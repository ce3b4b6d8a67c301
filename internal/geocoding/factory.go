package geocoding

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoder"
	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeAzure represents Azure Maps geocoding provider.
	ProviderTypeAzure ProviderType = "azure"
	// ProviderTypeMapTiler represents MapTiler geocoding provider.
	ProviderTypeMapTiler ProviderType = "maptiler"
	// ProviderTypeTomTom represents TomTom search geocoding provider.
	ProviderTypeTomTom ProviderType = "tomtom"
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
)

// ProviderConfig holds configuration for creating a geocoding provider.
// Everything except Type, APIKey and Domain is forwarded to the shared geocoder client.
type ProviderConfig struct {
	Type             ProviderType                              // Type of provider to create
	APIKey           string                                    // API or subscription key, required by every provider
	Domain           string                                    // Vendor host; empty selects the vendor default
	Scheme           string                                    // Network scheme, https by default
	Timeout          time.Duration                             // Default per-call timeout
	Proxy            string                                    // Proxy URL
	UserAgent        string                                    // User-Agent header value
	TLSConfig        *tls.Config                               // TLS settings
	TransportFactory func(http.RoundTripper) http.RoundTripper // Wraps the default transport
	HTTPClient       geocoder.HTTPClient                       // Replaces the HTTP stack, mostly for tests
	Observer         geocoder.Observer                         // Request observer for metrics
	Logger           *slog.Logger                              // Logger for the provider
}

// NewProvider creates a geocoding provider based on the provided configuration.
// It applies the Factory pattern to decouple provider instantiation from business logic.
//
// Supported provider types:
// - "azure": Azure Maps search API, with synchronous batch endpoints
// - "maptiler": MapTiler geocoding API
// - "tomtom": TomTom search API
// - "google": Google Maps Geocoding API
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	switch config.Type {
	case ProviderTypeAzure:
		return newAzureProvider(config)
	case ProviderTypeMapTiler:
		return newMapTilerProvider(config)
	case ProviderTypeTomTom:
		return newTomTomProvider(config)
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

func (config ProviderConfig) clientOptions() geocoder.Options {
	return geocoder.Options{
		Scheme:           config.Scheme,
		Timeout:          config.Timeout,
		Proxy:            config.Proxy,
		UserAgent:        config.UserAgent,
		TLSConfig:        config.TLSConfig,
		TransportFactory: config.TransportFactory,
		HTTPClient:       config.HTTPClient,
		Observer:         config.Observer,
		Logger:           config.Logger,
	}
}

func (config ProviderConfig) newClient() (*geocoder.Client, error) {
	client, err := geocoder.New(config.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder client: %w", err)
	}
	return client, nil
}

// newAzureProvider creates an Azure Maps geocoding provider.
func newAzureProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("subscription key is required for Azure Maps provider")
	}

	client, err := config.newClient()
	if err != nil {
		return nil, err
	}

	return NewAzureProvider(config.APIKey, config.Domain, client, config.Logger), nil
}

// newMapTilerProvider creates a MapTiler geocoding provider.
func newMapTilerProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for MapTiler provider")
	}

	client, err := config.newClient()
	if err != nil {
		return nil, err
	}

	return NewMapTilerProvider(config.APIKey, config.Domain, client, config.Logger), nil
}

// newTomTomProvider creates a TomTom geocoding provider.
func newTomTomProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for TomTom provider")
	}

	client, err := config.newClient()
	if err != nil {
		return nil, err
	}

	return NewTomTomProvider(config.APIKey, config.Domain, client, config.Logger), nil
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	httpClient, err := config.googleHTTPClient()
	if err != nil {
		return nil, err
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
		maps.WithHTTPClient(httpClient),
	}
	if config.Domain != "" {
		scheme := config.Scheme
		if scheme == "" {
			scheme = geocoder.DefaultScheme
		}
		clientOpts = append(clientOpts, maps.WithBaseURL(scheme+"://"+config.Domain))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	provider := NewGoogleProvider(client, config.Logger)
	provider.observer = config.Observer

	return provider, nil
}

// googleHTTPClient builds the *http.Client handed to the Google Maps client.
// Requests go through the injected HTTPClient when set, otherwise through
// the standard transport, and always carry the configured User-Agent.
func (config ProviderConfig) googleHTTPClient() (*http.Client, error) {
	doer := config.HTTPClient
	if doer == nil {
		httpClient, err := geocoder.NewHTTPClient(config.clientOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		doer = httpClient
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = geocoder.DefaultTimeout
	}

	return &http.Client{
		Transport: geocoder.NewTransport(doer, config.UserAgent),
		Timeout:   timeout,
	}, nil
}
