package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoding"
	"github.com/UnknownOlympus/meridian/internal/metrics"
	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/UnknownOlympus/meridian/internal/repository"
)

// Task statuses reported to metrics.
const (
	statusSuccess  = "success"
	statusNotFound = "not_found"
	statusFailure  = "failure"

	errNoResults = "no results"
)

// GeocodingService provides methods for geocoding operations,
// including logging, repository access, provider integration
// and metrics tracking.
type GeocodingService struct {
	log           *slog.Logger         // Logger for logging service activities
	repo          repository.Interface // Interface for data repository access
	provider      geocoding.Provider   // Geocoding provider for external geocoding services
	metrics       *metrics.Metrics     // Metrics for tracking service performance
	batchSize     int                  // Maximum number of tasks geocoded per poll
	pollInterval  time.Duration        // Interval for polling geocoding updates
	addressPrefix string               // Address prefix for more accurate geocoding (indicating country, city, etc.)
	languages     []string             // Preferred result languages
}

// NewGeocodingService creates a new instance of GeocodingService.
// Every poll fetches up to batchSize tasks and geocodes them with a single
// batch query, prefixing each address with addressPrefix.
func NewGeocodingService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	metrics *metrics.Metrics,
	batchSize int,
	pollInterval time.Duration,
	addressPrefix string,
	languages []string,
) *GeocodingService {
	return &GeocodingService{
		log:           log,
		repo:          repo,
		provider:      provider,
		metrics:       metrics,
		batchSize:     batchSize,
		pollInterval:  pollInterval,
		addressPrefix: addressPrefix,
		languages:     languages,
	}
}

// Run starts the geocoding service, which periodically polls for new tasks to geocode.
// It listens for a cancellation signal from the context to gracefully stop the service.
func (gs *GeocodingService) Run(ctx context.Context) {
	ticker := time.NewTicker(gs.pollInterval)
	defer ticker.Stop()

	gs.log.InfoContext(ctx, "Geocoding service started...", "provider", gs.provider.Name())

	for {
		select {
		case <-ctx.Done():
			gs.log.InfoContext(ctx, "Geocoding service stopped.")
			return
		case <-ticker.C:
			gs.log.InfoContext(ctx, "Polling for new tasks to geocode...")
			gs.processTasks(ctx)
		}
	}
}

// processTasks fetches tasks for geocoding from the repository, geocodes all
// of them with one batch query and stores each result. A failed batch counts
// as a failed attempt for every task in it.
func (gs *GeocodingService) processTasks(ctx context.Context) {
	tasks, err := gs.repo.FetchTasksForGeocoding(ctx, gs.batchSize)
	if err != nil {
		gs.log.ErrorContext(ctx, "Failed to fetch tasks", "error", err)
		return
	}
	if len(tasks) == 0 {
		gs.log.InfoContext(ctx, "No tasks to process.")
		return
	}

	gs.log.InfoContext(ctx, "Found tasks to process.", "jobs", len(tasks))
	gs.metrics.BatchItems.Observe(float64(len(tasks)))

	addresses := make([]string, 0, len(tasks))
	for _, task := range tasks {
		addresses = append(addresses, gs.addressPrefix+task.Address)
	}

	results, err := gs.provider.Geocode(ctx, geocoding.Batch(addresses...), geocoding.GeocodeOptions{
		ExactlyOne: true,
		Language:   gs.languages,
	})
	if err != nil {
		gs.log.ErrorContext(ctx, "Failed to geocode batch", "tasks", len(tasks), "error", err)
		for _, task := range tasks {
			gs.recordFailure(ctx, task, statusFailure, err.Error())
		}
		return
	}

	for i, task := range tasks {
		var location models.Location
		found := false
		if i < len(results) {
			location, found = results[i].First()
		}
		if !found {
			gs.log.DebugContext(ctx, "No location found for task", "task", task.ID, "address", addresses[i])
			gs.recordFailure(ctx, task, statusNotFound, errNoResults)
			continue
		}

		if err = gs.repo.UpdateTaskLocation(ctx, task.ID, location); err != nil {
			gs.log.ErrorContext(ctx, "Failed to update location for task", "task", task.ID, "error", err)
			continue
		}
		gs.metrics.TaskProcessed.WithLabelValues(statusSuccess).Inc()
		gs.log.DebugContext(ctx, "Task geocoded", "task", task.ID,
			"lat", location.Point.Latitude, "lon", location.Point.Longitude)
	}

	gs.log.InfoContext(ctx, "Processing batch finished")
}

func (gs *GeocodingService) recordFailure(ctx context.Context, task models.Task, status, reason string) {
	gs.metrics.TaskProcessed.WithLabelValues(status).Inc()
	if err := gs.repo.IncrementFailureCount(ctx, task.ID, reason); err != nil {
		gs.log.ErrorContext(ctx, "Could not update failure count for task", "task", task.ID, "error", err)
	}
}
