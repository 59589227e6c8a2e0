package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/coord-weather/internal/metrics"
)

// RunOptions tunes a single orchestrator run.
type RunOptions struct {
	// Delay is slept between consecutive provider calls, never after the last one.
	Delay time.Duration

	// FailFast aborts the batch on the first failed coordinate. Otherwise the
	// failure is recorded in Result.Errors and the batch continues.
	FailFast bool
}

// Service fetches and normalizes current weather for a list of coordinates,
// one provider call at a time.
type Service struct {
	providers ProviderFactory
	logger    *slog.Logger
}

// NewService creates a new Service. A nil logger falls back to slog.Default.
func NewService(providers ProviderFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		providers: providers,
		logger:    logger,
	}
}

// Run resolves providerName and fetches each coordinate in order. Provider
// resolution errors (unknown name, missing key) are returned before any
// network call. With FailFast the readings gathered so far are returned
// together with the error.
func (s *Service) Run(ctx context.Context, providerName string, coords []Coordinate, opts RunOptions) (Result, error) {
	p, err := s.providers.New(providerName)
	if err != nil {
		return Result{}, err
	}

	log := s.logger.With("provider", p.Name())
	log.Debug("fetch run started", "coordinates", len(coords), "delay", opts.Delay, "fail_fast", opts.FailFast)

	result := Result{Readings: make([]Reading, 0, len(coords))}
	for i, c := range coords {
		if i > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return result, err
			}
		}

		reading, err := s.fetchOne(ctx, p, c)
		if err != nil {
			metrics.Readings.WithLabelValues(p.Name(), "error").Inc()
			log.Warn("coordinate failed", "coordinate", c.String(), "error", err)

			if opts.FailFast {
				return result, fmt.Errorf("fetch %s: %w", c, err)
			}
			result.Errors = append(result.Errors, CoordinateError{
				Provider:   p.Name(),
				Coordinate: c,
				Message:    err.Error(),
			})
			continue
		}

		metrics.Readings.WithLabelValues(p.Name(), "ok").Inc()
		log.Debug("coordinate fetched", "coordinate", c.String())
		result.Readings = append(result.Readings, reading)
	}

	log.Debug("fetch run completed", "readings", len(result.Readings), "errors", len(result.Errors))
	return result, nil
}

func (s *Service) fetchOne(ctx context.Context, p Provider, c Coordinate) (Reading, error) {
	raw, err := p.FetchCurrent(ctx, c)
	if err != nil {
		return Reading{}, err
	}
	return p.Normalize(c, raw)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
