package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jpsystems/internal/pkg/async"
)

// errFetchNotRun covers the pool returning no result for a task while the
// context is still live, so the wrapped error is never nil.
var errFetchNotRun = errors.New("fetch task did not run")

// EventSource feeds visit records into the aggregation.
type EventSource interface {
	VisitsSince(t time.Time) ([]VisitRecord, error)
}

// RegistrationSource feeds registration records into the aggregation.
type RegistrationSource interface {
	RegistrationsSince(t time.Time) ([]RegistrationRecord, error)
}

// Service owns the current dashboard report. Refreshes fetch both sources
// concurrently and recompute from scratch; overlapping refreshes are
// serialized by a generation counter so a slow run never clobbers the result
// of a newer one.
type Service struct {
	events        EventSource
	registrations RegistrationSource
	logger        *slog.Logger

	mu         sync.Mutex
	current    *Report
	generation uint64
}

// NewService returns a Service over the given sources.
func NewService(events EventSource, registrations RegistrationSource, logger *slog.Logger) *Service {
	return &Service{
		events:        events,
		registrations: registrations,
		logger:        logger,
	}
}

// Refresh recomputes the report for the 14 local days ending on today's date.
// A fetch failure leaves the previously computed report untouched.
func (s *Service) Refresh(ctx context.Context, today time.Time) (*Report, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	loc := today.Location()
	local := today.In(loc)
	since := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -(WindowDays - 1))

	tasks := []async.Task{
		{
			Name: "visits",
			Execute: func() (interface{}, error) {
				return s.events.VisitsSince(since)
			},
		},
		{
			Name: "registrations",
			Execute: func() (interface{}, error) {
				return s.registrations.RegistrationsSince(since)
			},
		},
	}

	pool := async.NewPool(len(tasks))
	results := pool.Execute(ctx, tasks)

	visitsResult, ok := results["visits"]
	if !ok || visitsResult.Err != nil {
		err := fetchError(ctx, visitsResult)
		s.logger.Error("Failed to fetch visits for report", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch visits: %w", err)
	}
	regsResult, ok := results["registrations"]
	if !ok || regsResult.Err != nil {
		err := fetchError(ctx, regsResult)
		s.logger.Error("Failed to fetch registrations for report", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch registrations: %w", err)
	}

	visits, _ := visitsResult.Data.([]VisitRecord)
	registrations, _ := regsResult.Data.([]RegistrationRecord)

	report := ComputeReport(visits, registrations, today)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// A newer refresh started while this one ran; its result wins.
		s.logger.Debug("Discarding stale report refresh",
			slog.Uint64("generation", gen),
			slog.Uint64("latest", s.generation))
		return report, nil
	}
	s.current = report
	return report, nil
}

// fetchError resolves the cause of a failed or missing pool result. Always
// non-nil.
func fetchError(ctx context.Context, res async.Result) error {
	if res.Err != nil {
		return res.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errFetchNotRun
}

// Current returns the last successfully computed report, or nil before the
// first refresh completes.
func (s *Service) Current() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
