package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/cartledger/cartledger-backend/internal/trips"
	"github.com/cartledger/cartledger-backend/pkg/db/models"
	"github.com/cartledger/cartledger-backend/pkg/logger"
	"github.com/cartledger/cartledger-backend/pkg/metrics"
)

const (
	staleTripCleanupJobName = "stale-trip-cleanup"
	defaultCleanupGrace     = 2 * time.Hour
)

type StaleTripCleanupJobParams struct {
	Logger     *logger.Logger
	Repository staleTripRepo
	Metrics    *metrics.CronJobMetrics
	Grace      time.Duration
}

type staleTripRepo interface {
	ClosedBefore(ctx context.Context, cutoff time.Time) ([]models.Trip, error)
	CheckedEvents(ctx context.Context, tripIDs []uuid.UUID) ([]models.ShoppingListEvent, error)
	ActiveKeys(ctx context.Context, cutoff time.Time) (map[trips.EventKey]struct{}, error)
	DeleteChecked(ctx context.Context, key trips.EventKey) (int64, error)
}

// HouseholdCleanup is one household's share of a cleanup run.
type HouseholdCleanup struct {
	Trips int   `json:"trips"`
	Items int64 `json:"items"`
}

// CleanupResult summarizes a cleanup run. Err combines the per-event failures,
// none of which stop the run.
type CleanupResult struct {
	Cutoff         time.Time                   `json:"cutoff"`
	TripsProcessed int                         `json:"trips_processed"`
	ItemsCleaned   int64                       `json:"items_cleaned"`
	EventsSkipped  int                         `json:"events_skipped"`
	ByHousehold    map[string]HouseholdCleanup `json:"by_household"`
	Err            error                       `json:"-"`
}

func NewStaleTripCleanupJob(params StaleTripCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("stale trip repository required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultCleanupGrace
	}
	return &staleTripCleanupJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		grace:   grace,
		now:     time.Now,
	}, nil
}

type staleTripCleanupJob struct {
	logg    *logger.Logger
	repo    staleTripRepo
	metrics *metrics.CronJobMetrics
	grace   time.Duration
	now     func() time.Time
}

func (j *staleTripCleanupJob) Name() string { return staleTripCleanupJobName }

func (j *staleTripCleanupJob) Run(ctx context.Context) error {
	result, err := j.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("stale trip cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          result.Cutoff,
		"trips_processed": result.TripsProcessed,
		"items_cleaned":   result.ItemsCleaned,
		"events_skipped":  result.EventsSkipped,
		"by_household":    result.ByHousehold,
	})
	if result.Err != nil {
		j.logg.WarnErr(logCtx, "stale trip cleanup finished with failures", result.Err)
		return nil
	}
	j.logg.Info(logCtx, "stale trip cleanup complete")
	return nil
}

// Cleanup purges checked list items belonging to trips closed before the
// grace cutoff. Items whose name was also checked off on a trip that is open
// or closed after the cutoff are kept.
func (j *staleTripCleanupJob) Cleanup(ctx context.Context) (*CleanupResult, error) {
	cutoff := j.now().UTC().Add(-j.grace)
	result := &CleanupResult{Cutoff: cutoff, ByHousehold: map[string]HouseholdCleanup{}}

	stale, err := j.repo.ClosedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select stale trips: %w", err)
	}
	if len(stale) == 0 {
		return result, nil
	}

	tripIDs := make([]uuid.UUID, 0, len(stale))
	for _, trip := range stale {
		tripIDs = append(tripIDs, trip.ID)
		entry := result.ByHousehold[trip.HouseholdCode]
		entry.Trips++
		result.ByHousehold[trip.HouseholdCode] = entry
	}
	result.TripsProcessed = len(stale)

	events, err := j.repo.CheckedEvents(ctx, tripIDs)
	if err != nil {
		return nil, fmt.Errorf("select checked events: %w", err)
	}
	active, err := j.repo.ActiveKeys(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select active trip items: %w", err)
	}

	done := map[trips.EventKey]struct{}{}
	for _, ev := range events {
		key := trips.EventKey{HouseholdCode: ev.HouseholdCode, ItemName: ev.ItemName}
		if _, ok := done[key]; ok {
			continue
		}
		done[key] = struct{}{}
		if _, ok := active[key]; ok {
			result.EventsSkipped++
			continue
		}
		deleted, err := j.repo.DeleteChecked(ctx, key)
		if err != nil {
			result.Err = multierr.Append(result.Err, fmt.Errorf("event %s: %w", ev.ID, err))
			j.logg.WarnErr(j.logg.WithFields(ctx, map[string]any{
				"event_id":       ev.ID.String(),
				"household_code": ev.HouseholdCode,
			}), "failed to clear checked items for event", err)
			continue
		}
		result.ItemsCleaned += deleted
		entry := result.ByHousehold[ev.HouseholdCode]
		entry.Items += deleted
		result.ByHousehold[ev.HouseholdCode] = entry
	}

	j.metrics.AddPurged(j.Name(), int(result.ItemsCleaned))
	return result, nil
}
