package service

import (
	"context"
	"sync"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/job"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/types"
	"golang.org/x/sync/errgroup"
)

// FigureFetcher fetches figure records from the upstream API
type FigureFetcher interface {
	FetchFigureByName(ctx context.Context, name string) (*types.FigureRecord, error)
	FetchFiguresByParty(ctx context.Context, party string) ([]*types.FigureRecord, error)
	FetchAllFigures(ctx context.Context) ([]*types.FigureRecord, error)
}

// FigureStore persists figure records
type FigureStore interface {
	Upsert(ctx context.Context, rec *types.FigureRecord) (*models.Figure, error)
}

// CacheInvalidator drops cache entries made stale by a write
type CacheInvalidator interface {
	InvalidateFigure(ctx context.Context, figureID string) error
	InvalidateDerived(ctx context.Context) error
}

// FigureSyncService orchestrates fetch, map, upsert and cache invalidation
// for figures. Batch entry points isolate per-item failures: one bad figure
// never aborts the rest of the batch.
type FigureSyncService struct {
	fetcher FigureFetcher
	store   FigureStore
	cache   CacheInvalidator
	tracker *job.StatusTracker
	workers int
	logger  *logging.Logger
}

// NewFigureSyncService creates a new figure sync service
func NewFigureSyncService(
	fetcher FigureFetcher,
	store FigureStore,
	cache CacheInvalidator,
	tracker *job.StatusTracker,
	workers int,
) *FigureSyncService {
	if workers <= 0 {
		workers = 8
	}
	return &FigureSyncService{
		fetcher: fetcher,
		store:   store,
		cache:   cache,
		tracker: tracker,
		workers: workers,
		logger:  logging.GetLogger().WithField("component", "figure_sync"),
	}
}

// SyncOne fetches one figure by name, upserts it and invalidates its cache
// entries. Invalidation runs strictly after the store commit; a cache fault
// at that point is logged but does not fail the sync.
func (s *FigureSyncService) SyncOne(ctx context.Context, name string) (*models.Figure, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "must not be blank")
	}

	rec, err := s.fetcher.FetchFigureByName(ctx, name)
	if err != nil {
		return nil, err
	}

	figure, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, figure.FigureID)

	s.logger.WithFields(map[string]interface{}{
		"figureId": figure.FigureID,
		"name":     figure.Name,
	}).Info("Figure synced")
	return figure, nil
}

// SyncMany syncs a list of figures by name, isolating per-item failures.
// The returned result counts every requested name exactly once.
func (s *FigureSyncService) SyncMany(ctx context.Context, names []string) *types.BatchResult {
	result := &types.BatchResult{}
	for _, name := range names {
		if _, err := s.SyncOne(ctx, name); err != nil {
			s.logger.WithError(err).WithField("name", name).Warn("Figure sync failed")
			result.FailCount++
			result.FailedKeys = append(result.FailedKeys, name)
			continue
		}
		result.SuccessCount++
	}
	return result
}

// SyncManyAsync runs SyncMany on a bounded worker pool in the background and
// returns a job id immediately. Progress is visible through the status
// tracker. The job runs detached from the caller's request context.
func (s *FigureSyncService) SyncManyAsync(names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.NewValidationError("names", "must not be empty")
	}

	jobID := s.tracker.StartJob(len(names))

	go func() {
		ctx := context.Background()

		g := new(errgroup.Group)
		g.SetLimit(s.workers)

		for _, name := range names {
			name := name
			g.Go(func() error {
				if _, err := s.SyncOne(ctx, name); err != nil {
					s.logger.WithError(err).WithFields(map[string]interface{}{
						"jobId": jobID,
						"name":  name,
					}).Warn("Async figure sync failed")
					s.tracker.RecordFailure(jobID)
					return nil
				}
				s.tracker.RecordSuccess(jobID)
				return nil
			})
		}

		_ = g.Wait() // workers swallow their own errors
		s.tracker.MarkCompleted(jobID)

		status := s.tracker.Get(jobID)
		s.logger.WithFields(map[string]interface{}{
			"jobId":   jobID,
			"success": status.SuccessCount,
			"failed":  status.FailCount,
		}).Info("Async figure sync finished")
	}()

	return jobID, nil
}

// SyncParty fetches every figure of one party and upserts them.
// Fetch failure aborts; upsert failures are isolated per figure.
func (s *FigureSyncService) SyncParty(ctx context.Context, party string) (*types.BatchResult, error) {
	if party == "" {
		return nil, errors.NewValidationError("party", "must not be blank")
	}

	records, err := s.fetcher.FetchFiguresByParty(ctx, party)
	if err != nil {
		return nil, err
	}

	result := s.upsertRecords(ctx, records)
	s.logger.WithFields(map[string]interface{}{
		"party":   party,
		"success": result.SuccessCount,
		"failed":  result.FailCount,
	}).Info("Party sync finished")
	return result, nil
}

// SyncAll fetches the entire roster and upserts every figure.
func (s *FigureSyncService) SyncAll(ctx context.Context) (*types.BatchResult, error) {
	records, err := s.fetcher.FetchAllFigures(ctx)
	if err != nil {
		return nil, err
	}

	result := s.upsertRecords(ctx, records)
	s.logger.WithFields(map[string]interface{}{
		"total":   result.Total(),
		"success": result.SuccessCount,
		"failed":  result.FailCount,
	}).Info("Full roster sync finished")
	return result, nil
}

// SyncAllAsync runs SyncAll in the background on the worker pool, fanned out
// per figure record, and returns a job id. The roster fetch itself happens
// inside the job; a fetch failure marks the whole job failed.
func (s *FigureSyncService) SyncAllAsync() string {
	// Total is unknown until the roster fetch completes, so the job starts
	// with zero tasks and is reconciled below via per-record counters.
	jobID := s.tracker.StartJob(0)

	go func() {
		ctx := context.Background()

		records, err := s.fetcher.FetchAllFigures(ctx)
		if err != nil {
			s.logger.WithError(err).WithField("jobId", jobID).Error("Roster fetch failed")
			s.tracker.MarkFailed(jobID, err.Error())
			return
		}
		s.tracker.SetTotal(jobID, len(records))

		result := s.upsertConcurrent(ctx, records, func(err error) {
			if err != nil {
				s.tracker.RecordFailure(jobID)
				return
			}
			s.tracker.RecordSuccess(jobID)
		})
		s.tracker.MarkCompleted(jobID)

		s.logger.WithFields(map[string]interface{}{
			"jobId":   jobID,
			"success": result.SuccessCount,
			"failed":  result.FailCount,
		}).Info("Async roster sync finished")
	}()

	return jobID
}

// upsertRecords applies records sequentially with per-record isolation
func (s *FigureSyncService) upsertRecords(ctx context.Context, records []*types.FigureRecord) *types.BatchResult {
	result := &types.BatchResult{}
	for _, rec := range records {
		if err := s.upsertOne(ctx, rec); err != nil {
			s.logger.WithError(err).WithField("figureId", rec.FigureID).Warn("Figure upsert failed")
			result.FailCount++
			result.FailedKeys = append(result.FailedKeys, rec.FigureID)
			continue
		}
		result.SuccessCount++
	}
	return result
}

// upsertConcurrent applies records on the bounded worker pool.
// Same-figure writes are still serialized by the store's per-key lock.
// onDone, when not nil, fires once per record as its worker finishes, so
// callers can publish progress while the batch is still running.
func (s *FigureSyncService) upsertConcurrent(ctx context.Context, records []*types.FigureRecord, onDone func(err error)) *types.BatchResult {
	var mu sync.Mutex
	result := &types.BatchResult{}

	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			err := s.upsertOne(ctx, rec)
			if onDone != nil {
				onDone(err)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.WithError(err).WithField("figureId", rec.FigureID).Warn("Figure upsert failed")
				result.FailCount++
				result.FailedKeys = append(result.FailedKeys, rec.FigureID)
			} else {
				result.SuccessCount++
			}
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (s *FigureSyncService) upsertOne(ctx context.Context, rec *types.FigureRecord) error {
	figure, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return err
	}
	s.invalidate(ctx, figure.FigureID)
	return nil
}

// invalidate drops the figure's cache entries after a committed write
func (s *FigureSyncService) invalidate(ctx context.Context, figureID string) {
	if err := s.cache.InvalidateFigure(ctx, figureID); err != nil {
		s.logger.WithError(err).WithField("figureId", figureID).Warn("Cache invalidation failed")
	}
}
