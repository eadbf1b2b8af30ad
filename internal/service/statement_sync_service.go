package service

import (
	"context"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/types"
)

// StatementFetcher fetches statement records from the upstream feed
type StatementFetcher interface {
	FetchStatementsByFigure(ctx context.Context, figureName string) ([]*types.StatementRecord, error)
}

// FigureLookup resolves figure names to stored figures
type FigureLookup interface {
	GetByName(ctx context.Context, name string) (*models.Figure, error)
}

// StatementStore persists statements in the archive
type StatementStore interface {
	Insert(ctx context.Context, s *models.Statement) error
	BatchInsert(ctx context.Context, statements []*models.Statement) error
	ExistsByOriginalURL(ctx context.Context, originalURL string) (bool, error)
}

// StatementSyncService ingests public statements for tracked figures.
// The archive is append-only; the source URL is the dedup key, and a
// statement that is already archived is a successful no-op.
type StatementSyncService struct {
	fetcher StatementFetcher
	figures FigureLookup
	store   StatementStore
	logger  *logging.Logger
}

// NewStatementSyncService creates a new statement sync service
func NewStatementSyncService(fetcher StatementFetcher, figures FigureLookup, store StatementStore) *StatementSyncService {
	return &StatementSyncService{
		fetcher: fetcher,
		figures: figures,
		store:   store,
		logger:  logging.GetLogger().WithField("component", "statement_sync"),
	}
}

// SyncByFigure fetches and archives recent statements for one figure.
// Per-statement failures are isolated; duplicates count as successes.
func (s *StatementSyncService) SyncByFigure(ctx context.Context, figureName string) (*types.BatchResult, error) {
	if figureName == "" {
		return nil, errors.NewValidationError("figureName", "must not be blank")
	}

	figure, err := s.figures.GetByName(ctx, figureName)
	if err != nil {
		return nil, err
	}
	if figure == nil {
		return nil, errors.NewNotFoundError("figure", figureName)
	}

	records, err := s.fetcher.FetchStatementsByFigure(ctx, figureName)
	if err != nil {
		return nil, err
	}

	result := &types.BatchResult{}
	var fresh []*models.Statement
	for _, rec := range records {
		exists, err := s.store.ExistsByOriginalURL(ctx, rec.OriginalURL)
		if err != nil {
			s.logger.WithError(err).WithField("url", rec.OriginalURL).Warn("Statement dedup check failed")
			result.FailCount++
			result.FailedKeys = append(result.FailedKeys, rec.OriginalURL)
			continue
		}
		if exists {
			// Already archived; a re-sync of the same feed is a no-op.
			s.logger.WithField("url", rec.OriginalURL).Debug("Skipping already archived statement")
			result.SuccessCount++
			continue
		}
		fresh = append(fresh, models.FromStatementRecord(rec, figure.FigureID))
	}

	s.insertFresh(ctx, fresh, result)

	s.logger.WithFields(map[string]interface{}{
		"figure":  figureName,
		"success": result.SuccessCount,
		"failed":  result.FailCount,
	}).Info("Statement sync finished")
	return result, nil
}

// SyncManyFigures syncs statements for several figures, isolating failures
// per figure. Figure-level results are merged into one batch result.
func (s *StatementSyncService) SyncManyFigures(ctx context.Context, figureNames []string) *types.BatchResult {
	total := &types.BatchResult{}
	for _, name := range figureNames {
		result, err := s.SyncByFigure(ctx, name)
		if err != nil {
			s.logger.WithError(err).WithField("figure", name).Warn("Statement sync failed for figure")
			total.FailCount++
			total.FailedKeys = append(total.FailedKeys, name)
			continue
		}
		total.SuccessCount += result.SuccessCount
		total.FailCount += result.FailCount
		total.FailedKeys = append(total.FailedKeys, result.FailedKeys...)
	}
	return total
}

// insertFresh archives new statements as one batch. The archive prefers
// batched inserts; a rejected batch is retried row by row so a single bad
// row cannot sink its siblings.
func (s *StatementSyncService) insertFresh(ctx context.Context, fresh []*models.Statement, result *types.BatchResult) {
	if len(fresh) == 0 {
		return
	}

	err := s.store.BatchInsert(ctx, fresh)
	if err == nil {
		result.SuccessCount += len(fresh)
		return
	}
	s.logger.WithError(err).WithField("rows", len(fresh)).Warn("Statement batch rejected, retrying rows individually")

	for _, stmt := range fresh {
		if err := s.store.Insert(ctx, stmt); err != nil {
			s.logger.WithError(err).WithField("url", stmt.OriginalURL).Warn("Statement archive failed")
			result.FailCount++
			result.FailedKeys = append(result.FailedKeys, stmt.OriginalURL)
			continue
		}
		result.SuccessCount++
	}
}
