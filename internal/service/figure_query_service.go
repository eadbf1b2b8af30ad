package service

import (
	"context"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/storage"
)

// FigureReader serves figure reads from the store
type FigureReader interface {
	GetByFigureID(ctx context.Context, figureID string) (*models.Figure, error)
	ListByParty(ctx context.Context, party string) ([]*models.Figure, error)
	ListPopular(ctx context.Context, limit int) ([]*models.Figure, error)
	Search(ctx context.Context, keyword string) ([]*models.Figure, error)
	IncrementViewCount(ctx context.Context, figureID string) error
}

// FigureQueryService serves figure reads through the cache. Misses fall
// through to the store and populate the cache; empty results are never
// cached so newly synced figures become visible immediately.
type FigureQueryService struct {
	store  FigureReader
	cache  *storage.CacheService
	logger *logging.Logger
}

// NewFigureQueryService creates a new figure query service
func NewFigureQueryService(store FigureReader, cache *storage.CacheService) *FigureQueryService {
	return &FigureQueryService{
		store:  store,
		cache:  cache,
		logger: logging.GetLogger().WithField("component", "figure_query"),
	}
}

// GetFigure retrieves one figure by external id and bumps its view count
func (s *FigureQueryService) GetFigure(ctx context.Context, figureID string) (*models.Figure, error) {
	if figureID == "" {
		return nil, errors.NewValidationError("figureId", "must not be blank")
	}

	var figure *models.Figure
	key := s.cache.GenerateFigureKey(figureID)
	err := s.cache.GetOrCompute(ctx, key, s.cache.EntityTTL(), &figure, func(ctx context.Context) (interface{}, error) {
		return s.store.GetByFigureID(ctx, figureID)
	})
	if err != nil {
		return nil, err
	}
	if figure == nil {
		return nil, errors.NewNotFoundError("figure", figureID)
	}

	// Soft popularity signal, not worth failing a read over
	if err := s.store.IncrementViewCount(ctx, figureID); err != nil {
		s.logger.WithError(err).WithField("figureId", figureID).Warn("View count bump failed")
	}

	return figure, nil
}

// ListByParty retrieves all figures of one party
func (s *FigureQueryService) ListByParty(ctx context.Context, party string) ([]*models.Figure, error) {
	if party == "" {
		return nil, errors.NewValidationError("party", "must not be blank")
	}

	var figures []*models.Figure
	key := s.cache.GeneratePartyKey(party)
	err := s.cache.GetOrCompute(ctx, key, s.cache.ListTTL(), &figures, func(ctx context.Context) (interface{}, error) {
		return s.store.ListByParty(ctx, party)
	})
	if err != nil {
		return nil, err
	}
	return figures, nil
}

// ListPopular retrieves the most viewed figures
func (s *FigureQueryService) ListPopular(ctx context.Context, limit int) ([]*models.Figure, error) {
	if limit <= 0 {
		limit = 10
	}

	var figures []*models.Figure
	key := s.cache.GeneratePopularKey(limit)
	err := s.cache.GetOrCompute(ctx, key, s.cache.ListTTL(), &figures, func(ctx context.Context) (interface{}, error) {
		return s.store.ListPopular(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return figures, nil
}

// Search retrieves figures matching a keyword
func (s *FigureQueryService) Search(ctx context.Context, keyword string) ([]*models.Figure, error) {
	if keyword == "" {
		return nil, errors.NewValidationError("keyword", "must not be blank")
	}

	var figures []*models.Figure
	key := s.cache.GenerateSearchKey(keyword)
	err := s.cache.GetOrCompute(ctx, key, s.cache.SearchTTL(), &figures, func(ctx context.Context) (interface{}, error) {
		return s.store.Search(ctx, keyword)
	})
	if err != nil {
		return nil, err
	}
	return figures, nil
}
