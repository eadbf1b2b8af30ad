package service

import (
	"context"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/models"
)

// BillReader serves bill reads from the store
type BillReader interface {
	GetByBillID(ctx context.Context, billID string) (*models.Bill, error)
	ListByProposer(ctx context.Context, proposerName string) ([]*models.Bill, error)
	CountByProposer(ctx context.Context, proposerName string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// StatementReader serves statement reads from the archive
type StatementReader interface {
	ListByFigure(ctx context.Context, figureID string, limit int) ([]*models.Statement, error)
	CountByFigure(ctx context.Context, figureID string) (uint64, error)
}

// FigureCounter exposes the pieces of the figure store the activity
// reads need: resolving a figure id and counting the roster.
type FigureCounter interface {
	GetByFigureID(ctx context.Context, figureID string) (*models.Figure, error)
	Count(ctx context.Context) (int64, error)
}

// FigureBills is a figure's proposed-bill history with its total count.
type FigureBills struct {
	FigureID string         `json:"figureId"`
	Proposer string         `json:"proposer"`
	Total    int64          `json:"total"`
	Bills    []*models.Bill `json:"bills"`
}

// FigureStatements is a page of a figure's archived statements.
type FigureStatements struct {
	FigureID   string              `json:"figureId"`
	Total      uint64              `json:"total"`
	Statements []*models.Statement `json:"statements"`
}

// TrackerStats is a coarse snapshot of how much the tracker holds.
type TrackerStats struct {
	Figures int64 `json:"figures"`
	Bills   int64 `json:"bills"`
}

// ActivityQueryService serves a figure's legislative activity: proposed
// bills out of Postgres and archived statements out of ClickHouse. These
// reads follow a sync, not a hot path, so they hit the stores directly.
type ActivityQueryService struct {
	figures    FigureCounter
	bills      BillReader
	statements StatementReader
	logger     *logging.Logger
}

// NewActivityQueryService creates a new activity query service
func NewActivityQueryService(figures FigureCounter, bills BillReader, statements StatementReader) *ActivityQueryService {
	return &ActivityQueryService{
		figures:    figures,
		bills:      bills,
		statements: statements,
		logger:     logging.GetLogger().WithField("component", "activity_query"),
	}
}

// FigureBills lists the bills a figure proposed, newest first. Bills are
// keyed by proposer name upstream, so the figure id is resolved to its
// stored name first.
func (s *ActivityQueryService) FigureBills(ctx context.Context, figureID string) (*FigureBills, error) {
	if figureID == "" {
		return nil, errors.NewValidationError("figureId", "must not be blank")
	}

	figure, err := s.figures.GetByFigureID(ctx, figureID)
	if err != nil {
		return nil, err
	}
	if figure == nil {
		return nil, errors.NewNotFoundError("figure", figureID)
	}

	bills, err := s.bills.ListByProposer(ctx, figure.Name)
	if err != nil {
		return nil, err
	}
	total, err := s.bills.CountByProposer(ctx, figure.Name)
	if err != nil {
		return nil, err
	}

	return &FigureBills{
		FigureID: figureID,
		Proposer: figure.Name,
		Total:    total,
		Bills:    bills,
	}, nil
}

// FigureStatements lists a figure's archived statements, newest first.
func (s *ActivityQueryService) FigureStatements(ctx context.Context, figureID string, limit int) (*FigureStatements, error) {
	if figureID == "" {
		return nil, errors.NewValidationError("figureId", "must not be blank")
	}

	figure, err := s.figures.GetByFigureID(ctx, figureID)
	if err != nil {
		return nil, err
	}
	if figure == nil {
		return nil, errors.NewNotFoundError("figure", figureID)
	}

	statements, err := s.statements.ListByFigure(ctx, figureID, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.statements.CountByFigure(ctx, figureID)
	if err != nil {
		return nil, err
	}

	return &FigureStatements{
		FigureID:   figureID,
		Total:      total,
		Statements: statements,
	}, nil
}

// GetBill retrieves one bill by its external id
func (s *ActivityQueryService) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	if billID == "" {
		return nil, errors.NewValidationError("billId", "must not be blank")
	}

	bill, err := s.bills.GetByBillID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, errors.NewNotFoundError("bill", billID)
	}
	return bill, nil
}

// Stats reports how many figures and bills the tracker currently holds
func (s *ActivityQueryService) Stats(ctx context.Context) (*TrackerStats, error) {
	figures, err := s.figures.Count(ctx)
	if err != nil {
		return nil, err
	}
	bills, err := s.bills.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &TrackerStats{Figures: figures, Bills: bills}, nil
}
