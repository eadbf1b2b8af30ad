package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/models"
)

type fakeBillReader struct {
	byID       map[string]*models.Bill
	byProposer map[string][]*models.Bill
	total      int64
}

func (f *fakeBillReader) GetByBillID(ctx context.Context, billID string) (*models.Bill, error) {
	return f.byID[billID], nil
}

func (f *fakeBillReader) ListByProposer(ctx context.Context, proposerName string) ([]*models.Bill, error) {
	return f.byProposer[proposerName], nil
}

func (f *fakeBillReader) CountByProposer(ctx context.Context, proposerName string) (int64, error) {
	return int64(len(f.byProposer[proposerName])), nil
}

func (f *fakeBillReader) Count(ctx context.Context) (int64, error) {
	return f.total, nil
}

type fakeStatementReader struct {
	byFigure  map[string][]*models.Statement
	lastLimit int
}

func (f *fakeStatementReader) ListByFigure(ctx context.Context, figureID string, limit int) ([]*models.Statement, error) {
	f.lastLimit = limit
	return f.byFigure[figureID], nil
}

func (f *fakeStatementReader) CountByFigure(ctx context.Context, figureID string) (uint64, error) {
	return uint64(len(f.byFigure[figureID])), nil
}

type fakeFigureCounter struct {
	figures map[string]*models.Figure
	total   int64
}

func (f *fakeFigureCounter) GetByFigureID(ctx context.Context, figureID string) (*models.Figure, error) {
	return f.figures[figureID], nil
}

func (f *fakeFigureCounter) Count(ctx context.Context) (int64, error) {
	return f.total, nil
}

func newTestActivityQuery() (*ActivityQueryService, *fakeBillReader, *fakeStatementReader) {
	figures := &fakeFigureCounter{
		figures: map[string]*models.Figure{
			"F001": {FigureID: "F001", Name: "홍길동"},
		},
		total: 300,
	}
	bills := &fakeBillReader{
		byID: map[string]*models.Bill{
			"B001": {BillID: "B001", Title: "개정안", ProposerName: "홍길동"},
		},
		byProposer: map[string][]*models.Bill{
			"홍길동": {
				{BillID: "B001", ProposerName: "홍길동"},
				{BillID: "B002", ProposerName: "홍길동"},
			},
		},
		total: 1200,
	}
	statements := &fakeStatementReader{
		byFigure: map[string][]*models.Statement{
			"F001": {{FigureID: "F001", OriginalURL: "https://news.example/1"}},
		},
	}
	return NewActivityQueryService(figures, bills, statements), bills, statements
}

func TestFigureBills(t *testing.T) {
	svc, _, _ := newTestActivityQuery()

	result, err := svc.FigureBills(context.Background(), "F001")
	require.NoError(t, err)
	assert.Equal(t, "홍길동", result.Proposer)
	assert.Equal(t, int64(2), result.Total)
	assert.Len(t, result.Bills, 2)
}

func TestFigureBills_UnknownFigure(t *testing.T) {
	svc, _, _ := newTestActivityQuery()

	_, err := svc.FigureBills(context.Background(), "F404")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Categorize(err).Code)
}

func TestFigureBills_BlankID(t *testing.T) {
	svc, _, _ := newTestActivityQuery()

	_, err := svc.FigureBills(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestFigureStatements(t *testing.T) {
	svc, _, statements := newTestActivityQuery()

	result, err := svc.FigureStatements(context.Background(), "F001", 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Len(t, result.Statements, 1)
	assert.Equal(t, 25, statements.lastLimit)
}

func TestFigureStatements_UnknownFigure(t *testing.T) {
	svc, _, _ := newTestActivityQuery()

	_, err := svc.FigureStatements(context.Background(), "F404", 10)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Categorize(err).Code)
}

func TestGetBill(t *testing.T) {
	svc, _, _ := newTestActivityQuery()

	bill, err := svc.GetBill(context.Background(), "B001")
	require.NoError(t, err)
	assert.Equal(t, "개정안", bill.Title)
}

func TestGetBill_NotFound(t *testing.T) {
	svc, _, _ := newTestActivityQuery()

	_, err := svc.GetBill(context.Background(), "B404")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.Categorize(err).Code)
}

func TestTrackerStats(t *testing.T) {
	svc, _, _ := newTestActivityQuery()

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(300), stats.Figures)
	assert.Equal(t, int64(1200), stats.Bills)
}
