package service

import (
	"context"
	"time"

	"github.com/figure-tracker/internal/errors"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/types"
)

// BillFetcher fetches bill records from the upstream API
type BillFetcher interface {
	FetchBillsByProposer(ctx context.Context, proposerName string) ([]*types.BillRecord, error)
}

// BillStore persists bill records
type BillStore interface {
	Upsert(ctx context.Context, rec *types.BillRecord) (*models.Bill, error)
}

// FigurePager pages through stored figures in id order
type FigurePager interface {
	ListPage(ctx context.Context, limit, offset int) ([]*models.Figure, error)
}

// BillSyncService syncs proposed bills for tracked figures. The full sync
// walks the stored roster page by page with a pause between pages, keeping
// load on both the store and the upstream API bounded.
type BillSyncService struct {
	fetcher   BillFetcher
	store     BillStore
	figures   FigurePager
	pageSize  int
	pagePause time.Duration
	logger    *logging.Logger
}

// NewBillSyncService creates a new bill sync service
func NewBillSyncService(
	fetcher BillFetcher,
	store BillStore,
	figures FigurePager,
	pageSize int,
	pagePause time.Duration,
) *BillSyncService {
	if pageSize <= 0 {
		pageSize = 50
	}
	if pagePause <= 0 {
		pagePause = 100 * time.Millisecond
	}
	return &BillSyncService{
		fetcher:   fetcher,
		store:     store,
		figures:   figures,
		pageSize:  pageSize,
		pagePause: pagePause,
		logger:    logging.GetLogger().WithField("component", "bill_sync"),
	}
}

// SyncByProposer fetches and upserts all bills proposed by one figure.
// Fetch failure aborts; upsert failures are isolated per bill.
func (s *BillSyncService) SyncByProposer(ctx context.Context, proposerName string) (*types.BatchResult, error) {
	if proposerName == "" {
		return nil, errors.NewValidationError("proposerName", "must not be blank")
	}

	records, err := s.fetcher.FetchBillsByProposer(ctx, proposerName)
	if err != nil {
		return nil, err
	}

	result := &types.BatchResult{}
	for _, rec := range records {
		if _, err := s.store.Upsert(ctx, rec); err != nil {
			s.logger.WithError(err).WithField("billId", rec.BillID).Warn("Bill upsert failed")
			result.FailCount++
			result.FailedKeys = append(result.FailedKeys, rec.BillID)
			continue
		}
		result.SuccessCount++
	}

	s.logger.WithFields(map[string]interface{}{
		"proposer": proposerName,
		"success":  result.SuccessCount,
		"failed":   result.FailCount,
	}).Info("Bill sync finished")
	return result, nil
}

// SyncAllPaged walks the stored roster one page at a time and syncs bills
// for every figure. Pages are processed sequentially with a pause between
// them; an empty or short page ends the walk. A figure whose bill sync
// fails is counted and skipped, never aborting the sweep.
func (s *BillSyncService) SyncAllPaged(ctx context.Context) (*types.BatchResult, error) {
	total := &types.BatchResult{}

	for offset := 0; ; offset += s.pageSize {
		page, err := s.figures.ListPage(ctx, s.pageSize, offset)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			break
		}

		for _, figure := range page {
			result, err := s.SyncByProposer(ctx, figure.Name)
			if err != nil {
				s.logger.WithError(err).WithField("figure", figure.Name).Warn("Bill sync failed for figure")
				total.FailCount++
				total.FailedKeys = append(total.FailedKeys, figure.Name)
				continue
			}
			total.SuccessCount += result.SuccessCount
			total.FailCount += result.FailCount
			total.FailedKeys = append(total.FailedKeys, result.FailedKeys...)
		}

		s.logger.WithFields(map[string]interface{}{
			"offset": offset,
			"count":  len(page),
		}).Debug("Bill sync page processed")

		if len(page) < s.pageSize {
			break
		}

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(s.pagePause):
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"success": total.SuccessCount,
		"failed":  total.FailCount,
	}).Info("Paged bill sync finished")
	return total, nil
}
