package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/service"
)

// RefreshWorker periodically re-syncs the full figure roster and the
// proposed bills so cached and stored data never drifts too far from the
// upstream. One refresh cycle runs roster sync first, then the paged bill
// sweep; the two never overlap within a cycle.
type RefreshWorker struct {
	figureSync *service.FigureSyncService
	billSync   *service.BillSyncService
	interval   time.Duration
	running    bool
	mu         sync.Mutex
	stopCh     chan struct{}
	doneCh     chan struct{}
	logger     *logging.Logger
}

// RefreshWorkerConfig holds configuration for the refresh worker
type RefreshWorkerConfig struct {
	FigureSync *service.FigureSyncService
	BillSync   *service.BillSyncService
	Interval   time.Duration
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(cfg *RefreshWorkerConfig) (*RefreshWorker, error) {
	if cfg.FigureSync == nil {
		return nil, fmt.Errorf("figure sync service cannot be nil")
	}
	if cfg.BillSync == nil {
		return nil, fmt.Errorf("bill sync service cannot be nil")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &RefreshWorker{
		figureSync: cfg.FigureSync,
		billSync:   cfg.BillSync,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		logger:     logging.GetLogger().WithField("component", "refresh_worker"),
	}, nil
}

// Start begins the periodic refresh loop. The first cycle runs immediately;
// later cycles follow the configured interval. Returns an error if the
// worker is already running.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	w.logger.WithField("interval", w.interval.String()).Info("Starting refresh worker")

	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for the current cycle to finish
func (w *RefreshWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.logger.Info("Refresh worker stopped")
}

// IsRunning reports whether the worker loop is active
func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// refresh runs one full sync cycle. Failures are logged and the worker
// keeps its schedule; the next cycle retries from scratch.
func (w *RefreshWorker) refresh(ctx context.Context) {
	started := time.Now()
	w.logger.Info("Refresh cycle started")

	rosterResult, err := w.figureSync.SyncAll(ctx)
	if err != nil {
		w.logger.WithError(err).Error("Roster refresh failed")
	} else {
		w.logger.WithFields(map[string]interface{}{
			"success": rosterResult.SuccessCount,
			"failed":  rosterResult.FailCount,
		}).Info("Roster refresh finished")
	}

	billResult, err := w.billSync.SyncAllPaged(ctx)
	if err != nil {
		w.logger.WithError(err).Error("Bill refresh failed")
	} else {
		w.logger.WithFields(map[string]interface{}{
			"success": billResult.SuccessCount,
			"failed":  billResult.FailCount,
		}).Info("Bill refresh finished")
	}

	w.logger.WithField("duration", time.Since(started).String()).Info("Refresh cycle finished")
}
