package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tlama/internal/logger"
)

// ScoreRefresher recomputes every cached score.
type ScoreRefresher interface {
	RescoreAll(ctx context.Context) (total, corrected int, err error)
}

// RescoreStatus describes the last rescoring pass.
type RescoreStatus struct {
	LastRun   time.Time `json:"last_run"`
	Total     int       `json:"total"`
	Corrected int       `json:"corrected"`
	Error     string    `json:"error,omitempty"`
}

// Rescorer handles periodic rescoring of the cache
type Rescorer struct {
	refresher     ScoreRefresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu     sync.RWMutex
	status RescoreStatus
}

// NewRescorer creates a new rescorer
func NewRescorer(
	refresher ScoreRefresher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Rescorer {
	return &Rescorer{
		refresher:     refresher,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start rescores once, then keeps rescoring on every tick and manual trigger
func (r *Rescorer) Start(ctx context.Context) error {
	if err := r.Rescore(ctx); err != nil {
		return fmt.Errorf("initial rescore failed: %w", err)
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Rescore(ctx); err != nil {
					r.logger.Error("failed to rescore cache",
						logger.Error(err))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual rescore triggered")
				if err := r.Rescore(ctx); err != nil {
					r.logger.Error("failed to rescore cache",
						logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the rescorer
func (r *Rescorer) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Rescore runs one pass and records its outcome
func (r *Rescorer) Rescore(ctx context.Context) error {
	start := time.Now()
	total, corrected, err := r.refresher.RescoreAll(ctx)

	status := RescoreStatus{
		LastRun:   start,
		Total:     total,
		Corrected: corrected,
	}
	if err != nil {
		status.Error = err.Error()
	}

	r.mu.Lock()
	r.status = status
	r.mu.Unlock()

	if err != nil {
		return err
	}

	r.logger.Info("cache rescored",
		logger.Int("items", total),
		logger.Int("corrected", corrected),
		logger.Duration("took", time.Since(start)))
	return nil
}

// Status returns the outcome of the last pass
func (r *Rescorer) Status() RescoreStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
