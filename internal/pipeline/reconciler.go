package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/logger"
	"github.com/MrSnakeDoc/tlama/internal/metrics"
)

// ItemFactory produces a freshly extracted item for an identifier.
type ItemFactory func(ctx context.Context, url string) (*domain.Item, error)

// Reconciler merges fresh extractions with the cache. It is the only
// component that writes items; every write of one URL happens under that
// URL's lock, so crawls, flag updates and rescoring never interleave on
// the same record.
type Reconciler struct {
	store   Store
	scorer  *domain.Scorer
	log     logger.Logger
	metrics *metrics.Metrics
	locks   *urlLocks
}

func NewReconciler(store Store, scorer *domain.Scorer, log logger.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		scorer:  scorer,
		log:     log,
		metrics: m,
		locks:   newURLLocks(),
	}
}

// Reconcile refreshes one item. The page is extracted first, then the
// current annotations are read and carried onto it under the URL lock, so
// a flag set while the page was being fetched is kept. Extraction
// failures are returned untouched and nothing is written.
func (r *Reconciler) Reconcile(ctx context.Context, url string, fresh ItemFactory) (*domain.Item, error) {
	item, err := fresh(ctx, url)
	if err != nil {
		return nil, err
	}
	if item.URL != url {
		return nil, fmt.Errorf("%w: extracted %s for %s", domain.ErrInvalidItem, item.URL, url)
	}

	unlock := r.locks.lock(url)
	defer unlock()

	exists, err := r.store.Exists(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("check cache for %s: %w", url, err)
	}

	var preserved domain.Annotations
	if exists {
		rec, err := r.store.Get(ctx, url)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Removed between the two calls; treat as new.
			exists = false
		case err != nil:
			return nil, fmt.Errorf("read cache for %s: %w", url, err)
		default:
			preserved = rec.Annotations()
		}
	}

	item.ApplyAnnotations(preserved)
	item.Score = r.scorer.Score(item)

	if err := r.store.Put(ctx, item.Record()); err != nil {
		return nil, fmt.Errorf("save %s: %w", url, err)
	}

	if exists {
		r.metrics.Item(metrics.OutcomeMerged)
	} else {
		r.metrics.Item(metrics.OutcomeInserted)
	}
	return item, nil
}

// Load rehydrates a cached item and rescores it. A stored score that no
// longer matches is rewritten; a failed rewrite is logged and the fresh
// score is returned anyway.
func (r *Reconciler) Load(ctx context.Context, url string) (*domain.Item, error) {
	unlock := r.locks.lock(url)
	defer unlock()

	item, _, err := r.refresh(ctx, url)
	return item, err
}

// LoadAll rehydrates every cached item, ranked by score.
func (r *Reconciler) LoadAll(ctx context.Context) ([]*domain.Item, error) {
	items, _, err := r.loadAll(ctx, "")
	return items, err
}

// Search returns cached items whose name contains query, case-insensitively,
// ranked by score.
func (r *Reconciler) Search(ctx context.Context, query string) ([]*domain.Item, error) {
	items, _, err := r.loadAll(ctx, query)
	return items, err
}

// RescoreAll rescores the whole cache and reports how many stored scores
// were corrected.
func (r *Reconciler) RescoreAll(ctx context.Context) (total, corrected int, err error) {
	items, corrected, err := r.loadAll(ctx, "")
	if err != nil {
		return 0, 0, err
	}
	r.metrics.SetCachedItems(len(items))
	return len(items), corrected, nil
}

// SetFlag sets a user annotation and returns the rescored item.
func (r *Reconciler) SetFlag(ctx context.Context, url, name string, value bool) (*domain.Item, error) {
	flag, err := domain.ParseFlag(name)
	if err != nil {
		return nil, err
	}

	unlock := r.locks.lock(url)
	defer unlock()

	if err := r.store.SetFlag(ctx, url, flag, value); err != nil {
		return nil, err
	}
	item, _, err := r.refresh(ctx, url)
	return item, err
}

// Count returns the number of cached items.
func (r *Reconciler) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func (r *Reconciler) loadAll(ctx context.Context, nameFilter string) ([]*domain.Item, int, error) {
	records, err := r.store.All(ctx)
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(strings.TrimSpace(nameFilter))
	items := make([]*domain.Item, 0, len(records))
	corrected := 0

	for _, rec := range records {
		if needle != "" && !strings.Contains(strings.ToLower(rec.Name), needle) {
			continue
		}

		item, changed, err := r.rehydrate(ctx, rec)
		if err != nil {
			r.log.Warn("skipping unreadable cached item",
				logger.String("url", rec.URL),
				logger.Error(err))
			continue
		}
		if changed {
			corrected++
		}
		items = append(items, item)
	}

	domain.Rank(items)
	return items, corrected, nil
}

// rehydrate builds an item from a stored snapshot and recomputes its
// score. When the score drifted, the record is re-read under the URL lock
// and only that current record is rewritten, never the snapshot. changed
// reports whether the stored score differed.
func (r *Reconciler) rehydrate(ctx context.Context, rec domain.Record) (*domain.Item, bool, error) {
	item, err := domain.FromStorage(rec)
	if err != nil {
		return nil, false, err
	}

	item.Score = r.scorer.Score(item)
	if item.Score == rec.Score {
		return item, false, nil
	}

	unlock := r.locks.lock(rec.URL)
	defer unlock()
	return r.refresh(ctx, rec.URL)
}

// refresh reads url, rescores it and rewrites the stored score when it
// drifted. A failed rewrite is logged and the fresh score returned anyway.
// The caller holds the URL lock.
func (r *Reconciler) refresh(ctx context.Context, url string) (*domain.Item, bool, error) {
	rec, err := r.store.Get(ctx, url)
	if err != nil {
		return nil, false, err
	}
	item, err := domain.FromStorage(*rec)
	if err != nil {
		return nil, false, err
	}

	item.Score = r.scorer.Score(item)
	if item.Score == rec.Score {
		return item, false, nil
	}

	r.metrics.ScoreCorrected()
	if err := r.store.Put(ctx, item.Record()); err != nil {
		r.log.Warn("failed to correct stored score",
			logger.String("url", item.URL),
			logger.Int("stored", rec.Score),
			logger.Int("score", item.Score),
			logger.Error(err))
	}
	return item, true, nil
}
