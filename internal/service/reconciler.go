package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/domain"
	apperrors "github.com/baggs431/shopify-variant-tagger/pkg/errors"
)

// CatalogGateway is what the reconciler needs from the catalog platform
type CatalogGateway interface {
	VariantSnapshot(ctx context.Context, id string) (*domain.VariantSnapshot, error)
	SetVariantLabel(ctx context.Context, id string, label domain.Label) error
	VariantIDsPage(ctx context.Context, after string, first int) (ids []string, endCursor string, hasNext bool, err error)
}

// Reconciler runs the per-variant pipeline: cooldown admit, read,
// classify, write-guard, write. Failures on one variant never abort its
// siblings in a batch.
type Reconciler struct {
	catalog  CatalogGateway
	cooldown CooldownStore
	cfg      config.SyncConfig
	logger   *zap.Logger
}

// NewReconciler creates a reconciler over the given gateway and cooldown store
func NewReconciler(catalog CatalogGateway, cooldown CooldownStore, cfg config.SyncConfig, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		catalog:  catalog,
		cooldown: cooldown,
		cfg:      cfg,
		logger:   logger,
	}
}

// Reconcile processes one variant id end to end
func (r *Reconciler) Reconcile(ctx context.Context, id string) domain.ReconcileOutcome {
	// Admission must precede the read so duplicate notifications for an
	// in-flight variant are dropped rather than racing.
	if !r.cooldown.Admit(id) {
		r.logger.Debug("Reconcile: variant under cooldown, skipping", zap.String("variant_id", id))
		return domain.OutcomeSkippedCooldown
	}

	var snap *domain.VariantSnapshot
	err := r.withRetry(ctx, "variant read", func() error {
		var err error
		snap, err = r.catalog.VariantSnapshot(ctx, id)
		return err
	})
	if err != nil {
		var notFound *apperrors.ErrNotFound
		var malformed *apperrors.ErrMalformed
		switch {
		case errors.As(err, &notFound):
			// Expected under concurrent catalog edits
			r.logger.Debug("Reconcile: variant vanished, skipping", zap.String("variant_id", id))
		case errors.As(err, &malformed):
			r.logger.Warn("Reconcile: malformed read response, skipping", zap.String("variant_id", id), zap.Error(err))
		default:
			r.logger.Warn("Reconcile: read failed, skipping", zap.String("variant_id", id), zap.Error(err))
		}
		return domain.OutcomeFailed
	}

	target := domain.Classify(time.Now(), snap.CreatedAt, snap.ParentCreatedAt, snap.Price, snap.CompareAtPrice, snap.RecentBestSeller)
	if !domain.ShouldWrite(snap.CurrentLabel, target) {
		r.logger.Debug("Reconcile: label already correct, skipping write",
			zap.String("variant_id", id),
			zap.String("label", string(target)),
		)
		return domain.OutcomeSkippedNoChange
	}

	err = r.withRetry(ctx, "label write", func() error {
		return r.catalog.SetVariantLabel(ctx, id, target)
	})
	if err != nil {
		var validation *apperrors.ErrValidation
		if errors.As(err, &validation) {
			r.logger.Warn("Reconcile: label write rejected by platform", zap.String("variant_id", id), zap.Error(err))
		} else {
			r.logger.Warn("Reconcile: label write failed", zap.String("variant_id", id), zap.Error(err))
		}
		return domain.OutcomeFailed
	}

	r.logger.Info("Reconcile: label updated",
		zap.String("variant_id", id),
		zap.String("from", snap.CurrentLabel),
		zap.String("to", string(target)),
	)
	return domain.OutcomeWritten
}

// ReconcileBatch runs the pipeline over each id in order, pausing the
// configured throttle delay after every variant that reached the
// platform. Stops early when the context is cancelled.
func (r *Reconciler) ReconcileBatch(ctx context.Context, ids []string) domain.ReconcileSummary {
	summary := domain.ReconcileSummary{Complete: true}
	for _, id := range ids {
		if ctx.Err() != nil {
			summary.Complete = false
			break
		}
		outcome := r.Reconcile(ctx, id)
		summary.Add(outcome)
		if outcome == domain.OutcomeSkippedCooldown {
			// No upstream call was made, nothing to throttle
			continue
		}
		select {
		case <-ctx.Done():
			summary.Complete = false
			return summary
		case <-time.After(r.cfg.Throttle):
		}
	}
	return summary
}

// FullSync enumerates the whole catalog and feeds it through the
// pipeline. A retry-exhausted page stops enumeration early; the summary
// then reports Complete=false so callers can tell a truncated run from
// a full one.
func (r *Reconciler) FullSync(ctx context.Context, runID string) domain.ReconcileSummary {
	log := r.logger.With(zap.String("run_id", runID))
	log.Info("Full sync: starting")

	ids, complete := r.enumerateAll(ctx)
	log.Info("Full sync: enumeration finished", zap.Int("variants", len(ids)), zap.Bool("complete", complete))

	summary := r.ReconcileBatch(ctx, ids)
	if !complete {
		summary.Complete = false
	}
	log.Info("Full sync: finished",
		zap.Int("processed", summary.Processed),
		zap.Int("written", summary.Written),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Bool("complete", summary.Complete),
	)
	return summary
}

// Preview reads and classifies one variant without admitting it to the
// pipeline or writing anything. Used by the dry-run endpoint and the
// check-variant CLI.
func (r *Reconciler) Preview(ctx context.Context, id string) (*domain.VariantSnapshot, domain.Label, error) {
	var snap *domain.VariantSnapshot
	err := r.withRetry(ctx, "variant read", func() error {
		var err error
		snap, err = r.catalog.VariantSnapshot(ctx, id)
		return err
	})
	if err != nil {
		return nil, domain.LabelNone, err
	}
	target := domain.Classify(time.Now(), snap.CreatedAt, snap.ParentCreatedAt, snap.Price, snap.CompareAtPrice, snap.RecentBestSeller)
	return snap, target, nil
}

// RunQueueConsumer drains the pending queue in fixed-size batches on a
// fixed interval until the context is cancelled. Call from a goroutine.
func (r *Reconciler) RunQueueConsumer(ctx context.Context, queue *PendingQueue) {
	ticker := time.NewTicker(r.cfg.BatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch := queue.Drain(r.cfg.BatchSize)
			if len(batch) == 0 {
				continue
			}
			summary := r.ReconcileBatch(ctx, batch)
			r.logger.Info("Queue: batch processed",
				zap.Int("processed", summary.Processed),
				zap.Int("written", summary.Written),
				zap.Int("skipped", summary.Skipped),
				zap.Int("failed", summary.Failed),
				zap.Int("remaining", queue.Len()),
			)
		}
	}
}

// enumerateAll walks productVariants pages until the platform reports no
// further pages. A page that fails all retry attempts bounds the outage:
// whatever was collected so far is returned with complete=false.
func (r *Reconciler) enumerateAll(ctx context.Context) ([]string, bool) {
	var all []string
	cursor := ""
	for {
		var (
			ids     []string
			next    string
			hasNext bool
		)
		err := r.withRetry(ctx, "variant page", func() error {
			var err error
			ids, next, hasNext, err = r.catalog.VariantIDsPage(ctx, cursor, r.cfg.PageSize)
			return err
		})
		if err != nil {
			r.logger.Warn("Enumeration: page fetch failed, stopping early",
				zap.Int("collected", len(all)),
				zap.Error(err),
			)
			return all, false
		}
		all = append(all, ids...)
		if !hasNext || next == "" {
			return all, true
		}
		cursor = next
	}
}

// withRetry runs fn up to the configured attempt bound with a fixed
// delay in between. Only *apperrors.ErrTransient is retried; every other
// failure is terminal for the call.
func (r *Reconciler) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := r.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		if attempt < attempts {
			r.logger.Debug("Retrying after transient failure",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.cfg.RetryDelay):
			}
		}
	}
	return err
}

func isTransient(err error) bool {
	var transient *apperrors.ErrTransient
	return errors.As(err, &transient)
}
