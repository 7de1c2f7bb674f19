package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/domain"
	apperrors "github.com/baggs431/shopify-variant-tagger/pkg/errors"
)

type fakeCatalog struct {
	snapshotFn func(ctx context.Context, id string) (*domain.VariantSnapshot, error)
	setLabelFn func(ctx context.Context, id string, label domain.Label) error
	pageFn     func(ctx context.Context, after string, first int) ([]string, string, bool, error)
}

func (f *fakeCatalog) VariantSnapshot(ctx context.Context, id string) (*domain.VariantSnapshot, error) {
	return f.snapshotFn(ctx, id)
}

func (f *fakeCatalog) SetVariantLabel(ctx context.Context, id string, label domain.Label) error {
	if f.setLabelFn == nil {
		return nil
	}
	return f.setLabelFn(ctx, id, label)
}

func (f *fakeCatalog) VariantIDsPage(ctx context.Context, after string, first int) ([]string, string, bool, error) {
	return f.pageFn(ctx, after, first)
}

// admitAll bypasses cooldown so tests can isolate the write guard
type admitAll struct{}

func (admitAll) Admit(string) bool { return true }

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		CooldownWindow: 30 * time.Second,
		BatchSize:      25,
		BatchInterval:  time.Second,
		Throttle:       0,
		PageSize:       2,
		RetryAttempts:  3,
		RetryDelay:     0,
	}
}

func freshSnapshot(id string, currentLabel string) *domain.VariantSnapshot {
	now := time.Now()
	return &domain.VariantSnapshot{
		ID:              id,
		CreatedAt:       now.Add(-10 * 24 * time.Hour),
		ParentCreatedAt: now.Add(-20 * 24 * time.Hour),
		Price:           20.00,
		CompareAtPrice:  25.00,
		CurrentLabel:    currentLabel,
	}
}

func TestReconcileWritesWhenLabelOutdated(t *testing.T) {
	const id = "gid://shopify/ProductVariant/1"

	var wrote []domain.Label
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			// 10 days after its parent, discounted, best seller: New wins by priority
			snap := freshSnapshot(vid, "offer")
			snap.RecentBestSeller = true
			return snap, nil
		},
		setLabelFn: func(ctx context.Context, vid string, label domain.Label) error {
			wrote = append(wrote, label)
			return nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	outcome := r.Reconcile(context.Background(), id)
	assert.Equal(t, domain.OutcomeWritten, outcome)
	require.Len(t, wrote, 1)
	assert.Equal(t, domain.LabelNew, wrote[0])
}

func TestReconcileSecondRunIsNoOp(t *testing.T) {
	const id = "gid://shopify/ProductVariant/1"

	current := "offer"
	writes := 0
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			return freshSnapshot(vid, current), nil
		},
		setLabelFn: func(ctx context.Context, vid string, label domain.Label) error {
			writes++
			current = string(label)
			return nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	assert.Equal(t, domain.OutcomeWritten, r.Reconcile(context.Background(), id))
	assert.Equal(t, domain.OutcomeSkippedNoChange, r.Reconcile(context.Background(), id))
	assert.Equal(t, 1, writes)
}

func TestReconcileSkipsCaseInsensitiveMatch(t *testing.T) {
	writes := 0
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			now := time.Now()
			// Old variant, no discount, best seller, stored label differs only in case
			return &domain.VariantSnapshot{
				ID:               vid,
				CreatedAt:        now.Add(-100 * 24 * time.Hour),
				ParentCreatedAt:  now.Add(-200 * 24 * time.Hour),
				Price:            20.00,
				RecentBestSeller: true,
				CurrentLabel:     "hot",
			}, nil
		},
		setLabelFn: func(ctx context.Context, vid string, label domain.Label) error {
			writes++
			return nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	assert.Equal(t, domain.OutcomeSkippedNoChange, r.Reconcile(context.Background(), "gid://shopify/ProductVariant/1"))
	assert.Equal(t, 0, writes)
}

func TestReconcileCooldownSuppressesDuplicates(t *testing.T) {
	const id = "gid://shopify/ProductVariant/1"

	reads := 0
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			reads++
			return freshSnapshot(vid, "offer"), nil
		},
	}
	cooldown := NewMemoryCooldown(30 * time.Millisecond)
	r := NewReconciler(catalog, cooldown, testSyncConfig(), zap.NewNop())

	assert.Equal(t, domain.OutcomeWritten, r.Reconcile(context.Background(), id))
	assert.Equal(t, domain.OutcomeSkippedCooldown, r.Reconcile(context.Background(), id))
	assert.Equal(t, 1, reads)

	time.Sleep(60 * time.Millisecond)
	assert.NotEqual(t, domain.OutcomeSkippedCooldown, r.Reconcile(context.Background(), id))
	assert.Equal(t, 2, reads)
}

func TestReconcileNotFoundSkipsWithoutRetry(t *testing.T) {
	reads := 0
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			reads++
			return nil, &apperrors.ErrNotFound{Resource: "variant", ID: vid}
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	assert.Equal(t, domain.OutcomeFailed, r.Reconcile(context.Background(), "gid://shopify/ProductVariant/404"))
	assert.Equal(t, 1, reads, "not-found must not be retried")
}

func TestReconcileRetriesTransientRead(t *testing.T) {
	reads := 0
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			reads++
			if reads < 3 {
				return nil, &apperrors.ErrTransient{Op: "shopify graphql"}
			}
			return freshSnapshot(vid, "offer"), nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	assert.Equal(t, domain.OutcomeWritten, r.Reconcile(context.Background(), "gid://shopify/ProductVariant/1"))
	assert.Equal(t, 3, reads)
}

func TestReconcileBatchContinuesPastFailures(t *testing.T) {
	var wrote []string
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			if vid == "gid://shopify/ProductVariant/bad" {
				return nil, &apperrors.ErrMalformed{Resource: "variant", Reason: "unexpected shape"}
			}
			return freshSnapshot(vid, "offer"), nil
		},
		setLabelFn: func(ctx context.Context, vid string, label domain.Label) error {
			if vid == "gid://shopify/ProductVariant/rejected" {
				return &apperrors.ErrValidation{Fields: map[string]string{"value": "invalid"}}
			}
			wrote = append(wrote, vid)
			return nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	summary := r.ReconcileBatch(context.Background(), []string{
		"gid://shopify/ProductVariant/bad",
		"gid://shopify/ProductVariant/rejected",
		"gid://shopify/ProductVariant/ok",
	})
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, []string{"gid://shopify/ProductVariant/ok"}, wrote)
}

func TestFullSyncPageRetrySucceeds(t *testing.T) {
	pageCalls := 0
	var seen []string
	catalog := &fakeCatalog{
		pageFn: func(ctx context.Context, after string, first int) ([]string, string, bool, error) {
			pageCalls++
			if pageCalls < 3 {
				return nil, "", false, &apperrors.ErrTransient{Op: "shopify graphql"}
			}
			return []string{"gid://shopify/ProductVariant/1", "gid://shopify/ProductVariant/2"}, "", false, nil
		},
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			seen = append(seen, vid)
			return freshSnapshot(vid, "new"), nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	summary := r.FullSync(context.Background(), "test-run")
	assert.Equal(t, 3, pageCalls)
	assert.True(t, summary.Complete)
	assert.Equal(t, 2, summary.Processed)
	assert.Len(t, seen, 2, "no ids lost across page retries")
}

func TestFullSyncStopsEarlyOnRetryExhaustion(t *testing.T) {
	pageCalls := 0
	catalog := &fakeCatalog{
		pageFn: func(ctx context.Context, after string, first int) ([]string, string, bool, error) {
			pageCalls++
			if after == "" {
				return []string{"gid://shopify/ProductVariant/1", "gid://shopify/ProductVariant/2"}, "cursor-1", true, nil
			}
			return nil, "", false, &apperrors.ErrTransient{Op: "shopify graphql"}
		},
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			return freshSnapshot(vid, "new"), nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	summary := r.FullSync(context.Background(), "test-run")
	assert.Equal(t, 4, pageCalls, "one good page plus three attempts on the dead one")
	assert.False(t, summary.Complete, "truncated run must be distinguishable")
	assert.Equal(t, 2, summary.Processed, "ids collected before the outage are still processed")
}

func TestReconcileBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reads := 0
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			reads++
			cancel()
			return freshSnapshot(vid, "new"), nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	summary := r.ReconcileBatch(ctx, []string{"gid://shopify/ProductVariant/1", "gid://shopify/ProductVariant/2"})
	assert.Equal(t, 1, reads)
	assert.False(t, summary.Complete)
}

func TestPreviewDoesNotWrite(t *testing.T) {
	writes := 0
	catalog := &fakeCatalog{
		snapshotFn: func(ctx context.Context, vid string) (*domain.VariantSnapshot, error) {
			return freshSnapshot(vid, "offer"), nil
		},
		setLabelFn: func(ctx context.Context, vid string, label domain.Label) error {
			writes++
			return nil
		},
	}
	r := NewReconciler(catalog, admitAll{}, testSyncConfig(), zap.NewNop())

	snap, target, err := r.Preview(context.Background(), "gid://shopify/ProductVariant/1")
	require.NoError(t, err)
	assert.Equal(t, domain.LabelNew, target)
	assert.Equal(t, "offer", snap.CurrentLabel)
	assert.Equal(t, 0, writes)
}
