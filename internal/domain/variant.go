package domain

import "time"

// VariantSnapshot holds everything needed to classify one variant,
// fetched in a single read. Either the full record is populated or the
// read failed; there is no partial state.
type VariantSnapshot struct {
	ID               string // Shopify GID, e.g. gid://shopify/ProductVariant/123
	CreatedAt        time.Time
	ParentCreatedAt  time.Time // product createdAt
	Price            float64
	CompareAtPrice   float64 // 0 when absent
	RecentBestSeller bool
	CurrentLabel     string // raw stored value; normalized only at compare time
}

// ReconcileOutcome describes what the pipeline did with one variant id
type ReconcileOutcome string

const (
	OutcomeWritten         ReconcileOutcome = "written"
	OutcomeSkippedNoChange ReconcileOutcome = "skipped_no_change"
	OutcomeSkippedCooldown ReconcileOutcome = "skipped_cooldown"
	OutcomeFailed          ReconcileOutcome = "failed"
)

// ReconcileSummary aggregates a batch or full-catalog run
type ReconcileSummary struct {
	Processed int  `json:"processed"`
	Written   int  `json:"written"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Complete  bool `json:"complete"` // false when bulk enumeration stopped early
}

// Add folds one outcome into the summary
func (s *ReconcileSummary) Add(o ReconcileOutcome) {
	s.Processed++
	switch o {
	case OutcomeWritten:
		s.Written++
	case OutcomeFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}
