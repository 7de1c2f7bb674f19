package domain

import (
	"strings"
	"time"
)

// Label represents the merchandising status stored on a variant
type Label string

const (
	// New - variant added to its product within the last 45 days
	LabelNew Label = "New"
	// Offer - compare-at price is strictly above the selling price
	LabelOffer Label = "Offer"
	// Hot - variant carries the recent best-seller signal
	LabelHot Label = "Hot"
	// None - no rule matched; clears any previously set label
	LabelNone Label = "None"
)

// NewWindow is how long after creation a variant still counts as new.
// The boundary is exclusive: exactly 45 days old is no longer new.
const NewWindow = 45 * 24 * time.Hour

// IsValid checks if the label is one of the closed set
func (l Label) IsValid() bool {
	switch l {
	case LabelNew, LabelOffer, LabelHot, LabelNone:
		return true
	default:
		return false
	}
}

// Normalize maps a stored label string to its canonical comparable form.
// Stored values may carry arbitrary casing/whitespace from prior writes
// or manual edits, so both compare boundaries go through this.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Classify computes the target label for a variant from its commercial
// attributes at the reference time now. Pure and total; strict priority
// New > Offer > Hot > None, first match wins.
//
// A variant is new when its creation is not before its product's (the
// original variant set) or strictly after it (added later), and it is
// younger than NewWindow. The window test is the deciding factor.
// A missing compare-at price is passed as 0 and can never beat price.
func Classify(now, variantCreatedAt, parentCreatedAt time.Time, price, compareAt float64, recentBestSeller bool) Label {
	if !variantCreatedAt.Before(parentCreatedAt) && now.Sub(variantCreatedAt) < NewWindow {
		return LabelNew
	}
	if compareAt > price {
		return LabelOffer
	}
	if recentBestSeller {
		return LabelHot
	}
	return LabelNone
}

// ShouldWrite decides whether setting target over the stored label is a
// real change. Comparison is normalized (trim + lowercase). Writing the
// None sentinel over an already-empty label is always skipped.
func ShouldWrite(stored string, target Label) bool {
	current := Normalize(stored)
	if target == LabelNone && current == "" {
		return false
	}
	return current != Normalize(string(target))
}
