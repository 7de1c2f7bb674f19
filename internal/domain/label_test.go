package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d time.Duration) time.Time {
	return now.Add(-d)
}

func TestClassifyNewWindow(t *testing.T) {
	parent := daysAgo(200 * 24 * time.Hour)

	tests := []struct {
		name      string
		createdAt time.Time
		want      Label
	}{
		{"created 10 days ago", daysAgo(10 * 24 * time.Hour), LabelNew},
		{"created 44 days 23 hours ago", daysAgo(44*24*time.Hour + 23*time.Hour), LabelNew},
		{"created exactly 45 days ago", daysAgo(45 * 24 * time.Hour), LabelNone},
		{"created 46 days ago", daysAgo(46 * 24 * time.Hour), LabelNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(now, tt.createdAt, parent, 20.00, 0, false)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyOriginalVariantWithinWindow(t *testing.T) {
	// Variant created together with its product: the window test decides,
	// not variant-vs-parent ordering.
	createdAt := daysAgo(5 * 24 * time.Hour)
	assert.Equal(t, LabelNew, Classify(now, createdAt, createdAt, 20.00, 0, false))
}

func TestClassifyVariantOlderThanParentNeverNew(t *testing.T) {
	createdAt := daysAgo(5 * 24 * time.Hour)
	parent := daysAgo(2 * 24 * time.Hour)
	assert.Equal(t, LabelNone, Classify(now, createdAt, parent, 20.00, 0, false))
}

func TestClassifyOfferBoundary(t *testing.T) {
	createdAt := daysAgo(100 * 24 * time.Hour)
	parent := daysAgo(200 * 24 * time.Hour)

	assert.Equal(t, LabelNone, Classify(now, createdAt, parent, 20.00, 20.00, false), "equal compare price is not an offer")
	assert.Equal(t, LabelOffer, Classify(now, createdAt, parent, 20.00, 20.01, false))
	assert.Equal(t, LabelNone, Classify(now, createdAt, parent, 20.00, 0, false), "missing compare price can never produce an offer")
}

func TestClassifyHot(t *testing.T) {
	createdAt := daysAgo(100 * 24 * time.Hour)
	parent := daysAgo(200 * 24 * time.Hour)
	assert.Equal(t, LabelHot, Classify(now, createdAt, parent, 20.00, 0, true))
}

func TestClassifyPriorityOrder(t *testing.T) {
	// All three conditions satisfiable at once: New wins, then Offer, then Hot
	parent := daysAgo(200 * 24 * time.Hour)
	fresh := daysAgo(10 * 24 * time.Hour)
	old := daysAgo(100 * 24 * time.Hour)

	assert.Equal(t, LabelNew, Classify(now, fresh, parent, 20.00, 25.00, true))
	assert.Equal(t, LabelOffer, Classify(now, old, parent, 20.00, 25.00, true))
	assert.Equal(t, LabelHot, Classify(now, old, parent, 20.00, 20.00, true))
	assert.Equal(t, LabelNone, Classify(now, old, parent, 20.00, 20.00, false))
}

func TestClassifyAlwaysReturnsValidLabel(t *testing.T) {
	times := []time.Time{daysAgo(0), daysAgo(45 * 24 * time.Hour), daysAgo(400 * 24 * time.Hour)}
	prices := []float64{0, 9.99, 20.00}
	for _, created := range times {
		for _, parent := range times {
			for _, price := range prices {
				for _, compare := range prices {
					for _, hot := range []bool{true, false} {
						got := Classify(now, created, parent, price, compare, hot)
						assert.True(t, got.IsValid(), "classify(%v,%v,%v,%v,%v) = %q", created, parent, price, compare, hot, got)
					}
				}
			}
		}
	}
}

func TestShouldWrite(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		target Label
		want   bool
	}{
		{"same label same case", "New", LabelNew, false},
		{"same label different case", "new", LabelNew, false},
		{"same label with whitespace", "  hot ", LabelHot, false},
		{"different label", "offer", LabelNew, true},
		{"none over empty is skipped", "", LabelNone, false},
		{"none over whitespace is skipped", "   ", LabelNone, false},
		{"none over real label is written", "new", LabelNone, true},
		{"none over stored none is skipped", "None", LabelNone, false},
		{"label over empty is written", "", LabelHot, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldWrite(tt.stored, tt.target))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "new", Normalize("  New "))
	assert.Equal(t, "", Normalize("   "))
}
