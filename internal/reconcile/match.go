package reconcile

import (
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/pricing"
)

// FuzzyMatch picks the order whose total is within AmountTolerance of amount and
// whose creation date is within DateWindow of at. Among several candidates the
// closest amount wins, then the closest date, then the most recent order.
// Orders in skip are never returned.
func FuzzyMatch(amount float64, at time.Time, orders []*domain.Order, skip map[string]bool) *domain.Order {
	tolerance := pricing.ToCents(AmountTolerance)
	target := pricing.ToCents(amount)

	var (
		best     *domain.Order
		bestDiff int64
		bestGap  time.Duration
	)
	for _, o := range orders {
		if skip[o.ID] {
			continue
		}
		diff := abs(pricing.ToCents(o.Total) - target)
		gap := at.Sub(o.CreatedAt)
		if gap < 0 {
			gap = -gap
		}
		if diff > tolerance || gap > DateWindow {
			continue
		}
		if best == nil || better(diff, gap, o, bestDiff, bestGap, best) {
			best, bestDiff, bestGap = o, diff, gap
		}
	}
	return best
}

func better(diff int64, gap time.Duration, o *domain.Order, bestDiff int64, bestGap time.Duration, best *domain.Order) bool {
	if diff != bestDiff {
		return diff < bestDiff
	}
	if gap != bestGap {
		return gap < bestGap
	}
	return o.CreatedAt.After(best.CreatedAt)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
