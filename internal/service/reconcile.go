package service

import (
	"math"

	"billsight/internal/domain"
)

// Reconcile merges per-page extraction results into document totals.
// The item count and reconciled amount depend only on the set of
// items present, so page order does not affect the outcome.
func Reconcile(pages []domain.PageItems) (itemCount int, reconciledAmount float64) {
	for _, page := range pages {
		for _, item := range page.BillItems {
			itemCount++
			reconciledAmount += item.ItemAmount
		}
	}
	return itemCount, round2(reconciledAmount)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
