// Package dashboard derives monthly comparisons from analysis history.
package dashboard

import (
	"sort"

	"github.com/leeaandrob/roascalc/internal/models"
)

// Aggregate groups records by reference month and computes the grand summary.
//
// Bucket ratios are ratio-of-sums (TotalRevenue / TotalInvested, 0 when
// nothing was invested). The summary ratio is the mean of the individual
// record ratios. The two are different statistics and are kept apart.
func Aggregate(records []models.AnalysisRecord) ([]models.MonthlyBucket, models.Summary) {
	byMonth := make(map[string]*models.MonthlyBucket)
	var summary models.Summary
	var ratioSum float64

	for _, r := range records {
		b, ok := byMonth[r.ReferenceMonth]
		if !ok {
			b = &models.MonthlyBucket{ReferenceMonth: r.ReferenceMonth}
			byMonth[r.ReferenceMonth] = b
		}
		b.TotalInvested += r.InvestedAmount
		b.TotalRevenue += r.GeneratedRevenue
		b.AnalysisCount++

		summary.TotalAnalyses++
		summary.TotalInvested += r.InvestedAmount
		summary.TotalRevenue += r.GeneratedRevenue
		ratioSum += r.ROAS
	}

	buckets := make([]models.MonthlyBucket, 0, len(byMonth))
	for _, b := range byMonth {
		b.AverageROAS = ratio(b.TotalRevenue, b.TotalInvested)
		buckets = append(buckets, *b)
	}
	SortBuckets(buckets)

	if summary.TotalAnalyses > 0 {
		summary.MeanROAS = ratioSum / float64(summary.TotalAnalyses)
	}

	return buckets, summary
}

// SortBuckets orders buckets ascending by reference month. YYYY-MM sorts
// correctly as a string.
func SortBuckets(buckets []models.MonthlyBucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].ReferenceMonth < buckets[j].ReferenceMonth
	})
}

func ratio(revenue, invested float64) float64 {
	if invested == 0 {
		return 0
	}
	return revenue / invested
}
