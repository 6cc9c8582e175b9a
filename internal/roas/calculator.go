// Package roas computes return on ad spend.
package roas

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/leeaandrob/roascalc/internal/apperr"
)

// MaxAmount is the upper bound applied to both inputs before dividing.
const MaxAmount = 999_999_999.99

// Result is the outcome of a single computation.
type Result struct {
	Invested float64 // clamped
	Revenue  float64 // clamped
	Ratio    float64 // revenue / invested, rounded to 4 places
}

// Display renders the ratio with two decimals and the "x" unit, e.g. "2.85x".
func (r Result) Display() string {
	return Display(r.Ratio)
}

// Compute validates and clamps the inputs and returns the rounded ratio.
// Non-finite values and invested <= 0 or revenue < 0 are rejected.
func Compute(invested, revenue float64) (Result, error) {
	if !finite(invested) || !finite(revenue) {
		return Result{}, apperr.Validation("invested amount and revenue must be finite numbers")
	}

	invested = math.Min(invested, MaxAmount)
	revenue = math.Min(revenue, MaxAmount)

	if invested <= 0 {
		return Result{}, apperr.Validation("invested amount must be greater than zero")
	}
	if revenue < 0 {
		return Result{}, apperr.Validation("revenue must not be negative")
	}

	return Result{
		Invested: invested,
		Revenue:  revenue,
		Ratio:    Round(revenue/invested, 4),
	}, nil
}

// Display formats a ratio as "N.NNx".
func Display(ratio float64) string {
	return fmt.Sprintf("%.2fx", ratio)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ReferenceMonth returns the YYYY-MM bucket for an analysis: the campaign
// date when given, the creation time otherwise. Both are taken in UTC.
func ReferenceMonth(campaignDate *time.Time, createdAt time.Time) string {
	if campaignDate != nil && !campaignDate.IsZero() {
		return campaignDate.UTC().Format("2006-01")
	}
	return createdAt.UTC().Format("2006-01")
}

// ParseCampaignDate accepts YYYY-MM-DD or RFC 3339. Blank input yields nil.
func ParseCampaignDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("campaign date %q must be YYYY-MM-DD", s)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
