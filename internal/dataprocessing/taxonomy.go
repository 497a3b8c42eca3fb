package dataprocessing

import (
	"strings"

	"plforecast/pkg/contracts/domain"
)

// Bucket names understood by the Aggregator.
const (
	BucketGrossSales      = "gross_sales"
	BucketDiscounts       = "discounts"
	BucketReturns         = "returns"
	BucketCostOfGoodsSold = "cost_of_goods_sold"
	BucketExpenses        = "expenses"

	BucketExecGrossSales        = "executive_gross_sales"
	BucketExecSalesDiscounts    = "executive_sales_discounts"
	BucketExecSalesReturns      = "executive_sales_returns"
	BucketExecDirectCost        = "executive_direct_cost"
	BucketExecOperatingExpenses = "executive_operating_expenses"
	BucketExecInterest          = "executive_interest"
	BucketExecTaxes             = "executive_taxes"
)

// Taxonomy maps a bucket name to its ordered match patterns. A line item belongs to a bucket
// when its lower-cased category contains any of the bucket's patterns; an item may belong
// to several buckets.
type Taxonomy map[string][]string

// DefaultTaxonomy returns the standard profit-and-loss taxonomy. Each call returns a fresh
// map, so callers may modify it freely.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		BucketGrossSales:      {"gross sales"},
		BucketDiscounts:       {"discounts"},
		BucketReturns:         {"returns"},
		BucketCostOfGoodsSold: {"cost of goods sold"},
		BucketExpenses: {
			"marketing", "salaries", "payroll", "travel", "hosting", "stationary",
			"rent", "utilities", "office", "professional", "insurance",
			"depreciation", "interest", "other operating",
		},

		BucketExecGrossSales:     {"gross sales"},
		BucketExecSalesDiscounts: {"sales discount"},
		BucketExecSalesReturns:   {"sales returns"},
		BucketExecDirectCost:     {"cost of goods sold"},
		// interest and tax lines are reported on their own rows
		BucketExecOperatingExpenses: {
			"marketing", "salaries", "payroll", "travel", "hosting", "stationary",
			"rent", "utilities", "office", "professional", "insurance",
			"depreciation", "other operating", "amortization", "bad debt",
		},
		BucketExecInterest: {"interest expense"},
		BucketExecTaxes:    {"income tax"},
	}
}

// Patterns returns the bucket's patterns, lower-cased.
func (t Taxonomy) Patterns(bucket string) []string {
	raw := t[bucket]
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		out = append(out, strings.ToLower(p))
	}
	return out
}

// Matches reports whether category contains pattern, ignoring case.
func Matches(category, pattern string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(category)), strings.ToLower(pattern))
}

// ResolveSingle returns the column value of the first line item, in table order, whose
// category matches any of patterns. No match, or a match without that column, gives 0.
func ResolveSingle(table *domain.Table, column string, patterns []string) float64 {
	if table == nil {
		return 0
	}
	for _, item := range table.Items {
		for _, p := range patterns {
			if Matches(item.Category, p) {
				v, _ := item.Value(column)
				return v
			}
		}
	}
	return 0
}

// ResolveSumByKeywords adds, for every pattern, the column values of all line items that
// match it. An item matching two patterns is counted twice.
func ResolveSumByKeywords(table *domain.Table, column string, patterns []string) float64 {
	if table == nil {
		return 0
	}
	total := 0.0
	for _, p := range patterns {
		for _, item := range table.Items {
			if Matches(item.Category, p) {
				v, _ := item.Value(column)
				total += v
			}
		}
	}
	return total
}
