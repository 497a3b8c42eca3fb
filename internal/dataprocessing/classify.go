package dataprocessing

import (
	"sort"
	"strings"

	"github.com/schollz/closestmatch"

	"plforecast/pkg/contracts/domain"
)

// Classification reports which buckets a line item falls into.
type Classification struct {
	Category string   `json:"category"`
	Buckets  []string `json:"buckets"`
	// Suggestion is the nearest starter category, set only for rows that match no bucket.
	Suggestion string `json:"suggestion,omitempty"`
}

// ClassificationReport is the per-row outcome of Classify, in table order.
type ClassificationReport struct {
	Rows         []Classification `json:"rows"`
	Unclassified int              `json:"unclassified"`
}

// Classify lists, for every line item, each bucket whose patterns match its category. A bucket
// appears once per matching pattern so rows summed twice are visible. Rows with no bucket get
// the closest starter category as a hint. The report is diagnostic and never feeds the totals.
func Classify(table *domain.Table, taxonomy Taxonomy) *ClassificationReport {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	report := &ClassificationReport{Rows: []Classification{}}
	if table == nil {
		return report
	}

	buckets := make([]string, 0, len(taxonomy))
	for name := range taxonomy {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)

	var suggest func(string) string

	for _, item := range table.Items {
		c := Classification{Category: item.Category, Buckets: []string{}}
		for _, bucket := range buckets {
			for _, p := range taxonomy.Patterns(bucket) {
				if Matches(item.Category, p) {
					c.Buckets = append(c.Buckets, bucket)
				}
			}
		}
		if len(c.Buckets) == 0 {
			report.Unclassified++
			if strings.TrimSpace(item.Category) != "" {
				if suggest == nil {
					suggest = starterMatcher()
				}
				c.Suggestion = suggest(item.Category)
			}
		}
		report.Rows = append(report.Rows, c)
	}
	return report
}

// starterMatcher returns a case-insensitive closest-match lookup over StarterCategories.
func starterMatcher() func(string) string {
	byLower := make(map[string]string, len(StarterCategories))
	keys := make([]string, 0, len(StarterCategories))
	for _, c := range StarterCategories {
		k := strings.ToLower(c)
		byLower[k] = c
		keys = append(keys, k)
	}
	cm := closestmatch.New(keys, []int{2, 3})
	return func(category string) string {
		return byLower[cm.Closest(strings.ToLower(strings.TrimSpace(category)))]
	}
}
