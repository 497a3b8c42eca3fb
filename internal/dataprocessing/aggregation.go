package dataprocessing

import (
	"plforecast/pkg/contracts/domain"
)

// Aggregator derives summary views from a table using a Taxonomy.
// It holds no state besides the taxonomy, so repeated calls give identical results.
type Aggregator struct {
	taxonomy Taxonomy
}

// NewAggregator creates an Aggregator. A nil taxonomy selects DefaultTaxonomy.
func NewAggregator(taxonomy Taxonomy) *Aggregator {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &Aggregator{taxonomy: taxonomy}
}

// Taxonomy returns the taxonomy in use.
func (a *Aggregator) Taxonomy() Taxonomy {
	return a.taxonomy
}

// Summarize computes Gross Profit, Total Expenses and Net Profit for every column.
//
//	net sales      = gross sales + discounts + returns   (first matching row each)
//	gross profit   = net sales - cost of goods sold      (first matching row)
//	total expenses = sum of every row matching each expense keyword
//	net profit     = gross profit - total expenses
//
// Discount and return rows are expected to be negative already.
func (a *Aggregator) Summarize(table *domain.Table) *domain.View {
	view := newView(table, domain.MetricGrossProfit, domain.MetricTotalExpenses, domain.MetricNetProfit)
	if table == nil {
		return view
	}

	grossSales := a.taxonomy.Patterns(BucketGrossSales)
	discounts := a.taxonomy.Patterns(BucketDiscounts)
	returns := a.taxonomy.Patterns(BucketReturns)
	cogs := a.taxonomy.Patterns(BucketCostOfGoodsSold)
	expenses := a.taxonomy.Patterns(BucketExpenses)

	for _, col := range table.Columns {
		netSales := ResolveSingle(table, col, grossSales) +
			ResolveSingle(table, col, discounts) +
			ResolveSingle(table, col, returns)
		grossProfit := netSales - ResolveSingle(table, col, cogs)
		totalExpenses := ResolveSumByKeywords(table, col, expenses)

		view.Rows[0].Values[col] = grossProfit
		view.Rows[1].Values[col] = totalExpenses
		view.Rows[2].Values[col] = grossProfit - totalExpenses
	}
	return view
}

// SummarizeExecutive computes the executive roll-up for every column. Every input here is a
// keyword sum. Gross Margin % is 0 when net sales is exactly 0, and EBIT is gross margin
// minus operating expenses (interest and taxes are reported but not subtracted).
func (a *Aggregator) SummarizeExecutive(table *domain.Table) *domain.View {
	view := newView(table,
		domain.MetricNetSales,
		domain.MetricDirectCost,
		domain.MetricGrossMargin,
		domain.MetricGrossMarginPct,
		domain.MetricOperatingExpenses,
		domain.MetricInterest,
		domain.MetricTaxes,
		domain.MetricEBIT,
	)
	if table == nil {
		return view
	}

	for _, col := range table.Columns {
		netSales := a.sum(table, col, BucketExecGrossSales) +
			a.sum(table, col, BucketExecSalesDiscounts) +
			a.sum(table, col, BucketExecSalesReturns)
		directCost := a.sum(table, col, BucketExecDirectCost)
		grossMargin := netSales - directCost

		marginPct := 0.0
		if netSales != 0 {
			marginPct = grossMargin / netSales * 100
		}

		opex := a.sum(table, col, BucketExecOperatingExpenses)

		values := []float64{
			netSales,
			directCost,
			grossMargin,
			marginPct,
			opex,
			a.sum(table, col, BucketExecInterest),
			a.sum(table, col, BucketExecTaxes),
			grossMargin - opex,
		}
		for i, v := range values {
			view.Rows[i].Values[col] = v
		}
	}
	return view
}

func (a *Aggregator) sum(table *domain.Table, column, bucket string) float64 {
	return ResolveSumByKeywords(table, column, a.taxonomy.Patterns(bucket))
}

// Summarize runs Summarize with the default taxonomy.
func Summarize(table *domain.Table) *domain.View {
	return NewAggregator(nil).Summarize(table)
}

// SummarizeExecutive runs SummarizeExecutive with the default taxonomy.
func SummarizeExecutive(table *domain.Table) *domain.View {
	return NewAggregator(nil).SummarizeExecutive(table)
}

// NetProfitTrend returns the Net Profit series for numeric year columns from startYear on.
func NetProfitTrend(summary *domain.View, startYear int) []domain.SeriesPoint {
	points := []domain.SeriesPoint{}
	if summary == nil {
		return points
	}
	for _, col := range summary.Columns {
		y, ok := domain.YearOf(col)
		if !ok || y < startYear {
			continue
		}
		points = append(points, domain.SeriesPoint{Year: col, Value: summary.Value(domain.MetricNetProfit, col)})
	}
	return points
}

func newView(table *domain.Table, metrics ...string) *domain.View {
	view := &domain.View{Columns: []string{}, Rows: make([]domain.MetricRow, len(metrics))}
	if table != nil {
		view.Columns = append(view.Columns, table.Columns...)
	}
	for i, m := range metrics {
		view.Rows[i] = domain.MetricRow{Name: m, Values: make(map[string]float64, len(view.Columns))}
	}
	return view
}
