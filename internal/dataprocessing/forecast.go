package dataprocessing

import (
	"strconv"

	"plforecast/pkg/contracts/domain"
)

// Forecast extends table with projected years up to endYear using a momentum trend:
//
//	value[y] = value[y-1] + (value[y-1] - value[y-2])
//
// Years are projected one after another, so each projected year feeds the next. A row missing
// either prior value gets 0 for that year. Existing columns are copied untouched and new year
// columns are appended in ascending order.
//
// Forecast is a no-op (an unchanged copy) when the table has fewer than two numeric year
// columns or when endYear is not past the last actual year. startYear is carried through for
// downstream consumers; it does not affect which years are projected.
func Forecast(table *domain.Table, startYear, endYear int) *domain.ForecastedTable {
	if table == nil {
		table = &domain.Table{}
	}
	out := &domain.ForecastedTable{
		Table:     *table.Clone(),
		StartYear: startYear,
		EndYear:   endYear,
	}

	years := out.Years()
	if len(years) < 2 {
		return out
	}
	last := years[len(years)-1]
	out.LastActualYear = last
	if endYear <= last {
		return out
	}

	for y := last + 1; y <= endYear; y++ {
		label := strconv.Itoa(y)
		prev := strconv.Itoa(y - 1)
		prevPrev := strconv.Itoa(y - 2)

		for i := range out.Items {
			item := &out.Items[i]
			if item.Values == nil {
				item.Values = make(map[string]float64)
			}
			projected := 0.0
			v1, ok1 := item.Values[prev]
			v2, ok2 := item.Values[prevPrev]
			if ok1 && ok2 {
				projected = v1 + (v1 - v2)
			}
			item.Values[label] = projected
		}

		out.Columns = append(out.Columns, label)
		out.ProjectedYears = append(out.ProjectedYears, label)
	}

	return out
}
