package engine

import (
	"github.com/montanaflynn/stats"

	"biasev/domain/dataset"
	domainstats "biasev/domain/stats"
)

// Summarize describes every numeric column of the table in column order.
// Columns with any non-numeric value are skipped.
func Summarize(table *dataset.Table) []domainstats.ColumnSummary {
	if table == nil {
		return nil
	}

	summaries := make([]domainstats.ColumnSummary, 0, table.NumColumns())
	for _, column := range table.Columns {
		values, ok := table.NumericColumn(column)
		if !ok {
			continue
		}
		mean, _ := stats.Mean(values)
		min, _ := stats.Min(values)
		max, _ := stats.Max(values)
		stdDev := 0.0
		if len(values) > 1 {
			stdDev, _ = stats.StandardDeviationSample(values)
		}

		summaries = append(summaries, domainstats.ColumnSummary{
			Column: column,
			Count:  len(values),
			Mean:   mean,
			StdDev: stdDev,
			Min:    min,
			Max:    max,
		})
	}
	return summaries
}
