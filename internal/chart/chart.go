// Package chart turns raw dataset records into the bar and line series the
// dashboard renders.
package chart

import (
	"strconv"
	"strings"

	"vizboard/internal/model"
)

// Categories is the fixed bar-chart label set, in output order.
var Categories = []string{"A", "B", "C", "D", "E", "F"}

// BarAggregate holds one total per category, in Categories order.
type BarAggregate struct {
	Labels []string `json:"labels"`
	Totals []int    `json:"totals"`
}

// TrendSeries is the per-day line for one selected category, in record order.
type TrendSeries struct {
	Category string   `json:"category"`
	Labels   []string `json:"labels"`
	Values   []int    `json:"values"`
}

// AggregateBar sums each category across all records. Missing or
// unparseable values count as zero, so the totals are insensitive to
// input order and to dirty rows.
func AggregateBar(records []model.ChartRecord) BarAggregate {
	agg := BarAggregate{
		Labels: append([]string(nil), Categories...),
		Totals: make([]int, len(Categories)),
	}
	for _, r := range records {
		for i, label := range Categories {
			agg.Totals[i] += parseValue(r.Bucket(label))
		}
	}
	return agg
}

// ComputeTrend builds the line series for one category. Labels are the Day
// values in input order; the caller relies on the server returning records
// chronologically.
func ComputeTrend(records []model.ChartRecord, category string) TrendSeries {
	series := TrendSeries{
		Category: category,
		Labels:   make([]string, 0, len(records)),
		Values:   make([]int, 0, len(records)),
	}
	for _, r := range records {
		series.Labels = append(series.Labels, r.Day)
		series.Values = append(series.Values, parseValue(r.Bucket(category)))
	}
	return series
}

// CategoryAt maps a clicked bar position back to its label.
// Returns "" for an out-of-range index.
func CategoryAt(index int) string {
	if index < 0 || index >= len(Categories) {
		return ""
	}
	return Categories[index]
}

// parseValue is a strict integer parse: "3.5" or "12h" count as zero, not
// as their numeric prefix.
func parseValue(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
