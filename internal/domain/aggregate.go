package domain

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// AggregateDaily sums every metric of the joined set across states, one
// summary per distinct date in ascending order. Unreported values contribute
// nothing and a metric with no values sums to zero.
func AggregateDaily(joined RecordSet) []DailySummary {
	groups := make(map[string]map[Metric][]float64)
	for _, r := range joined.Records {
		g, ok := groups[r.Date]
		if !ok {
			g = make(map[Metric][]float64, len(joined.Metrics))
			groups[r.Date] = g
		}
		for _, m := range joined.Metrics {
			if v, ok := r.Metrics[m]; ok {
				g[m] = append(g[m], v)
			}
		}
	}

	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	daily := make([]DailySummary, 0, len(dates))
	for _, d := range dates {
		sums := make(Metrics, len(joined.Metrics))
		for _, m := range joined.Metrics {
			values := groups[d][m]
			if len(values) == 0 {
				sums[m] = 0
				continue
			}
			sums[m] = floats.Sum(values)
		}
		daily = append(daily, DailySummary{Date: d, Metrics: sums})
	}
	return daily
}
