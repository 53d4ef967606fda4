package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendFlat       = "flat"
)

const flatSlope = 1e-9

// Trend is a least-squares line through one metric of the daily summary,
// with x the day index.
type Trend struct {
	Metric    Metric
	Slope     float64 // change per day
	Intercept float64
	Direction string
	Days      int
}

// AnalyzeTrends fits a line through each metric. Fewer than two days yields no trends.
func AnalyzeTrends(daily []DailySummary, metrics []Metric) []Trend {
	if len(daily) < 2 {
		return nil
	}

	xs := make([]float64, len(daily))
	for i := range daily {
		xs[i] = float64(i)
	}

	trends := make([]Trend, 0, len(metrics))
	for _, m := range metrics {
		ys := make([]float64, len(daily))
		for i, d := range daily {
			ys[i] = d.Metrics[m]
		}

		// Do not force the regression line through the origin.
		intercept, slope := stat.LinearRegression(xs, ys, nil, false)

		trends = append(trends, Trend{
			Metric:    m,
			Slope:     slope,
			Intercept: intercept,
			Direction: direction(slope),
			Days:      len(daily),
		})
	}
	return trends
}

func direction(slope float64) string {
	switch {
	case math.Abs(slope) < flatSlope:
		return TrendFlat
	case slope > 0:
		return TrendIncreasing
	default:
		return TrendDecreasing
	}
}

// TrendTable renders trends with columns metric, direction, slope, intercept, days.
func TrendTable(name string, trends []Trend) Table {
	rows := make([][]string, len(trends))
	for i, t := range trends {
		rows[i] = []string{
			string(t.Metric),
			t.Direction,
			FormatNumber(t.Slope),
			FormatNumber(t.Intercept),
			FormatNumber(float64(t.Days)),
		}
	}
	return Table{
		Name:        name,
		Columns:     []string{"metric", "direction", "slope", "intercept", "days"},
		Rows:        rows,
		GeneratedAt: Now(),
	}
}
