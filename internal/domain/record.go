package domain

import (
	"fmt"
	"strconv"
)

// Metric is a canonical numeric column name shared by every snapshot downstream
// of normalization.
type Metric string

const (
	MetricPositive              Metric = "positive"
	MetricNegative              Metric = "negative"
	MetricPending               Metric = "pending"
	MetricHospitalized          Metric = "hospitalized"
	MetricOnVentilator          Metric = "onVentilator"
	MetricRecovered             Metric = "recovered"
	MetricDeath                 Metric = "death"
	MetricTotalTestResults      Metric = "totalTestResults"
	MetricHospitalizedCurrently Metric = "hospitalizedCurrently"
	MetricOnVentilatorCurrently Metric = "onVentilatorCurrently"
	MetricPeopleVaccinated      Metric = "peopleVaccinated"
)

// Key column names.
const (
	ColumnState    = "state"
	ColumnLocation = "location"
	ColumnDate     = "date"
)

// Metrics holds the reported values of one record. A missing key means the source
// did not report the metric.
type Metrics map[Metric]float64

// Record is one normalized row: a join key, an ISO date and its metrics.
// Before reconciliation, vaccination records carry the location name in State.
type Record struct {
	State   string
	Date    string
	Metrics Metrics
}

// Value returns the metric and whether it was reported.
func (r Record) Value(m Metric) (float64, bool) {
	v, ok := r.Metrics[m]
	return v, ok
}

// RecordSet is the typed table handed from one stage to the next.
type RecordSet struct {
	KeyColumn string
	Metrics   []Metric
	Records   []Record
}

// Len returns the number of records.
func (s RecordSet) Len() int {
	return len(s.Records)
}

// withRecords returns a copy of s's schema holding records.
func (s RecordSet) withRecords(records []Record) RecordSet {
	return RecordSet{
		KeyColumn: s.KeyColumn,
		Metrics:   append([]Metric(nil), s.Metrics...),
		Records:   records,
	}
}

// Table renders the set as a snapshot with columns key, date, metrics...
func (s RecordSet) Table(name string) Table {
	columns := make([]string, 0, len(s.Metrics)+2)
	columns = append(columns, s.KeyColumn, ColumnDate)
	for _, m := range s.Metrics {
		columns = append(columns, string(m))
	}

	rows := make([][]string, len(s.Records))
	for i, r := range s.Records {
		row := make([]string, 0, len(columns))
		row = append(row, r.State, r.Date)
		for _, m := range s.Metrics {
			row = append(row, formatOptional(r.Metrics, m))
		}
		rows[i] = row
	}

	return Table{Name: name, Columns: columns, Rows: rows, GeneratedAt: Now()}
}

// DailySummary is the per-date sum of every metric across states.
type DailySummary struct {
	Date    string
	Metrics Metrics
}

// SummaryTable renders daily summaries with columns date, metrics...
func SummaryTable(name string, metrics []Metric, daily []DailySummary) Table {
	columns := make([]string, 0, len(metrics)+1)
	columns = append(columns, ColumnDate)
	for _, m := range metrics {
		columns = append(columns, string(m))
	}

	rows := make([][]string, len(daily))
	for i, d := range daily {
		row := make([]string, 0, len(columns))
		row = append(row, d.Date)
		for _, m := range metrics {
			row = append(row, FormatNumber(d.Metrics[m]))
		}
		rows[i] = row
	}

	return Table{Name: name, Columns: columns, Rows: rows, GeneratedAt: Now()}
}

// FormatNumber renders a value without exponent or trailing zeros (20210112, 1.5).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(m Metrics, metric Metric) string {
	v, ok := m[metric]
	if !ok {
		return ""
	}
	return FormatNumber(v)
}

// parseOptional parses a numeric cell. The empty string is a null value.
func parseOptional(cell string) (float64, bool, error) {
	if cell == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid number %q", cell)
	}
	return v, true, nil
}
