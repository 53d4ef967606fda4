package domain

import (
	"fmt"
	"time"
)

// MetricSet selects which case metrics are carried through the pipeline.
type MetricSet string

const (
	MetricSetMinimal  MetricSet = "minimal"
	MetricSetExtended MetricSet = "extended"
)

const (
	isoDateLayout     = "2006-01-02"
	compactDateLayout = "20060102"
)

// caseSourceColumns maps canonical case metrics to their column in the case feed.
var caseSourceColumns = map[Metric]string{
	MetricPositive:              "positive",
	MetricNegative:              "negative",
	MetricPending:               "pending",
	MetricHospitalized:          "hospitalizedCumulative",
	MetricOnVentilator:          "onVentilatorCumulative",
	MetricRecovered:             "recovered",
	MetricDeath:                 "death",
	MetricTotalTestResults:      "totalTestResults",
	MetricHospitalizedCurrently: "hospitalizedCurrently",
	MetricOnVentilatorCurrently: "onVentilatorCurrently",
}

const vaccinationSourceColumn = "people_vaccinated"

// ParseMetricSet validates a metric set name.
func ParseMetricSet(s string) (MetricSet, error) {
	switch MetricSet(s) {
	case MetricSetMinimal, MetricSetExtended:
		return MetricSet(s), nil
	default:
		return "", fmt.Errorf("unknown metric set %q", s)
	}
}

// CaseMetrics returns the case metrics of the set in output column order.
func (s MetricSet) CaseMetrics() []Metric {
	metrics := []Metric{
		MetricPositive, MetricNegative, MetricPending, MetricHospitalized,
		MetricOnVentilator, MetricRecovered, MetricDeath,
	}
	if s == MetricSetExtended {
		metrics = append(metrics, MetricTotalTestResults, MetricHospitalizedCurrently, MetricOnVentilatorCurrently)
	}
	return metrics
}

// NormalizeCases projects the raw case table onto the metric set, converts
// 8-digit dates to ISO, renames the cumulative hospital columns and drops rows
// outside the 50 states.
func NormalizeCases(raw Table, set MetricSet) (RecordSet, error) {
	metrics := set.CaseMetrics()

	required := []string{ColumnState, ColumnDate}
	for _, m := range metrics {
		required = append(required, caseSourceColumns[m])
	}
	idx, err := columnIndexes(raw, required)
	if err != nil {
		return RecordSet{}, err
	}

	records := make([]Record, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		state := cell(row, idx[ColumnState])
		if !IsStateCode(state) {
			continue
		}

		date, err := compactToISO(cell(row, idx[ColumnDate]))
		if err != nil {
			return RecordSet{}, &DecodeError{Source: raw.Name, Row: i + 1, Column: ColumnDate, Err: err}
		}

		values := make(Metrics, len(metrics))
		for _, m := range metrics {
			col := caseSourceColumns[m]
			v, ok, err := parseOptional(cell(row, idx[col]))
			if err != nil {
				return RecordSet{}, &DecodeError{Source: raw.Name, Row: i + 1, Column: col, Err: err}
			}
			if ok {
				values[m] = v
			}
		}

		records = append(records, Record{State: state, Date: date, Metrics: values})
	}

	return RecordSet{KeyColumn: ColumnState, Metrics: metrics, Records: records}, nil
}

// NormalizeVaccinations projects the raw vaccination table onto location,
// peopleVaccinated and date. Locations stay full names for Reconcile.
func NormalizeVaccinations(raw Table) (RecordSet, error) {
	idx, err := columnIndexes(raw, []string{ColumnLocation, vaccinationSourceColumn, ColumnDate})
	if err != nil {
		return RecordSet{}, err
	}

	records := make([]Record, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		date := cell(row, idx[ColumnDate])
		if err := ValidateISODate(date); err != nil {
			return RecordSet{}, &DecodeError{Source: raw.Name, Row: i + 1, Column: ColumnDate, Err: err}
		}

		values := make(Metrics, 1)
		v, ok, err := parseOptional(cell(row, idx[vaccinationSourceColumn]))
		if err != nil {
			return RecordSet{}, &DecodeError{Source: raw.Name, Row: i + 1, Column: vaccinationSourceColumn, Err: err}
		}
		if ok {
			values[MetricPeopleVaccinated] = v
		}

		records = append(records, Record{State: cell(row, idx[ColumnLocation]), Date: date, Metrics: values})
	}

	return RecordSet{
		KeyColumn: ColumnLocation,
		Metrics:   []Metric{MetricPeopleVaccinated},
		Records:   records,
	}, nil
}

// columnIndexes resolves every required column or fails with a SchemaError.
func columnIndexes(t Table, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for _, name := range required {
		i := t.ColumnIndex(name)
		if i < 0 {
			return nil, &SchemaError{Table: t.Name, Column: name}
		}
		idx[name] = i
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// compactToISO converts "20210112" to "2021-01-12".
func compactToISO(s string) (string, error) {
	if len(s) != len(compactDateLayout) {
		return "", fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse(compactDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return t.Format(isoDateLayout), nil
}

// ValidateISODate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidateISODate(s string) error {
	if _, err := time.Parse(isoDateLayout, s); err != nil {
		return fmt.Errorf("invalid ISO date %q", s)
	}
	return nil
}
