package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caseColumns = []string{
	"date", "death", "hospitalizedCumulative", "hospitalizedCurrently", "negative",
	"onVentilatorCumulative", "onVentilatorCurrently", "pending", "positive",
	"recovered", "state", "totalTestResults",
}

// caseRow builds a raw case row in caseColumns order.
func caseRow(state, date, positive, negative string) []string {
	return []string{date, "7", "20", "3", negative, "2", "1", "", positive, "40", state, "150"}
}

func rawCases(rows ...[]string) Table {
	return Table{Name: SnapshotRawCases, Columns: caseColumns, Rows: rows}
}

func rawVaccinations(rows ...[]string) Table {
	return Table{
		Name:    SnapshotRawVaccinations,
		Columns: []string{"date", "location", "total_vaccinations", "people_vaccinated"},
		Rows:    rows,
	}
}

func TestNormalizeCases(t *testing.T) {
	raw := rawCases(
		caseRow("CA", "20210112", "100", "50"),
		caseRow("PR", "20210112", "9", "9"),
		caseRow("DC", "20210112", "9", "9"),
		caseRow("TX", "20210113", "200", "80"),
	)

	set, err := NormalizeCases(raw, MetricSetMinimal)
	require.NoError(t, err)

	assert.Equal(t, ColumnState, set.KeyColumn)
	assert.Equal(t, MetricSetMinimal.CaseMetrics(), set.Metrics)
	require.Len(t, set.Records, 2)

	ca := set.Records[0]
	assert.Equal(t, "CA", ca.State)
	assert.Equal(t, "2021-01-12", ca.Date)
	assert.Equal(t, 100.0, ca.Metrics[MetricPositive])
	assert.Equal(t, 50.0, ca.Metrics[MetricNegative])
	assert.Equal(t, 20.0, ca.Metrics[MetricHospitalized])
	assert.Equal(t, 2.0, ca.Metrics[MetricOnVentilator])
	assert.Equal(t, 40.0, ca.Metrics[MetricRecovered])
	assert.Equal(t, 7.0, ca.Metrics[MetricDeath])

	_, reported := ca.Value(MetricPending)
	assert.False(t, reported, "empty cell is a null value")
	_, extended := ca.Value(MetricTotalTestResults)
	assert.False(t, extended, "minimal set excludes extended metrics")

	assert.Equal(t, "TX", set.Records[1].State)
	assert.Equal(t, "2021-01-13", set.Records[1].Date)
}

func TestNormalizeCases_OnlyValidStates(t *testing.T) {
	raw := rawCases(
		caseRow("GU", "20210112", "1", "1"),
		caseRow("AS", "20210112", "1", "1"),
		caseRow("VI", "20210112", "1", "1"),
		caseRow("MP", "20210112", "1", "1"),
		caseRow("", "20210112", "1", "1"),
		caseRow("ca", "20210112", "1", "1"),
		caseRow("WY", "20210112", "1", "1"),
	)

	set, err := NormalizeCases(raw, MetricSetMinimal)
	require.NoError(t, err)
	for _, r := range set.Records {
		assert.True(t, IsStateCode(r.State), "unexpected state %q", r.State)
	}
	assert.Len(t, set.Records, 1)
}

func TestNormalizeCases_Extended(t *testing.T) {
	set, err := NormalizeCases(rawCases(caseRow("NY", "20210301", "5", "6")), MetricSetExtended)
	require.NoError(t, err)
	require.Len(t, set.Records, 1)

	r := set.Records[0]
	assert.Equal(t, 150.0, r.Metrics[MetricTotalTestResults])
	assert.Equal(t, 3.0, r.Metrics[MetricHospitalizedCurrently])
	assert.Equal(t, 1.0, r.Metrics[MetricOnVentilatorCurrently])
	assert.Len(t, set.Metrics, 10)
}

func TestNormalizeCases_MissingColumn(t *testing.T) {
	raw := Table{
		Name:    SnapshotRawCases,
		Columns: []string{"state", "date", "positive", "negative"},
		Rows:    [][]string{{"CA", "20210112", "1", "1"}},
	}

	_, err := NormalizeCases(raw, MetricSetMinimal)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "pending", schemaErr.Column)
	assert.Equal(t, SnapshotRawCases, schemaErr.Table)
}

func TestNormalizeCases_ExtendedRequiresExtendedColumns(t *testing.T) {
	cols := []string{"state", "date", "positive", "negative", "pending", "hospitalizedCumulative",
		"onVentilatorCumulative", "recovered", "death"}
	raw := Table{Name: SnapshotRawCases, Columns: cols}

	_, err := NormalizeCases(raw, MetricSetMinimal)
	require.NoError(t, err)

	_, err = NormalizeCases(raw, MetricSetExtended)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "totalTestResults", schemaErr.Column)
}

func TestNormalizeCases_BadCells(t *testing.T) {
	tests := []struct {
		name   string
		row    []string
		column string
	}{
		{"short date", caseRow("CA", "2021011", "1", "1"), "date"},
		{"impossible date", caseRow("CA", "20210230", "1", "1"), "date"},
		{"iso date", caseRow("CA", "2021-01-12", "1", "1"), "date"},
		{"non numeric", caseRow("CA", "20210112", "many", "1"), "positive"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeCases(rawCases(tc.row), MetricSetMinimal)
			require.Error(t, err)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tc.column, decodeErr.Column)
			assert.Equal(t, 1, decodeErr.Row)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestNormalizeCases_Empty(t *testing.T) {
	set, err := NormalizeCases(rawCases(), MetricSetMinimal)
	require.NoError(t, err)
	assert.Empty(t, set.Records)
}

func TestNormalizeVaccinations(t *testing.T) {
	raw := rawVaccinations(
		[]string{"2021-01-12", "California", "20", "10"},
		[]string{"2021-01-12", "United States", "500", "300.0"},
		[]string{"2021-01-13", "Texas", "", ""},
	)

	set, err := NormalizeVaccinations(raw)
	require.NoError(t, err)

	assert.Equal(t, ColumnLocation, set.KeyColumn)
	assert.Equal(t, []Metric{MetricPeopleVaccinated}, set.Metrics)
	require.Len(t, set.Records, 3)

	assert.Equal(t, "California", set.Records[0].State)
	assert.Equal(t, 10.0, set.Records[0].Metrics[MetricPeopleVaccinated])
	assert.Equal(t, "United States", set.Records[1].State, "locations are resolved later")
	assert.Equal(t, 300.0, set.Records[1].Metrics[MetricPeopleVaccinated])

	_, reported := set.Records[2].Value(MetricPeopleVaccinated)
	assert.False(t, reported)
}

func TestNormalizeVaccinations_MissingColumn(t *testing.T) {
	raw := Table{Name: SnapshotRawVaccinations, Columns: []string{"date", "location"}}

	_, err := NormalizeVaccinations(raw)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "people_vaccinated", schemaErr.Column)
}

func TestNormalizeVaccinations_BadDate(t *testing.T) {
	_, err := NormalizeVaccinations(rawVaccinations([]string{"01/12/2021", "Ohio", "", "1"}))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "date", decodeErr.Column)
}

func TestParseMetricSet(t *testing.T) {
	set, err := ParseMetricSet("extended")
	require.NoError(t, err)
	assert.Equal(t, MetricSetExtended, set)

	_, err = ParseMetricSet("full")
	assert.Error(t, err)
}

func TestRecordSetTable(t *testing.T) {
	set := RecordSet{
		KeyColumn: ColumnLocation,
		Metrics:   []Metric{MetricPeopleVaccinated},
		Records: []Record{
			{State: "Ohio", Date: "2021-01-12", Metrics: Metrics{MetricPeopleVaccinated: 12.5}},
			{State: "Iowa", Date: "2021-01-12", Metrics: Metrics{}},
		},
	}

	tbl := set.Table(SnapshotNormalizedVaccinations)
	assert.Equal(t, SnapshotNormalizedVaccinations, tbl.Name)
	assert.Equal(t, []string{"location", "date", "peopleVaccinated"}, tbl.Columns)
	assert.Equal(t, [][]string{
		{"Ohio", "2021-01-12", "12.5"},
		{"Iowa", "2021-01-12", ""},
	}, tbl.Rows)
	assert.Equal(t, "Ohio", tbl.RowMap(0)["location"])
}
