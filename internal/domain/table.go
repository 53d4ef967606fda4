package domain

import (
	"time"
)

// Snapshot names, one per stage output.
const (
	SnapshotRawCases               = "raw_cases"
	SnapshotRawVaccinations        = "raw_vaccinations"
	SnapshotNormalizedCases        = "normalized_cases"
	SnapshotNormalizedVaccinations = "normalized_vaccinations"
	SnapshotFilteredCases          = "filtered_cases"
	SnapshotFilteredVaccinations   = "filtered_vaccinations"
	SnapshotReconciledCases        = "reconciled_cases"
	SnapshotReconciledVaccinations = "reconciled_vaccinations"
	SnapshotJoined                 = "joined"
	SnapshotDailySummary           = "daily_summary"
	SnapshotTrends                 = "trends"
)

// Table is a named rectangular table with a header row. An empty cell is a null value.
type Table struct {
	Name        string
	Columns     []string
	Rows        [][]string
	GeneratedAt time.Time
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// RowMap returns row i keyed by column name. Short rows yield empty cells.
func (t Table) RowMap(i int) map[string]string {
	row := t.Rows[i]
	m := make(map[string]string, len(t.Columns))
	for j, c := range t.Columns {
		if j < len(row) {
			m[c] = row[j]
		} else {
			m[c] = ""
		}
	}
	return m
}
