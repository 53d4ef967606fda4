// Command validate checks a directory of pipeline snapshots for internal
// consistency: every stage file is present, normalized and reconciled tables
// only hold the 50 states, filtered tables stay inside the window, joined rows
// have a counterpart on both sides, and the daily summary matches the joined
// totals.
//
// Usage:
//
//	go run ./cmd/validate -dir data -start 2021-01-12 -end 2021-03-07
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/snapshot"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

var snapshotNames = []string{
	domain.SnapshotRawCases,
	domain.SnapshotRawVaccinations,
	domain.SnapshotNormalizedCases,
	domain.SnapshotNormalizedVaccinations,
	domain.SnapshotFilteredCases,
	domain.SnapshotFilteredVaccinations,
	domain.SnapshotReconciledCases,
	domain.SnapshotReconciledVaccinations,
	domain.SnapshotJoined,
	domain.SnapshotDailySummary,
	domain.SnapshotTrends,
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "data", "directory containing snapshot CSV files")
	start := flag.String("start", "2021-01-12", "first date of the run window")
	end := flag.String("end", "2021-03-07", "last date of the run window")
	flag.Parse()

	window, err := domain.NewDateWindow(*start, *end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(*dir, window); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, window domain.DateWindow) int {
	fmt.Println("=== COVID Snapshot Integrity Validation ===")
	fmt.Println()

	tables, missing := loadSnapshots(dir)
	presence := &phase{name: "Snapshot presence"}
	for _, name := range missing {
		presence.errorf("%s: missing", snapshot.FileName(name))
	}
	if len(tables) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no snapshots found in %s\n", dir)
		return 1
	}

	phases := []*phase{
		presence,
		validateStates(tables),
		validateWindow(tables, window),
		validateJoin(tables),
		validateSummary(tables),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	for _, name := range snapshotNames {
		if t, ok := tables[name]; ok {
			fmt.Printf("  %-26s %6d rows\n", name, t.Len())
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll checks passed.")
	return 0
}

func loadSnapshots(dir string) (map[string]domain.Table, []string) {
	tables := make(map[string]domain.Table, len(snapshotNames))
	var missing []string
	for _, name := range snapshotNames {
		f, err := os.Open(filepath.Join(dir, snapshot.FileName(name)))
		if err != nil {
			missing = append(missing, name)
			continue
		}
		t, err := snapshot.ReadCSV(f, name)
		_ = f.Close()
		if err != nil {
			missing = append(missing, name)
			continue
		}
		tables[name] = t
	}
	return tables, missing
}

// validateStates checks that every stage after normalization keys rows by one
// of the 50 postal codes, and that no national aggregate survives reconciliation.
func validateStates(tables map[string]domain.Table) *phase {
	p := &phase{name: "State vocabulary"}
	for _, name := range []string{
		domain.SnapshotNormalizedCases,
		domain.SnapshotFilteredCases,
		domain.SnapshotReconciledCases,
		domain.SnapshotReconciledVaccinations,
		domain.SnapshotJoined,
	} {
		t, ok := tables[name]
		if !ok {
			continue
		}
		col := t.ColumnIndex(domain.ColumnState)
		if col < 0 {
			p.errorf("%s: no %q column", name, domain.ColumnState)
			continue
		}
		for i, row := range t.Rows {
			if !domain.IsStateCode(row[col]) {
				p.errorf("%s row %d: %q is not a state code", name, i+1, row[col])
			}
		}
	}
	return p
}

// validateWindow checks that filtered and later tables only hold dates in the window.
func validateWindow(tables map[string]domain.Table, w domain.DateWindow) *phase {
	p := &phase{name: fmt.Sprintf("Window %s..%s", w.Start, w.End)}
	for _, name := range []string{
		domain.SnapshotFilteredCases,
		domain.SnapshotFilteredVaccinations,
		domain.SnapshotReconciledCases,
		domain.SnapshotReconciledVaccinations,
		domain.SnapshotJoined,
		domain.SnapshotDailySummary,
	} {
		t, ok := tables[name]
		if !ok {
			continue
		}
		col := t.ColumnIndex(domain.ColumnDate)
		if col < 0 {
			p.errorf("%s: no %q column", name, domain.ColumnDate)
			continue
		}
		for i, row := range t.Rows {
			if err := domain.ValidateISODate(row[col]); err != nil {
				p.errorf("%s row %d: %v", name, i+1, err)
				continue
			}
			if !w.Contains(row[col]) {
				p.errorf("%s row %d: date %s outside window", name, i+1, row[col])
			}
		}
	}
	return p
}

// validateJoin checks that each joined (state, date) exists in both reconciled tables.
func validateJoin(tables map[string]domain.Table) *phase {
	p := &phase{name: "Join keys present on both sides"}
	joined, ok := tables[domain.SnapshotJoined]
	if !ok {
		return p
	}
	cases := keySet(tables[domain.SnapshotReconciledCases])
	vaccinations := keySet(tables[domain.SnapshotReconciledVaccinations])

	for i := range joined.Rows {
		row := joined.RowMap(i)
		k := row[domain.ColumnState] + "|" + row[domain.ColumnDate]
		if !cases[k] {
			p.errorf("joined row %d: %s has no case row", i+1, k)
		}
		if !vaccinations[k] {
			p.errorf("joined row %d: %s has no vaccination row", i+1, k)
		}
	}
	return p
}

// validateSummary checks one ascending row per joined date and that each
// metric total equals the joined column sum.
func validateSummary(tables map[string]domain.Table) *phase {
	p := &phase{name: "Daily summary totals"}
	joined, ok := tables[domain.SnapshotJoined]
	if !ok {
		return p
	}
	summary, ok := tables[domain.SnapshotDailySummary]
	if !ok {
		return p
	}

	want := make(map[string]map[string]float64)
	for i := range joined.Rows {
		row := joined.RowMap(i)
		date := row[domain.ColumnDate]
		if want[date] == nil {
			want[date] = make(map[string]float64)
		}
		for _, col := range summary.Columns[1:] {
			if row[col] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				p.errorf("joined row %d column %s: %v", i+1, col, err)
				continue
			}
			want[date][col] += v
		}
	}

	dates := make([]string, 0, len(want))
	for d := range want {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if summary.Len() != len(dates) {
		p.errorf("summary has %d rows, joined has %d distinct dates", summary.Len(), len(dates))
	}
	for i := range summary.Rows {
		row := summary.RowMap(i)
		date := row[domain.ColumnDate]
		if i < len(dates) && date != dates[i] {
			p.errorf("summary row %d: date %s, want %s", i+1, date, dates[i])
		}
		for _, col := range summary.Columns[1:] {
			got, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				p.errorf("summary row %d column %s: %v", i+1, col, err)
				continue
			}
			if math.Abs(got-want[date][col]) > 1e-6 {
				p.errorf("summary %s %s: %s, joined total %s", date, col,
					domain.FormatNumber(got), domain.FormatNumber(want[date][col]))
			}
		}
	}
	return p
}

func keySet(t domain.Table) map[string]bool {
	keys := make(map[string]bool, t.Len())
	for i := range t.Rows {
		row := t.RowMap(i)
		keys[row[domain.ColumnState]+"|"+row[domain.ColumnDate]] = true
	}
	return keys
}
