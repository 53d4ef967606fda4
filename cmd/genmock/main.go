// Command genmock writes deterministic fixture feeds in the same formats as
// the live case and vaccination sources: a JSON array of per-state daily case
// objects and a CSV of per-location vaccinations. The fixtures include rows the
// pipeline must drop (territories, the national aggregate, dates outside the
// window) so they exercise every stage.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -cases-out data/mock/states_daily.json \
//	  -vaccinations-out data/mock/us_state_vaccinations.csv \
//	  -start 2021-01-12 -end 2021-03-07
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

const isoDate = "2006-01-02"

// extraCaseStates are reported by the case feed but are not one of the 50 states.
var extraCaseStates = []string{"DC", "PR", "GU"}

// extraLocations are reported by the vaccination feed but are not states.
var extraLocations = []string{"United States", "District of Columbia", "Bureau of Prisons"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	casesOut := flag.String("cases-out", "", "output path for the case JSON fixture")
	vaccinationsOut := flag.String("vaccinations-out", "", "output path for the vaccination CSV fixture")
	start := flag.String("start", "2021-01-12", "first date inside the window")
	end := flag.String("end", "2021-03-07", "last date inside the window")
	margin := flag.Int("margin", 3, "days generated on each side of the window")
	flag.Parse()

	if *casesOut == "" || *vaccinationsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -cases-out, -vaccinations-out")
	}

	window, err := domain.NewDateWindow(*start, *end)
	if err != nil {
		return err
	}
	dates, err := dateRange(window, *margin)
	if err != nil {
		return err
	}

	cases := caseRows(dates)
	if err := writeJSON(*casesOut, cases); err != nil {
		return err
	}
	log.Printf("cases: %d rows -> %s", len(cases), *casesOut)

	vaccinations := vaccinationRows(dates)
	if err := writeCSV(*vaccinationsOut, vaccinations); err != nil {
		return err
	}
	log.Printf("vaccinations: %d rows -> %s", len(vaccinations)-1, *vaccinationsOut)
	return nil
}

// dateRange returns every day from margin days before the window to margin days after it.
func dateRange(w domain.DateWindow, margin int) ([]time.Time, error) {
	first, err := time.Parse(isoDate, w.Start)
	if err != nil {
		return nil, err
	}
	last, err := time.Parse(isoDate, w.End)
	if err != nil {
		return nil, err
	}
	first = first.AddDate(0, 0, -margin)
	last = last.AddDate(0, 0, margin)

	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// caseRows builds the case feed, newest date first like the live feed. Values
// grow with the day index so every state has an increasing series. Some
// metrics are left null to exercise missing-value handling.
func caseRows(dates []time.Time) []map[string]any {
	states := append(domain.StateCodes(), extraCaseStates...)
	rows := make([]map[string]any, 0, len(dates)*len(states))
	for i := len(dates) - 1; i >= 0; i-- {
		date, _ := strconv.Atoi(dates[i].Format("20060102"))
		for s, state := range states {
			base := float64((s + 1) * 1000)
			day := float64(i)
			row := map[string]any{
				"date":                   date,
				"state":                  state,
				"positive":               base + day*100,
				"negative":               base*4 + day*300,
				"pending":                nil,
				"hospitalizedCumulative": base/10 + day,
				"onVentilatorCumulative": nil,
				"recovered":              base/2 + day*50,
				"death":                  base/100 + day,
				"totalTestResults":       base*5 + day*400,
				"hospitalizedCurrently":  base / 20,
				"onVentilatorCurrently":  nil,
				"dataQualityGrade":       "A",
			}
			if s%7 == 0 {
				row["pending"] = day
				row["onVentilatorCumulative"] = base / 50
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// vaccinationRows builds the vaccination CSV including its header row.
// Locations use full names and New York uses the feed's "New York State".
func vaccinationRows(dates []time.Time) [][]string {
	locations := make([]string, 0, 50+len(extraLocations))
	for _, code := range domain.StateCodes() {
		name, _ := domain.NameForCode(code)
		if code == "NY" {
			name = "New York State"
		}
		locations = append(locations, name)
	}
	locations = append(locations, extraLocations...)

	rows := [][]string{{"date", "location", "total_vaccinations", "people_vaccinated", "people_fully_vaccinated"}}
	for _, loc := range locations {
		for i, d := range dates {
			vaccinated := ""
			if i%10 != 9 {
				vaccinated = strconv.Itoa((len(loc) + 1) * 500 * (i + 1))
			}
			rows = append(rows, []string{
				d.Format(isoDate),
				loc,
				strconv.Itoa((len(loc) + 1) * 800 * (i + 1)),
				vaccinated,
				strconv.Itoa((len(loc) + 1) * 100 * i),
			})
		}
	}
	return rows
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
