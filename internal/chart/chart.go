// Package chart renders the joined and summarized data as interactive
// plotly HTML pages.
package chart

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Output file names.
const (
	FileCasesTrend      = "cases_trend.html"
	FileOutcomesTrend   = "outcomes_trend.html"
	FileCumulativeTotal = "cumulative_totals.html"
	FileStateMap        = "state_map.html"
)

// ErrNoData is returned by the single-date figures when no row matches the date.
var ErrNoData = errors.New("no data for date")

var countPrinter = message.NewPrinter(language.English)

// Grey palette, darkest first.
var greys = []string{"#000000", "#3b3b3b", "#6b6b6b", "#969696", "#bdbdbd"}

var totalsMetrics = []domain.Metric{
	domain.MetricPositive, domain.MetricNegative, domain.MetricPending,
	domain.MetricHospitalized, domain.MetricDeath, domain.MetricRecovered,
}

var metricLabels = map[domain.Metric]string{
	domain.MetricPeopleVaccinated: "People Vaccinated",
	domain.MetricPositive:         "Positive Cases",
	domain.MetricNegative:         "Negative Cases",
	domain.MetricPending:          "Pending",
	domain.MetricHospitalized:     "Hospitalized",
	domain.MetricOnVentilator:     "On Ventilator",
	domain.MetricRecovered:        "Recovered",
	domain.MetricDeath:            "Deaths",
}

// Renderer writes chart pages into a directory.
type Renderer struct {
	dir    string
	logger *slog.Logger
}

// NewRenderer creates the output directory if needed.
func NewRenderer(dir string, logger *slog.Logger) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	return &Renderer{dir: dir, logger: logger}, nil
}

// RenderAll writes the two trend charts from daily, then the totals bar chart
// and the state map for mapDate. A date with no data skips its chart with a
// warning. It returns the paths written.
func (r *Renderer) RenderAll(joined domain.RecordSet, daily []domain.DailySummary, mapDate string) ([]string, error) {
	if len(daily) == 0 {
		r.logger.Warn("no daily data, skipping charts")
		return nil, nil
	}

	pages := []struct {
		file  string
		build func() (*grob.Fig, error)
	}{
		{FileCasesTrend, func() (*grob.Fig, error) { return CasesTrend(daily), nil }},
		{FileOutcomesTrend, func() (*grob.Fig, error) { return OutcomesTrend(daily), nil }},
		{FileCumulativeTotal, func() (*grob.Fig, error) { return CumulativeTotals(daily, mapDate) }},
		{FileStateMap, func() (*grob.Fig, error) { return StateMap(joined, mapDate) }},
	}

	written := make([]string, 0, len(pages))
	for _, page := range pages {
		fig, err := page.build()
		if errors.Is(err, ErrNoData) {
			r.logger.Warn("skipping chart", "file", page.file, "date", mapDate, "reason", err)
			continue
		}
		if err != nil {
			return written, err
		}

		path := filepath.Join(r.dir, page.file)
		if err := writeHTML(fig, path); err != nil {
			return written, err
		}
		r.logger.Info("chart written", "path", path)
		written = append(written, path)
	}
	return written, nil
}

// CasesTrend plots people vaccinated against positive and negative results.
func CasesTrend(daily []domain.DailySummary) *grob.Fig {
	return trendFigure(daily,
		"Number of People Vaccinated and COVID-19 Cases",
		"Number of People Vaccinated and COVID Cases",
		domain.MetricPeopleVaccinated, domain.MetricPositive, domain.MetricNegative,
	)
}

// OutcomesTrend plots people vaccinated against deaths and recoveries.
func OutcomesTrend(daily []domain.DailySummary) *grob.Fig {
	return trendFigure(daily,
		"Number of People Vaccinated and COVID-19 Outcomes",
		"Number of People Vaccinated and COVID Outcomes",
		domain.MetricPeopleVaccinated, domain.MetricDeath, domain.MetricRecovered,
	)
}

func trendFigure(daily []domain.DailySummary, title, yTitle string, metrics ...domain.Metric) *grob.Fig {
	dates := make([]string, len(daily))
	for i, d := range daily {
		dates[i] = d.Date
	}

	traces := make(grob.Traces, 0, len(metrics))
	for i, m := range metrics {
		values := make([]float64, len(daily))
		for j, d := range daily {
			values[j] = d.Metrics[m]
		}
		traces = append(traces, &grob.Scatter{
			Type: grob.TraceTypeScatter,
			Name: metricLabels[m],
			X:    dates,
			Y:    values,
			Mode: grob.ScatterModeLines + "+" + grob.ScatterModeMarkers,
			Line: &grob.ScatterLine{Color: greys[i%len(greys)]},
		})
	}

	first, last := daily[0].Date, daily[len(daily)-1].Date
	return &grob.Fig{
		Data: traces,
		Layout: &grob.Layout{
			Title:      &grob.LayoutTitle{Text: fmt.Sprintf("%s between %s and %s", title, first, last)},
			Showlegend: grob.True,
			Xaxis:      &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{Text: "Date"}},
			Yaxis: &grob.LayoutYaxis{
				Title:      &grob.LayoutYaxisTitle{Text: yTitle},
				Tickformat: ",.0f",
			},
		},
	}
}

// CumulativeTotals is a bar chart of the national totals on date.
func CumulativeTotals(daily []domain.DailySummary, date string) (*grob.Fig, error) {
	var summary *domain.DailySummary
	for i := range daily {
		if daily[i].Date == date {
			summary = &daily[i]
			break
		}
	}
	if summary == nil {
		return nil, fmt.Errorf("cumulative totals %s: %w", date, ErrNoData)
	}

	labels := make([]string, len(totalsMetrics))
	values := make([]float64, len(totalsMetrics))
	text := make([]string, len(totalsMetrics))
	for i, m := range totalsMetrics {
		labels[i] = metricLabels[m]
		values[i] = summary.Metrics[m]
		text[i] = formatCount(values[i])
	}

	return &grob.Fig{
		Data: grob.Traces{
			&grob.Bar{
				Type:         grob.TraceTypeBar,
				X:            labels,
				Y:            values,
				Text:         text,
				Textposition: grob.BarTextpositionOutside,
				Marker:       &grob.BarMarker{Color: greys[3]},
			},
		},
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{Text: "COVID-19 Cases and Outcomes on " + date},
			Yaxis: &grob.LayoutYaxis{
				Title:      &grob.LayoutYaxisTitle{Text: "Number of People"},
				Tickformat: ",.0f",
			},
		},
	}, nil
}

// StateMap is a USA choropleth of people vaccinated per state on date, with
// every metric in the hover text.
func StateMap(joined domain.RecordSet, date string) (*grob.Fig, error) {
	var (
		states []string
		values []float64
		hover  []string
	)
	for _, rec := range joined.Records {
		if rec.Date != date {
			continue
		}
		states = append(states, rec.State)
		v, _ := rec.Value(domain.MetricPeopleVaccinated)
		values = append(values, v)
		hover = append(hover, hoverText(rec, joined.Metrics))
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("state map %s: %w", date, ErrNoData)
	}

	return &grob.Fig{
		Data: grob.Traces{
			&grob.Choropleth{
				Type:         grob.TraceTypeChoropleth,
				Locations:    states,
				Z:            values,
				Text:         hover,
				Locationmode: grob.ChoroplethLocationmodeUsaStates,
				Colorscale:   "Greys",
				Colorbar: &grob.ChoroplethColorbar{
					Title:      &grob.ChoroplethColorbarTitle{Text: metricLabels[domain.MetricPeopleVaccinated]},
					Tickformat: ",.0f",
				},
			},
		},
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{Text: "COVID Cases and Outcomes in each State on " + date},
			Geo:   &grob.LayoutGeo{Scope: grob.LayoutGeoScopeUsa},
		},
	}, nil
}

// hoverText lists the full state name followed by each metric, with
// "No Data" for unreported values.
func hoverText(rec domain.Record, metrics []domain.Metric) string {
	name, ok := domain.NameForCode(rec.State)
	if !ok {
		name = rec.State
	}
	lines := make([]string, 0, len(metrics)+1)
	lines = append(lines, "<b>"+name+"</b>")
	for _, m := range metrics {
		v, ok := rec.Value(m)
		cell := "No Data"
		if ok {
			cell = formatCount(v)
		}
		lines = append(lines, string(m)+": "+cell)
	}
	return strings.Join(lines, "<br>")
}

// formatCount renders a value with thousands separators and no decimals.
// Values that round to zero print as "0", never "-0".
func formatCount(v float64) string {
	v = math.Round(v)
	if v == 0 {
		v = 0
	}
	return countPrinter.Sprintf("%.0f", v)
}

// writeHTML renders fig as a standalone page. offline.ToHtml reports no
// errors, so any previous page is removed first and the file checked afterwards.
func writeHTML(fig *grob.Fig, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace chart %s: %w", path, err)
	}
	offline.ToHtml(fig, path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("write chart %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("write chart %s: empty file", path)
	}
	return nil
}
