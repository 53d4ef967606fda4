// Package domain models the COVID-19 state-level case and vaccination data and the
// pure stages that reshape it.
//
// # Data Sources
//
// Case data comes from The COVID Tracking Project daily states feed
// (https://api.covidtracking.com/v1/states/daily.json), a JSON array with one
// object per state per day. Vaccination data comes from Our World in Data
// (us_state_vaccinations.csv), one CSV row per location per day.
//
// # Source Conventions
//
// Case feed:
//
//	state:  2-letter postal code, including territories (PR, GU, AS, MP, VI) and DC.
//	date:   8-digit number, e.g. 20210112.
//	counts: cumulative, null when a state did not report the metric.
//	hospitalizedCumulative and onVentilatorCumulative are exposed as
//	hospitalized and onVentilator.
//
// Vaccination feed:
//
//	location: full state name ("California"), a territory, a federal program
//	          ("Bureau of Prisons") or the national aggregate ("United States").
//	          New York appears as "New York State".
//	date:     ISO "YYYY-MM-DD".
//	people_vaccinated: cumulative, empty when not reported; exposed as peopleVaccinated.
//
// # Stages
//
// NormalizeCases / NormalizeVaccinations -> FilterRange -> Reconcile -> Join ->
// AggregateDaily -> AnalyzeTrends. Every stage returns a new value and never
// mutates its input. Only normalization can fail; the remaining stages accept
// empty input and return empty output.
package domain
