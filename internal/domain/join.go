package domain

type joinKey struct {
	state string
	date  string
}

// Join inner-joins cases and vaccinations on (state, date). Output follows the
// left order; a left record matching several right records yields one row per
// match. Records without a counterpart are dropped. Duplicate keys multiply,
// so the output can be longer than the smaller input.
func Join(cases, vaccinations RecordSet) RecordSet {
	right := make(map[joinKey][]Record, len(vaccinations.Records))
	for _, r := range vaccinations.Records {
		k := joinKey{state: r.State, date: r.Date}
		right[k] = append(right[k], r)
	}

	metrics := make([]Metric, 0, len(cases.Metrics)+len(vaccinations.Metrics))
	metrics = append(metrics, cases.Metrics...)
	metrics = append(metrics, vaccinations.Metrics...)

	joined := make([]Record, 0, len(cases.Records))
	for _, l := range cases.Records {
		for _, r := range right[joinKey{state: l.State, date: l.Date}] {
			values := make(Metrics, len(l.Metrics)+len(r.Metrics))
			for m, v := range l.Metrics {
				values[m] = v
			}
			for m, v := range r.Metrics {
				values[m] = v
			}
			joined = append(joined, Record{State: l.State, Date: l.Date, Metrics: values})
		}
	}

	return RecordSet{KeyColumn: ColumnState, Metrics: metrics, Records: joined}
}
