package domain

import "fmt"

// DateWindow is an inclusive range of ISO dates. Start == End selects a single day.
type DateWindow struct {
	Start string
	End   string
}

// NewDateWindow validates both bounds and their order.
func NewDateWindow(start, end string) (DateWindow, error) {
	if err := ValidateISODate(start); err != nil {
		return DateWindow{}, fmt.Errorf("window start: %w", err)
	}
	if err := ValidateISODate(end); err != nil {
		return DateWindow{}, fmt.Errorf("window end: %w", err)
	}
	if start > end {
		return DateWindow{}, fmt.Errorf("window start %s is after end %s", start, end)
	}
	return DateWindow{Start: start, End: end}, nil
}

// Contains reports whether date falls inside the window. ISO strings order
// the same way as the calendar, so the comparison is lexicographic.
func (w DateWindow) Contains(date string) bool {
	return w.Start <= date && date <= w.End
}

// FilterRange keeps the records whose date lies in [start, end].
func FilterRange(records []Record, start, end string) []Record {
	w := DateWindow{Start: start, End: end}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// FilterSingle keeps the records dated exactly date.
func FilterSingle(records []Record, date string) []Record {
	return FilterRange(records, date, date)
}

// FilterWindow applies FilterRange to the set, keeping its schema.
func (s RecordSet) FilterWindow(w DateWindow) RecordSet {
	return s.withRecords(FilterRange(s.Records, w.Start, w.End))
}
