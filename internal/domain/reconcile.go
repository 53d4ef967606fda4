package domain

// Reconcile puts both sets on the postal-code vocabulary. The vaccination key
// column becomes "state", full names are mapped to codes (unknown names pass
// through unchanged) and any record on either side whose state is not one of
// the 50 codes is dropped. Reconciling an already reconciled pair is a no-op.
func Reconcile(cases, vaccinations RecordSet) (RecordSet, RecordSet) {
	return reconcileSet(cases), reconcileSet(vaccinations)
}

func reconcileSet(s RecordSet) RecordSet {
	records := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if code, ok := CodeForName(r.State); ok {
			r.State = code
		}
		if !IsStateCode(r.State) {
			continue
		}
		records = append(records, r)
	}

	out := s.withRecords(records)
	out.KeyColumn = ColumnState
	return out
}
