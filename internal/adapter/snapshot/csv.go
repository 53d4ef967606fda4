package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// WriteCSV writes the table's header row followed by its data rows.
func WriteCSV(w io.Writer, t domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(r io.Reader, name string) (domain.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return domain.Table{}, fmt.Errorf("read %s: missing header row", name)
	}
	return domain.Table{Name: name, Columns: records[0], Rows: records[1:]}, nil
}

// FileName returns the file name used for a snapshot.
func FileName(name string) string {
	return name + ".csv"
}
