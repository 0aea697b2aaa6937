package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"go-fits-inspector/pkg/models"
)

// FormatCSV is the canonical export
const FormatCSV = "csv"

// CSV writes one header row of sorted column names, then one row per record.
// Missing values are empty cells. Lines end with CRLF.
type CSV struct{}

func (CSV) Format() string { return FormatCSV }

func (CSV) Write(w io.Writer, records []models.Metadata) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	columns := models.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, md := range records {
		if err := cw.Write(md.Row(columns)); err != nil {
			return fmt.Errorf("write %s: %w", md.Filename, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads records written by CSV. Columns may appear in any order.
func ReadCSV(r io.Reader) ([]models.Metadata, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := rows[0]
	records := make([]models.Metadata, 0, len(rows)-1)
	for i, row := range rows[1:] {
		md, err := models.ParseRow(columns, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		records = append(records, md)
	}
	return records, nil
}
