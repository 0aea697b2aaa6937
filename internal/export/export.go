// Package export writes metadata records as CSV, Parquet or GeoJSON.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go-fits-inspector/pkg/models"
)

// ErrNoRecords is returned instead of writing an empty export
var ErrNoRecords = errors.New("no records to export")

// Exporter writes a sequence of records in one format
type Exporter interface {
	Format() string
	Write(w io.Writer, records []models.Metadata) error
}

// Formats lists the supported export formats
func Formats() []string {
	return []string{FormatCSV, FormatParquet, FormatGeoJSON}
}

// New returns the exporter for a format name
func New(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return CSV{}, nil
	case FormatParquet:
		return Parquet{}, nil
	case FormatGeoJSON, "json":
		return GeoJSON{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// WriteFile writes records to path. No file is created for an empty slice.
func WriteFile(path string, exp Exporter, records []models.Metadata) (err error) {
	if len(records) == 0 {
		return ErrNoRecords
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return exp.Write(f, records)
}
