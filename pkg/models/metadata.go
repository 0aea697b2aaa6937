package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Column names of the canonical record, as written to tabular exports
const (
	ColumnFilename  = "FILENAME"
	ColumnNAxis     = "NAXIS"
	ColumnObject    = "OBJECT"
	ColumnRA        = "RA"
	ColumnDec       = "DEC"
	ColumnRADESys   = "RADESYS"
	ColumnDateObs   = "DATE-OBS"
	ColumnMJDObs    = "MJD-OBS"
	ColumnExpTime   = "EXPTIME"
	ColumnInstrume  = "INSTRUME"
	ColumnTelescope = "TELESCOP"
	ColumnMOC       = "MOC"
	ColumnPolygon   = "Polygon"
)

// Unknown is the default for header text fields that are absent
const Unknown = "Unknown"

// Metadata is the homogenized description of one image. Optional values are
// nil when they could not be derived. RA and Dec are ICRS degrees and are set
// together, as are MOC and Polygon.
type Metadata struct {
	Filename  string   `json:"FILENAME"`
	NAxis     string   `json:"NAXIS"`
	Object    string   `json:"OBJECT"`
	RA        *float64 `json:"RA"`
	Dec       *float64 `json:"DEC"`
	RADESys   string   `json:"RADESYS"`
	DateObs   *string  `json:"DATE-OBS"`
	MJDObs    *float64 `json:"MJD-OBS"`
	ExpTime   float64  `json:"EXPTIME"`
	Instrume  string   `json:"INSTRUME"`
	Telescope string   `json:"TELESCOP"`
	MOC       *string  `json:"MOC"`
	Polygon   *string  `json:"Polygon"`
}

// Columns returns every column of the record in sorted order
func Columns() []string {
	cols := []string{
		ColumnFilename, ColumnNAxis, ColumnObject, ColumnRA, ColumnDec,
		ColumnRADESys, ColumnDateObs, ColumnMJDObs, ColumnExpTime,
		ColumnInstrume, ColumnTelescope, ColumnMOC, ColumnPolygon,
	}
	sort.Strings(cols)
	return cols
}

// Fields returns the record as column -> cell text. Missing values are empty.
func (m Metadata) Fields() map[string]string {
	return map[string]string{
		ColumnFilename:  m.Filename,
		ColumnNAxis:     m.NAxis,
		ColumnObject:    m.Object,
		ColumnRA:        formatOptional(m.RA),
		ColumnDec:       formatOptional(m.Dec),
		ColumnRADESys:   m.RADESys,
		ColumnDateObs:   deref(m.DateObs),
		ColumnMJDObs:    formatOptional(m.MJDObs),
		ColumnExpTime:   FormatFloat(m.ExpTime),
		ColumnInstrume:  m.Instrume,
		ColumnTelescope: m.Telescope,
		ColumnMOC:       deref(m.MOC),
		ColumnPolygon:   deref(m.Polygon),
	}
}

// Row returns the cells for the given columns
func (m Metadata) Row(columns []string) []string {
	fields := m.Fields()
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = fields[c]
	}
	return row
}

// ParseRow rebuilds a record from exported cells
func ParseRow(columns, row []string) (Metadata, error) {
	if len(columns) != len(row) {
		return Metadata{}, fmt.Errorf("row has %d cells, expected %d", len(row), len(columns))
	}

	var m Metadata
	for i, col := range columns {
		cell := row[i]
		var err error
		switch col {
		case ColumnFilename:
			m.Filename = cell
		case ColumnNAxis:
			m.NAxis = cell
		case ColumnObject:
			m.Object = cell
		case ColumnRA:
			m.RA, err = parseOptional(cell)
		case ColumnDec:
			m.Dec, err = parseOptional(cell)
		case ColumnRADESys:
			m.RADESys = cell
		case ColumnDateObs:
			m.DateObs = optionalString(cell)
		case ColumnMJDObs:
			m.MJDObs, err = parseOptional(cell)
		case ColumnExpTime:
			if cell != "" {
				m.ExpTime, err = strconv.ParseFloat(cell, 64)
			}
		case ColumnInstrume:
			m.Instrume = cell
		case ColumnTelescope:
			m.Telescope = cell
		case ColumnMOC:
			m.MOC = optionalString(cell)
		case ColumnPolygon:
			m.Polygon = optionalString(cell)
		}
		if err != nil {
			return Metadata{}, fmt.Errorf("column %s: %w", col, err)
		}
	}
	return m, nil
}

// FormatFloat renders a float the way the exported files always have:
// shortest round-trip digits, a ".0" suffix for integral values and
// exponent notation outside [1e-4, 1e16).
func FormatFloat(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}

func parseOptional(cell string) (*float64, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalString(cell string) *string {
	if cell == "" {
		return nil
	}
	return &cell
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
