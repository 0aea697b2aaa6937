package models

import (
	"math"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestColumnsSorted(t *testing.T) {
	want := []string{
		"DATE-OBS", "DEC", "EXPTIME", "FILENAME", "INSTRUME", "MJD-OBS", "MOC",
		"NAXIS", "OBJECT", "Polygon", "RA", "RADESYS", "TELESCOP",
	}
	got := Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Columns()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{30, "30.0"},
		{-28.936175, "-28.936175"},
		{266.40498829, "266.40498829"},
		{0.1, "0.1"},
		{1e-05, "1e-05"},
		{1.5e16, "1.5e+16"},
		{53005.5, "53005.5"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRowAndParseRow(t *testing.T) {
	m := Metadata{
		Filename:  "m31.fits",
		NAxis:     "2",
		Object:    "M 31",
		RA:        ptr(10.684708),
		Dec:       ptr(41.26875),
		RADESys:   "ICRS",
		DateObs:   ptr("2004-01-01 12:00:00.000"),
		MJDObs:    ptr(53005.5),
		ExpTime:   30,
		Instrume:  Unknown,
		Telescope: "HST",
	}

	cols := Columns()
	row := m.Row(cols)
	cells := map[string]string{}
	for i, c := range cols {
		cells[c] = row[i]
	}
	if cells["EXPTIME"] != "30.0" || cells["MOC"] != "" || cells["Polygon"] != "" || cells["RA"] != "10.684708" {
		t.Errorf("unexpected cells %v", cells)
	}

	back, err := ParseRow(cols, row)
	if err != nil {
		t.Fatalf("ParseRow() error = %v", err)
	}
	if back.Filename != m.Filename || *back.RA != *m.RA || *back.MJDObs != *m.MJDObs || back.MOC != nil || *back.DateObs != *m.DateObs {
		t.Errorf("ParseRow() = %+v", back)
	}
}

func TestParseRow_Errors(t *testing.T) {
	if _, err := ParseRow([]string{"RA"}, []string{"1", "2"}); err == nil {
		t.Error("expected cell count error")
	}
	if _, err := ParseRow([]string{"RA"}, []string{"ten"}); err == nil {
		t.Error("expected parse error")
	}
}
