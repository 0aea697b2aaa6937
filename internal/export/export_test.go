package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fits-inspector/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func sampleRecords() []models.Metadata {
	return []models.Metadata{
		{
			Filename:  "m31.fits",
			NAxis:     "2",
			Object:    "M 31",
			RA:        ptr(10.684708),
			Dec:       ptr(41.26875),
			RADESys:   "ICRS",
			DateObs:   ptr("2004-01-01 12:00:00.000"),
			MJDObs:    ptr(53005.5),
			ExpTime:   30,
			Instrume:  "WFC3",
			Telescope: "HST",
			MOC:       ptr("8/1234 9/"),
			Polygon:   ptr("Polygon ICRS 10.9 41.1 10.9 41.4 10.5 41.4 10.5 41.1"),
		},
		{
			Filename:  "dark.fits",
			NAxis:     "2",
			Object:    models.Unknown,
			RADESys:   "ICRS",
			Instrume:  models.Unknown,
			Telescope: "Unknown, really",
		},
	}
}

func TestCSV_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Write(&buf, sampleRecords()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "DATE-OBS,DEC,EXPTIME,FILENAME,INSTRUME,MJD-OBS,MOC,NAXIS,OBJECT,Polygon,RA,RADESYS,TELESCOP", lines[0])
	assert.Equal(t, "2004-01-01 12:00:00.000,41.26875,30.0,m31.fits,WFC3,53005.5,8/1234 9/,2,M 31,Polygon ICRS 10.9 41.1 10.9 41.4 10.5 41.4 10.5 41.1,10.684708,ICRS,HST", lines[1])
	assert.Equal(t, `,,0.0,dark.fits,Unknown,,,2,Unknown,,,ICRS,"Unknown, really"`, lines[2])
}

func TestCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	records := sampleRecords()
	require.NoError(t, CSV{}.Write(&buf, records))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestWriteFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := WriteFile(path, CSV{}, nil)
	assert.ErrorIs(t, err, ErrNoRecords)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file for an empty export")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteFile(path, CSV{}, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "DATE-OBS,"))
}

func TestNew(t *testing.T) {
	for _, f := range Formats() {
		exp, err := New(strings.ToUpper(f))
		require.NoError(t, err)
		assert.Equal(t, f, exp.Format())
	}
	exp, err := New("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, exp.Format())

	_, err = New("xlsx")
	assert.Error(t, err)
}

func TestGeoJSON_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GeoJSON{}.Write(&buf, sampleRecords()))

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string        `json:"type"`
				Coordinates [][][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 1, "records without footprint are skipped")
	f := doc.Features[0]
	assert.Equal(t, "Polygon", f.Geometry.Type)
	require.Len(t, f.Geometry.Coordinates, 1)
	ring := f.Geometry.Coordinates[0]
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4])
	assert.Equal(t, []float64{10.9, 41.1}, ring[0])
	assert.Equal(t, "M 31", f.Properties["OBJECT"])
	assert.Equal(t, 30.0, f.Properties["EXPTIME"])
}

func TestFeature_WrapsLongitude(t *testing.T) {
	md := models.Metadata{Filename: "gc.fits", Polygon: ptr("Polygon ICRS 266.5 -29 266.5 -28.8 266.3 -28.8 266.3 -29")}
	f, err := Feature(md)
	require.NoError(t, err)
	require.NotNil(t, f)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-93.5")

	_, err = Feature(models.Metadata{Filename: "bad.fits", Polygon: ptr("Polygon ICRS")})
	assert.Error(t, err)
}

func TestParquet_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Parquet{}.Write(&buf, sampleRecords()))

	data := buf.Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestParquetRow(t *testing.T) {
	row := parquetRow(sampleRecords()[1])
	assert.Len(t, row, len(models.Columns()))
	assert.Nil(t, row["ra"].(*float64))
	assert.Equal(t, "dark.fits", row["filename"])
}
