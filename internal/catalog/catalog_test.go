package catalog

import (
	"bytes"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fits-inspector/internal/export"
	"go-fits-inspector/internal/skycoord"
	"go-fits-inspector/pkg/models"
)

func strPtr(s string) *string { return &s }

func record(name, object, polygon string) models.Metadata {
	md := models.Metadata{
		Filename:  name,
		NAxis:     "2",
		Object:    object,
		RADESys:   "ICRS",
		Instrume:  models.Unknown,
		Telescope: models.Unknown,
	}
	if polygon != "" {
		md.Polygon = strPtr(polygon)
		md.MOC = strPtr("10/")
	}
	return md
}

func fixture() []models.Metadata {
	return []models.Metadata{
		record("m31.fits", "M  31", "Polygon ICRS 10.0 40.0 10.0 42.0 12.0 42.0 12.0 40.0"),
		record("wrap.fits", "NGC 7814", "Polygon ICRS 359.5 -0.5 359.5 0.5 0.5 0.5 0.5 -0.5"),
		record("pole.fits", "Polaris", "Polygon ICRS 0 88 90 88 180 88 270 88"),
		record("nofoot.fits", "M 33", ""),
		record("broken.fits", "M 32", "Polygon ICRS 1 2 3"),
	}
}

func TestCovering(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	c := New(fixture(), log)

	tests := []struct {
		name string
		pos  skycoord.Coord
		want []string
	}{
		{name: "inside", pos: skycoord.Coord{Lon: 11, Lat: 41}, want: []string{"m31.fits"}},
		{name: "outside", pos: skycoord.Coord{Lon: 13, Lat: 41}},
		{name: "across zero RA", pos: skycoord.Coord{Lon: 359.9, Lat: 0.1}, want: []string{"wrap.fits"}},
		{name: "across zero RA east", pos: skycoord.Coord{Lon: 0.2, Lat: -0.2}, want: []string{"wrap.fits"}},
		{name: "pole", pos: skycoord.Coord{Lon: 123, Lat: 89.5}, want: []string{"pole.fits"}},
		{name: "antipode", pos: skycoord.Coord{Lon: 191, Lat: -41}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Covering(tt.pos)
			require.NoError(t, err)
			var names []string
			for _, md := range got {
				names = append(names, md.Filename)
			}
			assert.Equal(t, tt.want, names)
		})
	}
	assert.NotEmpty(t, hook.AllEntries(), "broken polygon is reported")
}

func TestCovering_InvalidPosition(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	_, err := New(fixture(), log).Covering(skycoord.Coord{Lon: 0, Lat: 91})
	assert.Error(t, err)
}

func TestFootprintContains_Winding(t *testing.T) {
	cw := []skycoord.Coord{{Lon: 10, Lat: 40}, {Lon: 10, Lat: 42}, {Lon: 12, Lat: 42}, {Lon: 12, Lat: 40}}
	ccw := []skycoord.Coord{cw[3], cw[2], cw[1], cw[0]}
	pos := skycoord.Coord{Lon: 11, Lat: 41}

	for _, corners := range [][]skycoord.Coord{cw, ccw} {
		inside, err := FootprintContains(corners, pos)
		require.NoError(t, err)
		assert.True(t, inside)
	}

	_, err := FootprintContains(cw[:2], pos)
	assert.Error(t, err)
}

func TestSearchObject(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	c := New(fixture(), log)

	got := c.SearchObject("m31", 2)
	require.Len(t, got, 3)
	assert.Equal(t, "m31.fits", got[0].Record.Filename)
	assert.Equal(t, 1, got[0].Distance)

	exact := c.SearchObject("  polaris ", 0)
	require.Len(t, exact, 1)
	assert.Equal(t, "pole.fits", exact[0].Record.Filename)

	assert.Nil(t, c.SearchObject("   ", 3))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, export.WriteFile(path, export.CSV{}, fixture()))

	log, _ := logtest.NewNullLogger()
	c, err := LoadFile(path, log)
	require.NoError(t, err)
	assert.Equal(t, fixture(), c.Records())

	_, err = Load(bytes.NewBufferString("not,a\ncatalog"), log)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), log)
	assert.Error(t, err)
}
