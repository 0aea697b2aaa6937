package footprint

import (
	"errors"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fits-inspector/internal/moc"
	"go-fits-inspector/internal/skycoord"
)

type fakeTransform struct {
	axes    int
	frame   skycoord.Frame
	corners []skycoord.Coord
	err     error
}

func (f fakeTransform) Reference() (skycoord.Coord, error)   { return skycoord.Coord{}, nil }
func (f fakeTransform) CelestialAxes() int                   { return f.axes }
func (f fakeTransform) Frame() skycoord.Frame                { return f.frame }
func (f fakeTransform) Footprint() ([]skycoord.Coord, error) { return f.corners, f.err }

var m31Corners = []skycoord.Coord{
	{Lon: 10.9, Lat: 41.1},
	{Lon: 10.9, Lat: 41.4},
	{Lon: 10.5, Lat: 41.4},
	{Lon: 10.5, Lat: 41.1},
}

func newBuilder(depth int) *Builder {
	log, _ := logtest.NewNullLogger()
	return NewBuilder(depth, log)
}

func TestBuild(t *testing.T) {
	fp, err := newBuilder(0).Build(fakeTransform{axes: 2, frame: skycoord.ICRS, corners: m31Corners})
	require.NoError(t, err)
	require.NotNil(t, fp)

	assert.Equal(t, "Polygon ICRS 10.9 41.1 10.9 41.4 10.5 41.4 10.5 41.1", fp.Polygon)
	assert.NotEmpty(t, fp.MOC)
	assert.Contains(t, fp.MOC, "10/")
	assert.Equal(t, moc.DefaultMaxOrder, fp.Coverage.MaxOrder())
	assert.True(t, fp.Coverage.Contains(skycoord.Coord{Lon: 10.7, Lat: 41.25}))
}

func TestBuild_NoCelestialAxes(t *testing.T) {
	for _, axes := range []int{0, 1} {
		fp, err := newBuilder(10).Build(fakeTransform{axes: axes})
		assert.NoError(t, err)
		assert.Nil(t, fp)
	}

	fp, err := newBuilder(10).Build(nil)
	assert.NoError(t, err)
	assert.Nil(t, fp)
}

func TestBuild_Failures(t *testing.T) {
	tests := []struct {
		name string
		tr   fakeTransform
	}{
		{"projection error", fakeTransform{axes: 2, frame: skycoord.ICRS, err: errors.New("out of domain")}},
		{"degenerate corners", fakeTransform{axes: 2, frame: skycoord.ICRS, corners: []skycoord.Coord{{Lon: 1, Lat: 1}, {Lon: 1, Lat: 1}, {Lon: 1, Lat: 1}, {Lon: 1, Lat: 1}}}},
		{"ecliptic axes", fakeTransform{axes: 2, frame: skycoord.Ecliptic, corners: m31Corners}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := newBuilder(8).Build(tt.tr)
			assert.Error(t, err)
			assert.Nil(t, fp, "no partial footprint")
		})
	}
}

func TestBuild_GalacticCornersRotated(t *testing.T) {
	gal := []skycoord.Coord{
		{Lon: 0.1, Lat: -0.1},
		{Lon: 0.1, Lat: 0.1},
		{Lon: 359.9, Lat: 0.1},
		{Lon: 359.9, Lat: -0.1},
	}
	fp, err := newBuilder(8).Build(fakeTransform{axes: 2, frame: skycoord.Galactic, corners: gal})
	require.NoError(t, err)

	for _, c := range fp.Corners {
		assert.InDelta(t, 266.405, c.Lon, 0.3)
		assert.InDelta(t, -28.936, c.Lat, 0.3)
	}
	assert.True(t, strings.HasPrefix(fp.Polygon, "Polygon ICRS 266."))
}

func TestPolygonRoundTrip(t *testing.T) {
	s := PolygonString(m31Corners)
	got, err := ParsePolygon(s)
	require.NoError(t, err)
	assert.Equal(t, m31Corners, got)

	_, err = ParsePolygon("Circle ICRS 1 2 3")
	assert.Error(t, err)
	_, err = ParsePolygon("Polygon ICRS 1 2 3")
	assert.Error(t, err)
	_, err = ParsePolygon("Polygon GALACTIC 1 2 3 4")
	assert.ErrorIs(t, err, ErrUnsupportedFrame)
}
