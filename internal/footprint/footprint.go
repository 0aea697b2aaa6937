// Package footprint derives the sky coverage of an image from its world
// transform: a MOC and a "Polygon ICRS ..." region string.
package footprint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"go-fits-inspector/internal/moc"
	"go-fits-inspector/internal/skycoord"
	"go-fits-inspector/internal/wcs"
	"go-fits-inspector/pkg/models"
)

// ErrUnsupportedFrame is returned for celestial axes that cannot be brought to ICRS
var ErrUnsupportedFrame = errors.New("unsupported celestial frame")

// Footprint is the coverage of one image, always with both serializations
type Footprint struct {
	// Corners are ICRS degrees in pixel order (1,1), (1,N2), (N1,N2), (N1,1).
	Corners  []skycoord.Coord
	Coverage *moc.MOC
	MOC      string
	Polygon  string
}

// Builder computes footprints at a fixed MOC depth
type Builder struct {
	maxDepth int
	log      logrus.FieldLogger
}

// NewBuilder creates a builder. A non-positive depth selects moc.DefaultMaxOrder.
func NewBuilder(maxDepth int, log logrus.FieldLogger) *Builder {
	if maxDepth <= 0 {
		maxDepth = moc.DefaultMaxOrder
	}
	return &Builder{maxDepth: maxDepth, log: log}
}

// MaxDepth returns the MOC order used for every footprint
func (b *Builder) MaxDepth() int {
	return b.maxDepth
}

// Build returns (nil, nil) when the transform has fewer than two celestial
// axes. Any other failure returns an error and no footprint.
func (b *Builder) Build(tr wcs.Transform) (*Footprint, error) {
	if tr == nil || tr.CelestialAxes() < 2 {
		return nil, nil
	}

	native, err := tr.Footprint()
	if err != nil {
		return nil, fmt.Errorf("corner projection: %w", err)
	}

	frame := tr.Frame()
	corners := make([]skycoord.Coord, len(native))
	for i, c := range native {
		switch {
		case frame == skycoord.Galactic:
			corners[i] = skycoord.GalacticToICRS(c)
		case frame.Equatorial():
			corners[i] = skycoord.ToICRS(c, frame)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFrame, frame)
		}
	}

	coverage, err := moc.FromPolygon(corners, b.maxDepth)
	if err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}

	fp := &Footprint{
		Corners:  corners,
		Coverage: coverage,
		MOC:      coverage.String(),
		Polygon:  PolygonString(corners),
	}
	b.log.WithFields(logrus.Fields{"moc": fp.MOC, "corners": len(corners)}).Debug("footprint built")
	return fp, nil
}

// PolygonString formats corners as "Polygon ICRS ra1 dec1 ra2 dec2 ...".
func PolygonString(corners []skycoord.Coord) string {
	var b strings.Builder
	b.WriteString("Polygon ICRS")
	for _, c := range corners {
		b.WriteByte(' ')
		b.WriteString(models.FormatFloat(c.Lon))
		b.WriteByte(' ')
		b.WriteString(models.FormatFloat(c.Lat))
	}
	return b.String()
}

// ParsePolygon reads a "Polygon ICRS ..." string back into corners
func ParsePolygon(s string) ([]skycoord.Coord, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Polygon") {
		return nil, fmt.Errorf("not a polygon region: %q", s)
	}
	if frame := skycoord.ParseFrame(fields[1]); !frame.Equatorial() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFrame, fields[1])
	}
	values := fields[2:]
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("polygon has an odd number of values (%d)", len(values))
	}

	corners := make([]skycoord.Coord, 0, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		lon, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i/2, err)
		}
		lat, err := strconv.ParseFloat(values[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i/2, err)
		}
		corners = append(corners, skycoord.Coord{Lon: lon, Lat: lat})
	}
	return corners, nil
}
