// Package catalog answers queries against an exported metadata table: which
// images cover a sky position, and which objects look like a given name.
package catalog

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/sirupsen/logrus"

	"go-fits-inspector/internal/export"
	"go-fits-inspector/internal/footprint"
	"go-fits-inspector/internal/skycoord"
	"go-fits-inspector/pkg/geometry"
	"go-fits-inspector/pkg/models"
)

const deg = math.Pi / 180

// Catalog holds the records of one export
type Catalog struct {
	records []models.Metadata
	log     logrus.FieldLogger
}

// Match is a record found by name with its edit distance to the query
type Match struct {
	Record   models.Metadata `json:"record"`
	Distance int             `json:"distance"`
}

// New wraps records already in memory.
func New(records []models.Metadata, log logrus.FieldLogger) *Catalog {
	return &Catalog{records: records, log: log}
}

// Load reads a CSV export.
func Load(r io.Reader, log logrus.FieldLogger) (*Catalog, error) {
	records, err := export.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return New(records, log), nil
}

// LoadFile reads a CSV export from disk.
func LoadFile(path string, log logrus.FieldLogger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, log.WithField("catalog", path))
}

// Records returns the catalog rows in export order.
func (c *Catalog) Records() []models.Metadata {
	return c.records
}

// Covering returns the records whose footprint polygon contains the ICRS
// position. Records without a polygon, or with one that cannot be parsed,
// are skipped.
func (c *Catalog) Covering(pos skycoord.Coord) ([]models.Metadata, error) {
	if !pos.Valid() {
		return nil, fmt.Errorf("invalid position %v", pos)
	}

	var out []models.Metadata
	for _, md := range c.records {
		if md.Polygon == nil {
			continue
		}
		corners, err := footprint.ParsePolygon(*md.Polygon)
		if err != nil {
			c.log.WithError(err).WithField("file", md.Filename).Warn("Skipping unreadable footprint")
			continue
		}
		inside, err := FootprintContains(corners, pos)
		if err != nil {
			c.log.WithError(err).WithField("file", md.Filename).Warn("Skipping invalid footprint")
			continue
		}
		if inside {
			out = append(out, md)
		}
	}
	return out, nil
}

// FootprintContains tests pos against a convex sky polygon. The corners are
// projected gnomonically about pos, which keeps great-circle edges straight,
// then wound clockwise and handed to geometry.Contains. The planar test is
// exact for rectangular footprints; for skewed ones points within a sliver of
// an edge can be misjudged.
func FootprintContains(corners []skycoord.Coord, pos skycoord.Coord) (bool, error) {
	points := make([]geometry.Point, len(corners))
	for i, v := range corners {
		p, ok := gnomonic(pos, v)
		if !ok {
			return false, nil
		}
		points[i] = p
	}
	if err := geometry.Validate(points); err != nil {
		return false, err
	}
	return geometry.Contains(geometry.Point{}, geometry.Clockwise(points)), nil
}

// gnomonic projects v onto the plane tangent at centre. ok is false for
// points 90 degrees or more away.
func gnomonic(centre, v skycoord.Coord) (geometry.Point, bool) {
	a0, d0 := centre.Lon*deg, centre.Lat*deg
	a, d := v.Lon*deg, v.Lat*deg
	cosc := math.Sin(d0)*math.Sin(d) + math.Cos(d0)*math.Cos(d)*math.Cos(a-a0)
	if cosc <= 0 {
		return geometry.Point{}, false
	}
	x := math.Cos(d) * math.Sin(a-a0) / cosc
	y := (math.Cos(d0)*math.Sin(d) - math.Sin(d0)*math.Cos(d)*math.Cos(a-a0)) / cosc
	return geometry.Point{X: x, Y: y}, true
}

// SearchObject returns records whose OBJECT is within maxDistance edits of
// name, ignoring case and repeated whitespace. Closest matches come first.
func (c *Catalog) SearchObject(name string, maxDistance int) []Match {
	query := normalizeName(name)
	if query == "" {
		return nil
	}

	var matches []Match
	for _, md := range c.records {
		d := levenshtein.Distance(query, normalizeName(md.Object))
		if d <= maxDistance {
			matches = append(matches, Match{Record: md, Distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
