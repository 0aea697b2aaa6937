// Package skycoord holds sky positions and the frame rotations needed to bring
// them into ICRS.
package skycoord

import (
	"fmt"
	"math"
	"strings"
)

// Frame names a celestial reference frame
type Frame string

const (
	ICRS     Frame = "ICRS"
	FK5      Frame = "FK5"
	FK4      Frame = "FK4"
	FK4NoE   Frame = "FK4-NO-E"
	GAppT    Frame = "GAPPT"
	Galactic Frame = "GALACTIC"
	Ecliptic Frame = "ECLIPTIC"
)

// Equatorial reports whether positions in the frame are RA/Dec. Differences
// between the equatorial frames are below footprint resolution and ignored.
func (f Frame) Equatorial() bool {
	switch f {
	case ICRS, FK5, FK4, FK4NoE, GAppT:
		return true
	}
	return false
}

// ParseFrame maps a RADESYS-style value onto a Frame, case-insensitively.
// Unknown names are treated as equatorial and returned upper-cased.
func ParseFrame(name string) Frame {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return ICRS
	}
	return Frame(n)
}

// Coord is a position on the sky in degrees. Lon/Lat are RA/Dec for
// equatorial frames and l/b for the galactic frame.
type Coord struct {
	Lon float64
	Lat float64
}

func (c Coord) String() string {
	return fmt.Sprintf("(%g, %g)", c.Lon, c.Lat)
}

// Valid reports whether both components are finite and the latitude is in range.
func (c Coord) Valid() bool {
	if math.IsNaN(c.Lon) || math.IsNaN(c.Lat) || math.IsInf(c.Lon, 0) || math.IsInf(c.Lat, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90
}

// Vector is a unit vector on the celestial sphere.
type Vector [3]float64

// ToVector converts a coordinate to a unit vector.
func (c Coord) ToVector() Vector {
	lon := c.Lon * deg2rad
	lat := c.Lat * deg2rad
	cl := math.Cos(lat)
	return Vector{cl * math.Cos(lon), cl * math.Sin(lon), math.Sin(lat)}
}

// Coord converts the vector back to degrees, with longitude in [0, 360).
func (v Vector) Coord() Coord {
	lon := math.Atan2(v[1], v[0]) * rad2deg
	lat := math.Atan2(v[2], math.Hypot(v[0], v[1])) * rad2deg
	return Coord{Lon: NormalizeLon(lon), Lat: lat}
}

// Dot returns the scalar product.
func (v Vector) Dot(o Vector) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns the vector product.
func (v Vector) Cross(o Vector) Vector {
	return Vector{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Normalize scales the vector to unit length.
func (v Vector) Normalize() Vector {
	n := math.Sqrt(v.Dot(v))
	if n == 0 {
		return v
	}
	return Vector{v[0] / n, v[1] / n, v[2] / n}
}

// NormalizeLon wraps a longitude into [0, 360).
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon = 0
	}
	return lon
}

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)
