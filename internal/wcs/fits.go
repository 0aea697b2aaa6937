package wcs

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go-fits-inspector/internal/skycoord"
)

// maxAxes bounds the axis numbers scanned in a header.
const maxAxes = 9

type axis struct {
	ctype string
	crval float64
	crpix float64
	cdelt float64
	size  int
}

// FITSTransform is a Transform built from FITS header keywords. It supports
// the zenithal projections TAN, SIN, ARC, STG and ZEA. Distortion terms such
// as SIP are ignored.
type FITSTransform struct {
	axes    []axis
	lon     int // index of the longitude axis, -1 when absent
	lat     int // index of the latitude axis, -1 when absent
	proj    string
	frame   skycoord.Frame
	matrix  [2][2]float64
	lonPole float64
}

// FromHeader reads the world-coordinate keywords of a header.
func FromHeader(h Keywords) (*FITSTransform, error) {
	n := intKey(h, "WCSAXES")
	if naxis := intKey(h, "NAXIS"); naxis > n {
		n = naxis
	}
	for i := maxAxes; i > n; i-- {
		if anyKey(h, i, "CTYPE", "CRVAL", "CRPIX", "CDELT") {
			n = i
			break
		}
	}

	t := &FITSTransform{axes: make([]axis, n), lon: -1, lat: -1}
	for i := 0; i < n; i++ {
		num := strconv.Itoa(i + 1)
		ctype, _ := h.String("CTYPE" + num)
		t.axes[i] = axis{
			ctype: strings.ToUpper(strings.TrimSpace(ctype)),
			crval: floatKey(h, "CRVAL"+num, 0),
			crpix: floatKey(h, "CRPIX"+num, 0),
			cdelt: floatKey(h, "CDELT"+num, 1),
			size:  intKey(h, "NAXIS"+num),
		}
	}

	for i, a := range t.axes {
		if len(a.ctype) < 4 {
			continue
		}
		switch prefix := a.ctype[:4]; {
		case t.lon < 0 && (prefix == "RA--" || strings.HasSuffix(prefix, "LON")):
			t.lon = i
		case t.lat < 0 && (prefix == "DEC-" || strings.HasSuffix(prefix, "LAT")):
			t.lat = i
		}
	}
	if t.lon < 0 || t.lat < 0 {
		return t, nil
	}

	t.proj = projectionCode(t.axes[t.lon].ctype)
	t.frame = celestialFrame(t.axes[t.lon].ctype, h)
	t.matrix = linearMatrix(h, t.lon, t.lat, t.axes[t.lon].cdelt, t.axes[t.lat].cdelt)

	t.lonPole = 180
	if t.axes[t.lat].crval >= 90 {
		t.lonPole = 0
	}
	if h.Has("LONPOLE") {
		t.lonPole = floatKey(h, "LONPOLE", t.lonPole)
	}
	return t, nil
}

// Reference implements Transform.
func (t *FITSTransform) Reference() (skycoord.Coord, error) {
	if len(t.axes) < 2 {
		return skycoord.Coord{}, ErrTooFewAxes
	}
	return skycoord.Coord{Lon: t.axes[0].crval, Lat: t.axes[1].crval}, nil
}

// CelestialAxes implements Transform.
func (t *FITSTransform) CelestialAxes() int {
	count := 0
	if t.lon >= 0 {
		count++
	}
	if t.lat >= 0 {
		count++
	}
	return count
}

// Frame implements Transform.
func (t *FITSTransform) Frame() skycoord.Frame {
	return t.frame
}

// Footprint implements Transform. Corners follow the order (1,1), (1,N2),
// (N1,N2), (N1,1) in 1-based pixel coordinates of the celestial axes.
func (t *FITSTransform) Footprint() ([]skycoord.Coord, error) {
	if t.CelestialAxes() < 2 {
		return nil, ErrNoCelestialAxes
	}
	n1, n2 := t.axes[t.lon].size, t.axes[t.lat].size
	if n1 < 1 || n2 < 1 {
		return nil, fmt.Errorf("celestial image plane has no pixels (%d x %d)", n1, n2)
	}

	pixels := [4][2]float64{
		{1, 1},
		{1, float64(n2)},
		{float64(n1), float64(n2)},
		{float64(n1), 1},
	}
	corners := make([]skycoord.Coord, 0, len(pixels))
	for _, p := range pixels {
		c, err := t.PixelToWorld(p[0], p[1])
		if err != nil {
			return nil, fmt.Errorf("corner %v: %w", p, err)
		}
		corners = append(corners, c)
	}
	return corners, nil
}

// PixelToWorld maps 1-based pixel coordinates along the longitude and
// latitude axes to sky coordinates in the transform's frame.
func (t *FITSTransform) PixelToWorld(px, py float64) (skycoord.Coord, error) {
	if t.CelestialAxes() < 2 {
		return skycoord.Coord{}, ErrNoCelestialAxes
	}
	dx := px - t.axes[t.lon].crpix
	dy := py - t.axes[t.lat].crpix
	x := t.matrix[0][0]*dx + t.matrix[0][1]*dy
	y := t.matrix[1][0]*dx + t.matrix[1][1]*dy

	phi, theta, err := deproject(t.proj, x, y)
	if err != nil {
		return skycoord.Coord{}, err
	}
	c := nativeToCelestial(phi, theta, t.axes[t.lon].crval, t.axes[t.lat].crval, t.lonPole)
	if !c.Valid() {
		return skycoord.Coord{}, fmt.Errorf("%w: (%g, %g)", ErrOutOfDomain, px, py)
	}
	return c, nil
}

// deproject turns intermediate world coordinates (degrees) into native
// spherical coordinates (degrees) for zenithal projections.
func deproject(code string, x, y float64) (phi, theta float64, err error) {
	r := math.Hypot(x, y)
	phi = 0
	if r != 0 {
		phi = math.Atan2(x, -y) * rad2deg
	}

	switch code {
	case "TAN":
		theta = math.Atan2(rad2deg, r) * rad2deg
	case "SIN":
		s := r * deg2rad
		if s > 1 {
			return 0, 0, ErrOutOfDomain
		}
		theta = math.Acos(s) * rad2deg
	case "ARC":
		theta = 90 - r
		if theta < -90 {
			return 0, 0, ErrOutOfDomain
		}
	case "STG":
		theta = 90 - 2*math.Atan(r*deg2rad/2)*rad2deg
	case "ZEA":
		s := r * deg2rad / 2
		if s > 1 {
			return 0, 0, ErrOutOfDomain
		}
		theta = 90 - 2*math.Asin(s)*rad2deg
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnsupportedProjection, code)
	}
	return phi, theta, nil
}

// nativeToCelestial rotates native spherical coordinates onto the sky for a
// zenithal projection with its reference point at (alphaP, deltaP).
func nativeToCelestial(phi, theta, alphaP, deltaP, phiP float64) skycoord.Coord {
	ph := (phi - phiP) * deg2rad
	th := theta * deg2rad
	dp := deltaP * deg2rad

	sinTh, cosTh := math.Sincos(th)
	sinDp, cosDp := math.Sincos(dp)
	sinPh, cosPh := math.Sincos(ph)

	dec := math.Asin(clamp(sinTh*sinDp + cosTh*cosDp*cosPh))
	ra := alphaP*deg2rad + math.Atan2(-cosTh*sinPh, sinTh*cosDp-cosTh*sinDp*cosPh)

	return skycoord.Coord{Lon: skycoord.NormalizeLon(ra * rad2deg), Lat: dec * rad2deg}
}

// linearMatrix builds the 2x2 pixel-to-intermediate matrix for the celestial
// axes from CDi_j, PCi_j with CDELTi, or the legacy CROTA form.
func linearMatrix(h Keywords, lon, lat int, cdeltLon, cdeltLat float64) [2][2]float64 {
	idx := [2]int{lon + 1, lat + 1}

	hasCD := false
	for _, i := range idx {
		for _, j := range idx {
			if h.Has(fmt.Sprintf("CD%d_%d", i, j)) {
				hasCD = true
			}
		}
	}
	var m [2][2]float64
	if hasCD {
		for r, i := range idx {
			for c, j := range idx {
				m[r][c] = floatKey(h, fmt.Sprintf("CD%d_%d", i, j), 0)
			}
		}
		return m
	}

	hasPC := false
	for r, i := range idx {
		for c, j := range idx {
			def := 0.0
			if r == c {
				def = 1
			}
			key := fmt.Sprintf("PC%d_%d", i, j)
			if h.Has(key) {
				hasPC = true
			}
			m[r][c] = floatKey(h, key, def)
		}
	}
	cdelt := [2]float64{cdeltLon, cdeltLat}

	crotaKey := fmt.Sprintf("CROTA%d", lat+1)
	if !hasPC && h.Has(crotaKey) {
		rho := floatKey(h, crotaKey, 0) * deg2rad
		sinR, cosR := math.Sincos(rho)
		return [2][2]float64{
			{cdelt[0] * cosR, -cdelt[1] * sinR},
			{cdelt[0] * sinR, cdelt[1] * cosR},
		}
	}

	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			m[r][c] *= cdelt[r]
		}
	}
	return m
}

func projectionCode(ctype string) string {
	if len(ctype) < 8 {
		return ""
	}
	return strings.Trim(ctype[5:8], "-")
}

func celestialFrame(lonType string, h Keywords) skycoord.Frame {
	switch {
	case strings.HasPrefix(lonType, "GLON"):
		return skycoord.Galactic
	case strings.HasPrefix(lonType, "RA--"):
		radesys, _ := h.String("RADESYS")
		if strings.EqualFold(strings.TrimSpace(radesys), "GALACTIC") {
			// RADESYS never describes galactic axes; equatorial wins.
			return skycoord.ICRS
		}
		return skycoord.ParseFrame(radesys)
	case strings.HasPrefix(lonType, "ELON"):
		return skycoord.Ecliptic
	default:
		return skycoord.Frame(strings.TrimRight(lonType[:4], "-"))
	}
}

func anyKey(h Keywords, i int, prefixes ...string) bool {
	num := strconv.Itoa(i)
	for _, p := range prefixes {
		if h.Has(p + num) {
			return true
		}
	}
	return false
}

func floatKey(h Keywords, key string, def float64) float64 {
	if !h.Has(key) {
		return def
	}
	v, err := h.Float(key)
	if err != nil {
		return def
	}
	return v
}

func intKey(h Keywords, key string) int {
	v := floatKey(h, key, 0)
	if v < 0 || v > math.MaxInt32 {
		return 0
	}
	return int(v)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)
