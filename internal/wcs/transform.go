// Package wcs maps image pixels to sky coordinates using the FITS
// world-coordinate keywords.
package wcs

import (
	"errors"

	"go-fits-inspector/internal/skycoord"
)

var (
	// ErrTooFewAxes indicates a transform without a reference coordinate pair
	ErrTooFewAxes = errors.New("world transform has fewer than 2 axes")

	// ErrNoCelestialAxes indicates a transform without a longitude/latitude pair
	ErrNoCelestialAxes = errors.New("world transform has no celestial axes")

	// ErrUnsupportedProjection indicates a projection code this package cannot evaluate
	ErrUnsupportedProjection = errors.New("unsupported projection")

	// ErrOutOfDomain indicates a pixel that does not map onto the sky
	ErrOutOfDomain = errors.New("pixel outside projection domain")
)

// Transform is the world-coordinate capability the metadata pipeline reads.
// Implementations exist per image format; the pipeline never mutates them.
type Transform interface {
	// Reference returns (CRVAL1, CRVAL2) as declared, without frame conversion.
	Reference() (skycoord.Coord, error)

	// CelestialAxes returns how many axes carry celestial longitude/latitude.
	CelestialAxes() int

	// Frame returns the frame of the celestial axes.
	Frame() skycoord.Frame

	// Footprint maps the four corner pixel centres of the celestial image
	// plane to the sky, in the transform's own frame.
	Footprint() ([]skycoord.Coord, error)
}

// Keywords is the read-only header access the FITS transform needs.
type Keywords interface {
	Has(key string) bool
	Float(key string) (float64, error)
	String(key string) (string, bool)
}
