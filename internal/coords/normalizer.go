// Package coords derives the ICRS position of an image from its header.
package coords

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"go-fits-inspector/internal/skycoord"
	"go-fits-inspector/internal/wcs"
)

// ErrNoTransform is returned when a position needs the transform and none exists
var ErrNoTransform = errors.New("no world transform")

// Source tells where a normalized position came from
type Source string

const (
	SourceGalactic  Source = "galactic"
	SourceHeader    Source = "header"
	SourceReference Source = "reference"
)

// Normalizer brings image positions into ICRS
type Normalizer struct {
	log logrus.FieldLogger
}

// NewNormalizer creates a normalizer logging to log
func NewNormalizer(log logrus.FieldLogger) *Normalizer {
	return &Normalizer{log: log}
}

// For returns a normalizer that logs through log, typically an entry
// carrying the file being processed
func (n *Normalizer) For(log logrus.FieldLogger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize returns RA and Dec in degrees, or two nils when no position can
// be derived. Failures are logged and never returned.
func (n *Normalizer) Normalize(h wcs.Keywords, tr wcs.Transform) (ra, dec *float64) {
	c, src, err := Position(h, tr)
	if err != nil {
		n.log.WithError(err).Error("could not derive RA/DEC")
		return nil, nil
	}
	n.log.WithFields(logrus.Fields{"ra": c.Lon, "dec": c.Lat, "source": src}).Debug("position normalized")
	return &c.Lon, &c.Lat
}

// Position derives the ICRS position and reports which input it came from.
// RADESYS GALACTIC uses the transform reference as (l, b). Otherwise explicit
// RA/DEC keywords win, and the transform reference is used as RA/Dec when
// either is missing or not numeric.
func Position(h wcs.Keywords, tr wcs.Transform) (skycoord.Coord, Source, error) {
	radesys, ok := h.String("RADESYS")
	if !ok {
		radesys = string(skycoord.ICRS)
	}

	if strings.EqualFold(strings.TrimSpace(radesys), string(skycoord.Galactic)) {
		ref, err := reference(tr)
		if err != nil {
			return skycoord.Coord{}, "", err
		}
		return skycoord.GalacticToICRS(ref), SourceGalactic, nil
	}

	if ra, dec, ok := explicit(h); ok {
		return skycoord.Coord{Lon: ra, Lat: dec}, SourceHeader, nil
	}

	ref, err := reference(tr)
	if err != nil {
		return skycoord.Coord{}, "", err
	}
	return ref, SourceReference, nil
}

func explicit(h wcs.Keywords) (ra, dec float64, ok bool) {
	if !h.Has("RA") || !h.Has("DEC") {
		return 0, 0, false
	}
	ra, err := h.Float("RA")
	if err != nil {
		return 0, 0, false
	}
	dec, err = h.Float("DEC")
	if err != nil {
		return 0, 0, false
	}
	return ra, dec, true
}

func reference(tr wcs.Transform) (skycoord.Coord, error) {
	if tr == nil {
		return skycoord.Coord{}, ErrNoTransform
	}
	ref, err := tr.Reference()
	if err != nil {
		return skycoord.Coord{}, fmt.Errorf("reference coordinate: %w", err)
	}
	if !ref.Valid() {
		return skycoord.Coord{}, fmt.Errorf("reference coordinate %s is not a sky position", ref)
	}
	return ref, nil
}
