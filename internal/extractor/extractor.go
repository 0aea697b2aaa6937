// Package extractor turns one FITS file into a homogenized metadata record.
// Each optional field is derived by an independent step so that a failure in
// one never loses the others.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go-fits-inspector/internal/coords"
	apperrors "go-fits-inspector/internal/errors"
	"go-fits-inspector/internal/fitsfile"
	"go-fits-inspector/internal/footprint"
	"go-fits-inspector/internal/resolver"
	"go-fits-inspector/internal/skycoord"
	"go-fits-inspector/pkg/models"
)

const (
	// DateLayout is the text form of DATE-OBS in records
	DateLayout = "2006-01-02 15:04:05.000"

	mjdUnixEpoch = 40587.0
)

var (
	errNotText       = errors.New("value is not text")
	errNegativeValue = errors.New("value is negative or not finite")
)

// isotLayouts are the accepted DATE-OBS forms, most specific first
var isotLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04",
	"2006-01-02",
}

// MetadataExtractor extracts one record per image
type MetadataExtractor interface {
	ExtractFile(ctx context.Context, filePath string) (models.Metadata, error)
	Extract(ctx context.Context, name string, r io.Reader) (models.Metadata, error)
}

// Extractor is the FITS implementation of MetadataExtractor
type Extractor struct {
	resolver   resolver.Resolver
	normalizer *coords.Normalizer
	footprints *footprint.Builder
	log        logrus.FieldLogger
}

// New creates an extractor from its collaborators
func New(r resolver.Resolver, n *coords.Normalizer, b *footprint.Builder, log logrus.FieldLogger) *Extractor {
	return &Extractor{resolver: r, normalizer: n, footprints: b, log: log}
}

// ExtractFile reads a FITS file from disk
func (e *Extractor) ExtractFile(ctx context.Context, filePath string) (models.Metadata, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return models.Metadata{}, apperrors.NewStructuralError("cannot open file", err).WithDetails(filePath)
	}
	defer f.Close()
	return e.Extract(ctx, filepath.Base(filePath), f)
}

// Extract reads a FITS stream. name is recorded as FILENAME (its base name).
// The only error is a stream that cannot be parsed as FITS.
func (e *Extractor) Extract(ctx context.Context, name string, r io.Reader) (models.Metadata, error) {
	img, err := fitsfile.Open(r)
	if err != nil {
		return models.Metadata{}, apperrors.NewStructuralError("cannot parse FITS file", err).WithDetails(name)
	}
	return e.FromImage(ctx, path.Base(filepath.ToSlash(name)), img), nil
}

// FromImage builds the record for an already parsed image
func (e *Extractor) FromImage(ctx context.Context, filename string, img *fitsfile.Image) models.Metadata {
	log := e.log.WithField("file", filename)
	h := img.Header

	object, ok := h.String("OBJECT")
	if !ok {
		object = models.Unknown
	}

	md := models.Metadata{
		Filename:  filename,
		NAxis:     text(h, "NAXIS", models.Unknown),
		Object:    e.resolver.Resolve(ctx, object),
		RADESys:   text(h, "RADESYS", string(skycoord.ICRS)),
		ExpTime:   0,
		Instrume:  text(h, "INSTRUME", models.Unknown),
		Telescope: text(h, "TELESCOP", models.Unknown),
	}

	md.RA, md.Dec = e.normalizer.For(log).Normalize(h, img.Transform)

	date, mjd, err := observationDate(h)
	if err != nil {
		log.WithError(apperrors.NewProcessingError("observation date", err)).Warn("invalid DATE-OBS, leaving it empty")
	} else {
		md.DateObs, md.MJDObs = date, mjd
	}

	exptime, err := exposureTime(h)
	if err != nil {
		log.WithError(apperrors.NewProcessingError("exposure time", err)).Warn("invalid EXPTIME, using 0.0")
	}
	md.ExpTime = exptime

	fp, err := e.footprints.Build(img.Transform)
	switch {
	case err != nil:
		log.WithError(apperrors.NewProcessingError("footprint", err)).Error("could not build footprint")
	case fp != nil:
		md.MOC, md.Polygon = &fp.MOC, &fp.Polygon
	}

	log.WithFields(logrus.Fields{
		"object":    md.Object,
		"footprint": md.MOC != nil,
		"position":  md.RA != nil,
	}).Info("metadata extracted")
	return md
}

// observationDate parses DATE-OBS as a UTC timestamp. A missing keyword is
// not an error.
func observationDate(h *fitsfile.Header) (*string, *float64, error) {
	raw, ok := h.Get("DATE-OBS")
	if !ok {
		return nil, nil, nil
	}
	s, isText := raw.(string)
	if !isText {
		return nil, nil, fmt.Errorf("DATE-OBS %v: %w", raw, errNotText)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, nil
	}

	t, err := parseISOT(s)
	if err != nil {
		return nil, nil, err
	}
	mjd := ModifiedJulianDate(t)
	date := t.UTC().Round(time.Millisecond).Format(DateLayout)
	return &date, &mjd, nil
}

func parseISOT(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range isotLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("DATE-OBS %q: %w", s, firstErr)
}

// ModifiedJulianDate converts a UTC instant to MJD
func ModifiedJulianDate(t time.Time) float64 {
	secs := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return secs/86400 + mjdUnixEpoch
}

// exposureTime returns EXPTIME, or 0 with an error when it is not a
// finite non-negative number. A missing keyword is 0 without error.
func exposureTime(h *fitsfile.Header) (float64, error) {
	if !h.Has("EXPTIME") {
		return 0, nil
	}
	v, err := h.Float("EXPTIME")
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("EXPTIME %v: %w", v, errNegativeValue)
	}
	return v, nil
}

func text(h *fitsfile.Header, key, def string) string {
	if v, ok := h.String(key); ok {
		return v
	}
	return def
}
