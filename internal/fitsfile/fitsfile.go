// Package fitsfile reads the primary header of FITS images and builds the
// world-coordinate transform declared there.
package fitsfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/astrogo/fitsio"

	"go-fits-inspector/internal/wcs"
)

const cardSize = 80

// ErrUnreadable marks files that cannot be parsed as FITS
var ErrUnreadable = errors.New("unreadable FITS file")

// Image is the primary HDU metadata of a FITS file
type Image struct {
	Header    *Header
	Transform wcs.Transform
}

// Open parses the primary HDU of a FITS stream and returns its header and
// transform. Anything after the primary HDU is never read, and data cut
// short after a complete header is tolerated.
func Open(r io.Reader) (*Image, error) {
	hdu, err := fitsio.NewDecoder(&primaryReader{r: r}).DecodeHDU()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer hdu.Close()

	fh := hdu.Header()
	if fh.Get("SIMPLE") == nil {
		return nil, fmt.Errorf("%w: first HDU is not a primary header", ErrUnreadable)
	}

	hdr := NewHeader()
	for _, key := range fh.Keys() {
		card := fh.Get(key)
		if card == nil || key == "" || key == "COMMENT" || key == "HISTORY" {
			continue
		}
		hdr.Set(key, card.Value)
	}

	tr, err := wcs.FromHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("%w: world coordinates: %v", ErrUnreadable, err)
	}
	return &Image{Header: hdr, Transform: tr}, nil
}

// primaryReader completes a short read with zeros once the END card of the
// header has gone by, so a truncated data array decodes as blank pixels.
// Before END it passes errors through unchanged.
type primaryReader struct {
	r     io.Reader
	card  []byte
	ended bool
	eof   bool
}

var endCard = []byte("END     ")

func (p *primaryReader) Read(b []byte) (int, error) {
	if p.eof {
		clear(b)
		return len(b), nil
	}

	n, err := p.r.Read(b)
	if !p.ended {
		p.scan(b[:n])
	}
	if errors.Is(err, io.EOF) && p.ended {
		p.eof = true
		clear(b[n:])
		return len(b), nil
	}
	return n, err
}

func (p *primaryReader) scan(b []byte) {
	for len(b) > 0 && !p.ended {
		take := min(cardSize-len(p.card), len(b))
		p.card = append(p.card, b[:take]...)
		b = b[take:]
		if len(p.card) == cardSize {
			p.ended = bytes.HasPrefix(p.card, endCard)
			p.card = p.card[:0]
		}
	}
}

// OpenFile opens and parses a FITS file on disk
func OpenFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Open(f)
}
