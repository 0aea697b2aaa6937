// Package fitstest writes small in-memory FITS files for tests.
package fitstest

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// Card is one header keyword
type Card struct {
	Key   string
	Value any
}

// Image describes a primary HDU with an 8-bit data array
type Image struct {
	Width  int
	Height int
	Cards  []Card
}

// Bytes encodes the image as a FITS stream
func (img Image) Bytes() []byte {
	var buf bytes.Buffer

	cards := []Card{
		{"SIMPLE", true},
		{"BITPIX", 8},
	}
	switch {
	case img.Width > 0 && img.Height > 0:
		cards = append(cards, Card{"NAXIS", 2}, Card{"NAXIS1", img.Width}, Card{"NAXIS2", img.Height})
	default:
		cards = append(cards, Card{"NAXIS", 0})
	}
	cards = append(cards, img.Cards...)

	for _, c := range cards {
		buf.WriteString(format(c))
	}
	buf.WriteString(pad("END", cardSize))
	padBlock(&buf, ' ')

	if n := img.Width * img.Height; n > 0 {
		buf.Write(make([]byte, n))
		padBlock(&buf, 0)
	}
	return buf.Bytes()
}

// WriteFile writes the encoded image to path
func (img Image) WriteFile(path string) error {
	return os.WriteFile(path, img.Bytes(), 0o644)
}

func format(c Card) string {
	var value string
	switch v := c.Value.(type) {
	case bool:
		value = fmt.Sprintf("%20s", "F")
		if v {
			value = fmt.Sprintf("%20s", "T")
		}
	case int:
		value = fmt.Sprintf("%20d", v)
	case float64:
		s := strconv.FormatFloat(v, 'G', -1, 64)
		if !strings.ContainsAny(s, ".E") {
			s += ".0"
		}
		value = fmt.Sprintf("%20s", s)
	case string:
		value = fmt.Sprintf("'%-8s'", strings.ReplaceAll(v, "'", "''"))
	default:
		panic(fmt.Sprintf("fitstest: unsupported value %T for %s", v, c.Key))
	}
	return pad(fmt.Sprintf("%-8s= %s", c.Key, value), cardSize)
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func padBlock(buf *bytes.Buffer, fill byte) {
	if rem := buf.Len() % blockSize; rem != 0 {
		buf.Write(bytes.Repeat([]byte{fill}, blockSize-rem))
	}
}

// Extension encodes a header-only extension HDU of the given XTENSION type
func Extension(xtension string, cards ...Card) []byte {
	var buf bytes.Buffer

	all := append([]Card{
		{"XTENSION", xtension},
		{"BITPIX", 8},
		{"NAXIS", 0},
		{"PCOUNT", 0},
		{"GCOUNT", 1},
	}, cards...)
	for _, c := range all {
		buf.WriteString(format(c))
	}
	buf.WriteString(pad("END", cardSize))
	padBlock(&buf, ' ')
	return buf.Bytes()
}

// HeaderOnly encodes the image header block without its data array
func (img Image) HeaderOnly() []byte {
	b := img.Bytes()
	if n := img.Width * img.Height; n > 0 {
		return b[:len(b)-(n+blockSize-1)/blockSize*blockSize]
	}
	return b
}
