// Package storage enumerates and opens FITS files held in a local directory,
// an Azure blob container or an S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

// Source lists and opens FITS files by name
type Source interface {
	// List returns the names of FITS files, sorted.
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Location describes the source for logs, e.g. "s3://bucket/prefix".
	Location() string
}

// IsFITS reports whether name has a .fit or .fits extension, in any case
func IsFITS(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".fit", ".fits":
		return true
	}
	return false
}
