package factory

import (
	"fmt"
	"path/filepath"
	"strings"

	"go-fits-inspector/internal/config"
	"go-fits-inspector/internal/export"
	"go-fits-inspector/internal/storage"
)

// SourceType represents different storage backends holding FITS files
type SourceType string

const (
	// LocalSource for a directory on the local file system
	LocalSource SourceType = "local"
	// AzureSource for an Azure blob container
	AzureSource SourceType = "azure"
	// S3Source for an S3 or MinIO bucket
	S3Source SourceType = "s3"
)

// SourceRef is a parsed source URI such as "s3://bucket/night1" or "./frames"
type SourceRef struct {
	Type SourceType
	// Location is the directory, container or bucket
	Location string
	Prefix   string
}

// ParseSource splits a source URI. Anything without a known scheme is a
// local directory. The container or bucket may be omitted
// ("azure://" or "s3:///prefix") to use the configured one.
func ParseSource(uri string) SourceRef {
	for _, t := range []SourceType{AzureSource, S3Source} {
		scheme := string(t) + "://"
		if len(uri) >= len(scheme) && strings.EqualFold(uri[:len(scheme)], scheme) {
			rest := uri[len(scheme):]
			location, prefix, _ := strings.Cut(rest, "/")
			return SourceRef{Type: t, Location: location, Prefix: prefix}
		}
	}
	return SourceRef{Type: LocalSource, Location: strings.TrimPrefix(uri, "file://")}
}

// SourceFactory creates FITS sources
type SourceFactory interface {
	CreateSource(uri string) (storage.Source, error)
}

// ExporterFactory creates record exporters
type ExporterFactory interface {
	CreateExporter(format, outPath string) (export.Exporter, error)
}

// sourceFactory implements SourceFactory
type sourceFactory struct {
	cfg *config.Config
}

// NewSourceFactory creates a source factory using the credentials of cfg
func NewSourceFactory(cfg *config.Config) SourceFactory {
	return &sourceFactory{cfg: cfg}
}

// CreateSource creates a source for the URI
func (f *sourceFactory) CreateSource(uri string) (storage.Source, error) {
	ref := ParseSource(uri)
	switch ref.Type {
	case LocalSource:
		return storage.NewLocalStorage(ref.Location)
	case AzureSource:
		container := ref.Location
		if container == "" {
			container = f.cfg.Azure.Container
		}
		return storage.NewAzureStorage(storage.AzureOptions{
			AccountName: f.cfg.Azure.AccountName,
			AccountKey:  f.cfg.Azure.AccountKey,
			Container:   container,
			Prefix:      ref.Prefix,
			ServiceURL:  f.cfg.Azure.ServiceURL,
		})
	case S3Source:
		bucket := ref.Location
		if bucket == "" {
			bucket = f.cfg.S3.Bucket
		}
		return storage.NewS3Storage(storage.S3Options{
			Endpoint:        f.cfg.S3.Endpoint,
			AccessKeyID:     f.cfg.S3.AccessKeyID,
			SecretAccessKey: f.cfg.S3.SecretAccessKey,
			Bucket:          bucket,
			Prefix:          ref.Prefix,
			Region:          f.cfg.S3.Region,
			UseSSL:          f.cfg.S3.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported source type: %s", ref.Type)
	}
}

// exporterFactory implements ExporterFactory
type exporterFactory struct{}

// NewExporterFactory creates a new exporter factory
func NewExporterFactory() ExporterFactory {
	return &exporterFactory{}
}

// CreateExporter returns the exporter for format. An empty format is
// inferred from the output file extension and defaults to CSV.
func (f *exporterFactory) CreateExporter(format, outPath string) (export.Exporter, error) {
	if strings.TrimSpace(format) == "" {
		switch strings.ToLower(filepath.Ext(outPath)) {
		case ".parquet":
			format = export.FormatParquet
		case ".geojson", ".json":
			format = export.FormatGeoJSON
		}
	}
	return export.New(format)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	SourceFactory   SourceFactory
	ExporterFactory ExporterFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		SourceFactory:   NewSourceFactory(cfg),
		ExporterFactory: NewExporterFactory(),
	}
}
