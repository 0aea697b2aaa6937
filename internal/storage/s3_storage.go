package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options locates a bucket on S3 or an S3-compatible server such as MinIO
type S3Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	Region          string
	UseSSL          bool
}

type s3Storage struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Storage creates a source over the FITS objects of a bucket
func NewS3Storage(opts S3Options) (Source, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket are required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &s3Storage{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (s *s3Storage) List(ctx context.Context) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list failed: %w", obj.Err)
		}
		if IsFITS(obj.Key) {
			names = append(names, obj.Key)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *s3Storage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	// GetObject is lazy; Stat surfaces missing objects before parsing starts.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return obj, nil
}

func (s *s3Storage) Location() string {
	return "s3://" + strings.TrimSuffix(s.bucket+"/"+s.prefix, "/")
}
