package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureOptions locates a blob container
type AzureOptions struct {
	AccountName string
	AccountKey  string
	Container   string
	Prefix      string
	// ServiceURL overrides https://<account>.blob.core.windows.net, e.g. for Azurite.
	ServiceURL string
}

type azureStorage struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureStorage creates a source over the FITS blobs of a container
func NewAzureStorage(opts AzureOptions) (Source, error) {
	if opts.AccountName == "" || opts.Container == "" {
		return nil, fmt.Errorf("azure account name and container are required")
	}
	credential, err := azblob.NewSharedKeyCredential(opts.AccountName, opts.AccountKey)
	if err != nil {
		return nil, err
	}

	serviceURL := opts.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", opts.AccountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, err
	}

	return &azureStorage{client: client, container: opts.Container, prefix: opts.Prefix}, nil
}

func (s *azureStorage) List(ctx context.Context) ([]string, error) {
	var prefix *string
	if s.prefix != "" {
		prefix = &s.prefix
	}
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{Prefix: prefix})

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list failed: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil && IsFITS(*item.Name) {
				names = append(names, *item.Name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *azureStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	// Download blob to stream
	downloadResponse, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return downloadResponse.Body, nil
}

func (s *azureStorage) Location() string {
	return "azure://" + strings.TrimSuffix(s.container+"/"+s.prefix, "/")
}
