package documents

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// blobAPI is the slice of the blob service the store needs.
type blobAPI interface {
	list(ctx context.Context, prefix string) ([]string, error)
	download(ctx context.Context, name string) ([]byte, error)
	upload(ctx context.Context, name string, data []byte) error
	remove(ctx context.Context, name string) error
}

// BlobStore keeps documents in an Azure Blob Storage container. A scope is a
// virtual folder: the blob name is "<scope>/<name>".
type BlobStore struct {
	api blobAPI
}

// NewBlobStore connects to the container named by containerName using an
// account connection string.
func NewBlobStore(connectionString, containerName string) (*BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &BlobStore{api: &azureContainer{client: client, container: containerName}}, nil
}

func blobName(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "/" + name
}

func blobPrefix(scope string) string {
	if scope == "" {
		return ""
	}
	return scope + "/"
}

// List returns the sorted .txt documents directly inside the scope folder.
// Blobs in nested folders are skipped.
func (bs *BlobStore) List(ctx context.Context, scope string) ([]string, error) {
	prefix := blobPrefix(scope)
	all, err := bs.api.list(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	names := []string{}
	for _, full := range all {
		rest := strings.TrimPrefix(full, prefix)
		if len(rest) == len(full) && prefix != "" {
			continue
		}
		if strings.Contains(rest, "/") || !strings.HasSuffix(rest, Extension) {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)
	return names, nil
}

// Read downloads a document.
func (bs *BlobStore) Read(ctx context.Context, scope, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	data, err := bs.api.download(ctx, blobName(scope, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write uploads a document, replacing any existing blob.
func (bs *BlobStore) Write(ctx context.Context, scope, name, text string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return bs.api.upload(ctx, blobName(scope, name), []byte(text))
}

// Delete removes a document.
func (bs *BlobStore) Delete(ctx context.Context, scope, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return bs.api.remove(ctx, blobName(scope, name))
}

// azureContainer implements blobAPI with the Azure SDK.
type azureContainer struct {
	client    *azblob.Client
	container string
}

func (a *azureContainer) list(ctx context.Context, prefix string) ([]string, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	pager := a.client.NewListBlobsFlatPager(a.container, opts)

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item != nil && item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (a *azureContainer) download(ctx context.Context, name string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, name, nil)
	if err != nil {
		return nil, mapBlobError(name, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (a *azureContainer) upload(ctx context.Context, name string, data []byte) error {
	contentType := "text/plain; charset=utf-8"
	_, err := a.client.UploadBuffer(ctx, a.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

func (a *azureContainer) remove(ctx context.Context, name string) error {
	if _, err := a.client.DeleteBlob(ctx, a.container, name, nil); err != nil {
		return mapBlobError(name, err)
	}
	return nil
}

func mapBlobError(name string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("blob %s: %w", name, err)
}
