// Package storage keeps small JSON documents in Azure Blob Storage under a
// configured key prefix.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/JaimeStill/attest/pkg/lifecycle"
)

// System stores and retrieves blobs. Keys are relative to the configured prefix.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns ErrNotFound if the blob does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every key under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

type azure struct {
	client    *azblob.Client
	container string
	prefix    string
	logger    *slog.Logger
}

// New creates a storage system from cfg. Returns nil, nil when cfg has no
// connection string. The container is created by the startup hook, not here.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		prefix:    strings.Trim(cfg.KeyPrefix, "/"),
		logger:    logger.With("system", "storage"),
	}, nil
}

func newClient(cfg *Config) (*azblob.Client, error) {
	if cfg.ConnectionString != "" {
		return azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("default credential: %w", err)
	}
	return azblob.NewClient(cfg.ServiceURL, cred, nil)
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		_, err := a.client.CreateContainer(lc.Context(), a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.logger.Error("storage container initialization failed", "container", a.container, "error", err)
			return
		}
		a.logger.Info("storage container ready", "container", a.container)
	})
	return nil
}

func (a *azure) Put(ctx context.Context, key string, data []byte, contentType string) error {
	full, err := a.key(key)
	if err != nil {
		return err
	}

	_, err = a.client.UploadBuffer(ctx, a.container, full, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", full, err)
	}
	return nil
}

func (a *azure) Get(ctx context.Context, key string) ([]byte, error) {
	full, err := a.key(key)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, full, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s: %w", full, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("read blob %s: %w", full, err)
	}
	return buf.Bytes(), nil
}

func (a *azure) List(ctx context.Context, prefix string) ([]string, error) {
	full := a.prefix + "/"
	if prefix != "" {
		p, err := a.key(prefix)
		if err != nil {
			return nil, err
		}
		full = p
	}

	pager := a.client.NewListBlobsFlatPager(a.container, &container.ListBlobsFlatOptions{
		Prefix: &full,
	})

	var keys []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs %s: %w", full, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			keys = append(keys, strings.TrimPrefix(*item.Name, a.prefix+"/"))
		}
	}
	return keys, nil
}

func (a *azure) Delete(ctx context.Context, key string) error {
	full, err := a.key(key)
	if err != nil {
		return err
	}

	_, err = a.client.DeleteBlob(ctx, a.container, full, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blob %s: %w", full, err)
	}
	return nil
}

func (a *azure) key(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if a.prefix == "" {
		return key, nil
	}
	return path.Join(a.prefix, key), nil
}

// ValidateKey rejects empty keys and keys with parent segments.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
