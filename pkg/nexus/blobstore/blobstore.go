// Package blobstore manages the blob stores that hold repository content
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/types"
	"github.com/lgulliver/nexus3-cli/pkg/utils"
)

// Blob store types
const (
	TypeFile = "file"
	TypeS3   = "s3"
)

// Soft quota types
const (
	QuotaSpaceRemaining = "spaceRemainingQuota"
	QuotaSpaceUsed      = "spaceUsedQuota"
)

var (
	ErrInvalidBlobStore = errors.New("invalid blob store")
	ErrUnsupportedType  = errors.New("unsupported blob store type")
)

// Client manages blob stores
type Client struct {
	client *nexus.Client
}

// NewClient returns a blob store client using c
func NewClient(c *nexus.Client) *Client {
	return &Client{client: c}
}

// Details is the configuration of a single blob store; exactly one of File
// and S3 is set
type Details struct {
	Type string
	File *types.FileBlobStore
	S3   *types.S3BlobStore
}

// MarshalJSON encodes whichever of S3 and File is set
func (d *Details) MarshalJSON() ([]byte, error) {
	if d.S3 != nil {
		return json.Marshal(d.S3)
	}
	return json.Marshal(d.File)
}

// NewSoftQuota builds a soft quota from a limit given in megabytes
func NewSoftQuota(quotaType string, limitMB int64) (*types.SoftQuota, error) {
	switch quotaType {
	case QuotaSpaceRemaining, QuotaSpaceUsed:
	default:
		return nil, fmt.Errorf("%w: soft quota type must be %s or %s, got %q",
			ErrInvalidBlobStore, QuotaSpaceRemaining, QuotaSpaceUsed, quotaType)
	}
	if limitMB <= 0 {
		return nil, fmt.Errorf("%w: soft quota limit must be positive", ErrInvalidBlobStore)
	}
	return &types.SoftQuota{Type: quotaType, Limit: utils.MegabytesToBytes(limitMB)}, nil
}

// List returns every blob store
func (b *Client) List(ctx context.Context) ([]types.BlobStore, error) {
	var stores []types.BlobStore
	if err := b.client.GetJSON(ctx, "blobstores", nil, &stores); err != nil {
		return nil, fmt.Errorf("failed to list blob stores: %w", err)
	}
	return stores, nil
}

// Show returns the configuration of the named blob store
func (b *Client) Show(ctx context.Context, storeType, name string) (*Details, error) {
	storeType = strings.ToLower(storeType)
	endpoint := "blobstores/" + storeType + "/" + url.PathEscape(name)

	details := &Details{Type: storeType}
	var err error
	switch storeType {
	case TypeFile:
		details.File = &types.FileBlobStore{}
		err = b.client.GetJSON(ctx, endpoint, nil, details.File)
		details.File.Name = name
	case TypeS3:
		details.S3 = &types.S3BlobStore{}
		err = b.client.GetJSON(ctx, endpoint, nil, details.S3)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, storeType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob store %s: %w", name, err)
	}
	return details, nil
}

// CreateFile creates a file system blob store
func (b *Client) CreateFile(ctx context.Context, store types.FileBlobStore) error {
	if store.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBlobStore)
	}
	if store.Path == "" {
		store.Path = store.Name
	}
	return b.create(ctx, TypeFile, store.Name, store)
}

// CreateS3 creates an S3 blob store
func (b *Client) CreateS3(ctx context.Context, store types.S3BlobStore) error {
	if store.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBlobStore)
	}
	if store.BucketConfiguration.Bucket.Name == "" || store.BucketConfiguration.Bucket.Region == "" {
		return fmt.Errorf("%w: bucket name and region are required", ErrInvalidBlobStore)
	}
	return b.create(ctx, TypeS3, store.Name, store)
}

func (b *Client) create(ctx context.Context, storeType, name string, payload any) error {
	if err := b.client.SendJSON(ctx, http.MethodPost, "blobstores/"+storeType, payload, nil, http.StatusNoContent, http.StatusCreated); err != nil {
		return fmt.Errorf("failed to create blob store %s: %w", name, err)
	}
	log.Info().Str("blob_store", name).Str("type", storeType).Msg("blob store created")
	return nil
}

// Delete removes the named blob store
func (b *Client) Delete(ctx context.Context, name string) error {
	resp, err := b.client.Delete(ctx, "blobstores/"+url.PathEscape(name))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := nexus.CheckResponse(resp, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to delete blob store %s: %w", name, err)
	}
	log.Info().Str("blob_store", name).Msg("blob store deleted")
	return nil
}

// QuotaStatus reports whether the named blob store violates its soft quota
func (b *Client) QuotaStatus(ctx context.Context, name string) (*types.QuotaStatus, error) {
	var status types.QuotaStatus
	if err := b.client.GetJSON(ctx, "blobstores/"+url.PathEscape(name)+"/quota-status", nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get quota status of %s: %w", name, err)
	}
	return &status, nil
}
