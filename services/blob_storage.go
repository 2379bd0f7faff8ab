package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"zone-alerts-vms/be/config"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBlobDisabled is returned by the no-op store used when no storage
// account is configured.
var ErrBlobDisabled = errors.New("blob storage is not configured")

// BlobStore keeps alert clips. Upload returns a time-limited read URL.
type BlobStore interface {
	Upload(ctx context.Context, localPath, blobName string) (string, error)
	Delete(ctx context.Context, blobName string) error
}

// ClipBlobName lays clips out per user and day:
// <user_id>/<YYYY-MM-DD>/<YYYY-MM-DD_HH-MM-SS>-<uuid>.mp4
func ClipBlobName(userID uint, at time.Time) string {
	at = at.UTC()
	file := fmt.Sprintf("%s-%s.mp4", at.Format("2006-01-02_15-04-05"), uuid.NewString())
	return path.Join(fmt.Sprint(userID), at.Format("2006-01-02"), file)
}

type AzureBlobStore struct {
	client    *azblob.Client
	container string
	sasExpiry time.Duration
	logger    *zap.Logger
}

// NewBlobStore returns the Azure store, or a disabled store when no
// connection string is set.
func NewBlobStore(ctx context.Context, cfg config.BlobConfig, logger *zap.Logger) (BlobStore, error) {
	if cfg.ConnectionString == "" {
		logger.Warn("AZURE_STORAGE_CONNECTION_STRING not set, alert clips will not be stored")
		return DisabledBlobStore{}, nil
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	store := &AzureBlobStore{
		client:    client,
		container: cfg.Container,
		sasExpiry: cfg.SASExpiry,
		logger:    logger,
	}
	if err := store.ensureContainer(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *AzureBlobStore) ensureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("creating container %s: %w", s.container, err)
	}
	return nil
}

func (s *AzureBlobStore) Upload(ctx context.Context, localPath, blobName string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening clip: %w", err)
	}
	defer file.Close()

	_, err = s.client.UploadFile(ctx, s.container, blobName, file, &azblob.UploadFileOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("video/mp4")},
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", blobName, err)
	}

	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(blobName)
	url, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().UTC().Add(s.sasExpiry), nil)
	if err != nil {
		return "", fmt.Errorf("signing %s: %w", blobName, err)
	}

	s.logger.Debug("clip uploaded", zap.String("blob", blobName))
	return url, nil
}

func (s *AzureBlobStore) Delete(ctx context.Context, blobName string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, blobName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("deleting %s: %w", blobName, err)
	}
	return nil
}

type DisabledBlobStore struct{}

func (DisabledBlobStore) Upload(context.Context, string, string) (string, error) {
	return "", ErrBlobDisabled
}

func (DisabledBlobStore) Delete(context.Context, string) error {
	return nil
}
