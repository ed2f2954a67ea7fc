package oss

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"saultochat/internal/pkg/storage"
)

// OSSStorage stores attachments in an Aliyun OSS bucket.
type OSSStorage struct {
	bucket     *oss.Bucket
	bucketName string
}

// NewOSSStorage creates an OSS-backed storage.
func NewOSSStorage(endpoint, bucketName, accessKeyID, accessKeySecret string) (*OSSStorage, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSSStorage{
		bucket:     bucket,
		bucketName: bucketName,
	}, nil
}

// Upload puts the blob and returns its public URL.
func (s *OSSStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	options := []oss.Option{
		oss.ContentType(contentType),
	}

	if err := s.bucket.PutObject(key, data, options...); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	url := fmt.Sprintf("https://%s.%s/%s", s.bucketName, s.bucket.Client.Config.Endpoint, key)
	return url, nil
}

// Download opens the blob for reading.
func (s *OSSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.bucket.GetObject(key)
	if err != nil {
		if e, ok := err.(oss.ServiceError); ok && e.StatusCode == 404 {
			return nil, &storage.NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return body, nil
}

// Delete removes the blob.
func (s *OSSStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(key); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks blob presence.
func (s *OSSStorage) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.bucket.IsObjectExist(key)
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return exists, nil
}

// GetFileInfo returns blob metadata from object headers.
func (s *OSSStorage) GetFileInfo(ctx context.Context, key string) (*storage.FileInfo, error) {
	headers, err := s.bucket.GetObjectDetailedMeta(key)
	if err != nil {
		if e, ok := err.(oss.ServiceError); ok && e.StatusCode == 404 {
			return nil, &storage.NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	info := &storage.FileInfo{
		Key:         key,
		ContentType: headers.Get("Content-Type"),
	}
	fmt.Sscanf(headers.Get("Content-Length"), "%d", &info.Size)

	return info, nil
}

// GetStorageType returns the backend name
func (s *OSSStorage) GetStorageType() string {
	return string(storage.StorageTypeOSS)
}
