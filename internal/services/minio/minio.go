// Package minio provides S3-compatible object storage using MinIO.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nourabuild/account-service/internal/sdk/config"
)

var (
	ErrUploadFailed = errors.New("upload failed")
	ErrDeleteFailed = errors.New("delete failed")
	ErrBucketFailed = errors.New("bucket setup failed")
)

// objectClient is the subset of *minio.Client the service relies on.
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinioService struct {
	client     objectClient
	bucketName string
	log        *slog.Logger
}

func NewMinioService(cfg config.Minio, log *slog.Logger) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &MinioService{
		client:     client,
		bucketName: cfg.Bucket,
		log:        log,
	}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBucketFailed, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrBucketFailed, err)
	}
	s.log.Info("bucket created", "bucket", s.bucketName)
	return nil
}

// Save uploads r under objectName. The size is unknown up front, so the
// client streams it as a multipart upload.
func (s *MinioService) Save(ctx context.Context, objectName string, r io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

// Delete removes objectName. Removing a missing object succeeds.
func (s *MinioService) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}
