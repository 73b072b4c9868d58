package minio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nourabuild/account-service/internal/sdk/config"
)

type fakeClient struct {
	buckets map[string]bool
	objects map[string]string
	types   map[string]string
	err     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		buckets: map[string]bool{},
		objects: map[string]string{},
		types:   map[string]string{},
	}
}

func (f *fakeClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.buckets[bucketName], f.err
}

func (f *fakeClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	if f.err != nil {
		return f.err
	}
	f.buckets[bucketName] = true
	return nil
}

func (f *fakeClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucketName+"/"+objectName] = string(data)
	f.types[bucketName+"/"+objectName] = opts.ContentType
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (f *fakeClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	if f.err != nil {
		return f.err
	}
	delete(f.objects, bucketName+"/"+objectName)
	return nil
}

func newTestService(c objectClient) *MinioService {
	return &MinioService{client: c, bucketName: "photos", log: slog.New(slog.DiscardHandler)}
}

func TestNewMinioService(t *testing.T) {
	s, err := NewMinioService(config.Minio{Endpoint: "localhost:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "photos", s.bucketName)
}

func TestEnsureBucket(t *testing.T) {
	c := newFakeClient()
	s := newTestService(c)

	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.True(t, c.buckets["photos"])
	require.NoError(t, s.EnsureBucket(context.Background()))
}

func TestEnsureBucket_Error(t *testing.T) {
	c := newFakeClient()
	c.err = errors.New("connection refused")

	err := newTestService(c).EnsureBucket(context.Background())
	assert.ErrorIs(t, err, ErrBucketFailed)
}

func TestSaveDelete(t *testing.T) {
	c := newFakeClient()
	s := newTestService(c)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "accounts/acc-1/p.jpg", strings.NewReader("jpeg"), "image/jpeg"))
	assert.Equal(t, "jpeg", c.objects["photos/accounts/acc-1/p.jpg"])
	assert.Equal(t, "image/jpeg", c.types["photos/accounts/acc-1/p.jpg"])

	require.NoError(t, s.Delete(ctx, "accounts/acc-1/p.jpg"))
	assert.Empty(t, c.objects)
}

func TestSaveDelete_Errors(t *testing.T) {
	c := newFakeClient()
	c.err = errors.New("s3 down")
	s := newTestService(c)
	ctx := context.Background()

	assert.ErrorIs(t, s.Save(ctx, "k", strings.NewReader("x"), "image/jpeg"), ErrUploadFailed)
	assert.ErrorIs(t, s.Delete(ctx, "k"), ErrDeleteFailed)
}
