package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio stores uploads in an object bucket. The analyzer always works on
// the local temp copy, so this store never needs a download path.
type Minio struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinio connects to MinIO and ensures the bucket exists.
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Minio, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Minio{client: cli, bucket: bucket, region: region}, nil
}

// Client exposes the underlying connection for health checks.
func (s *Minio) Client() *minio.Client { return s.client }

// Bucket returns the configured bucket name.
func (s *Minio) Bucket() string { return s.bucket }

// Save uploads the buffered file under storedName and returns the object
// URL. Works only with a public-read bucket; a private bucket would need
// presigned URLs.
func (s *Minio) Save(ctx context.Context, localPath, storedName string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.bucket, storedName, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(storedName),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", storedName, err)
	}

	u := s.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, s.bucket, storedName), nil
}

// Remove deletes a stored upload, used as compensating cleanup.
func (s *Minio) Remove(ctx context.Context, storedName string) error {
	return s.client.RemoveObject(ctx, s.bucket, storedName, minio.RemoveObjectOptions{})
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
