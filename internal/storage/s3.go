package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const s3KeyPrefix = "images/"

// S3Store uploads blobs to an S3-compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewS3Store connects to the endpoint and creates the bucket if it is missing.
func NewS3Store(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, log *zap.Logger) (*S3Store, error) {
	log = log.Named("s3_store")
	log.Info("initializing s3 storage", zap.String("endpoint", endpoint), zap.String("bucket", bucket), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, err)
		}
		log.Info("created bucket", zap.String("bucket", bucket))
	}

	return &S3Store{client: client, bucket: bucket, log: log}, nil
}

// Save puts the object and returns <endpoint>/<bucket>/<key>.
func (s *S3Store) Save(ctx context.Context, upload Upload) (string, error) {
	key := s3KeyPrefix + objectName(upload.Filename)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(upload.Data), int64(len(upload.Data)), minio.PutObjectOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", key, s.bucket, err)
	}
	s.log.Debug("uploaded image", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key), nil
}
