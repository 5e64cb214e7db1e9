// Package objectstore talks to an S3-compatible backend (AWS S3, MinIO).
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resize4me/internal/models"
)

const (
	aclHeader  = "x-amz-acl"
	publicRead = "public-read"
	metaPrefix = "x-amz-meta-"
)

type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg models.StorageConfig) (*MinioStore, error) {
	const op = "objectstore.NewMinioStore"

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &MinioStore{client: client}, nil
}

func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.client.BucketExists(ctx, bucket)
}

// Stat returns the user metadata of an object without reading its body.
func (s *MinioStore) Stat(ctx context.Context, bucket, key string) (map[string]string, error) {
	const op = "objectstore.Stat"

	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %s/%s: %w", op, bucket, key, err)
	}
	return normalizeMetadata(info.UserMetadata), nil
}

func (s *MinioStore) Get(ctx context.Context, bucket, key string) (*models.Object, error) {
	const op = "objectstore.Get"

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %s/%s: %w", op, bucket, key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("%s: %s/%s: %w", op, bucket, key, err)
	}
	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("%s: %s/%s: %w", op, bucket, key, err)
	}

	return &models.Object{
		Body:        body,
		ContentType: info.ContentType,
		Metadata:    normalizeMetadata(info.UserMetadata),
	}, nil
}

// Put writes body under bucket/key with a public-read ACL and the given user metadata.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[aclHeader] = publicRead

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func normalizeMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.TrimPrefix(strings.ToLower(k), metaPrefix)] = v
	}
	return out
}
