// Package storage wraps the MinIO client used to archive rendered document
// output.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// RenderStore keeps rendered output in an object-storage bucket.
type RenderStore struct {
	client *minio.Client
	bucket string
}

// NewRenderStore creates the MinIO client and ensures the bucket exists.
func NewRenderStore(cfg *MinIOConfig) (*RenderStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &RenderStore{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// PutRendered stores one rendered document under key and returns its size.
func (s *RenderStore) PutRendered(ctx context.Context, key, rendered, contentType string) error {
	r := strings.NewReader(rendered)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, int64(r.Len()), minio.PutObjectOptions{ContentType: contentType})
	return err
}

// GetRendered returns a ReadCloser for a stored render.
func (s *RenderStore) GetRendered(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// stat to surface not-found before the caller starts reading
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedURL returns a presigned GET URL valid for the given duration.
func (s *RenderStore) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
