package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Put(ctx context.Context, obj Object) (string, error) {
	if obj.Key == "" {
		return "", ErrEmptyKey
	}
	w := g.client.Bucket(g.bucket).Object(obj.Key).NewWriter(ctx)
	w.ContentType = obj.ContentType
	if _, err := io.Copy(w, obj.Body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", obj.Key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", obj.Key, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, obj.Key), nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
