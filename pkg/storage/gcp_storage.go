package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStorage struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func NewGCSStorage(bucket, credentialsFile, cdnDomain string) (*GCSStorage, error) {
	ctx := context.Background()

	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client:    client,
		bucket:    bucket,
		cdnDomain: cdnDomain,
	}, nil
}

func (g *GCSStorage) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	object := g.client.Bucket(g.bucket).Object(req.Key)

	writer := object.NewWriter(ctx)
	writer.ContentType = req.ContentType
	if len(req.Metadata) > 0 {
		writer.Metadata = req.Metadata
	}

	size, err := io.Copy(writer, req.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return &UploadResponse{
		Key:  req.Key,
		URL:  g.generateURL(req.Key),
		Size: size,
	}, nil
}

func (g *GCSStorage) Download(ctx context.Context, key string) (*DownloadResponse, error) {
	object := g.client.Bucket(g.bucket).Object(key)

	reader, err := object.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}

	attrs, err := object.Attrs(ctx)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("failed to get object attributes: %w", err)
	}

	return &DownloadResponse{
		Reader:       reader,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		Metadata:     attrs.Metadata,
		LastModified: attrs.Updated,
		ETag:         attrs.Etag,
	}, nil
}

func (g *GCSStorage) Delete(ctx context.Context, key string) error {
	if err := g.client.Bucket(g.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

func (g *GCSStorage) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiration),
	}

	url, err := storage.SignedURL(g.bucket, key, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return url, nil
}

func (g *GCSStorage) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *GCSStorage) generateURL(key string) string {
	if g.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", g.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key)
}
