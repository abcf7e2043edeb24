package storage

import (
	"context"
	"io"
	"time"
)

// Provider persists uploaded files such as profile photos, vehicle
// documents and garage inspection images. The backing store is chosen
// at startup from configuration (s3, gcs or local).
type Provider interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error)
	Download(ctx context.Context, key string) (*DownloadResponse, error)
	Delete(ctx context.Context, key string) error
	GetURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	FileExists(ctx context.Context, key string) (bool, error)
}

type UploadRequest struct {
	Key         string            `json:"key"`
	Reader      io.Reader         `json:"-"`
	ContentType string            `json:"content_type"`
	Size        int64             `json:"size"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type UploadResponse struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	ETag     string `json:"etag,omitempty"`
	Location string `json:"location,omitempty"`
}

type DownloadResponse struct {
	Reader       io.ReadCloser     `json:"-"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	ETag         string            `json:"etag,omitempty"`
}
