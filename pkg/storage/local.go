package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps files on disk, for development and single-node
// deployments. URLs point at the static file route served by the API.
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

func (l *LocalStorage) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	filePath := filepath.Join(l.basePath, req.Key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, req.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResponse{
		Key:      req.Key,
		URL:      l.generateURL(req.Key),
		Size:     size,
		Location: filePath,
	}, nil
}

func (l *LocalStorage) Download(ctx context.Context, key string) (*DownloadResponse, error) {
	filePath := filepath.Join(l.basePath, key)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return &DownloadResponse{
		Reader:       file,
		Size:         stat.Size(),
		ContentType:  contentTypeFor(key),
		LastModified: stat.ModTime(),
	}, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(l.basePath, key))
}

// GetURL ignores expiration, local files have no presigning.
func (l *LocalStorage) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return l.generateURL(key), nil
}

func (l *LocalStorage) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.basePath, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (l *LocalStorage) generateURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(l.baseURL, "/"), key)
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
