// Package publish uploads exported files to S3-compatible object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"schedsnap/internal/config"
	appLog "schedsnap/internal/log"
)

// ErrDisabled is returned when publishing is requested but no storage
// endpoint is configured.
var ErrDisabled = errors.New("publishing is not configured")

// objectPutter is the part of *minio.Client the publisher needs.
type objectPutter interface {
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher pushes files into one bucket under an optional prefix.
type Publisher struct {
	client objectPutter
	bucket string
	prefix string
}

// New creates a Publisher from configuration. It returns ErrDisabled when
// the endpoint or bucket is missing.
func New(cfg config.PublishConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newPublisher(client, cfg.Bucket, cfg.Prefix), nil
}

func newPublisher(client objectPutter, bucket, prefix string) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey returns the key a local file is stored under.
func (p *Publisher) ObjectKey(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}

// Publish uploads the file at localPath and returns its object key.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	if p == nil {
		return "", ErrDisabled
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", localPath, err)
	}

	key := p.ObjectKey(localPath)
	_, err = p.client.PutObject(ctx, p.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	appLog.Info("published", "bucket", p.bucket, "key", key, "bytes", info.Size())
	return key, nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".json":
		return "application/json"
	case ".ics":
		return "text/calendar; charset=utf-8"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
