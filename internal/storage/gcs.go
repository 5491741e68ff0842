package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// ErrObjectNotFound reports a delete or fetch against an absent object.
// Callers treat it as a soft failure during cleanup.
var ErrObjectNotFound = errors.New("artifact not found")

// GCSArtifactStore persists scan images in a Google Cloud Storage bucket and
// addresses them by public object URL.
type GCSArtifactStore struct {
	client *gcs.Client
	bucket string
	logger *zap.Logger
}

// NewGCSArtifactStore builds a store over the given bucket.
func NewGCSArtifactStore(client *gcs.Client, bucket string, logger *zap.Logger) *GCSArtifactStore {
	return &GCSArtifactStore{
		client: client,
		bucket: bucket,
		logger: logger.Named("artifact_store"),
	}
}

// Put writes the blob under key and returns its durable URL.
func (s *GCSArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize artifact %s: %w", key, err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
	s.logger.Debug("artifact stored", zap.String("key", key))
	return url, nil
}

// Fetch reads back the blob addressed by url.
func (s *GCSArtifactStore) Fetch(ctx context.Context, url string) ([]byte, error) {
	key, err := s.keyFromURL(url)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open artifact %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Delete removes the blob addressed by url. An absent object reports
// ErrObjectNotFound.
func (s *GCSArtifactStore) Delete(ctx context.Context, url string) error {
	key, err := s.keyFromURL(url)
	if err != nil {
		return err
	}

	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("failed to delete artifact %s: %w", key, err)
	}
	s.logger.Debug("artifact deleted", zap.String("key", key))
	return nil
}

func (s *GCSArtifactStore) keyFromURL(url string) (string, error) {
	marker := s.bucket + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", fmt.Errorf("artifact url %q does not belong to bucket %s", url, s.bucket)
	}
	key := url[idx+len(marker):]
	if key == "" {
		return "", fmt.Errorf("artifact url %q has no object key", url)
	}
	return key, nil
}
