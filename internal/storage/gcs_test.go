package storage

import (
	"testing"

	"go.uber.org/zap"
)

func TestKeyFromURL(t *testing.T) {
	store := &GCSArtifactStore{bucket: "argotrack-scans", logger: zap.NewNop()}

	key, err := store.keyFromURL("https://storage.googleapis.com/argotrack-scans/1717000000_ab12cd34_tomato.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "1717000000_ab12cd34_tomato.png" {
		t.Fatalf("unexpected key: %q", key)
	}
}

func TestKeyFromURLRejectsForeignBucket(t *testing.T) {
	store := &GCSArtifactStore{bucket: "argotrack-scans", logger: zap.NewNop()}

	if _, err := store.keyFromURL("https://storage.googleapis.com/other-bucket/file.png"); err == nil {
		t.Fatal("expected error for url outside the configured bucket")
	}
}

func TestKeyFromURLRejectsEmptyKey(t *testing.T) {
	store := &GCSArtifactStore{bucket: "argotrack-scans", logger: zap.NewNop()}

	if _, err := store.keyFromURL("https://storage.googleapis.com/argotrack-scans/"); err == nil {
		t.Fatal("expected error for url with no object key")
	}
}
