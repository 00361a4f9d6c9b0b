package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "uploads/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	url, err := store.Upload(context.Background(), "ad-media", "owner/ad/file.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "/uploads/ad-media/owner/ad/file.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	full := filepath.Join(dir, "ad-media", "owner", "ad", "file.jpg")
	if data, err := os.ReadFile(full); err != nil || string(data) != "jpeg" {
		t.Fatalf("file not written: %v %q", err, data)
	}

	if err := store.Delete(context.Background(), "ad-media", "owner/ad/file.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err=%v", err)
	}
	if err := store.Delete(context.Background(), "ad-media", "owner/ad/file.jpg"); err != nil {
		t.Fatalf("deleting a missing object should be a no-op: %v", err)
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, _ := NewLocal(t.TempDir(), "")
	for _, key := range []string{"../escape.jpg", "a/../../b.jpg", ""} {
		if _, err := store.Upload(context.Background(), "avatars", key, strings.NewReader("x"), 1, "image/png"); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
}
