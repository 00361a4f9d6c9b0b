package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local writes objects under a directory that the HTTP server exposes at prefix.
type Local struct {
	dir    string
	prefix string
}

func NewLocal(dir, prefix string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if prefix == "" {
		prefix = "/uploads"
	}
	return &Local{dir: dir, prefix: "/" + strings.Trim(prefix, "/")}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) path(bucket, key string) (string, string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	bucket, err = cleanKey(bucket)
	if err != nil {
		return "", "", err
	}
	rel := bucket + "/" + key
	return filepath.Join(l.dir, filepath.FromSlash(rel)), rel, nil
}

func (l *Local) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (string, error) {
	full, rel, err := l.path(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return l.prefix + "/" + rel, nil
}

func (l *Local) Delete(ctx context.Context, bucket, key string) error {
	full, _, err := l.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
