package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes media under a directory served at /uploads
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, publicURL string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(publicURL, "/") + "/uploads",
	}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, folder, ext string, body io.Reader, size int64, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := objectKey(folder, ext)
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	written, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("write media file: %w", err)
	}

	if size <= 0 {
		size = written
	}
	return &Object{
		Key:         key,
		URL:         s.baseURL + "/" + key,
		ContentType: contentType,
		Size:        size,
	}, nil
}
