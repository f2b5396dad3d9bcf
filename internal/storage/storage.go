// Package storage keeps uploaded and downloaded media, either on local disk or
// in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pushp314/chatbridge-backend/internal/config"
	"github.com/pushp314/chatbridge-backend/pkg/utils"
)

// Object describes a stored file
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"mimetype"`
	Size        int64  `json:"size"`
}

// MediaStore persists media and returns a public URL for it
type MediaStore interface {
	Put(ctx context.Context, folder, ext string, body io.Reader, size int64, contentType string) (*Object, error)
}

// New builds the store selected by STORAGE_DRIVER
func New(ctx context.Context, cfg *config.Config) (MediaStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.PublicMediaURL), nil
	case "r2", "s3":
		return NewR2Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// objectKey builds "<folder>/<random id><ext>"
func objectKey(folder, ext string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		folder = "uploads"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%s%s", folder, utils.GenerateID(), strings.ToLower(ext))
}
