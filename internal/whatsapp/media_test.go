package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func newGraphServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/img-1":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":        "img-1",
				"url":       srv.URL + "/files/img-1",
				"mime_type": "image/png",
			})
		case r.URL.Path == "/doc-1":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":  "doc-1",
				"url": srv.URL + "/files/doc-1",
			})
		case r.URL.Path == "/slow":
			time.Sleep(500 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/files/img-1"):
			w.Write(pngBytes)
		case strings.HasPrefix(r.URL.Path, "/files/doc-1"):
			w.Write([]byte("%PDF-1.4\n%%EOF"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGraphFetcher_DownloadsIntoStorage(t *testing.T) {
	srv := newGraphServer(t, "wa-token")
	dir := t.TempDir()
	f := NewGraphFetcher(srv.URL, "wa-token", time.Second, storage.NewLocalStore(dir, ""))

	got, err := f.Fetch(context.Background(), models.MessageImage, &MediaBody{ID: "img-1"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got.URL, "/uploads/images/"))
	assert.True(t, strings.HasSuffix(got.URL, ".jpg"))
	assert.Equal(t, "image/png", got.Metadata.MimeType)
	assert.Equal(t, srv.URL+"/files/img-1", got.Metadata.URL)
	assert.Equal(t, int64(len(pngBytes)), got.Metadata.Size)
	assert.NotNil(t, got.Metadata.DownloadedAt)

	key := strings.TrimPrefix(got.URL, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestGraphFetcher_DocumentSniffsMimeType(t *testing.T) {
	srv := newGraphServer(t, "wa-token")
	f := NewGraphFetcher(srv.URL, "wa-token", time.Second, storage.NewLocalStore(t.TempDir(), ""))

	got, err := f.Fetch(context.Background(), models.MessageDocument, &MediaBody{ID: "doc-1", Filename: "Contrato.PDF"})
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", got.Metadata.MimeType)
	assert.Equal(t, "Contrato.PDF", got.Metadata.OriginalName)
	assert.True(t, strings.HasSuffix(got.URL, ".pdf"))
}

func TestGraphFetcher_Failures(t *testing.T) {
	srv := newGraphServer(t, "wa-token")
	store := storage.NewLocalStore(t.TempDir(), "")

	_, err := NewGraphFetcher(srv.URL, "wrong", time.Second, store).Fetch(context.Background(), models.MessageImage, &MediaBody{ID: "img-1"})
	assert.Error(t, err)

	_, err = NewGraphFetcher(srv.URL, "wa-token", time.Second, store).Fetch(context.Background(), models.MessageImage, &MediaBody{ID: "missing"})
	assert.Error(t, err)

	_, err = NewGraphFetcher(srv.URL, "wa-token", 50*time.Millisecond, store).Fetch(context.Background(), models.MessageImage, &MediaBody{ID: "slow"})
	assert.Error(t, err)

	_, err = NewGraphFetcher(srv.URL, "wa-token", time.Second, store).Fetch(context.Background(), models.MessageImage, nil)
	assert.Error(t, err)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".ogg", extensionFor(models.MessageAudio, &MediaBody{}, nil))
	assert.Equal(t, ".mp4", extensionFor(models.MessageVideo, &MediaBody{}, nil))
	assert.Equal(t, ".docx", extensionFor(models.MessageDocument, &MediaBody{Filename: "cv.docx"}, nil))
}
