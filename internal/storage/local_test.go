package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pushp314/chatbridge-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "https://api.example.com/")

	obj, err := s.Put(context.Background(), "chat", "PNG", strings.NewReader("pixels"), 0, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.Key, "chat/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, "https://api.example.com/uploads/"+obj.Key, obj.URL)
	assert.Equal(t, int64(6), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(obj.Key)))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestLocalStoreKeepsKeysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "")

	obj, err := s.Put(context.Background(), "../../etc", ".txt", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+obj.Key, obj.URL)
	assert.True(t, strings.HasPrefix(obj.Key, "etc/"))

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(obj.Key)))
	assert.NoError(t, err)
}

func TestLocalStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalStore(t.TempDir(), "").Put(ctx, "chat", ".txt", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(context.Background(), &config.Config{StorageDriver: "local", UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(context.Background(), &config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Config{StorageDriver: "r2"})
	assert.Error(t, err)
}
