package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pushp314/chatbridge-backend/internal/metrics"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/storage"
)

const (
	DefaultGraphURL = "https://graph.facebook.com/v19.0"
	maxMediaBytes   = 100 << 20
)

// GraphFetcher resolves media ids through the Graph API and copies the file
// into media storage.
type GraphFetcher struct {
	client  *http.Client
	baseURL string
	token   string
	store   storage.MediaStore
	now     func() time.Time
}

func NewGraphFetcher(baseURL, token string, timeout time.Duration, store storage.MediaStore) *GraphFetcher {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	if timeout <= 0 {
		timeout = defaultMediaTimeout
	}
	return &GraphFetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		store:   store,
		now:     time.Now,
	}
}

type mediaInfo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

func (f *GraphFetcher) Fetch(ctx context.Context, kind models.MessageType, media *MediaBody) (*FetchedMedia, error) {
	fetched, err := f.fetch(ctx, kind, media)
	if err != nil {
		metrics.MediaDownloads.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.MediaDownloads.WithLabelValues("ok").Inc()
	return fetched, nil
}

func (f *GraphFetcher) fetch(ctx context.Context, kind models.MessageType, media *MediaBody) (*FetchedMedia, error) {
	if media == nil || media.ID == "" {
		return nil, fmt.Errorf("no media id")
	}

	var info mediaInfo
	infoBody, err := f.get(ctx, f.baseURL+"/"+media.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup media %s: %w", media.ID, err)
	}
	err = json.Unmarshal(infoBody, &info)
	if err != nil {
		return nil, fmt.Errorf("decode media %s: %w", media.ID, err)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("media %s has no download url", media.ID)
	}

	data, err := f.get(ctx, info.URL)
	if err != nil {
		return nil, fmt.Errorf("download media %s: %w", media.ID, err)
	}

	detected := mimetype.Detect(data)
	mimeType := media.MimeType
	if mimeType == "" {
		mimeType = info.MimeType
	}
	if mimeType == "" {
		mimeType = detected.String()
	}

	obj, err := f.store.Put(ctx, string(kind)+"s", extensionFor(kind, media, detected), bytes.NewReader(data), int64(len(data)), mimeType)
	if err != nil {
		return nil, fmt.Errorf("store media %s: %w", media.ID, err)
	}

	originalName := media.Filename
	if originalName == "" {
		originalName = filepath.Base(obj.Key)
	}
	downloadedAt := f.now().UTC()

	return &FetchedMedia{
		URL: obj.URL,
		Metadata: &models.MediaMetadata{
			OriginalName: originalName,
			URL:          info.URL,
			MimeType:     mimeType,
			Size:         int64(len(data)),
			DownloadedAt: &downloadedAt,
		},
	}, nil
}

func (f *GraphFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("media larger than %d bytes", maxMediaBytes)
	}
	return data, nil
}

func extensionFor(kind models.MessageType, media *MediaBody, detected *mimetype.MIME) string {
	switch kind {
	case models.MessageImage:
		return ".jpg"
	case models.MessageAudio:
		return ".ogg"
	case models.MessageVideo:
		return ".mp4"
	case models.MessageDocument:
		if ext := filepath.Ext(media.Filename); ext != "" {
			return ext
		}
		if ext := detected.Extension(); ext != "" {
			return ext
		}
		return ".pdf"
	}
	return detected.Extension()
}
