package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/realtime"
	"github.com/pushp314/chatbridge-backend/internal/services"
	"github.com/pushp314/chatbridge-backend/internal/store"
	"github.com/pushp314/chatbridge-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type stubFetcher struct {
	calls int
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, kind models.MessageType, media *MediaBody) (*FetchedMedia, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &FetchedMedia{
		URL:      "/uploads/" + string(kind) + "s/" + media.ID,
		Metadata: &models.MediaMetadata{OriginalName: media.Filename, MimeType: media.MimeType},
	}, nil
}

func newTestAdapter(t *testing.T, fetcher MediaFetcher) (*gorm.DB, *Adapter) {
	t.Helper()
	db := testutil.NewDB(t)
	registry := realtime.NewRegistry()
	msgs := services.NewMessageService(
		store.NewMessageStore(db),
		store.NewUserStore(db),
		realtime.NewDispatcher(registry, zerolog.Nop()),
		zerolog.Nop(),
	)
	a := NewAdapter(store.NewUserStore(db), msgs, fetcher, Options{VerifyToken: "secret-token"}, zerolog.Nop())
	return db, a
}

func decodePayload(t *testing.T, raw string) *Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "contacts": [{"wa_id": "51900000001", "profile": {"name": "%s"}}],
        "messages": [{"id": "wamid.%s", "from": "51900000001", "type": "text", "text": {"body": "hola"}}]
      }
    }]
  }]
}`

func textPayloadFor(name, id string) string {
	return fmt.Sprintf(textPayload, name, id)
}

func TestProcess_TextRoundTripCreatesAndRenamesContact(t *testing.T) {
	db, a := newTestAdapter(t, &stubFetcher{})
	ctx := context.Background()

	res := a.Process(ctx, decodePayload(t, textPayloadFor("Ana", "1")))
	assert.Equal(t, BatchResult{Received: 1, Created: 1}, res)

	users := store.NewUserStore(db)
	ana, err := users.GetByContact(ctx, "51900000001")
	require.NoError(t, err)
	assert.Equal(t, "Ana", ana.Name)
	assert.Equal(t, models.RoleContact, ana.Role)
	assert.Equal(t, models.SourceWhatsApp, ana.Source)
	_, err = bcrypt.Cost([]byte(ana.Password))
	assert.NoError(t, err, "password must be a bcrypt hash")

	msgs, err := store.NewMessageStore(db).ListInbound(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hola", *msgs[0].Content)
	assert.Equal(t, models.MessageText, msgs[0].Type)
	assert.Nil(t, msgs[0].ReceiverID)

	res = a.Process(ctx, decodePayload(t, textPayloadFor("Ana Maria", "2")))
	assert.Equal(t, 1, res.Created)

	renamed, err := users.GetByContact(ctx, "51900000001")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, renamed.ID)
	assert.Equal(t, "Ana Maria", renamed.Name)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProcess_IgnoresOtherObjects(t *testing.T) {
	_, a := newTestAdapter(t, &stubFetcher{})

	res := a.Process(context.Background(), &Payload{Object: "page"})
	assert.Equal(t, BatchResult{}, res)

	res = a.Process(context.Background(), nil)
	assert.Equal(t, BatchResult{}, res)
}

func TestProcess_BatchMessagesAreIndependent(t *testing.T) {
	db, a := newTestAdapter(t, &stubFetcher{})

	raw := `{
	  "object": "whatsapp_business_account",
	  "entry": [{"changes": [{"value": {
	    "contacts": [{"wa_id": "51911111111", "profile": {"name": "Luis"}}],
	    "messages": [
	      {"id": "m1", "from": "51911111111", "type": "sticker", "sticker": {"id": "s1"}},
	      {"id": "m2", "from": "51911111111", "type": "text", "text": {"body": "primero"}},
	      {"id": "", "from": "51911111111", "type": "text", "text": {"body": "no id"}},
	      {"id": "m4", "from": "51911111111", "type": "text", "text": {"body": "<script>x</script>"}},
	      {"id": "m5", "from": "51911111111", "type": "document", "document": {"id": "d1", "filename": "factura.pdf", "mime_type": "application/pdf"}}
	    ]
	  }}]}]
	}`

	res := a.Process(context.Background(), decodePayload(t, raw))
	assert.Equal(t, BatchResult{Received: 5, Created: 3, Skipped: 2}, res)

	user, err := store.NewUserStore(db).GetByContact(context.Background(), "51911111111")
	require.NoError(t, err)
	msgs, err := store.NewMessageStore(db).ListInbound(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	var doc *models.Message
	for i := range msgs {
		if msgs[i].Type == models.MessageDocument {
			doc = &msgs[i]
		}
	}
	require.NotNil(t, doc)
	assert.Equal(t, "factura.pdf", *doc.Content)
	require.NotNil(t, doc.MediaURL)
	assert.Equal(t, "/uploads/documents/d1", *doc.MediaURL)
	require.NotNil(t, doc.Metadata)
	assert.Equal(t, "application/pdf", doc.Metadata.MimeType)
}

func TestProcess_StoresProviderTextVerbatim(t *testing.T) {
	cases := []struct {
		name    string
		msg     InboundMessage
		fetcher *stubFetcher
		content string
	}{
		{"comparison operators", InboundMessage{Type: "text", Text: &TextBody{Body: "x < 5 and y > 3"}}, &stubFetcher{}, "x < 5 and y > 3"},
		{"tag-like text", InboundMessage{Type: "text", Text: &TextBody{Body: "<hola>"}}, &stubFetcher{}, "<hola>"},
		{"script-like text", InboundMessage{Type: "text", Text: &TextBody{Body: "<script>x</script>"}}, &stubFetcher{}, "<script>x</script>"},
		{"markup caption with failed download", InboundMessage{Type: "image", Image: &MediaBody{ID: "img-1", Caption: "<3>"}}, &stubFetcher{err: errors.New("graph down")}, "<3>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, a := newTestAdapter(t, tc.fetcher)
			ctx := context.Background()

			tc.msg.ID = "wamid.1"
			tc.msg.From = "51944444444"
			payload := &Payload{
				Object: ObjectBusinessAccount,
				Entry: []Entry{{Changes: []Change{{Value: Value{
					Contacts: []Contact{{WaID: "51944444444"}},
					Messages: []InboundMessage{tc.msg},
				}}}}},
			}

			res := a.Process(ctx, payload)
			require.Equal(t, BatchResult{Received: 1, Created: 1}, res)

			user, err := store.NewUserStore(db).GetByContact(ctx, "51944444444")
			require.NoError(t, err)
			msgs, err := store.NewMessageStore(db).ListInbound(ctx, user.ID)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			require.NotNil(t, msgs[0].Content)
			assert.Equal(t, tc.content, *msgs[0].Content)
			if tc.fetcher.err != nil {
				assert.Nil(t, msgs[0].MediaURL)
			}
		})
	}
}

func TestNormalize_MediaFailureKeepsPlaceholder(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("graph timeout")}
	_, a := newTestAdapter(t, fetcher)

	contact := Contact{WaID: "51922222222"}
	req, err := a.Normalize(context.Background(), contact, InboundMessage{
		ID:    "m1",
		Type:  "image",
		Image: &MediaBody{ID: "img-1", MimeType: "image/jpeg"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "image", req.Type)
	assert.Equal(t, "Image received", *req.Content)
	assert.Nil(t, req.MediaURL)
	assert.Nil(t, req.Metadata)
	assert.Nil(t, req.ReceiverID)
	assert.Equal(t, services.OriginInbound, req.Origin)
}

func TestNormalize_DefaultsAndFallbacks(t *testing.T) {
	db, a := newTestAdapter(t, nil)
	ctx := context.Background()

	req, err := a.Normalize(ctx, Contact{}, InboundMessage{ID: "m1", From: "51933333333", Type: "AUDIO", Audio: &MediaBody{ID: "a1"}})
	require.NoError(t, err)
	assert.Equal(t, "audio", req.Type)
	assert.Equal(t, "Audio received", *req.Content)

	user, err := store.NewUserStore(db).GetByContact(ctx, "51933333333")
	require.NoError(t, err)
	assert.Equal(t, DefaultContactName, user.Name)
	assert.Equal(t, user.ID, req.SenderID)

	_, err = a.Normalize(ctx, Contact{}, InboundMessage{ID: "m2", Type: "text"})
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = a.Normalize(ctx, Contact{WaID: "51933333333"}, InboundMessage{ID: "m3", Type: "location"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestContentFor(t *testing.T) {
	cases := []struct {
		msg  InboundMessage
		want string
	}{
		{InboundMessage{Type: "text", Text: &TextBody{Body: "hola"}}, "hola"},
		{InboundMessage{Type: "image", Image: &MediaBody{Caption: "foto"}}, "foto"},
		{InboundMessage{Type: "image", Image: &MediaBody{}}, "Image received"},
		{InboundMessage{Type: "video", Video: &MediaBody{Caption: " "}}, "Video received"},
		{InboundMessage{Type: "audio", Audio: &MediaBody{}}, "Audio received"},
		{InboundMessage{Type: "document", Document: &MediaBody{Filename: "a.pdf"}}, "a.pdf"},
		{InboundMessage{Type: "document"}, "Document received"},
	}
	for _, tc := range cases {
		kind, err := models.ParseMessageType(tc.msg.Type)
		require.NoError(t, err)
		assert.Equal(t, tc.want, contentFor(kind, tc.msg), tc.msg.Type)
	}
}
